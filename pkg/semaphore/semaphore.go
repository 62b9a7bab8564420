package semaphore

import "sync"

const defaultCapacity = 10

// Semaphore bounds the number of simultaneously in-flight tasks. Callers
// blocked on a full semaphore are admitted strictly in the order they
// arrived; there is no priority and no preemption.
type Semaphore struct {
	mutex    sync.Mutex
	capacity int
	inflight int
	waiters  []chan struct{}
}

// New creates a Semaphore with the given capacity. A capacity below one
// falls back to the default.
func New(capacity int) *Semaphore {
	if capacity < 1 {
		capacity = defaultCapacity
	}
	return &Semaphore{
		capacity: capacity,
	}
}

// Capacity returns the configured bound.
func (s *Semaphore) Capacity() int {
	return s.capacity
}

// InFlight returns the number of currently admitted tasks.
func (s *Semaphore) InFlight() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.inflight
}

// Acquire blocks until a slot is free, joining a FIFO queue when the
// semaphore is at capacity.
func (s *Semaphore) Acquire() {
	s.mutex.Lock()
	if s.inflight < s.capacity {
		s.inflight++
		s.mutex.Unlock()
		return
	}

	wait := make(chan struct{})
	s.waiters = append(s.waiters, wait)
	s.mutex.Unlock()

	<-wait
}

// Release frees a slot, handing it to the oldest waiter if one exists.
func (s *Semaphore) Release() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.waiters) > 0 {
		wait := s.waiters[0]
		s.waiters = s.waiters[1:]
		// The slot passes directly to the waiter; inflight stays put.
		close(wait)
		return
	}

	if s.inflight > 0 {
		s.inflight--
	}
}

// Do runs the task inside an acquired slot. The slot is released on every
// exit path, including a panicking task.
func (s *Semaphore) Do(task func() error) error {
	s.Acquire()
	defer s.Release()

	return task()
}
