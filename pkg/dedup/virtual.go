package dedup

import (
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

type entry struct {
	owner      string
	insertedAt time.Time
}

type virtualTracker struct {
	mutex         sync.Mutex
	entries       map[string]entry
	ttl           time.Duration
	sweepInterval time.Duration
	stop          chan chan struct{}
	now           func() time.Time
	logger        log.Logger
}

func newVirtualTracker(ttl, sweepInterval time.Duration, logger log.Logger) *virtualTracker {
	return &virtualTracker{
		entries:       make(map[string]entry),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		stop:          make(chan chan struct{}),
		now:           time.Now,
		logger:        logger,
	}
}

func (t *virtualTracker) CheckAndMark(key, owner string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if e, ok := t.entries[key]; ok {
		if !t.expired(e) {
			return false
		}
		// Lazy eviction on read.
		delete(t.entries, key)
	}

	t.entries[key] = entry{
		owner:      owner,
		insertedAt: t.now(),
	}
	return true
}

func (t *virtualTracker) Unmark(key string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	delete(t.entries, key)
}

func (t *virtualTracker) IsProcessed(key string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return false
	}
	if t.expired(e) {
		delete(t.entries, key)
		return false
	}
	return true
}

// Run sweeps expired entries on an interval. Run returns when Stop is
// invoked.
func (t *virtualTracker) Run() {
	step := time.NewTicker(t.sweepInterval)
	defer step.Stop()

	for {
		select {
		case <-step.C:
			if amount := t.sweep(); amount > 0 {
				level.Debug(t.logger).Log("state", "sweep", "evicted", amount)
			}

		case q := <-t.stop:
			close(q)
			return
		}
	}
}

// Stop the tracker from sweeping.
func (t *virtualTracker) Stop() {
	q := make(chan struct{})
	t.stop <- q
	<-q
}

func (t *virtualTracker) sweep() (amount int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for key, e := range t.entries {
		if t.expired(e) {
			delete(t.entries, key)
			amount++
		}
	}
	return
}

func (t *virtualTracker) expired(e entry) bool {
	return t.now().Sub(e.insertedAt) >= t.ttl
}

// Len returns the number of tracked keys, expired or not.
func (t *virtualTracker) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.entries)
}
