package breaker

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 2
	defaultTimeout          = time.Minute
)

// ErrOpen is returned when the breaker rejects a call without invoking the
// wrapped operation.
var ErrOpen = errors.New("circuit breaker open")

// State describes the position of the breaker.
type State int

const (
	// Closed lets calls through, counting failures.
	Closed State = iota

	// Open rejects calls until the timeout elapses.
	Open

	// HalfOpen lets probe calls through, counting successes.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker guards a downstream call. It moves from Closed to Open
// after enough failures, probes the downstream again after a timeout via
// HalfOpen, and closes once enough probes succeed. It is safe for
// concurrent use.
type CircuitBreaker struct {
	mutex            sync.Mutex
	state            State
	failureCount     int
	successCount     int
	nextAttempt      time.Time
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	now              func() time.Time
}

// Option defines a option for generating a CircuitBreaker
type Option func(*CircuitBreaker)

// WithFailureThreshold sets how many failures open the breaker.
func WithFailureThreshold(threshold int) Option {
	return func(b *CircuitBreaker) {
		b.failureThreshold = threshold
	}
}

// WithSuccessThreshold sets how many half-open successes close the breaker.
func WithSuccessThreshold(threshold int) Option {
	return func(b *CircuitBreaker) {
		b.successThreshold = threshold
	}
}

// WithTimeout sets how long the breaker stays open before probing.
func WithTimeout(timeout time.Duration) Option {
	return func(b *CircuitBreaker) {
		b.timeout = timeout
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *CircuitBreaker) {
		b.now = now
	}
}

// New creates a CircuitBreaker in the closed state.
func New(options ...Option) *CircuitBreaker {
	breaker := &CircuitBreaker{
		state:            Closed,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
		timeout:          defaultTimeout,
		now:              time.Now,
	}
	for _, option := range options {
		option(breaker)
	}
	return breaker
}

// State returns the breaker's current position, accounting for an elapsed
// open timeout.
func (b *CircuitBreaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.state == Open && !b.now().Before(b.nextAttempt) {
		return HalfOpen
	}
	return b.state
}

// Run invokes the operation under the breaker's protection. While open and
// before the next attempt time it returns ErrOpen without invoking the
// operation.
func (b *CircuitBreaker) Run(operation func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	if err := operation(); err != nil {
		b.failure()
		return err
	}

	b.success()
	return nil
}

func (b *CircuitBreaker) admit() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.state != Open {
		return nil
	}
	if b.now().Before(b.nextAttempt) {
		return ErrOpen
	}

	b.transition(HalfOpen)
	return nil
}

func (b *CircuitBreaker) success() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case Closed:
		b.failureCount = 0
	case HalfOpen:
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.transition(Closed)
		}
	}
}

func (b *CircuitBreaker) failure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case Closed:
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.transition(Open)
		}
	case HalfOpen:
		b.transition(Open)
	}
}

// transition moves the breaker to a new state, resetting counters per the
// state table. Callers must hold the mutex.
func (b *CircuitBreaker) transition(state State) {
	b.state = state

	switch state {
	case Closed:
		b.failureCount = 0
		b.successCount = 0
		b.nextAttempt = time.Time{}
	case Open:
		b.successCount = 0
		b.nextAttempt = b.now().Add(b.timeout)
	case HalfOpen:
		b.failureCount = 0
		b.successCount = 0
	}
}
