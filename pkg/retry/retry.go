package retry

import (
	"math/rand"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/trussle/relay/pkg/models"
)

const (
	defaultInitialDelay = 100 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
	defaultMultiplier   = 2.0
	defaultJitter       = 0.1
	defaultMaxAttempts  = 3
)

// Strategy describes how long to back off between attempts. The delay for
// attempt n (1-indexed) is min(MaxDelay, InitialDelay×Multiplier^(n-1)),
// widened by a symmetric jitter fraction of the capped value.
type Strategy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
}

// DefaultStrategy returns the stock backoff bounds.
func DefaultStrategy() Strategy {
	return Strategy{
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
		Multiplier:   defaultMultiplier,
		Jitter:       defaultJitter,
	}
}

// Delay computes the backoff for a 1-indexed attempt number.
func (s Strategy) Delay(attempt int, rnd *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(s.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay = delay * s.Multiplier
		if delay >= float64(s.MaxDelay) {
			break
		}
	}
	if delay > float64(s.MaxDelay) {
		delay = float64(s.MaxDelay)
	}

	if s.Jitter > 0 {
		// Symmetric jitter around the capped delay.
		delay = delay * (1 - s.Jitter + 2*s.Jitter*rnd.Float64())
	}
	return time.Duration(delay)
}

// Executor runs operations with bounded attempts and classified backoff.
type Executor struct {
	strategy    Strategy
	maxAttempts int
	sleep       func(time.Duration)
	rnd         *rand.Rand
	logger      log.Logger
}

// Option defines a option for generating an Executor
type Option func(*Executor)

// WithStrategy overrides the backoff strategy.
func WithStrategy(strategy Strategy) Option {
	return func(e *Executor) {
		e.strategy = strategy
	}
}

// WithMaxAttempts overrides the default attempt budget.
func WithMaxAttempts(maxAttempts int) Option {
	return func(e *Executor) {
		e.maxAttempts = maxAttempts
	}
}

// WithSleep overrides how the executor waits between attempts.
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// New creates an Executor with the default strategy and attempt budget.
func New(logger log.Logger, options ...Option) *Executor {
	executor := &Executor{
		strategy:    DefaultStrategy(),
		maxAttempts: defaultMaxAttempts,
		sleep:       time.Sleep,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      logger,
	}
	for _, option := range options {
		option(executor)
	}
	return executor
}

// MaxAttempts returns the configured attempt budget.
func (e *Executor) MaxAttempts() int {
	return e.maxAttempts
}

// Execute runs the operation until it succeeds, is classified as
// non-retryable, or the attempt budget is exhausted. It returns the number
// of attempts made along with the last error. There is no delay after the
// final attempt.
func (e *Executor) Execute(operation func() error) (int, error) {
	var err error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err = operation(); err == nil {
			return attempt, nil
		}

		switch kind := KindOf(err); kind {
		case models.Retryable:
			if attempt == e.maxAttempts {
				return attempt, err
			}
			delay := e.strategy.Delay(attempt, e.rnd)
			level.Debug(e.logger).Log("state", "backoff", "attempt", attempt, "delay", delay, "err", err)
			e.sleep(delay)
		default:
			level.Debug(e.logger).Log("state", "halt", "kind", kind, "attempt", attempt, "err", err)
			return attempt, err
		}
	}
	return e.maxAttempts, err
}
