package breaker

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestBreaker(options ...Option) (*CircuitBreaker, *clock) {
	c := &clock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	options = append(options, WithClock(c.Now))
	return New(options...), c
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("broken")
	fail := func() error { return errBroken }
	succeed := func() error { return nil }

	t.Run("starts closed", func(t *testing.T) {
		b, _ := newTestBreaker()

		if expected, actual := Closed, b.State(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	})

	t.Run("closed passes calls through", func(t *testing.T) {
		b, _ := newTestBreaker()

		if err := b.Run(succeed); err != nil {
			t.Fatal(err)
		}
		if err := b.Run(fail); err != errBroken {
			t.Errorf("expected: %v, actual: %v", errBroken, err)
		}
	})

	t.Run("opens after the failure threshold", func(t *testing.T) {
		b, _ := newTestBreaker(WithFailureThreshold(5))

		for i := 0; i < 5; i++ {
			if err := b.Run(fail); err != errBroken {
				t.Fatal(err)
			}
		}

		if expected, actual := Open, b.State(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
		if err := b.Run(succeed); err != ErrOpen {
			t.Errorf("expected: %v, actual: %v", ErrOpen, err)
		}
	})

	t.Run("success while closed resets the failure count", func(t *testing.T) {
		b, _ := newTestBreaker(WithFailureThreshold(2))

		b.Run(fail)
		b.Run(succeed)
		b.Run(fail)

		if expected, actual := Closed, b.State(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	})

	t.Run("probes after the timeout", func(t *testing.T) {
		b, c := newTestBreaker(
			WithFailureThreshold(1),
			WithTimeout(time.Minute),
		)

		b.Run(fail)
		if err := b.Run(succeed); err != ErrOpen {
			t.Fatalf("expected: %v, actual: %v", ErrOpen, err)
		}

		c.Advance(time.Minute)

		if expected, actual := HalfOpen, b.State(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}

		var called bool
		if err := b.Run(func() error {
			called = true
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		if !called {
			t.Error("expected probe to be let through")
		}
	})

	t.Run("failure while half-open reopens immediately", func(t *testing.T) {
		b, c := newTestBreaker(
			WithFailureThreshold(1),
			WithTimeout(time.Minute),
		)

		b.Run(fail)
		c.Advance(time.Minute)
		b.Run(fail)

		if expected, actual := Open, b.State(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
		if err := b.Run(succeed); err != ErrOpen {
			t.Errorf("expected: %v, actual: %v", ErrOpen, err)
		}
	})

	t.Run("closes after the success threshold", func(t *testing.T) {
		b, c := newTestBreaker(
			WithFailureThreshold(1),
			WithSuccessThreshold(2),
			WithTimeout(time.Minute),
		)

		b.Run(fail)
		c.Advance(time.Minute)

		if err := b.Run(succeed); err != nil {
			t.Fatal(err)
		}
		if expected, actual := HalfOpen, b.State(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}

		if err := b.Run(succeed); err != nil {
			t.Fatal(err)
		}
		if expected, actual := Closed, b.State(); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	})

	t.Run("reopening restarts the timeout", func(t *testing.T) {
		b, c := newTestBreaker(
			WithFailureThreshold(1),
			WithTimeout(time.Minute),
		)

		b.Run(fail)
		c.Advance(time.Minute)
		b.Run(fail)

		c.Advance(30 * time.Second)
		if err := b.Run(succeed); err != ErrOpen {
			t.Errorf("expected: %v, actual: %v", ErrOpen, err)
		}

		c.Advance(30 * time.Second)
		if err := b.Run(succeed); err != nil {
			t.Fatal(err)
		}
	})
}
