package retry

import (
	"math/rand"
	"testing"
	"testing/quick"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/trussle/relay/pkg/models"
)

func TestExecutor(t *testing.T) {
	t.Parallel()

	t.Run("success on first attempt", func(t *testing.T) {
		executor := New(log.NewNopLogger(), WithSleep(func(time.Duration) {}))

		var calls int
		attempts, err := executor.Execute(func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		if expected, actual := 1, attempts; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
		if expected, actual := 1, calls; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
	})

	t.Run("retryable exhausts the budget", func(t *testing.T) {
		var slept int
		executor := New(log.NewNopLogger(), WithSleep(func(time.Duration) {
			slept++
		}))

		var calls int
		attempts, err := executor.Execute(func() error {
			calls++
			return errors.New("bad")
		})
		if err == nil {
			t.Fatal("expected error")
		}

		if expected, actual := 3, attempts; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
		if expected, actual := 3, calls; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
		// No delay after the final attempt.
		if expected, actual := 2, slept; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
	})

	t.Run("success after transient failures", func(t *testing.T) {
		executor := New(log.NewNopLogger(), WithSleep(func(time.Duration) {}))

		var calls int
		attempts, err := executor.Execute(func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		if expected, actual := 3, attempts; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
	})

	t.Run("terminal halts immediately", func(t *testing.T) {
		executor := New(log.NewNopLogger(), WithSleep(func(time.Duration) {}))

		var calls int
		attempts, err := executor.Execute(func() error {
			calls++
			return Terminal(errors.New("broken"))
		})
		if err == nil {
			t.Fatal("expected error")
		}

		if expected, actual := 1, attempts; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
		if expected, actual := 1, calls; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
	})

	t.Run("skip halts immediately", func(t *testing.T) {
		executor := New(log.NewNopLogger(), WithSleep(func(time.Duration) {}))

		var calls int
		_, err := executor.Execute(func() error {
			calls++
			return Skip(errors.New("duplicate"))
		})
		if err == nil {
			t.Fatal("expected error")
		}

		if expected, actual := 1, calls; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
		if expected, actual := models.Skipped, KindOf(err); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	})

	t.Run("max attempts option", func(t *testing.T) {
		executor := New(log.NewNopLogger(),
			WithMaxAttempts(5),
			WithSleep(func(time.Duration) {}),
		)

		var calls int
		attempts, err := executor.Execute(func() error {
			calls++
			return errors.New("bad")
		})
		if err == nil {
			t.Fatal("expected error")
		}

		if expected, actual := 5, attempts; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
	})
}

func TestStrategyDelay(t *testing.T) {
	t.Parallel()

	t.Run("delay stays with in jitter bounds", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		strategy := DefaultStrategy()

		fn := func(n uint8) bool {
			attempt := int(n%10) + 1

			capped := float64(strategy.InitialDelay)
			for i := 1; i < attempt; i++ {
				capped *= strategy.Multiplier
				if capped >= float64(strategy.MaxDelay) {
					break
				}
			}
			if capped > float64(strategy.MaxDelay) {
				capped = float64(strategy.MaxDelay)
			}

			var (
				delay = float64(strategy.Delay(attempt, rnd))
				lower = capped * (1 - strategy.Jitter)
				upper = capped * (1 + strategy.Jitter)
			)
			return delay >= lower && delay <= upper
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("no jitter is exact", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(0))
		strategy := Strategy{
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2,
		}

		for attempt, expected := range map[int]time.Duration{
			1: 100 * time.Millisecond,
			2: 200 * time.Millisecond,
			3: 400 * time.Millisecond,
			8: 5 * time.Second,
		} {
			if actual := strategy.Delay(attempt, rnd); expected != actual {
				t.Errorf("attempt %d: expected: %v, actual: %v", attempt, expected, actual)
			}
		}
	})
}

type codeError struct {
	code string
}

func (e codeError) Error() string { return e.code }
func (e codeError) Code() string  { return e.code }

func TestKindOf(t *testing.T) {
	t.Parallel()

	for _, testcase := range []struct {
		name string
		err  error
		want models.Kind
	}{
		{"skip", Skip(errors.New("dup")), models.Skipped},
		{"terminal", Terminal(errors.New("broken")), models.Terminal},
		{"fatal", WithKind(errors.New("defect"), models.Fatal), models.Fatal},
		{"wrapped terminal", errors.Wrap(Terminal(errors.New("broken")), "context"), models.Terminal},
		{"transient code", codeError{"ThrottlingException"}, models.Retryable},
		{"unknown code", codeError{"Mystery"}, models.Retryable},
		{"plain error", errors.New("anything"), models.Retryable},
	} {
		t.Run(testcase.name, func(t *testing.T) {
			if expected, actual := testcase.want, KindOf(testcase.err); expected != actual {
				t.Errorf("expected: %v, actual: %v", expected, actual)
			}
		})
	}
}
