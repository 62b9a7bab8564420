package models

import (
	"encoding/json"
	"testing"
	"testing/quick"
)

func TestRecord(t *testing.T) {
	t.Parallel()

	t.Run("equals self", func(t *testing.T) {
		fn := func(rec Record) bool {
			return rec.Equals(rec)
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("not equal to others", func(t *testing.T) {
		fn := func(a, b Record) bool {
			return !a.Equals(b)
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("sequences preserve order", func(t *testing.T) {
		fn := func(a, b, c Record) bool {
			records := Records{a, b, c}

			sequences := records.Sequences()
			return len(sequences) == 3 &&
				sequences[0] == a.SequenceNumber &&
				sequences[1] == b.SequenceNumber &&
				sequences[2] == c.SequenceNumber
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})
}

func TestOutcomes(t *testing.T) {
	t.Parallel()

	t.Run("partition keeps every outcome", func(t *testing.T) {
		fn := func(a, b, c Record) bool {
			outcomes := Outcomes{
				{Record: a, Success: true},
				{Record: b, Success: false, Kind: Terminal},
				{Record: c, Success: true},
			}

			successes, failures := outcomes.Partition()
			return len(successes)+len(failures) == len(outcomes) &&
				len(successes) == 2 &&
				len(failures) == 1 &&
				failures[0].Record.Equals(b)
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		successes, failures := Outcomes{}.Partition()
		if len(successes) != 0 || len(failures) != 0 {
			t.Errorf("expected empty halves, actual: %d %d", len(successes), len(failures))
		}
	})
}

func TestKind(t *testing.T) {
	t.Parallel()

	t.Run("string", func(t *testing.T) {
		for expected, kind := range map[string]Kind{
			"skipped":   Skipped,
			"retryable": Retryable,
			"terminal":  Terminal,
			"fatal":     Fatal,
		} {
			if actual := kind.String(); expected != actual {
				t.Errorf("expected: %s, actual: %s", expected, actual)
			}
		}
	})

	t.Run("json round trip", func(t *testing.T) {
		for _, kind := range []Kind{Skipped, Retryable, Terminal, Fatal} {
			data, err := json.Marshal(kind)
			if err != nil {
				t.Fatal(err)
			}

			var decoded Kind
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatal(err)
			}

			if expected, actual := kind, decoded; expected != actual {
				t.Errorf("expected: %v, actual: %v", expected, actual)
			}
		}
	})

	t.Run("unknown name fails", func(t *testing.T) {
		var decoded Kind
		if err := json.Unmarshal([]byte(`"mystery"`), &decoded); err == nil {
			t.Error("expected error")
		}
	})
}
