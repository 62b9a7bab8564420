package dlq

import (
	"encoding/json"
	"math/rand"
	"testing"
	"testing/quick"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/trussle/relay/pkg/models"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("virtual", func(t *testing.T) {
		config, err := Build(With("virtual"))
		if err != nil {
			t.Fatal(err)
		}

		if _, err := New(config, log.NewNopLogger()); err != nil {
			t.Error(err)
		}
	})

	t.Run("nop", func(t *testing.T) {
		config, err := Build(With("nop"))
		if err != nil {
			t.Fatal(err)
		}

		if _, err := New(config, log.NewNopLogger()); err != nil {
			t.Error(err)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		config, err := Build(With("invalid"))
		if err != nil {
			t.Fatal(err)
		}

		if _, err := New(config, log.NewNopLogger()); err == nil {
			t.Error("expected error")
		}
	})
}

func TestVirtualRouter(t *testing.T) {
	t.Parallel()

	t.Run("send batch", func(t *testing.T) {
		fn := func(rec models.Record) bool {
			router := newVirtualRouter()

			letters := models.DeadLetters{
				{
					Record: rec,
					Error: models.DeadLetterError{
						Message: "broken",
						Kind:    models.Terminal,
					},
					Attempts:      3,
					CorrelationID: "abc",
				},
			}

			res, err := router.SendBatch(letters)
			if err != nil {
				t.Fatal(err)
			}

			return res.Success == 1 && res.Failure == 0 &&
				len(router.Letters()) == 1 &&
				router.Letters()[0].Record.Equals(rec)
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		router := newVirtualRouter()

		res, err := router.SendBatch(nil)
		if err != nil {
			t.Fatal(err)
		}

		if expected, actual := 0, res.Success; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
	})
}

func TestRow(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		fn := func(rec models.Record) bool {
			letter := models.DeadLetter{
				Record: rec,
				Error: models.DeadLetterError{
					Message: errors.New("processing failed").Error(),
					Kind:    models.Terminal,
				},
				Attempts:      rnd.Intn(5) + 1,
				FirstAttempt:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				LastAttempt:   time.Date(2020, 1, 1, 0, 0, 1, 0, time.UTC),
				CorrelationID: "abc",
			}

			data, err := row(letter)
			if err != nil {
				t.Fatal(err)
			}

			var decoded envelope
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatal(err)
			}

			return decoded.Sequence == rec.SequenceNumber &&
				decoded.Partition == rec.PartitionKey &&
				decoded.Attempts == letter.Attempts &&
				decoded.Error.Message == "processing failed" &&
				decoded.CorrelationID == "abc"
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})
}
