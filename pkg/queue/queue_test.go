package queue

import (
	"testing"
	"testing/quick"

	"github.com/go-kit/kit/log"
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

func TestVirtualQueue(t *testing.T) {
	t.Parallel()

	t.Run("enqueue", func(t *testing.T) {
		fn := func(rec models.Record) bool {
			queue := newVirtualQueue()

			err := queue.Enqueue(rec)
			return err == nil && queue.Len() == 1
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("dequeue drains in order", func(t *testing.T) {
		fn := func(a, b models.Record) bool {
			queue := newVirtualQueue()

			if err := queue.Enqueue(a); err != nil {
				t.Fatal(err)
			}
			if err := queue.Enqueue(b); err != nil {
				t.Fatal(err)
			}

			records, err := queue.Dequeue()
			if err != nil {
				t.Fatal(err)
			}

			return records.Len() == 2 &&
				records[0].Equals(a) &&
				records[1].Equals(b) &&
				queue.Len() == 0
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("failed records are redelivered", func(t *testing.T) {
		fn := func(rec models.Record) bool {
			queue := newVirtualQueue()

			if err := queue.Enqueue(rec); err != nil {
				t.Fatal(err)
			}

			records, err := queue.Dequeue()
			if err != nil {
				t.Fatal(err)
			}

			if _, err := queue.Failed(records); err != nil {
				t.Fatal(err)
			}

			redelivered, err := queue.Dequeue()
			if err != nil {
				t.Fatal(err)
			}

			return redelivered.Len() == 1 && redelivered[0].Equals(rec)
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})

	t.Run("commit", func(t *testing.T) {
		fn := func(rec models.Record) bool {
			queue := newVirtualQueue()

			if err := queue.Enqueue(rec); err != nil {
				t.Fatal(err)
			}

			records, err := queue.Dequeue()
			if err != nil {
				t.Fatal(err)
			}

			res, err := queue.Commit(records)
			if err != nil {
				t.Fatal(err)
			}

			return res.Success == 1 && res.Failure == 0 && queue.Len() == 0
		}

		if err := quick.Check(fn, nil); err != nil {
			t.Error(err)
		}
	})
}

func TestNopQueue(t *testing.T) {
	t.Parallel()

	queue := newNopQueue()

	if err := queue.Enqueue(models.Record{}); err != nil {
		t.Error(err)
	}

	records, err := queue.Dequeue()
	if err != nil {
		t.Error(err)
	}
	if expected, actual := 0, records.Len(); expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}
}
