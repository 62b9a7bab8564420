package checkpoint

import (
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/trussle/fsys"
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

	t.Run("unknown name fails fast", func(t *testing.T) {
		config, err := Build(With("dynamo"))
		if err != nil {
			t.Fatal(err)
		}

		if _, err := New(config, log.NewNopLogger()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("local without filesystem fails", func(t *testing.T) {
		config, err := Build(
			With("local"),
			WithRootPath("bin"),
		)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := New(config, log.NewNopLogger()); err == nil {
			t.Error("expected error")
		}
	})
}

func testStore(t *testing.T, store Store) {
	t.Helper()

	checkpoint := models.Checkpoint{
		Partition:   "shard-000000000000",
		Position:    "49590338271490256608559692538361571095921575989136588898",
		Timestamp:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		RecordCount: 5,
	}

	t.Run("get missing", func(t *testing.T) {
		_, ok, err := store.Get("shard-000000000000")
		if err != nil {
			t.Fatal(err)
		}
		if expected, actual := false, ok; expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	})

	t.Run("save and get", func(t *testing.T) {
		if err := store.Save(checkpoint); err != nil {
			t.Fatal(err)
		}

		res, ok, err := store.Get("shard-000000000000")
		if err != nil {
			t.Fatal(err)
		}
		if expected, actual := true, ok; expected != actual {
			t.Fatalf("expected: %v, actual: %v", expected, actual)
		}
		if expected, actual := checkpoint.Position, res.Position; expected != actual {
			t.Errorf("expected: %s, actual: %s", expected, actual)
		}
		if expected, actual := checkpoint.RecordCount, res.RecordCount; expected != actual {
			t.Errorf("expected: %d, actual: %d", expected, actual)
		}
	})

	t.Run("save overwrites", func(t *testing.T) {
		next := checkpoint
		next.Position = "49590338271490256608559692538361571095921575989136588899"
		next.RecordCount = 7

		if err := store.Save(next); err != nil {
			t.Fatal(err)
		}

		res, ok, err := store.Get("shard-000000000000")
		if err != nil {
			t.Fatal(err)
		}
		if expected, actual := true, ok; expected != actual {
			t.Fatalf("expected: %v, actual: %v", expected, actual)
		}
		if expected, actual := next.Position, res.Position; expected != actual {
			t.Errorf("expected: %s, actual: %s", expected, actual)
		}
	})

	t.Run("partitions are independent", func(t *testing.T) {
		other := checkpoint
		other.Partition = "shard-000000000001"
		other.Position = "1"

		if err := store.Save(other); err != nil {
			t.Fatal(err)
		}

		res, ok, err := store.Get("shard-000000000000")
		if err != nil {
			t.Fatal(err)
		}
		if !ok || res.Position == "1" {
			t.Errorf("expected independent partitions, actual: %v %s", ok, res.Position)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.Delete("shard-000000000000"); err != nil {
			t.Fatal(err)
		}

		_, ok, err := store.Get("shard-000000000000")
		if err != nil {
			t.Fatal(err)
		}
		if expected, actual := false, ok; expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	})
}

func TestVirtualStore(t *testing.T) {
	t.Parallel()

	testStore(t, newVirtualStore())
}

func TestLocalStore(t *testing.T) {
	t.Parallel()

	config, err := fsys.Build(
		fsys.With("virtual"),
	)
	if err != nil {
		t.Fatal(err)
	}

	filesystem, err := fsys.New(config)
	if err != nil {
		t.Fatal(err)
	}

	store, err := newLocalStore(filesystem, "bin/checkpoints", log.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}

	testStore(t, store)
}
