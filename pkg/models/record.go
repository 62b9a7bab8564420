package models

import (
	"math/rand"
	"reflect"
	"time"

	"github.com/trussle/uuid"
)

// Record represents a single unit of work delivered from a shard. It is
// immutable and owned by the caller for the duration of one batch.
// - ID is unique per delivery, even when the same record is redelivered
// - SequenceNumber is the per-partition identifier used for checkpoints and
//   failure reporting
// - Receipt is the underlying provider's handle for committing the record
type Record struct {
	ID             uuid.UUID
	PartitionKey   string
	SequenceNumber string
	ShardID        string
	Receipt        string
	Body           []byte
	Timestamp      time.Time
}

// Equals checks the equality of records against each other
func (r Record) Equals(other Record) bool {
	return r.ID.Equals(other.ID) &&
		r.SequenceNumber == other.SequenceNumber &&
		reflect.DeepEqual(r.Body, other.Body)
}

// Generate allows Record to be used within quickcheck scenarios.
func (Record) Generate(rnd *rand.Rand, size int) reflect.Value {
	rec, err := generate(rnd)
	if err != nil {
		panic(err)
	}
	return reflect.ValueOf(rec)
}

// Records represents an ordered batch of records.
type Records []Record

// Append adds another record to the records slice
func (r *Records) Append(rec Record) {
	(*r) = append(*r, rec)
}

// Len returns the number of records with in the slice
func (r Records) Len() int {
	return len(r)
}

// Sequences returns the sequence numbers of the records, in order.
func (r Records) Sequences() []string {
	res := make([]string, len(r))
	for k, v := range r {
		res[k] = v.SequenceNumber
	}
	return res
}

func generate(rnd *rand.Rand) (rec Record, err error) {
	id, err := uuid.NewWithRand(rnd)
	if err != nil {
		return
	}

	body := make([]byte, rnd.Intn(64)+1)
	if _, err = rnd.Read(body); err != nil {
		return
	}

	rec = Record{
		ID:             id,
		PartitionKey:   uuid.MustNewWithRand(rnd).String(),
		SequenceNumber: uuid.MustNewWithRand(rnd).String(),
		ShardID:        "shard-000000000000",
		Receipt:        uuid.MustNewWithRand(rnd).String(),
		Body:           body,
		Timestamp:      time.Now().Round(time.Millisecond),
	}
	return
}
