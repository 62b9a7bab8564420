package queue

import (
	"sync"

	"github.com/trussle/relay/pkg/models"
)

type virtualQueue struct {
	mutex   sync.Mutex
	records models.Records
}

func newVirtualQueue() *virtualQueue {
	return &virtualQueue{}
}

func (v *virtualQueue) Enqueue(rec models.Record) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.records.Append(rec)
	return nil
}

func (v *virtualQueue) Dequeue() (models.Records, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	res := v.records
	v.records = nil
	return res, nil
}

func (v *virtualQueue) Commit(records models.Records) (Result, error) {
	return Result{records.Len(), 0}, nil
}

func (v *virtualQueue) Failed(records models.Records) (Result, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	// Released records come straight back for redelivery.
	v.records = append(v.records, records...)
	return Result{records.Len(), 0}, nil
}

// Len returns the number of records waiting for delivery.
func (v *virtualQueue) Len() int {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.records.Len()
}
