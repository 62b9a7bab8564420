package queue

import "github.com/trussle/relay/pkg/models"

type nopQueue struct{}

func newNopQueue() Queue { return nopQueue{} }

func (nopQueue) Enqueue(models.Record) error { return nil }
func (nopQueue) Dequeue() (models.Records, error) {
	return models.Records{}, nil
}
func (nopQueue) Commit(records models.Records) (Result, error) {
	return Result{records.Len(), 0}, nil
}
func (nopQueue) Failed(records models.Records) (Result, error) {
	return Result{records.Len(), 0}, nil
}
