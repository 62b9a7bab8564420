package dlq

import "github.com/trussle/relay/pkg/models"

type nopRouter struct{}

func newNopRouter() Router { return nopRouter{} }

func (nopRouter) SendBatch(letters models.DeadLetters) (Result, error) {
	return Result{len(letters), 0}, nil
}
