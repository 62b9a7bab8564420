package dlq

import (
	"sync"

	"github.com/trussle/relay/pkg/models"
)

type virtualRouter struct {
	mutex   sync.Mutex
	letters models.DeadLetters
}

func newVirtualRouter() *virtualRouter {
	return &virtualRouter{}
}

func (v *virtualRouter) SendBatch(letters models.DeadLetters) (Result, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.letters = append(v.letters, letters...)
	return Result{len(letters), 0}, nil
}

// Letters returns a snapshot of everything routed so far.
func (v *virtualRouter) Letters() models.DeadLetters {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	res := make(models.DeadLetters, len(v.letters))
	copy(res, v.letters)
	return res
}
