package checkpoint

import (
	"sync"

	"github.com/trussle/relay/pkg/models"
)

type virtualStore struct {
	mutex       sync.Mutex
	checkpoints map[string]models.Checkpoint
}

func newVirtualStore() *virtualStore {
	return &virtualStore{
		checkpoints: make(map[string]models.Checkpoint),
	}
}

func (s *virtualStore) Save(checkpoint models.Checkpoint) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.checkpoints[checkpoint.Partition] = checkpoint
	return nil
}

func (s *virtualStore) Get(partition string) (models.Checkpoint, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	checkpoint, ok := s.checkpoints[partition]
	return checkpoint, ok, nil
}

func (s *virtualStore) Delete(partition string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.checkpoints, partition)
	return nil
}
