package checkpoint

import (
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/trussle/fsys"
	"github.com/trussle/relay/pkg/models"
)

// Store tracks the last processed position per partition. Saves overwrite;
// only the latest checkpoint is retained for a partition. An external
// resumption mechanism reads the store to know where a restarted consumer
// should pick up.
type Store interface {

	// Save a checkpoint, replacing any previous one for its partition.
	Save(checkpoint models.Checkpoint) error

	// Get the checkpoint for a partition. The boolean reports presence.
	Get(partition string) (models.Checkpoint, bool, error)

	// Delete the checkpoint for a partition.
	Delete(partition string) error
}

// Config encapsulates the requirements for generating a Store
type Config struct {
	name       string
	rootPath   string
	filesystem fsys.Filesystem
}

// Option defines a option for generating a checkpoint Config
type Option func(*Config) error

// Build ingests configuration options to then yield a Config and return an
// error if it fails during setup.
func Build(opts ...Option) (*Config, error) {
	var config Config
	for _, opt := range opts {
		err := opt(&config)
		if err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// With adds a type of store to use for the configuration.
func With(name string) Option {
	return func(config *Config) error {
		config.name = name
		return nil
	}
}

// WithRootPath adds a root directory for the local store.
func WithRootPath(rootPath string) Option {
	return func(config *Config) error {
		config.rootPath = rootPath
		return nil
	}
}

// WithFilesystem adds a filesystem for the local store.
func WithFilesystem(filesystem fsys.Filesystem) Option {
	return func(config *Config) error {
		config.filesystem = filesystem
		return nil
	}
}

// New creates a store from a configuration or returns error if on failure.
// Unknown store names fail here, at startup, rather than defaulting.
func New(config *Config, logger log.Logger) (store Store, err error) {
	switch strings.ToLower(config.name) {
	case "local":
		store, err = newLocalStore(config.filesystem, config.rootPath, logger)
		if err != nil {
			err = errors.Wrap(err, "local checkpoint store")
			return
		}
	case "virtual":
		store = newVirtualStore()
	case "nop":
		store = newNopStore()
	default:
		err = errors.Errorf("unexpected store type %q", config.name)
	}
	return
}
