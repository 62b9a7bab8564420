package queue

import (
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/trussle/relay/pkg/models"
)

// Queue represents an ordered source of record batches. Committing removes
// records from the source; failed records are released so the source
// redelivers them, which is the host-level retry mechanism.
type Queue interface {

	// Enqueue a record
	Enqueue(models.Record) error

	// Dequeue a batch of records in source order
	Dequeue() (models.Records, error)

	// Commit the records, so they are not delivered again
	Commit(models.Records) (Result, error)

	// Failed releases the records back to the source for redelivery
	Failed(models.Records) (Result, error)
}

// Result returns the amount of successes and failures
type Result struct {
	Success, Failure int
}

// Config encapsulates the requirements for generating a Queue
type Config struct {
	name         string
	remoteConfig *RemoteConfig
}

// Option defines a option for generating a queue Config
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

// With adds a type of queue to use for the configuration.
func With(name string) Option {
	return func(config *Config) error {
		config.name = name
		return nil
	}
}

// WithConfig adds a remote queue config to the configuration
func WithConfig(remoteConfig *RemoteConfig) Option {
	return func(config *Config) error {
		config.remoteConfig = remoteConfig
		return nil
	}
}

// New creates a queue from a configuration or returns error if on failure.
func New(config *Config, logger log.Logger) (queue Queue, err error) {
	switch strings.ToLower(config.name) {
	case "remote":
		queue, err = newRemoteQueue(config.remoteConfig, logger)
		if err != nil {
			err = errors.Wrap(err, "remote queue")
			return
		}
	case "virtual":
		queue = newVirtualQueue()
	case "nop":
		queue = newNopQueue()
	default:
		err = errors.Errorf("unexpected queue type %q", config.name)
	}
	return
}
