package dlq

import (
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/trussle/relay/pkg/models"
)

// Router is a best-effort sink for records that exhausted their attempts.
// Sending is an audit trail, not a substitute for the host's retry: partial
// send failures are tolerated and counted, never escalated.
type Router interface {

	// SendBatch routes the dead letters to the sink. Entries are sent
	// independently; failures of some entries do not stop the rest.
	SendBatch(letters models.DeadLetters) (Result, error)
}

// Result returns the amount of successes and failures
type Result struct {
	Success, Failure int
}

// Config encapsulates the requirements for generating a Router
type Config struct {
	name         string
	remoteConfig *RemoteConfig
}

// Option defines a option for generating a dlq Config
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

// With adds a type of router to use for the configuration.
func With(name string) Option {
	return func(config *Config) error {
		config.name = name
		return nil
	}
}

// WithRemoteConfig adds a remote router config to the configuration
func WithRemoteConfig(remoteConfig *RemoteConfig) Option {
	return func(config *Config) error {
		config.remoteConfig = remoteConfig
		return nil
	}
}

// New creates a router from a configuration or returns error if on failure.
func New(config *Config, logger log.Logger) (router Router, err error) {
	switch strings.ToLower(config.name) {
	case "remote":
		router, err = newRemoteRouter(config.remoteConfig, logger)
		if err != nil {
			err = errors.Wrap(err, "remote router")
			return
		}
	case "virtual":
		router = newVirtualRouter()
	case "nop":
		router = newNopRouter()
	default:
		err = errors.Errorf("unexpected router type %q", config.name)
	}
	return
}
