package dedup

import (
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
)

const (
	defaultTTL           = time.Hour
	defaultSweepInterval = 5 * time.Minute
)

// Tracker recognises redelivered records by their dedup key. It is
// process-local and non-durable: restarting the process resets all state,
// which the at-least-once delivery model tolerates.
type Tracker interface {

	// CheckAndMark atomically admits the key, inserting it if it is absent
	// or expired. It returns false if the key is present and unexpired, in
	// which case the caller must treat the record as a duplicate and skip.
	CheckAndMark(key, owner string) bool

	// Unmark removes the key unconditionally, so a failed or invalid
	// attempt does not permanently block a legitimate retry.
	Unmark(key string)

	// IsProcessed reports whether the key is present and unexpired.
	IsProcessed(key string) bool

	// Run starts the background sweep. Run returns when Stop is invoked.
	Run()

	// Stop the background sweep.
	Stop()
}

// Config encapsulates the requirements for generating a Tracker
type Config struct {
	name          string
	ttl           time.Duration
	sweepInterval time.Duration
}

// Option defines a option for generating a dedup Config
type Option func(*Config) error

// Build ingests configuration options to then yield a Config and return an
// error if it fails during setup.
func Build(opts ...Option) (*Config, error) {
	config := Config{
		ttl:           defaultTTL,
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		err := opt(&config)
		if err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// With adds a type of tracker to use for the configuration.
func With(name string) Option {
	return func(config *Config) error {
		config.name = name
		return nil
	}
}

// WithTTL adds an expiry duration to the configuration.
func WithTTL(ttl time.Duration) Option {
	return func(config *Config) error {
		if ttl <= 0 {
			return errors.New("ttl must be positive")
		}
		config.ttl = ttl
		return nil
	}
}

// WithSweepInterval adds a sweep interval to the configuration.
func WithSweepInterval(interval time.Duration) Option {
	return func(config *Config) error {
		if interval <= 0 {
			return errors.New("sweep interval must be positive")
		}
		config.sweepInterval = interval
		return nil
	}
}

// New creates a tracker from a configuration or returns error if on failure.
func New(config *Config, logger log.Logger) (tracker Tracker, err error) {
	switch strings.ToLower(config.name) {
	case "virtual":
		tracker = newVirtualTracker(config.ttl, config.sweepInterval, logger)
	case "nop":
		tracker = newNopTracker()
	default:
		err = errors.Errorf("unexpected tracker type %q", config.name)
	}
	return
}
