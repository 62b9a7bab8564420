package models

import "github.com/pkg/errors"

// Kind classifies how a failure should be treated by the retry and
// dead-letter machinery. It replaces matching on error messages with an
// explicit tag carried alongside the error.
type Kind int

const (
	// Skipped marks an intentional short-circuit (duplicate, validation
	// failure, no matching processor). Never retried, never escalated.
	Skipped Kind = iota

	// Retryable marks a transient failure worth another attempt.
	Retryable

	// Terminal marks a failure that retrying can not fix.
	Terminal

	// Fatal marks a defect outside per-record handling. It propagates to
	// the caller of the batch.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Skipped:
		return "skipped"
	case Retryable:
		return "retryable"
	case Terminal:
		return "terminal"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the kind as its name, so dead-letter payloads stay
// readable without this package.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON parses a kind from its name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"skipped"`:
		*k = Skipped
	case `"retryable"`:
		*k = Retryable
	case `"terminal"`:
		*k = Terminal
	case `"fatal"`:
		*k = Fatal
	default:
		return errors.Errorf("unexpected kind %s", string(data))
	}
	return nil
}
