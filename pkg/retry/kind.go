package retry

import (
	"github.com/trussle/relay/pkg/models"
)

// kindError tags an underlying error with a classification kind. It exposes
// Cause so that pkg/errors can unwind through it.
type kindError struct {
	err  error
	kind models.Kind
}

func (e kindError) Error() string     { return e.err.Error() }
func (e kindError) Cause() error      { return e.err }
func (e kindError) Kind() models.Kind { return e.kind }

// WithKind tags an error with a classification kind.
func WithKind(err error, kind models.Kind) error {
	if err == nil {
		return nil
	}
	return kindError{err: err, kind: kind}
}

// Skip tags an error as an intentional short-circuit.
func Skip(err error) error {
	return WithKind(err, models.Skipped)
}

// Terminal tags an error as unfixable by retrying.
func Terminal(err error) error {
	return WithKind(err, models.Terminal)
}

// coder mirrors the shape of provider errors (awserr amongst others) that
// carry a short machine-readable code.
type coder interface {
	Code() string
}

// Transient codes recognised from providers that don't tag their errors.
var transientCodes = map[string]struct{}{
	"ECONNRESET":          {},
	"ETIMEDOUT":           {},
	"ENOTFOUND":           {},
	"RequestTimeout":      {},
	"RequestThrottled":    {},
	"Throttling":          {},
	"ThrottlingException": {},
	"ServiceUnavailable":  {},
	"ProvisionedThroughputExceededException": {},
	"LimitExceededException":                 {},
}

// KindOf walks the error's cause chain and returns the first explicit kind it
// finds. Errors carrying a recognised transient code classify as retryable.
// Anything else defaults to retryable, failing open toward another attempt.
func KindOf(err error) models.Kind {
	for err != nil {
		if kerr, ok := err.(interface {
			Kind() models.Kind
		}); ok {
			return kerr.Kind()
		}
		if cerr, ok := err.(coder); ok {
			if _, ok := transientCodes[cerr.Code()]; ok {
				return models.Retryable
			}
		}

		cause, ok := err.(interface {
			Cause() error
		})
		if !ok {
			break
		}
		err = cause.Cause()
	}
	return models.Retryable
}
