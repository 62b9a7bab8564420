package event

// Validator checks a decoded event against the schema rules. Implementations
// must be deterministic and side-effect free. A non-nil error means the
// event is invalid; redelivering it can not make it valid.
type Validator interface {
	Validate(e Event) error
}

// NopValidator accepts every event.
type NopValidator struct{}

// Validate always reports the event as valid.
func (NopValidator) Validate(Event) error { return nil }
