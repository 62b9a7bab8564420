package event

import "encoding/json"

// Processor handles events of the types it declares. Process may return
// retryable or terminal errors; tag them with a kind where the distinction
// matters.
type Processor interface {

	// CanHandle reports whether the processor handles the event type.
	CanHandle(eventType string) bool

	// Process the event data.
	Process(data json.RawMessage, eventType string) error
}

// Registry routes events to the first processor that declares the event's
// type. Registration order decides ties.
type Registry struct {
	processors []Processor
}

// NewRegistry creates a Registry with the given processors.
func NewRegistry(processors ...Processor) *Registry {
	return &Registry{
		processors: processors,
	}
}

// Register adds a processor to the registry.
func (r *Registry) Register(p Processor) {
	r.processors = append(r.processors, p)
}

// Find returns the processor for the event type.
// Returns true if found.
func (r *Registry) Find(eventType string) (Processor, bool) {
	for _, p := range r.processors {
		if p.CanHandle(eventType) {
			return p, true
		}
	}
	return nil, false
}

// Len returns the number of registered processors
func (r *Registry) Len() int {
	return len(r.processors)
}
