package models

import "time"

// DeadLetterError is the structured error carried on a dead-letter message.
type DeadLetterError struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

// DeadLetter is the message routed to the dead-letter sink for a record that
// exhausted its attempts. It carries enough to replay or diagnose the record;
// it is never read back by this system.
type DeadLetter struct {
	Record        Record          `json:"-"`
	Error         DeadLetterError `json:"error"`
	Attempts      int             `json:"attempts"`
	FirstAttempt  time.Time       `json:"first_attempt"`
	LastAttempt   time.Time       `json:"last_attempt"`
	CorrelationID string          `json:"correlation_id"`
}

// DeadLetters represents a batch of dead-letter messages.
type DeadLetters []DeadLetter
