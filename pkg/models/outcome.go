package models

import "time"

// Outcome captures the result of processing one record. Outcomes are built
// by the orchestrator and consumed immediately to assemble the batch report;
// they are never persisted.
type Outcome struct {
	Record        Record
	Success       bool
	Kind          Kind
	Err           error
	Attempts      int
	FirstAttempt  time.Time
	LastAttempt   time.Time
	CorrelationID string
}

// Outcomes represents the per-record results of one batch, indexed by the
// record's original position in the input.
type Outcomes []Outcome

// Partition splits the outcomes into successes and failures, preserving
// input order with in each half.
func (o Outcomes) Partition() (successes, failures Outcomes) {
	for _, v := range o {
		if v.Success {
			successes = append(successes, v)
		} else {
			failures = append(failures, v)
		}
	}
	return
}

// Sequences returns the sequence numbers of the outcomes' records, in order.
func (o Outcomes) Sequences() []string {
	res := make([]string, len(o))
	for k, v := range o {
		res[k] = v.Record.SequenceNumber
	}
	return res
}
