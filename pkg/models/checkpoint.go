package models

import "time"

// Checkpoint records the last successfully processed position for one
// partition. Saves overwrite; only the latest position is retained.
type Checkpoint struct {
	Partition   string    `json:"partition"`
	Position    string    `json:"position"`
	Timestamp   time.Time `json:"timestamp"`
	RecordCount int       `json:"record_count"`
}
