package event

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

// Event is the decoded envelope carried in a record body.
type Event struct {
	EventID string          `json:"event_id"`
	UserID  string          `json:"user_id"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
}

// DedupKey returns the key used to recognise redelivered events. The boolean
// reports whether the event carries one at all.
func (e Event) DedupKey() (string, bool) {
	if e.EventID == "" || e.UserID == "" {
		return "", false
	}
	return e.EventID + ":" + e.UserID, true
}

// Decode parses a record body into an Event. Bodies arrive either as raw
// JSON or base64-wrapped JSON, depending on the transport.
func Decode(body []byte) (Event, error) {
	var e Event

	payload := bytes.TrimSpace(body)
	if len(payload) == 0 {
		return e, errors.New("empty payload")
	}

	if payload[0] != '{' {
		decoded, err := base64.StdEncoding.DecodeString(string(payload))
		if err != nil {
			return e, errors.Wrap(err, "decoding base64 payload")
		}
		payload = decoded
	}

	if err := json.Unmarshal(payload, &e); err != nil {
		return e, errors.Wrap(err, "unmarshalling payload")
	}
	return e, nil
}
