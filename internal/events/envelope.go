package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action tags a change-notification event with the kind of row change that
// produced it.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Envelope is the wire form of one row-level change notification. Consumers
// treat it as a trigger to re-read authoritative state, never as a delta to
// apply directly.
type Envelope struct {
	Action     Action          `json:"action"`
	Table      string          `json:"table"`
	PollID     uuid.UUID       `json:"poll_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

const (
	TablePolls   = "polls"
	TableOptions = "options"
	TableVotes   = "votes"
)

// NewEnvelope builds an envelope with an optional row payload.
func NewEnvelope(action Action, table string, pollID uuid.UUID, row any) (Envelope, error) {
	env := Envelope{
		Action:     action,
		Table:      table,
		PollID:     pollID,
		OccurredAt: time.Now(),
	}
	if row != nil {
		data, err := json.Marshal(row)
		if err != nil {
			return Envelope{}, err
		}
		env.Payload = data
	}
	return env, nil
}
