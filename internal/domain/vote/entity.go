package vote

import (
	"database/sql"
	"time"

	"quickpoll/internal/domain/identity"
	"quickpoll/internal/domain/poll"

	"github.com/google/uuid"
)

// DedupSingle is the dedup key for polls that admit one vote per identity.
const DedupSingle = "single"

// Vote represents votes. Identity fields are populated from exactly one
// identity.Identity variant; rows are immutable once inserted.
type Vote struct {
	ID                uuid.UUID
	PollID            uuid.UUID
	OptionID          uuid.NullUUID
	UserID            uuid.NullUUID
	DeviceFingerprint sql.NullString
	DisplayName       sql.NullString
	VoterKey          string
	DedupKey          string
	Rank              sql.NullInt32
	Rating            sql.NullInt32
	AnswerText        sql.NullString
	CreatedAt         time.Time
}

// New builds a vote row for the given identity. The user id / fingerprint
// columns are mutually exclusive by construction.
func New(pollID uuid.UUID, id identity.Identity) Vote {
	v := Vote{
		ID:       uuid.New(),
		PollID:   pollID,
		VoterKey: id.Key(),
		DedupKey: DedupSingle,
	}
	switch actor := id.(type) {
	case identity.Authenticated:
		v.UserID = uuid.NullUUID{UUID: actor.UserID, Valid: true}
	case identity.AnonymousNamed:
		v.DeviceFingerprint = sql.NullString{String: actor.Fingerprint, Valid: true}
		if actor.DisplayName != "" {
			v.DisplayName = sql.NullString{String: actor.DisplayName, Valid: true}
		}
	}
	return v
}

// DedupKeyFor derives the value the uniqueness constraint sees: the option id
// when the poll admits one vote per (identity, option), the constant
// otherwise.
func DedupKeyFor(p poll.Poll, optionID uuid.NullUUID) string {
	if p.MultiChoice() && optionID.Valid {
		return optionID.UUID.String()
	}
	return DedupSingle
}
