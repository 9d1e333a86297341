package identity

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the key a vote is deduplicated by. Exactly one concrete
// variant applies to any given vote: an authenticated user id, or an
// anonymous device fingerprint paired with a chosen display name. The
// variants are a closed set; Key returns the storage form.
type Identity interface {
	// Key returns the voter key persisted with each vote,
	// e.g. "user:<id>" or "device:<fingerprint>".
	Key() string

	sealed()
}

// Authenticated identifies a logged-in voter by user id.
type Authenticated struct {
	UserID uuid.UUID
}

func (a Authenticated) Key() string { return "user:" + a.UserID.String() }
func (Authenticated) sealed()       {}

// AnonymousNamed identifies an anonymous voter by a stable per-device
// fingerprint and the display name they claimed for it.
type AnonymousNamed struct {
	Fingerprint string
	DisplayName string
}

func (a AnonymousNamed) Key() string { return "device:" + a.Fingerprint }
func (AnonymousNamed) sealed()       {}

// Device represents devices. It is the server-side record of the
// client-persisted anonymous identity.
type Device struct {
	Fingerprint string
	DisplayName string
	CreatedAt   time.Time
	LastSeenAt  time.Time
}
