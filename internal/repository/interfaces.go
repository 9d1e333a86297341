package repository

import (
	"context"

	"quickpoll/internal/domain/identity"
	"quickpoll/internal/domain/poll"
	"quickpoll/internal/domain/user"
	"quickpoll/internal/domain/vote"

	"github.com/google/uuid"
)

// PollRepository persists polls and their options.
type PollRepository interface {
	// Create inserts the poll and its initial options atomically.
	Create(ctx context.Context, p *poll.Poll, options []poll.Option) error
	GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]poll.Poll, error)
	Update(ctx context.Context, p poll.Poll) error
	// Delete removes the poll; options and votes cascade at the storage layer.
	Delete(ctx context.Context, id uuid.UUID) error
	GetOptions(ctx context.Context, pollID uuid.UUID) ([]poll.Option, error)
	AddOption(ctx context.Context, o *poll.Option) error
}

// VoteRepository is the vote ledger. Insert is the authoritative
// serialization point for duplicate submissions: the storage uniqueness
// constraint on (poll_id, voter_key, dedup_key) rejects the second of two
// concurrent inserts regardless of any advisory pre-check.
type VoteRepository interface {
	// Insert appends a vote row. Returns quickpoll_errors.ErrAlreadyExists
	// when the uniqueness constraint is violated.
	Insert(ctx context.Context, v *vote.Vote) error
	ListByPoll(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error)
	ListByVoter(ctx context.Context, pollID uuid.UUID, voterKey string) ([]vote.Vote, error)
}

// DeviceRepository persists anonymous voter devices.
type DeviceRepository interface {
	Get(ctx context.Context, fingerprint string) (identity.Device, error)
	Create(ctx context.Context, d *identity.Device) error
	SetDisplayName(ctx context.Context, fingerprint, name string) error
	Touch(ctx context.Context, fingerprint string) error
}

// UserRepository persists registered users.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
}
