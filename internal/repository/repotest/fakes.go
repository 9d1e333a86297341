// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"quickpoll/internal/domain/identity"
	"quickpoll/internal/domain/poll"
	"quickpoll/internal/domain/user"
	"quickpoll/internal/domain/vote"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/google/uuid"
)

// PollRepo is an in-memory poll store.
type PollRepo struct {
	mu      sync.Mutex
	polls   map[uuid.UUID]poll.Poll
	options map[uuid.UUID][]poll.Option
}

func NewPollRepo() *PollRepo {
	return &PollRepo{
		polls:   make(map[uuid.UUID]poll.Poll),
		options: make(map[uuid.UUID][]poll.Option),
	}
}

func (r *PollRepo) Create(ctx context.Context, p *poll.Poll, options []poll.Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.polls[p.ID]; ok {
		return quickpoll_errors.ErrAlreadyExists
	}
	r.polls[p.ID] = *p
	r.options[p.ID] = append([]poll.Option(nil), options...)
	return nil
}

func (r *PollRepo) GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.polls[id]
	if !ok {
		return poll.Poll{}, quickpoll_errors.ErrNotFound
	}
	return p, nil
}

func (r *PollRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]poll.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []poll.Poll
	for _, p := range r.polls {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *PollRepo) Update(ctx context.Context, p poll.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.polls[p.ID]; !ok {
		return quickpoll_errors.ErrNotFound
	}
	r.polls[p.ID] = p
	return nil
}

func (r *PollRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.polls[id]; !ok {
		return quickpoll_errors.ErrNotFound
	}
	delete(r.polls, id)
	delete(r.options, id)
	return nil
}

func (r *PollRepo) GetOptions(ctx context.Context, pollID uuid.UUID) ([]poll.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]poll.Option(nil), r.options[pollID]...), nil
}

func (r *PollRepo) AddOption(ctx context.Context, o *poll.Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.polls[o.PollID]; !ok {
		return quickpoll_errors.ErrNotFound
	}
	r.options[o.PollID] = append(r.options[o.PollID], *o)
	return nil
}

type dedupKey struct {
	pollID   uuid.UUID
	voterKey string
	dedup    string
}

// VoteRepo is an in-memory vote ledger. It enforces the same uniqueness
// constraint the SQL schema declares on (poll_id, voter_key, dedup_key),
// so duplicate inserts fail here exactly as they do against Postgres.
type VoteRepo struct {
	mu    sync.Mutex
	votes []vote.Vote
	seen  map[dedupKey]struct{}

	// InsertErr, when set, fails every insert. Simulates storage outages.
	InsertErr error
}

func NewVoteRepo() *VoteRepo {
	return &VoteRepo{seen: make(map[dedupKey]struct{})}
}

func (r *VoteRepo) Insert(ctx context.Context, v *vote.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.InsertErr != nil {
		return r.InsertErr
	}
	key := dedupKey{pollID: v.PollID, voterKey: v.VoterKey, dedup: v.DedupKey}
	if _, ok := r.seen[key]; ok {
		return quickpoll_errors.ErrAlreadyExists
	}
	r.seen[key] = struct{}{}
	r.votes = append(r.votes, *v)
	return nil
}

func (r *VoteRepo) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []vote.Vote
	for _, v := range r.votes {
		if v.PollID == pollID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *VoteRepo) ListByVoter(ctx context.Context, pollID uuid.UUID, voterKey string) ([]vote.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []vote.Vote
	for _, v := range r.votes {
		if v.PollID == pollID && v.VoterKey == voterKey {
			out = append(out, v)
		}
	}
	return out, nil
}

// DeviceRepo is an in-memory device store.
type DeviceRepo struct {
	mu      sync.Mutex
	devices map[string]identity.Device
}

func NewDeviceRepo() *DeviceRepo {
	return &DeviceRepo{devices: make(map[string]identity.Device)}
}

func (r *DeviceRepo) Get(ctx context.Context, fingerprint string) (identity.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[fingerprint]
	if !ok {
		return identity.Device{}, quickpoll_errors.ErrNotFound
	}
	return d, nil
}

func (r *DeviceRepo) Create(ctx context.Context, d *identity.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[d.Fingerprint]; ok {
		return quickpoll_errors.ErrAlreadyExists
	}
	r.devices[d.Fingerprint] = *d
	return nil
}

func (r *DeviceRepo) SetDisplayName(ctx context.Context, fingerprint, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[fingerprint]
	if !ok {
		return quickpoll_errors.ErrNotFound
	}
	d.DisplayName = name
	r.devices[fingerprint] = d
	return nil
}

func (r *DeviceRepo) Touch(ctx context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[fingerprint]
	if !ok {
		return quickpoll_errors.ErrNotFound
	}
	d.LastSeenAt = time.Now()
	r.devices[fingerprint] = d
	return nil
}

// UserRepo is an in-memory user store.
type UserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]user.User)}
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return quickpoll_errors.ErrAlreadyExists
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, quickpoll_errors.ErrNotFound
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, quickpoll_errors.ErrNotFound
	}
	return u, nil
}
