package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"quickpoll/internal/domain/identity"
	"quickpoll/internal/domain/poll"
	"quickpoll/internal/repository"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/google/uuid"
)

// IdentityService resolves the voter identity for the current actor on a
// poll. Resolution is deterministic: a session wins, then the poll's
// require-auth flag is enforced, then the device's stored display name
// decides between AnonymousNamed and unresolved.
type IdentityService struct {
	devices repository.DeviceRepository
}

func NewIdentityService(devices repository.DeviceRepository) *IdentityService {
	return &IdentityService{devices: devices}
}

// Resolve produces the voter key for deduplication. userID is the session's
// user id when logged in; fingerprint is the client-persisted device
// identifier (empty when the device has never been seen).
//
// Returns ErrAuthRequired when the poll requires a session and none exists,
// and ErrIdentityUnresolved when the anonymous device has not claimed a
// display name yet.
func (s *IdentityService) Resolve(ctx context.Context, p poll.Poll, userID uuid.NullUUID, fingerprint string) (identity.Identity, error) {
	if userID.Valid {
		return identity.Authenticated{UserID: userID.UUID}, nil
	}

	if p.RequireAuth {
		return nil, quickpoll_errors.ErrAuthRequired
	}

	if fingerprint == "" {
		return nil, quickpoll_errors.ErrIdentityUnresolved
	}

	d, err := s.devices.Get(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, quickpoll_errors.ErrNotFound) {
			return nil, quickpoll_errors.ErrIdentityUnresolved
		}
		return nil, err
	}

	if strings.TrimSpace(d.DisplayName) == "" {
		return nil, quickpoll_errors.ErrIdentityUnresolved
	}

	// Best effort, identity resolution must not fail on it.
	_ = s.devices.Touch(ctx, d.Fingerprint)

	return identity.AnonymousNamed{Fingerprint: d.Fingerprint, DisplayName: d.DisplayName}, nil
}

// EnsureDevice registers the device on first contact and reuses the stored
// record afterwards. A known fingerprint is never regenerated; an empty one
// mints a new identifier that the caller persists client-side (cookie).
func (s *IdentityService) EnsureDevice(ctx context.Context, fingerprint string) (identity.Device, error) {
	if fingerprint != "" {
		d, err := s.devices.Get(ctx, fingerprint)
		if err == nil {
			_ = s.devices.Touch(ctx, fingerprint)
			return d, nil
		}
		if !errors.Is(err, quickpoll_errors.ErrNotFound) {
			return identity.Device{}, err
		}
	} else {
		fingerprint = uuid.NewString()
	}

	now := time.Now()
	d := identity.Device{Fingerprint: fingerprint, CreatedAt: now, LastSeenAt: now}
	if err := s.devices.Create(ctx, &d); err != nil {
		// Lost a race with another request from the same device.
		if errors.Is(err, quickpoll_errors.ErrAlreadyExists) {
			return s.devices.Get(ctx, fingerprint)
		}
		return identity.Device{}, err
	}
	return d, nil
}

// ClaimDisplayName stores the chosen name on the device for reuse across
// visits. Names are trimmed and must be at least 2 characters.
func (s *IdentityService) ClaimDisplayName(ctx context.Context, fingerprint, name string) (identity.Device, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < 2 {
		return identity.Device{}, quickpoll_errors.ErrInvalidInput
	}

	d, err := s.EnsureDevice(ctx, fingerprint)
	if err != nil {
		return identity.Device{}, err
	}

	if err := s.devices.SetDisplayName(ctx, d.Fingerprint, name); err != nil {
		return identity.Device{}, err
	}
	d.DisplayName = name
	return d, nil
}
