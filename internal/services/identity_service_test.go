package services

import (
	"context"
	"errors"
	"testing"

	"quickpoll/internal/domain/identity"
	"quickpoll/internal/domain/poll"
	"quickpoll/internal/repository/repotest"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/google/uuid"
)

func TestResolveAuthenticatedWins(t *testing.T) {
	service := NewIdentityService(repotest.NewDeviceRepo())
	userID := uuid.New()

	// A session takes precedence even when a fingerprint is also present.
	actor, err := service.Resolve(context.Background(), poll.Poll{}, uuid.NullUUID{UUID: userID, Valid: true}, "some-device")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	auth, ok := actor.(identity.Authenticated)
	if !ok {
		t.Fatalf("actor = %T, want Authenticated", actor)
	}
	if auth.UserID != userID {
		t.Errorf("user id = %s, want %s", auth.UserID, userID)
	}
	if auth.Key() != "user:"+userID.String() {
		t.Errorf("key = %q", auth.Key())
	}
}

func TestResolveRequireAuth(t *testing.T) {
	devices := repotest.NewDeviceRepo()
	service := NewIdentityService(devices)

	d, err := service.ClaimDisplayName(context.Background(), "", "Alice")
	if err != nil {
		t.Fatalf("ClaimDisplayName: %v", err)
	}

	_, err = service.Resolve(context.Background(), poll.Poll{RequireAuth: true}, uuid.NullUUID{}, d.Fingerprint)
	if !errors.Is(err, quickpoll_errors.ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
}

func TestResolveAnonymous(t *testing.T) {
	devices := repotest.NewDeviceRepo()
	service := NewIdentityService(devices)

	named, err := service.ClaimDisplayName(context.Background(), "", "Alice")
	if err != nil {
		t.Fatalf("ClaimDisplayName: %v", err)
	}
	unnamed, err := service.EnsureDevice(context.Background(), "")
	if err != nil {
		t.Fatalf("EnsureDevice: %v", err)
	}

	tests := []struct {
		name        string
		fingerprint string
		wantErr     error
	}{
		{"named device resolves", named.Fingerprint, nil},
		{"no fingerprint", "", quickpoll_errors.ErrIdentityUnresolved},
		{"unknown fingerprint", "never-seen", quickpoll_errors.ErrIdentityUnresolved},
		{"device without name", unnamed.Fingerprint, quickpoll_errors.ErrIdentityUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := service.Resolve(context.Background(), poll.Poll{}, uuid.NullUUID{}, tt.fingerprint)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			anon, ok := actor.(identity.AnonymousNamed)
			if !ok {
				t.Fatalf("actor = %T, want AnonymousNamed", actor)
			}
			if anon.DisplayName != "Alice" {
				t.Errorf("display name = %q", anon.DisplayName)
			}
			if anon.Key() != "device:"+named.Fingerprint {
				t.Errorf("key = %q", anon.Key())
			}
		})
	}
}

func TestEnsureDeviceIdempotent(t *testing.T) {
	service := NewIdentityService(repotest.NewDeviceRepo())

	first, err := service.EnsureDevice(context.Background(), "")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.Fingerprint == "" {
		t.Fatal("expected a minted fingerprint")
	}

	// Presenting the same fingerprint returns the same device, never a new
	// identifier.
	second, err := service.EnsureDevice(context.Background(), first.Fingerprint)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Fingerprint != first.Fingerprint {
		t.Errorf("fingerprint changed: %q -> %q", first.Fingerprint, second.Fingerprint)
	}
}

func TestClaimDisplayNameValidation(t *testing.T) {
	service := NewIdentityService(repotest.NewDeviceRepo())

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"trims whitespace", "  Alice  ", "Alice", nil},
		{"two characters ok", "Al", "Al", nil},
		{"one character", "A", "", quickpoll_errors.ErrInvalidInput},
		{"whitespace only", "   ", "", quickpoll_errors.ErrInvalidInput},
		{"empty", "", "", quickpoll_errors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := service.ClaimDisplayName(context.Background(), "", tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && d.DisplayName != tt.want {
				t.Errorf("display name = %q, want %q", d.DisplayName, tt.want)
			}
		})
	}
}

func TestClaimDisplayNameReclaim(t *testing.T) {
	service := NewIdentityService(repotest.NewDeviceRepo())

	d, err := service.ClaimDisplayName(context.Background(), "", "Alice")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	renamed, err := service.ClaimDisplayName(context.Background(), d.Fingerprint, "Alicia")
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if renamed.Fingerprint != d.Fingerprint {
		t.Errorf("fingerprint changed on rename")
	}
	if renamed.DisplayName != "Alicia" {
		t.Errorf("display name = %q, want Alicia", renamed.DisplayName)
	}
}
