package services

import (
	"context"

	"github.com/google/uuid"
)

type userCtxKey struct{}
type deviceCtxKey struct{}

// WithUserContext attaches the authenticated user id to the request context.
func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userCtxKey{}, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userCtxKey{}).(uuid.UUID)
	return id, ok
}

// WithDeviceContext attaches the device fingerprint to the request context.
func WithDeviceContext(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, deviceCtxKey{}, fingerprint)
}

// DeviceFromContext returns the device fingerprint, if any.
func DeviceFromContext(ctx context.Context) (string, bool) {
	fp, ok := ctx.Value(deviceCtxKey{}).(string)
	return fp, ok && fp != ""
}
