package quickpoll_errors

import (
	"errors"
)

// Common errors
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyExists = errors.New("already exists")
	ErrRateLimited   = errors.New("rate limited")
)

// ErrUploadsDisabled is returned when image uploads are requested on a
// deployment with no object storage configured.
var ErrUploadsDisabled = errors.New("uploads disabled")

// Vote admission errors
var (
	ErrAuthRequired       = errors.New("authentication required")
	ErrIdentityUnresolved = errors.New("voter identity unresolved")
	ErrPollClosed         = errors.New("poll closed")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrChoiceLimitReached = errors.New("choice limit reached")
	ErrSubmissionFailed   = errors.New("vote submission failed")
)