// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"errors"
	"net/http"

	"quickpoll/internal/services"
	"quickpoll/internal/transport/httpdto"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, err error) {
	c.JSON(services.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), errorCode(err)))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, quickpoll_errors.ErrAuthRequired):
		return "AUTH_REQUIRED"
	case errors.Is(err, quickpoll_errors.ErrIdentityUnresolved):
		return "IDENTITY_UNRESOLVED"
	case errors.Is(err, quickpoll_errors.ErrPollClosed):
		return "POLL_CLOSED"
	case errors.Is(err, quickpoll_errors.ErrAlreadyVoted):
		return "ALREADY_VOTED"
	case errors.Is(err, quickpoll_errors.ErrChoiceLimitReached):
		return "CHOICE_LIMIT_REACHED"
	case errors.Is(err, quickpoll_errors.ErrSubmissionFailed):
		return "SUBMISSION_FAILED"
	case errors.Is(err, quickpoll_errors.ErrUploadsDisabled):
		return "UPLOADS_DISABLED"
	}

	switch services.HTTPStatus(err) {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}
