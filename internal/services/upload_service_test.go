package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/google/uuid"
)

func TestPresignWithoutStorageConfigured(t *testing.T) {
	s := NewUploadService(nil)

	_, err := s.PresignOptionImage(context.Background(), uuid.New(), PresignInput{
		ContentType: "image/png",
		SizeBytes:   1024,
	})
	if !errors.Is(err, quickpoll_errors.ErrUploadsDisabled) {
		t.Fatalf("err = %v, want ErrUploadsDisabled", err)
	}

	// A missing server-side configuration is not the client's fault.
	if got := HTTPStatus(err); got != http.StatusServiceUnavailable {
		t.Errorf("HTTPStatus = %d, want 503", got)
	}
}
