package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quickpoll/internal/storage"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/google/uuid"
)

const maxImageBytes = 5 << 20 // 5 MiB

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// UploadService hands out presigned PUT URLs for option images.
type UploadService struct {
	s3 *storage.Client
}

func NewUploadService(s3 *storage.Client) *UploadService {
	return &UploadService{s3: s3}
}

type PresignInput struct {
	ContentType string
	SizeBytes   int64
}

type PresignResult struct {
	UploadURL string            `json:"upload_url"`
	Headers   map[string]string `json:"headers"`
	FileURL   string            `json:"file_url"`
	ExpiresAt time.Time         `json:"expires_at"`
}

func (s *UploadService) PresignOptionImage(ctx context.Context, userID uuid.UUID, in PresignInput) (PresignResult, error) {
	if s.s3 == nil {
		return PresignResult{}, quickpoll_errors.ErrUploadsDisabled
	}

	ext, ok := allowedImageTypes[strings.ToLower(in.ContentType)]
	if !ok {
		return PresignResult{}, quickpoll_errors.ErrInvalidInput
	}
	if in.SizeBytes <= 0 || in.SizeBytes > maxImageBytes {
		return PresignResult{}, quickpoll_errors.ErrInvalidInput
	}

	key := fmt.Sprintf("options/%s/%s.%s", userID, uuid.New(), ext)
	uploadURL, headers, err := s.s3.PresignPut(ctx, key, in.ContentType, in.SizeBytes)
	if err != nil {
		return PresignResult{}, err
	}

	return PresignResult{
		UploadURL: uploadURL,
		Headers:   headers,
		FileURL:   s.s3.FileURL(key),
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}
