package handler

import (
	"net/http"

	"quickpoll/internal/services"
	"quickpoll/internal/transport/httpdto"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/gin-gonic/gin"
)

// UploadHandler issues presigned URLs for option image uploads.
type UploadHandler struct {
	service *services.UploadService
}

func NewUploadHandler(service *services.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Presign returns a presigned PUT URL the client uploads the image to
// directly.
func (h *UploadHandler) Presign(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, quickpoll_errors.ErrUnauthorized)
		return
	}

	var req httpdto.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	res, err := h.service.PresignOptionImage(c.Request.Context(), userID, services.PresignInput{
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}
