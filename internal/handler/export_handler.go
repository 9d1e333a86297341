package handler

import (
	"net/http"

	"quickpoll/internal/services"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExportHandler streams poll results as a CSV download.
type ExportHandler struct {
	exports *services.ExportService
	polls   *services.PollService
}

func NewExportHandler(exports *services.ExportService, polls *services.PollService) *ExportHandler {
	return &ExportHandler{exports: exports, polls: polls}
}

// Export renders the poll's results as CSV. Owner only.
func (h *ExportHandler) Export(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, quickpoll_errors.ErrUnauthorized)
		return
	}

	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	p, _, err := h.polls.Get(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}
	if p.OwnerID != userID {
		writeError(c, quickpoll_errors.ErrForbidden)
		return
	}

	body, err := h.exports.ExportCSV(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+h.exports.Filename(pollID)+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(body))
}
