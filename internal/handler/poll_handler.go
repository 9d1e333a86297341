package handler

import (
	"net/http"

	"quickpoll/internal/domain/poll"
	"quickpoll/internal/services"
	"quickpoll/internal/transport/httpdto"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PollHandler handles poll CRUD endpoints.
type PollHandler struct {
	service *services.PollService
}

func NewPollHandler(service *services.PollService) *PollHandler {
	return &PollHandler{service: service}
}

// Create creates a poll with its options in one request.
func (h *PollHandler) Create(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, quickpoll_errors.ErrUnauthorized)
		return
	}

	var req httpdto.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	in := services.CreatePollInput{
		Title:          req.Title,
		Description:    req.Description,
		QuestionType:   poll.QuestionType(req.QuestionType),
		RequireAuth:    req.RequireAuth,
		ShowResults:    req.ShowResults,
		AllowMultiple:  req.AllowMultiple,
		MaxChoices:     req.MaxChoices,
		RatingScaleMax: req.RatingScaleMax,
		EndDate:        req.EndDate,
	}
	for _, o := range req.Options {
		in.Options = append(in.Options, services.OptionInput{Text: o.Text, ImageURL: o.ImageURL})
	}

	p, options, err := h.service.Create(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ToPollView(p, options)))
}

// Get returns a poll and its options. Polls are publicly readable.
func (h *PollHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	p, options, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToPollView(p, options)))
}

// ListMine returns the authenticated user's polls.
func (h *PollHandler) ListMine(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, quickpoll_errors.ErrUnauthorized)
		return
	}

	polls, err := h.service.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]httpdto.PollView, 0, len(polls))
	for _, p := range polls {
		views = append(views, httpdto.ToPollView(p, nil))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(views))
}

// Update patches the poll's mutable fields. Owner only.
func (h *PollHandler) Update(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, quickpoll_errors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	var req httpdto.UpdatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, userID, services.UpdatePollInput{
		Title:       req.Title,
		Description: req.Description,
		RequireAuth: req.RequireAuth,
		ShowResults: req.ShowResults,
		EndDate:     req.EndDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToPollView(p, nil)))
}

// Close ends voting on the poll immediately. Owner only.
func (h *PollHandler) Close(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, quickpoll_errors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	p, err := h.service.Close(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToPollView(p, nil)))
}

// Delete removes the poll with its options and votes. Owner only.
func (h *PollHandler) Delete(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, quickpoll_errors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": true}))
}

// AddOption appends an option to an existing poll. Owner only.
func (h *PollHandler) AddOption(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, quickpoll_errors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	var req httpdto.OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	o, err := h.service.AddOption(c.Request.Context(), id, userID, services.OptionInput{
		Text:     req.Text,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ToOptionView(o)))
}
