package handler

import (
	"errors"
	"net/http"

	"quickpoll/internal/domain/identity"
	"quickpoll/internal/services"
	"quickpoll/internal/transport/httpdto"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VoteHandler handles vote admission, submission, and result endpoints.
type VoteHandler struct {
	votes      *services.VoteService
	identities *services.IdentityService
}

func NewVoteHandler(votes *services.VoteService, identities *services.IdentityService) *VoteHandler {
	return &VoteHandler{votes: votes, identities: identities}
}

// Admission reports whether the caller may cast another vote right now. The
// answer is advisory; submission re-checks and the ledger's uniqueness
// constraint has the final say.
func (h *VoteHandler) Admission(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	actor, err := h.resolveActor(c, pollID)
	if err == nil {
		err = h.votes.CheckAdmission(c.Request.Context(), pollID, actor)
	}
	if err != nil {
		if reason, ok := admissionReason(err); ok {
			c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AdmissionView{Reason: reason}))
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AdmissionView{Allowed: true}))
}

// Submit casts a vote on the poll for the resolved identity.
func (h *VoteHandler) Submit(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	var req httpdto.SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	in := services.SubmitVoteInput{
		Rank:       req.Rank,
		Rating:     req.Rating,
		AnswerText: req.AnswerText,
	}
	if req.OptionID != "" {
		optionID, err := uuid.Parse(req.OptionID)
		if err != nil {
			writeError(c, quickpoll_errors.ErrInvalidInput)
			return
		}
		in.OptionID = uuid.NullUUID{UUID: optionID, Valid: true}
	}

	actor, err := h.resolveActor(c, pollID)
	if err != nil {
		writeError(c, err)
		return
	}

	v, err := h.votes.SubmitVote(c.Request.Context(), pollID, actor, in)
	if err != nil {
		writeError(c, err)
		return
	}

	view := httpdto.VoteView{
		ID:        v.ID.String(),
		PollID:    v.PollID.String(),
		CreatedAt: v.CreatedAt,
	}
	if v.OptionID.Valid {
		view.OptionID = v.OptionID.UUID.String()
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(view))
}

// Tally returns the current per-option counts, recomputed from the full vote
// set on every request.
func (h *VoteHandler) Tally(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	if err := h.checkResultsVisible(c, pollID); err != nil {
		writeError(c, err)
		return
	}

	t, err := h.votes.ComputeTally(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToTallyView(t)))
}

// Results returns the aggregated results in the shape the poll's question
// type calls for.
func (h *VoteHandler) Results(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	if err := h.checkResultsVisible(c, pollID); err != nil {
		writeError(c, err)
		return
	}

	res, err := h.votes.Results(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{
		"poll":  httpdto.ToPollView(res.Poll, res.Options),
		"tally": httpdto.ToTallyView(res.Tally),
	}
	if res.Ranking != nil {
		body["ranking"] = res.Ranking
	}
	if res.Rating.Distribution != nil {
		body["rating"] = res.Rating
	}
	if res.Answers != nil {
		body["answers"] = res.Answers
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(body))
}

// MyVote reports whether the caller has voted on the poll.
func (h *VoteHandler) MyVote(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, quickpoll_errors.ErrInvalidInput)
		return
	}

	actor, err := h.resolveActor(c, pollID)
	if err != nil {
		// An unresolved caller simply has not voted.
		if _, ok := admissionReason(err); ok {
			c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"voted": false}))
			return
		}
		writeError(c, err)
		return
	}

	voted, optionID, err := h.votes.HasVoted(c.Request.Context(), pollID, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{"voted": voted}
	if optionID.Valid {
		body["option_id"] = optionID.UUID.String()
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(body))
}

// resolveActor turns the request's session or device fingerprint into a
// voter identity for the given poll.
func (h *VoteHandler) resolveActor(c *gin.Context, pollID uuid.UUID) (identity.Identity, error) {
	p, _, err := h.votes.Poll(c.Request.Context(), pollID)
	if err != nil {
		return nil, err
	}

	userID := uuid.NullUUID{}
	if id, ok := services.UserIDFromContext(c.Request.Context()); ok {
		userID = uuid.NullUUID{UUID: id, Valid: true}
	}
	fingerprint, _ := services.DeviceFromContext(c.Request.Context())

	return h.identities.Resolve(c.Request.Context(), p, userID, fingerprint)
}

// checkResultsVisible enforces the poll's show-results flag: hidden results
// are visible to the owner only.
func (h *VoteHandler) checkResultsVisible(c *gin.Context, pollID uuid.UUID) error {
	p, _, err := h.votes.Poll(c.Request.Context(), pollID)
	if err != nil {
		return err
	}
	if p.ShowResults {
		return nil
	}
	if userID, ok := services.UserIDFromContext(c.Request.Context()); ok && userID == p.OwnerID {
		return nil
	}
	return quickpoll_errors.ErrForbidden
}

// admissionReason maps admission errors to their wire codes. Other errors
// are not admission outcomes.
func admissionReason(err error) (string, bool) {
	for _, target := range []error{
		quickpoll_errors.ErrAuthRequired,
		quickpoll_errors.ErrIdentityUnresolved,
		quickpoll_errors.ErrPollClosed,
		quickpoll_errors.ErrAlreadyVoted,
		quickpoll_errors.ErrChoiceLimitReached,
	} {
		if errors.Is(err, target) {
			return errorCode(err), true
		}
	}
	return "", false
}
