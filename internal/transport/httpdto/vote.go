package httpdto

import (
	"time"

	"quickpoll/internal/domain/tally"
)

type SubmitVoteRequest struct {
	OptionID   string `json:"option_id"`
	Rank       int    `json:"rank"`
	Rating     int    `json:"rating"`
	AnswerText string `json:"answer_text"`
}

type VoteView struct {
	ID        string    `json:"id"`
	PollID    string    `json:"poll_id"`
	OptionID  string    `json:"option_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type TallyView struct {
	PollID string         `json:"poll_id"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

func ToTallyView(t tally.Tally) TallyView {
	view := TallyView{
		PollID: t.PollID.String(),
		Counts: make(map[string]int, len(t.Counts)),
		Total:  t.Total,
	}
	for id, n := range t.Counts {
		view.Counts[id.String()] = n
	}
	return view
}

type AdmissionView struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type PresignRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required"`
}
