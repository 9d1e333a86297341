package httpdto

import (
	"time"

	"quickpoll/internal/domain/poll"
)

type OptionRequest struct {
	Text     string `json:"text" binding:"required"`
	ImageURL string `json:"image_url"`
}

type CreatePollRequest struct {
	Title          string          `json:"title" binding:"required"`
	Description    string          `json:"description"`
	QuestionType   string          `json:"question_type"`
	RequireAuth    bool            `json:"require_auth"`
	ShowResults    bool            `json:"show_results"`
	AllowMultiple  bool            `json:"allow_multiple"`
	MaxChoices     int             `json:"max_choices"`
	RatingScaleMax int             `json:"rating_scale_max"`
	EndDate        *time.Time      `json:"end_date"`
	Options        []OptionRequest `json:"options"`
}

type UpdatePollRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	RequireAuth *bool      `json:"require_auth"`
	ShowResults *bool      `json:"show_results"`
	EndDate     *time.Time `json:"end_date"`
}

type OptionView struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
	Position int    `json:"position"`
}

type PollView struct {
	ID             string       `json:"id"`
	OwnerID        string       `json:"owner_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	QuestionType   string       `json:"question_type"`
	RequireAuth    bool         `json:"require_auth"`
	ShowResults    bool         `json:"show_results"`
	AllowMultiple  bool         `json:"allow_multiple"`
	MaxChoices     int          `json:"max_choices"`
	RatingScaleMax int          `json:"rating_scale_max"`
	CreatedAt      time.Time    `json:"created_at"`
	EndDate        *time.Time   `json:"end_date,omitempty"`
	Closed         bool         `json:"closed"`
	Options        []OptionView `json:"options,omitempty"`
}

func ToPollView(p poll.Poll, options []poll.Option) PollView {
	view := PollView{
		ID:             p.ID.String(),
		OwnerID:        p.OwnerID.String(),
		Title:          p.Title,
		Description:    p.Description.String,
		QuestionType:   string(p.QuestionType),
		RequireAuth:    p.RequireAuth,
		ShowResults:    p.ShowResults,
		AllowMultiple:  p.AllowMultiple,
		MaxChoices:     p.MaxChoices,
		RatingScaleMax: p.RatingScaleMax,
		CreatedAt:      p.CreatedAt,
		Closed:         p.Closed(time.Now()),
	}
	if p.EndDate.Valid {
		end := p.EndDate.Time
		view.EndDate = &end
	}
	for _, o := range options {
		view.Options = append(view.Options, ToOptionView(o))
	}
	return view
}

func ToOptionView(o poll.Option) OptionView {
	return OptionView{
		ID:       o.ID.String(),
		Text:     o.Text,
		ImageURL: o.ImageURL.String,
		Position: o.Position,
	}
}
