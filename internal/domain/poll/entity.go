package poll

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionRanking        QuestionType = "ranking"
	QuestionRating         QuestionType = "rating"
)

func (q QuestionType) Valid() bool {
	switch q {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionTrueFalse,
		QuestionShortAnswer, QuestionRanking, QuestionRating:
		return true
	}
	return false
}

// Poll represents polls
type Poll struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Title          string
	Description    sql.NullString
	QuestionType   QuestionType
	RequireAuth    bool
	ShowResults    bool
	AllowMultiple  bool
	MaxChoices     int
	RatingScaleMax int
	CreatedAt      time.Time
	EndDate        sql.NullTime
}

// Closed reports whether the poll's end timestamp has passed.
func (p Poll) Closed(now time.Time) bool {
	return p.EndDate.Valid && now.After(p.EndDate.Time)
}

// MultiChoice reports whether the poll admits one vote per (identity, option)
// rather than one vote per identity. Ranking polls record one row per ranked
// option, so they dedup per option as well.
func (p Poll) MultiChoice() bool {
	if p.QuestionType == QuestionRanking {
		return true
	}
	return p.QuestionType == QuestionMultipleChoice && p.AllowMultiple
}

// ChoiceLimit returns the number of distinct options one identity may vote
// for. Single-choice types always cap at 1.
func (p Poll) ChoiceLimit(optionCount int) int {
	if !p.MultiChoice() {
		return 1
	}
	if p.QuestionType == QuestionRanking {
		return optionCount
	}
	if p.MaxChoices < 1 {
		return 1
	}
	return p.MaxChoices
}

// Option represents options
type Option struct {
	ID       uuid.UUID
	PollID   uuid.UUID
	Text     string
	ImageURL sql.NullString
	Position int
}
