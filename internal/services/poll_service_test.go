package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"quickpoll/internal/domain/poll"
	"quickpoll/internal/repository/repotest"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/google/uuid"
)

func newPollService() (*PollService, *repotest.PollRepo) {
	repo := repotest.NewPollRepo()
	return NewPollService(repo, nil, nil), repo
}

func twoOptions() []OptionInput {
	return []OptionInput{{Text: "Yes"}, {Text: "No"}}
}

func TestCreatePollDefaults(t *testing.T) {
	service, _ := newPollService()
	owner := uuid.New()

	p, options, err := service.Create(context.Background(), owner, CreatePollInput{
		Title:   "  Lunch?  ",
		Options: twoOptions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Title != "Lunch?" {
		t.Errorf("title = %q", p.Title)
	}
	if p.QuestionType != poll.QuestionSingleChoice {
		t.Errorf("question type = %q, want single_choice", p.QuestionType)
	}
	if p.MaxChoices != 1 || p.RatingScaleMax != 5 {
		t.Errorf("defaults: max_choices=%d rating_scale_max=%d", p.MaxChoices, p.RatingScaleMax)
	}
	if len(options) != 2 {
		t.Errorf("options = %d, want 2", len(options))
	}
}

func TestCreatePollTrueFalse(t *testing.T) {
	service, _ := newPollService()

	_, options, err := service.Create(context.Background(), uuid.New(), CreatePollInput{
		Title:        "Is Go fun?",
		QuestionType: poll.QuestionTrueFalse,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(options) != 2 || options[0].Text != "True" || options[1].Text != "False" {
		t.Errorf("options = %+v, want True/False", options)
	}
}

func TestCreatePollValidation(t *testing.T) {
	service, _ := newPollService()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name  string
		input CreatePollInput
	}{
		{"empty title", CreatePollInput{Options: twoOptions()}},
		{"unknown question type", CreatePollInput{Title: "t", QuestionType: "essay", Options: twoOptions()}},
		{"single option", CreatePollInput{Title: "t", Options: []OptionInput{{Text: "Only"}}}},
		{"blank option text", CreatePollInput{Title: "t", Options: []OptionInput{{Text: "A"}, {Text: "  "}}}},
		{"end date in the past", CreatePollInput{Title: "t", Options: twoOptions(), EndDate: &past}},
		{"options on short answer", CreatePollInput{Title: "t", QuestionType: poll.QuestionShortAnswer, Options: twoOptions()}},
		{"options on rating", CreatePollInput{Title: "t", QuestionType: poll.QuestionRating, Options: twoOptions()}},
		{"rating scale too large", CreatePollInput{Title: "t", QuestionType: poll.QuestionRating, RatingScaleMax: 11}},
		{"max choices over option count", CreatePollInput{
			Title: "t", QuestionType: poll.QuestionMultipleChoice,
			AllowMultiple: true, MaxChoices: 3, Options: twoOptions(),
		}},
		{"end date valid but title empty", CreatePollInput{EndDate: &future, Options: twoOptions()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := service.Create(context.Background(), uuid.New(), tt.input)
			if !errors.Is(err, quickpoll_errors.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestUpdatePollOwnership(t *testing.T) {
	service, _ := newPollService()
	owner := uuid.New()

	p, _, err := service.Create(context.Background(), owner, CreatePollInput{
		Title:   "Original",
		Options: twoOptions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Renamed"
	if _, err := service.Update(context.Background(), p.ID, uuid.New(), UpdatePollInput{Title: &title}); !errors.Is(err, quickpoll_errors.ErrForbidden) {
		t.Fatalf("stranger update err = %v, want ErrForbidden", err)
	}

	updated, err := service.Update(context.Background(), p.ID, owner, UpdatePollInput{Title: &title})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("title = %q", updated.Title)
	}
}

func TestClosePoll(t *testing.T) {
	service, _ := newPollService()
	owner := uuid.New()

	p, _, err := service.Create(context.Background(), owner, CreatePollInput{
		Title:   "Open poll",
		Options: twoOptions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Closed(time.Now()) {
		t.Fatal("new poll should be open")
	}

	closed, err := service.Close(context.Background(), p.ID, owner)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !closed.EndDate.Valid {
		t.Fatal("expected end date to be set")
	}
	if !closed.Closed(time.Now().Add(time.Second)) {
		t.Error("poll should report closed")
	}
}

func TestAddOptionAppendsPosition(t *testing.T) {
	service, _ := newPollService()
	owner := uuid.New()

	p, _, err := service.Create(context.Background(), owner, CreatePollInput{
		Title:   "Colors",
		Options: twoOptions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	o, err := service.AddOption(context.Background(), p.ID, owner, OptionInput{Text: "Maybe"})
	if err != nil {
		t.Fatalf("AddOption: %v", err)
	}
	if o.Position != 2 {
		t.Errorf("position = %d, want 2", o.Position)
	}

	if _, err := service.AddOption(context.Background(), p.ID, uuid.New(), OptionInput{Text: "Nope"}); !errors.Is(err, quickpoll_errors.ErrForbidden) {
		t.Errorf("stranger err = %v, want ErrForbidden", err)
	}
}

func TestDeletePoll(t *testing.T) {
	service, repo := newPollService()
	owner := uuid.New()

	p, _, err := service.Create(context.Background(), owner, CreatePollInput{
		Title:   "Doomed",
		Options: twoOptions(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := service.Delete(context.Background(), p.ID, uuid.New()); !errors.Is(err, quickpoll_errors.ErrForbidden) {
		t.Fatalf("stranger delete err = %v, want ErrForbidden", err)
	}

	if err := service.Delete(context.Background(), p.ID, owner); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), p.ID); !errors.Is(err, quickpoll_errors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
