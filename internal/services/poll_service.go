package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"quickpoll/internal/domain/poll"
	"quickpoll/internal/events"
	"quickpoll/internal/repository"
	quickpoll_errors "quickpoll/pkg/errors"
	"quickpoll/pkg/logger"

	"github.com/google/uuid"
)

type PollService struct {
	polls     repository.PollRepository
	publisher events.Publisher
	log       *logger.Logger
}

func NewPollService(polls repository.PollRepository, publisher events.Publisher, log *logger.Logger) *PollService {
	return &PollService{polls: polls, publisher: publisher, log: log}
}

type OptionInput struct {
	Text     string
	ImageURL string
}

type CreatePollInput struct {
	Title          string
	Description    string
	QuestionType   poll.QuestionType
	RequireAuth    bool
	ShowResults    bool
	AllowMultiple  bool
	MaxChoices     int
	RatingScaleMax int
	EndDate        *time.Time
	Options        []OptionInput
}

type UpdatePollInput struct {
	Title       *string
	Description *string
	RequireAuth *bool
	ShowResults *bool
	EndDate     *time.Time
}

func (s *PollService) Create(ctx context.Context, ownerID uuid.UUID, in CreatePollInput) (poll.Poll, []poll.Option, error) {
	p, options, err := buildPoll(ownerID, in)
	if err != nil {
		return poll.Poll{}, nil, err
	}

	if err := s.polls.Create(ctx, &p, options); err != nil {
		return poll.Poll{}, nil, err
	}

	s.notify(ctx, events.ActionInsert, events.TablePolls, p.ID, p)
	return p, options, nil
}

func (s *PollService) Get(ctx context.Context, id uuid.UUID) (poll.Poll, []poll.Option, error) {
	p, err := s.polls.GetByID(ctx, id)
	if err != nil {
		return poll.Poll{}, nil, err
	}
	options, err := s.polls.GetOptions(ctx, id)
	if err != nil {
		return poll.Poll{}, nil, err
	}
	return p, options, nil
}

func (s *PollService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]poll.Poll, error) {
	return s.polls.ListByOwner(ctx, ownerID)
}

func (s *PollService) Update(ctx context.Context, id, actorID uuid.UUID, in UpdatePollInput) (poll.Poll, error) {
	p, err := s.ownedPoll(ctx, id, actorID)
	if err != nil {
		return poll.Poll{}, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return poll.Poll{}, quickpoll_errors.ErrInvalidInput
		}
		p.Title = title
	}
	if in.Description != nil {
		p.Description = toNullString(*in.Description)
	}
	if in.RequireAuth != nil {
		p.RequireAuth = *in.RequireAuth
	}
	if in.ShowResults != nil {
		p.ShowResults = *in.ShowResults
	}
	if in.EndDate != nil {
		if !in.EndDate.After(p.CreatedAt) {
			return poll.Poll{}, quickpoll_errors.ErrInvalidInput
		}
		p.EndDate = sql.NullTime{Time: *in.EndDate, Valid: true}
	}

	if err := s.polls.Update(ctx, p); err != nil {
		return poll.Poll{}, err
	}

	s.notify(ctx, events.ActionUpdate, events.TablePolls, p.ID, p)
	return p, nil
}

// Close ends voting immediately by setting the end timestamp to now.
func (s *PollService) Close(ctx context.Context, id, actorID uuid.UUID) (poll.Poll, error) {
	now := time.Now()
	return s.Update(ctx, id, actorID, UpdatePollInput{EndDate: &now})
}

func (s *PollService) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	p, err := s.ownedPoll(ctx, id, actorID)
	if err != nil {
		return err
	}

	if err := s.polls.Delete(ctx, p.ID); err != nil {
		return err
	}

	s.notify(ctx, events.ActionDelete, events.TablePolls, p.ID, nil)
	return nil
}

func (s *PollService) AddOption(ctx context.Context, pollID, actorID uuid.UUID, in OptionInput) (poll.Option, error) {
	p, err := s.ownedPoll(ctx, pollID, actorID)
	if err != nil {
		return poll.Option{}, err
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return poll.Option{}, quickpoll_errors.ErrInvalidInput
	}

	existing, err := s.polls.GetOptions(ctx, pollID)
	if err != nil {
		return poll.Option{}, err
	}

	o := poll.Option{
		ID:       uuid.New(),
		PollID:   p.ID,
		Text:     text,
		ImageURL: toNullString(in.ImageURL),
		Position: len(existing),
	}
	if err := s.polls.AddOption(ctx, &o); err != nil {
		return poll.Option{}, err
	}

	s.notify(ctx, events.ActionInsert, events.TableOptions, p.ID, o)
	return o, nil
}

func (s *PollService) ownedPoll(ctx context.Context, id, actorID uuid.UUID) (poll.Poll, error) {
	p, err := s.polls.GetByID(ctx, id)
	if err != nil {
		return poll.Poll{}, err
	}
	if p.OwnerID != actorID {
		return poll.Poll{}, quickpoll_errors.ErrForbidden
	}
	return p, nil
}

func (s *PollService) notify(ctx context.Context, action events.Action, table string, pollID uuid.UUID, row any) {
	if s.publisher == nil {
		return
	}
	env, err := events.NewEnvelope(action, table, pollID, row)
	if err == nil {
		err = events.PublishEnvelope(ctx, s.publisher, env)
	}
	if err != nil && s.log != nil {
		s.log.Errorf("failed to publish %s.%s for poll %s: %v", table, action, pollID, err)
	}
}

func buildPoll(ownerID uuid.UUID, in CreatePollInput) (poll.Poll, []poll.Option, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return poll.Poll{}, nil, quickpoll_errors.ErrInvalidInput
	}

	qt := in.QuestionType
	if qt == "" {
		qt = poll.QuestionSingleChoice
	}
	if !qt.Valid() {
		return poll.Poll{}, nil, quickpoll_errors.ErrInvalidInput
	}

	now := time.Now()
	p := poll.Poll{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Title:          title,
		Description:    toNullString(in.Description),
		QuestionType:   qt,
		RequireAuth:    in.RequireAuth,
		ShowResults:    in.ShowResults,
		AllowMultiple:  qt == poll.QuestionMultipleChoice && in.AllowMultiple,
		MaxChoices:     1,
		RatingScaleMax: 5,
		CreatedAt:      now,
	}

	if p.AllowMultiple {
		if in.MaxChoices < 1 {
			return poll.Poll{}, nil, quickpoll_errors.ErrInvalidInput
		}
		p.MaxChoices = in.MaxChoices
	}
	if qt == poll.QuestionRating && in.RatingScaleMax > 0 {
		if in.RatingScaleMax < 2 || in.RatingScaleMax > 10 {
			return poll.Poll{}, nil, quickpoll_errors.ErrInvalidInput
		}
		p.RatingScaleMax = in.RatingScaleMax
	}
	if in.EndDate != nil {
		if !in.EndDate.After(now) {
			return poll.Poll{}, nil, quickpoll_errors.ErrInvalidInput
		}
		p.EndDate = sql.NullTime{Time: *in.EndDate, Valid: true}
	}

	options, err := buildOptions(p, in.Options)
	if err != nil {
		return poll.Poll{}, nil, err
	}
	if p.AllowMultiple && p.MaxChoices > len(options) {
		return poll.Poll{}, nil, quickpoll_errors.ErrInvalidInput
	}

	return p, options, nil
}

func buildOptions(p poll.Poll, inputs []OptionInput) ([]poll.Option, error) {
	// True/false polls always carry the same two options.
	if p.QuestionType == poll.QuestionTrueFalse && len(inputs) == 0 {
		inputs = []OptionInput{{Text: "True"}, {Text: "False"}}
	}

	switch p.QuestionType {
	case poll.QuestionShortAnswer, poll.QuestionRating:
		if len(inputs) != 0 {
			return nil, quickpoll_errors.ErrInvalidInput
		}
		return nil, nil
	default:
		if len(inputs) < 2 {
			return nil, quickpoll_errors.ErrInvalidInput
		}
	}

	options := make([]poll.Option, 0, len(inputs))
	for i, in := range inputs {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return nil, quickpoll_errors.ErrInvalidInput
		}
		options = append(options, poll.Option{
			ID:       uuid.New(),
			PollID:   p.ID,
			Text:     text,
			ImageURL: toNullString(in.ImageURL),
			Position: i,
		})
	}
	return options, nil
}

func toNullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
