package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"quickpoll/internal/domain/identity"
	"quickpoll/internal/domain/poll"
	"quickpoll/internal/domain/tally"
	"quickpoll/internal/domain/vote"
	"quickpoll/internal/events"
	"quickpoll/internal/repository"
	quickpoll_errors "quickpoll/pkg/errors"
	"quickpoll/pkg/logger"

	"github.com/google/uuid"
)

// VoteService gates vote admission, appends votes to the ledger exactly once
// per allowed identity, and derives tallies from the current vote set.
//
// The admission pre-check here is advisory only. Two near-simultaneous
// submissions from the same identity can both pass it; the uniqueness
// constraint on (poll_id, voter_key, dedup_key) is the authoritative guard
// and its violation is mapped back to the admission error taxonomy.
type VoteService struct {
	polls     repository.PollRepository
	votes     repository.VoteRepository
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewVoteService(polls repository.PollRepository, votes repository.VoteRepository, publisher events.Publisher, log *logger.Logger) *VoteService {
	return &VoteService{
		polls:     polls,
		votes:     votes,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// SubmitVoteInput carries the option or value being voted for. Exactly the
// fields relevant to the poll's question type may be set.
type SubmitVoteInput struct {
	OptionID   uuid.NullUUID
	Rank       int
	Rating     int
	AnswerText string
}

// Poll returns the poll with its options, for callers that need both before
// submitting.
func (s *VoteService) Poll(ctx context.Context, pollID uuid.UUID) (poll.Poll, []poll.Option, error) {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return poll.Poll{}, nil, err
	}
	options, err := s.polls.GetOptions(ctx, pollID)
	if err != nil {
		return poll.Poll{}, nil, err
	}
	return p, options, nil
}

// CheckAdmission reports whether the identity may cast another vote on the
// poll right now: ErrPollClosed past the end timestamp, ErrAlreadyVoted when
// a single-choice vote exists, ErrChoiceLimitReached at the multi-choice cap.
func (s *VoteService) CheckAdmission(ctx context.Context, pollID uuid.UUID, actor identity.Identity) error {
	if actor == nil {
		return quickpoll_errors.ErrIdentityUnresolved
	}

	p, options, err := s.Poll(ctx, pollID)
	if err != nil {
		return err
	}
	return s.admit(ctx, p, options, actor)
}

func (s *VoteService) admit(ctx context.Context, p poll.Poll, options []poll.Option, actor identity.Identity) error {
	if p.Closed(s.now()) {
		return quickpoll_errors.ErrPollClosed
	}

	existing, err := s.votes.ListByVoter(ctx, p.ID, actor.Key())
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}

	if !p.MultiChoice() {
		return quickpoll_errors.ErrAlreadyVoted
	}

	voted := make(map[uuid.UUID]struct{}, len(existing))
	for _, v := range existing {
		if v.OptionID.Valid {
			voted[v.OptionID.UUID] = struct{}{}
		}
	}
	if len(voted) >= p.ChoiceLimit(len(options)) {
		return quickpoll_errors.ErrChoiceLimitReached
	}
	return nil
}

// SubmitVote validates the submission, runs the advisory admission check,
// and appends the vote. A uniqueness violation from the storage layer is
// surfaced as ErrAlreadyVoted; any other storage failure as
// ErrSubmissionFailed. On success a votes-insert notification is published
// on the poll's channel.
func (s *VoteService) SubmitVote(ctx context.Context, pollID uuid.UUID, actor identity.Identity, in SubmitVoteInput) (vote.Vote, error) {
	if actor == nil {
		return vote.Vote{}, quickpoll_errors.ErrIdentityUnresolved
	}

	p, options, err := s.Poll(ctx, pollID)
	if err != nil {
		return vote.Vote{}, err
	}

	if p.RequireAuth {
		if _, ok := actor.(identity.Authenticated); !ok {
			return vote.Vote{}, quickpoll_errors.ErrAuthRequired
		}
	}

	v := vote.New(pollID, actor)
	if err := fillValue(&v, p, options, in); err != nil {
		return vote.Vote{}, err
	}

	if err := s.admit(ctx, p, options, actor); err != nil {
		return vote.Vote{}, err
	}

	v.DedupKey = vote.DedupKeyFor(p, v.OptionID)
	v.CreatedAt = s.now()

	if err := s.votes.Insert(ctx, &v); err != nil {
		if errors.Is(err, quickpoll_errors.ErrAlreadyExists) {
			return vote.Vote{}, quickpoll_errors.ErrAlreadyVoted
		}
		if s.log != nil {
			s.log.Errorf("vote insert failed for poll %s: %v", pollID, err)
		}
		return vote.Vote{}, quickpoll_errors.ErrSubmissionFailed
	}

	s.notify(ctx, pollID, v)
	return v, nil
}

// ComputeTally is a full recount from the current option and vote sets. It
// is a pure derivation: calling it repeatedly with no intervening writes
// returns identical results, and it is the reconciliation source of truth
// whenever an optimistic local update and the notification feed disagree.
func (s *VoteService) ComputeTally(ctx context.Context, pollID uuid.UUID) (tally.Tally, error) {
	options, err := s.polls.GetOptions(ctx, pollID)
	if err != nil {
		return tally.Tally{}, err
	}
	votes, err := s.votes.ListByPoll(ctx, pollID)
	if err != nil {
		return tally.Tally{}, err
	}
	return tally.Count(pollID, options, votes), nil
}

// HasVoted reports whether the identity has any vote on the poll, and the
// option it chose when there is exactly one.
func (s *VoteService) HasVoted(ctx context.Context, pollID uuid.UUID, actor identity.Identity) (bool, uuid.NullUUID, error) {
	if actor == nil {
		return false, uuid.NullUUID{}, nil
	}
	existing, err := s.votes.ListByVoter(ctx, pollID, actor.Key())
	if err != nil {
		return false, uuid.NullUUID{}, err
	}
	if len(existing) == 0 {
		return false, uuid.NullUUID{}, nil
	}
	if len(existing) == 1 {
		return true, existing[0].OptionID, nil
	}
	return true, uuid.NullUUID{}, nil
}

// PollResults is the aggregated view per question type, consumed by the
// results endpoint and the CSV exporter.
type PollResults struct {
	Poll    poll.Poll
	Options []poll.Option
	Tally   tally.Tally
	Ranking tally.RankingMatrix
	Rating  tally.RatingSummary
	Answers []tally.TextAnswer
}

// Results aggregates the poll's votes into the shape its question type calls
// for.
func (s *VoteService) Results(ctx context.Context, pollID uuid.UUID) (PollResults, error) {
	p, options, err := s.Poll(ctx, pollID)
	if err != nil {
		return PollResults{}, err
	}
	votes, err := s.votes.ListByPoll(ctx, pollID)
	if err != nil {
		return PollResults{}, err
	}

	res := PollResults{
		Poll:    p,
		Options: options,
		Tally:   tally.Count(pollID, options, votes),
	}
	switch p.QuestionType {
	case poll.QuestionRanking:
		res.Ranking = tally.Ranks(options, votes)
	case poll.QuestionRating:
		res.Rating = tally.Ratings(votes)
	case poll.QuestionShortAnswer:
		res.Answers = tally.Answers(votes)
	}
	return res, nil
}

func (s *VoteService) notify(ctx context.Context, pollID uuid.UUID, v vote.Vote) {
	if s.publisher == nil {
		return
	}
	env, err := events.NewEnvelope(events.ActionInsert, events.TableVotes, pollID, v)
	if err == nil {
		err = events.PublishEnvelope(ctx, s.publisher, env)
	}
	if err != nil && s.log != nil {
		s.log.Errorf("failed to publish vote insert for poll %s: %v", pollID, err)
	}
}

func fillValue(v *vote.Vote, p poll.Poll, options []poll.Option, in SubmitVoteInput) error {
	switch p.QuestionType {
	case poll.QuestionSingleChoice, poll.QuestionMultipleChoice, poll.QuestionTrueFalse:
		if !in.OptionID.Valid || !optionBelongs(options, in.OptionID.UUID) {
			return quickpoll_errors.ErrInvalidInput
		}
		v.OptionID = in.OptionID

	case poll.QuestionRanking:
		if !in.OptionID.Valid || !optionBelongs(options, in.OptionID.UUID) {
			return quickpoll_errors.ErrInvalidInput
		}
		if in.Rank < 1 || in.Rank > len(options) {
			return quickpoll_errors.ErrInvalidInput
		}
		v.OptionID = in.OptionID
		v.Rank = sql.NullInt32{Int32: int32(in.Rank), Valid: true}

	case poll.QuestionRating:
		if in.Rating < 1 || in.Rating > p.RatingScaleMax {
			return quickpoll_errors.ErrInvalidInput
		}
		v.Rating = sql.NullInt32{Int32: int32(in.Rating), Valid: true}

	case poll.QuestionShortAnswer:
		answer := strings.TrimSpace(in.AnswerText)
		if answer == "" {
			return quickpoll_errors.ErrInvalidInput
		}
		v.AnswerText = sql.NullString{String: answer, Valid: true}

	default:
		return quickpoll_errors.ErrInvalidInput
	}
	return nil
}

func optionBelongs(options []poll.Option, id uuid.UUID) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}
