package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"quickpoll/internal/domain/identity"
	"quickpoll/internal/domain/poll"
	"quickpoll/internal/repository/repotest"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/google/uuid"
)

type voteFixture struct {
	polls   *repotest.PollRepo
	votes   *repotest.VoteRepo
	service *VoteService
	now     time.Time
}

func newVoteFixture(t *testing.T) *voteFixture {
	t.Helper()
	f := &voteFixture{
		polls: repotest.NewPollRepo(),
		votes: repotest.NewVoteRepo(),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.service = NewVoteService(f.polls, f.votes, nil, nil)
	f.service.now = func() time.Time { return f.now }
	return f
}

func (f *voteFixture) createPoll(t *testing.T, qt poll.QuestionType, mutate func(*poll.Poll)) (poll.Poll, []poll.Option) {
	t.Helper()
	p := poll.Poll{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		Title:          "Favorite color?",
		QuestionType:   qt,
		ShowResults:    true,
		MaxChoices:     1,
		RatingScaleMax: 5,
		CreatedAt:      f.now.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&p)
	}

	var options []poll.Option
	switch qt {
	case poll.QuestionShortAnswer, poll.QuestionRating:
	default:
		for i, text := range []string{"Red", "Green", "Blue"} {
			options = append(options, poll.Option{ID: uuid.New(), PollID: p.ID, Text: text, Position: i})
		}
	}
	if err := f.polls.Create(context.Background(), &p, options); err != nil {
		t.Fatalf("create poll: %v", err)
	}
	return p, options
}

func anonVoter(name string) identity.Identity {
	return identity.AnonymousNamed{Fingerprint: uuid.NewString(), DisplayName: name}
}

func TestSubmitVoteSingleChoice(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionSingleChoice, nil)
	voter := anonVoter("alice")
	choice := uuid.NullUUID{UUID: options[0].ID, Valid: true}

	v, err := f.service.SubmitVote(context.Background(), p.ID, voter, SubmitVoteInput{OptionID: choice})
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if v.VoterKey != voter.Key() {
		t.Errorf("voter key = %q, want %q", v.VoterKey, voter.Key())
	}
	if !v.OptionID.Valid || v.OptionID.UUID != options[0].ID {
		t.Errorf("option id = %v, want %s", v.OptionID, options[0].ID)
	}

	// Same identity again, even for a different option.
	other := uuid.NullUUID{UUID: options[1].ID, Valid: true}
	if _, err := f.service.SubmitVote(context.Background(), p.ID, voter, SubmitVoteInput{OptionID: other}); !errors.Is(err, quickpoll_errors.ErrAlreadyVoted) {
		t.Errorf("second vote err = %v, want ErrAlreadyVoted", err)
	}

	// A different identity is unaffected.
	if _, err := f.service.SubmitVote(context.Background(), p.ID, anonVoter("bob"), SubmitVoteInput{OptionID: choice}); err != nil {
		t.Errorf("other voter: %v", err)
	}
}

func TestSubmitVoteClosedPoll(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionSingleChoice, func(p *poll.Poll) {
		p.EndDate = sql.NullTime{Time: f.now.Add(-time.Minute), Valid: true}
	})

	_, err := f.service.SubmitVote(context.Background(), p.ID, anonVoter("alice"), SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
	})
	if !errors.Is(err, quickpoll_errors.ErrPollClosed) {
		t.Fatalf("err = %v, want ErrPollClosed", err)
	}
}

func TestSubmitVoteRequireAuth(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionSingleChoice, func(p *poll.Poll) {
		p.RequireAuth = true
	})
	choice := uuid.NullUUID{UUID: options[0].ID, Valid: true}

	_, err := f.service.SubmitVote(context.Background(), p.ID, anonVoter("alice"), SubmitVoteInput{OptionID: choice})
	if !errors.Is(err, quickpoll_errors.ErrAuthRequired) {
		t.Fatalf("anonymous err = %v, want ErrAuthRequired", err)
	}

	if _, err := f.service.SubmitVote(context.Background(), p.ID, identity.Authenticated{UserID: uuid.New()}, SubmitVoteInput{OptionID: choice}); err != nil {
		t.Fatalf("authenticated: %v", err)
	}
}

func TestSubmitVoteNilActor(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionSingleChoice, nil)

	_, err := f.service.SubmitVote(context.Background(), p.ID, nil, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
	})
	if !errors.Is(err, quickpoll_errors.ErrIdentityUnresolved) {
		t.Fatalf("err = %v, want ErrIdentityUnresolved", err)
	}
}

func TestSubmitVoteMultipleChoice(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionMultipleChoice, func(p *poll.Poll) {
		p.AllowMultiple = true
		p.MaxChoices = 2
	})
	voter := anonVoter("alice")

	if _, err := f.service.SubmitVote(context.Background(), p.ID, voter, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
	}); err != nil {
		t.Fatalf("first choice: %v", err)
	}

	// Same option again collides on the ledger's dedup key.
	if _, err := f.service.SubmitVote(context.Background(), p.ID, voter, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
	}); !errors.Is(err, quickpoll_errors.ErrAlreadyVoted) {
		t.Fatalf("repeat option err = %v, want ErrAlreadyVoted", err)
	}

	if _, err := f.service.SubmitVote(context.Background(), p.ID, voter, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[1].ID, Valid: true},
	}); err != nil {
		t.Fatalf("second choice: %v", err)
	}

	// At the cap now.
	_, err := f.service.SubmitVote(context.Background(), p.ID, voter, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[2].ID, Valid: true},
	})
	if !errors.Is(err, quickpoll_errors.ErrChoiceLimitReached) {
		t.Fatalf("third choice err = %v, want ErrChoiceLimitReached", err)
	}
}

func TestCheckAdmission(t *testing.T) {
	f := newVoteFixture(t)

	open, openOptions := f.createPoll(t, poll.QuestionSingleChoice, nil)
	closed, _ := f.createPoll(t, poll.QuestionSingleChoice, func(p *poll.Poll) {
		p.EndDate = sql.NullTime{Time: f.now.Add(-time.Minute), Valid: true}
	})

	voted := anonVoter("alice")
	if _, err := f.service.SubmitVote(context.Background(), open.ID, voted, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: openOptions[0].ID, Valid: true},
	}); err != nil {
		t.Fatalf("seed vote: %v", err)
	}

	tests := []struct {
		name    string
		pollID  uuid.UUID
		actor   identity.Identity
		wantErr error
	}{
		{"fresh voter admitted", open.ID, anonVoter("bob"), nil},
		{"nil actor unresolved", open.ID, nil, quickpoll_errors.ErrIdentityUnresolved},
		{"closed poll", closed.ID, anonVoter("bob"), quickpoll_errors.ErrPollClosed},
		{"already voted", open.ID, voted, quickpoll_errors.ErrAlreadyVoted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.CheckAdmission(context.Background(), tt.pollID, tt.actor)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckAdmission() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// The pre-check is advisory. A vote that slipped in between the check and
// the insert surfaces as the constraint violation, mapped to ErrAlreadyVoted.
func TestSubmitVoteConstraintIsAuthoritative(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionSingleChoice, nil)
	voter := anonVoter("alice")

	if err := f.service.CheckAdmission(context.Background(), p.ID, voter); err != nil {
		t.Fatalf("pre-check: %v", err)
	}

	// Another request from the same identity lands first.
	if _, err := f.service.SubmitVote(context.Background(), p.ID, voter, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
	}); err != nil {
		t.Fatalf("competing vote: %v", err)
	}

	_, err := f.service.SubmitVote(context.Background(), p.ID, voter, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[1].ID, Valid: true},
	})
	if !errors.Is(err, quickpoll_errors.ErrAlreadyVoted) {
		t.Fatalf("err = %v, want ErrAlreadyVoted", err)
	}
}

func TestSubmitVoteStorageFailure(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionSingleChoice, nil)
	f.votes.InsertErr = errors.New("connection reset")

	_, err := f.service.SubmitVote(context.Background(), p.ID, anonVoter("alice"), SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
	})
	if !errors.Is(err, quickpoll_errors.ErrSubmissionFailed) {
		t.Fatalf("err = %v, want ErrSubmissionFailed", err)
	}

	// The failed attempt left no row behind, so retrying succeeds.
	f.votes.InsertErr = nil
	if _, err := f.service.SubmitVote(context.Background(), p.ID, anonVoter("alice"), SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
	}); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestSubmitVoteValidation(t *testing.T) {
	f := newVoteFixture(t)

	single, _ := f.createPoll(t, poll.QuestionSingleChoice, nil)
	ranking, rankOptions := f.createPoll(t, poll.QuestionRanking, nil)
	rating, _ := f.createPoll(t, poll.QuestionRating, nil)
	short, _ := f.createPoll(t, poll.QuestionShortAnswer, nil)

	tests := []struct {
		name   string
		pollID uuid.UUID
		input  SubmitVoteInput
	}{
		{"missing option", single.ID, SubmitVoteInput{}},
		{"foreign option", single.ID, SubmitVoteInput{OptionID: uuid.NullUUID{UUID: uuid.New(), Valid: true}}},
		{"rank too low", ranking.ID, SubmitVoteInput{OptionID: uuid.NullUUID{UUID: rankOptions[0].ID, Valid: true}, Rank: 0}},
		{"rank too high", ranking.ID, SubmitVoteInput{OptionID: uuid.NullUUID{UUID: rankOptions[0].ID, Valid: true}, Rank: 4}},
		{"rating zero", rating.ID, SubmitVoteInput{}},
		{"rating over scale", rating.ID, SubmitVoteInput{Rating: 6}},
		{"blank answer", short.ID, SubmitVoteInput{AnswerText: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.SubmitVote(context.Background(), tt.pollID, anonVoter("alice"), tt.input)
			if !errors.Is(err, quickpoll_errors.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestComputeTally(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionSingleChoice, nil)

	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := f.service.SubmitVote(context.Background(), p.ID, anonVoter(name), SubmitVoteInput{
			OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
		}); err != nil {
			t.Fatalf("vote %s: %v", name, err)
		}
	}
	if _, err := f.service.SubmitVote(context.Background(), p.ID, identity.Authenticated{UserID: uuid.New()}, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[1].ID, Valid: true},
	}); err != nil {
		t.Fatalf("auth vote: %v", err)
	}

	tly, err := f.service.ComputeTally(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ComputeTally: %v", err)
	}

	if tly.Total != 4 {
		t.Errorf("total = %d, want 4", tly.Total)
	}
	if got := tly.Counts[options[0].ID]; got != 3 {
		t.Errorf("counts[%s] = %d, want 3", options[0].Text, got)
	}
	if got := tly.Counts[options[1].ID]; got != 1 {
		t.Errorf("counts[%s] = %d, want 1", options[1].Text, got)
	}
	// Options nobody picked still appear.
	if got, ok := tly.Counts[options[2].ID]; !ok || got != 0 {
		t.Errorf("counts[%s] = %d,%v, want 0,true", options[2].Text, got, ok)
	}

	// Recounting with no intervening writes is a fixed point.
	again, err := f.service.ComputeTally(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if again.Total != tly.Total || len(again.Counts) != len(tly.Counts) {
		t.Errorf("recount diverged: %+v vs %+v", again, tly)
	}
	for id, n := range tly.Counts {
		if again.Counts[id] != n {
			t.Errorf("recount counts[%s] = %d, want %d", id, again.Counts[id], n)
		}
	}
}

func TestResultsRanking(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionRanking, nil)

	// Two voters rank the first option; ranking polls admit one vote per
	// (identity, option).
	voterA := anonVoter("alice")
	voterB := anonVoter("bob")
	for _, sub := range []struct {
		actor identity.Identity
		rank  int
	}{
		{voterA, 1},
		{voterB, 2},
	} {
		if _, err := f.service.SubmitVote(context.Background(), p.ID, sub.actor, SubmitVoteInput{
			OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
			Rank:     sub.rank,
		}); err != nil {
			t.Fatalf("rank vote: %v", err)
		}
	}

	res, err := f.service.Results(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if res.Ranking == nil {
		t.Fatal("expected ranking matrix")
	}
	if got := res.Ranking[options[0].ID][1]; got != 1 {
		t.Errorf("rank-1 count = %d, want 1", got)
	}
	if got := res.Ranking[options[0].ID][2]; got != 1 {
		t.Errorf("rank-2 count = %d, want 1", got)
	}
}

func TestResultsRating(t *testing.T) {
	f := newVoteFixture(t)
	p, _ := f.createPoll(t, poll.QuestionRating, nil)

	for i, rating := range []int{5, 3} {
		if _, err := f.service.SubmitVote(context.Background(), p.ID, anonVoter("voter"+string(rune('a'+i))), SubmitVoteInput{Rating: rating}); err != nil {
			t.Fatalf("rating vote: %v", err)
		}
	}

	res, err := f.service.Results(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if res.Rating.Average != 4 {
		t.Errorf("average = %v, want 4", res.Rating.Average)
	}
	if res.Rating.Distribution[5] != 1 || res.Rating.Distribution[3] != 1 {
		t.Errorf("distribution = %v", res.Rating.Distribution)
	}
}

func TestHasVoted(t *testing.T) {
	f := newVoteFixture(t)
	p, options := f.createPoll(t, poll.QuestionSingleChoice, nil)
	voter := anonVoter("alice")

	voted, _, err := f.service.HasVoted(context.Background(), p.ID, voter)
	if err != nil || voted {
		t.Fatalf("before vote: voted=%v err=%v", voted, err)
	}

	if _, err := f.service.SubmitVote(context.Background(), p.ID, voter, SubmitVoteInput{
		OptionID: uuid.NullUUID{UUID: options[0].ID, Valid: true},
	}); err != nil {
		t.Fatalf("vote: %v", err)
	}

	voted, optionID, err := f.service.HasVoted(context.Background(), p.ID, voter)
	if err != nil {
		t.Fatalf("after vote: %v", err)
	}
	if !voted {
		t.Error("expected voted=true")
	}
	if !optionID.Valid || optionID.UUID != options[0].ID {
		t.Errorf("option id = %v, want %s", optionID, options[0].ID)
	}
}
