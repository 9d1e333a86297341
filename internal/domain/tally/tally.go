package tally

import (
	"sort"
	"time"

	"quickpoll/internal/domain/poll"
	"quickpoll/internal/domain/vote"

	"github.com/google/uuid"
)

// Tally is the derived per-option view of a poll's votes. It is never
// persisted; every reader recomputes it from the current vote set, so all
// subscribers converge regardless of event delivery order.
type Tally struct {
	PollID uuid.UUID         `json:"poll_id"`
	Counts map[uuid.UUID]int `json:"counts"`
	Total  int               `json:"total"`
}

// Count partitions the vote set by option. Every option appears in the
// result, including options with zero votes. Votes that carry no option
// reference (short answers, ratings) count toward the total only.
func Count(pollID uuid.UUID, options []poll.Option, votes []vote.Vote) Tally {
	t := Tally{
		PollID: pollID,
		Counts: make(map[uuid.UUID]int, len(options)),
	}
	for _, opt := range options {
		t.Counts[opt.ID] = 0
	}
	for _, v := range votes {
		if v.PollID != pollID {
			continue
		}
		t.Total++
		if v.OptionID.Valid {
			if _, ok := t.Counts[v.OptionID.UUID]; ok {
				t.Counts[v.OptionID.UUID]++
			}
		}
	}
	return t
}

// RankingMatrix maps option id -> rank -> count for ranking polls.
type RankingMatrix map[uuid.UUID]map[int]int

// RatingSummary aggregates rating votes.
type RatingSummary struct {
	Average      float64     `json:"average"`
	Distribution map[int]int `json:"distribution"`
}

// TextAnswer is one short-answer submission.
type TextAnswer struct {
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Ranks builds the ranking matrix from ranking votes.
func Ranks(options []poll.Option, votes []vote.Vote) RankingMatrix {
	m := make(RankingMatrix, len(options))
	for _, opt := range options {
		m[opt.ID] = make(map[int]int)
	}
	for _, v := range votes {
		if !v.OptionID.Valid || !v.Rank.Valid {
			continue
		}
		if ranks, ok := m[v.OptionID.UUID]; ok {
			ranks[int(v.Rank.Int32)]++
		}
	}
	return m
}

// Ratings builds the rating histogram and average.
func Ratings(votes []vote.Vote) RatingSummary {
	s := RatingSummary{Distribution: make(map[int]int)}
	sum := 0
	n := 0
	for _, v := range votes {
		if !v.Rating.Valid {
			continue
		}
		r := int(v.Rating.Int32)
		s.Distribution[r]++
		sum += r
		n++
	}
	if n > 0 {
		s.Average = float64(sum) / float64(n)
	}
	return s
}

// Answers collects short-answer texts ordered by submission time.
func Answers(votes []vote.Vote) []TextAnswer {
	var answers []TextAnswer
	for _, v := range votes {
		if !v.AnswerText.Valid {
			continue
		}
		answers = append(answers, TextAnswer{Answer: v.AnswerText.String, CreatedAt: v.CreatedAt})
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].CreatedAt.Before(answers[j].CreatedAt)
	})
	return answers
}
