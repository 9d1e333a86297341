package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"quickpoll/internal/domain/poll"

	"github.com/google/uuid"
)

// ExportService renders a poll's aggregated results as CSV: a metadata
// section of header/value pairs followed by a table specific to the
// question type.
type ExportService struct {
	votes *VoteService
}

func NewExportService(votes *VoteService) *ExportService {
	return &ExportService{votes: votes}
}

// Filename returns the download name for a poll's export.
func (s *ExportService) Filename(pollID uuid.UUID) string {
	return fmt.Sprintf("poll-%s-results.csv", pollID)
}

func (s *ExportService) ExportCSV(ctx context.Context, pollID uuid.UUID) (string, error) {
	res, err := s.votes.Results(ctx, pollID)
	if err != nil {
		return "", err
	}
	return renderCSV(res), nil
}

func renderCSV(res PollResults) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	p := res.Poll
	_ = w.Write([]string{"Poll Information"})
	_ = w.Write([]string{"Title", p.Title})
	_ = w.Write([]string{"Description", p.Description.String})
	_ = w.Write([]string{"Type", string(p.QuestionType)})
	_ = w.Write([]string{"Created At", p.CreatedAt.Format(time.RFC3339)})
	_ = w.Write([]string{"Total Votes", strconv.Itoa(res.Tally.Total)})
	_ = w.Write([]string{})

	switch p.QuestionType {
	case poll.QuestionRanking:
		writeRankingSection(w, res)
	case poll.QuestionShortAnswer:
		writeAnswerSection(w, res)
	case poll.QuestionRating:
		writeRatingSection(w, res)
	default:
		writeChoiceSection(w, res)
	}

	w.Flush()
	return sb.String()
}

func writeChoiceSection(w *csv.Writer, res PollResults) {
	_ = w.Write([]string{"Option", "Votes"})
	for _, o := range res.Options {
		_ = w.Write([]string{o.Text, strconv.Itoa(res.Tally.Counts[o.ID])})
	}
}

func writeRankingSection(w *csv.Writer, res PollResults) {
	maxRank := 0
	for _, ranks := range res.Ranking {
		for rank := range ranks {
			if rank > maxRank {
				maxRank = rank
			}
		}
	}

	header := []string{"Option"}
	for rank := 1; rank <= maxRank; rank++ {
		header = append(header, fmt.Sprintf("Rank %d", rank))
	}
	_ = w.Write(header)

	for _, o := range res.Options {
		row := []string{o.Text}
		for rank := 1; rank <= maxRank; rank++ {
			row = append(row, strconv.Itoa(res.Ranking[o.ID][rank]))
		}
		_ = w.Write(row)
	}
}

func writeAnswerSection(w *csv.Writer, res PollResults) {
	_ = w.Write([]string{"Answer", "Submitted At"})
	for _, a := range res.Answers {
		_ = w.Write([]string{a.Answer, a.CreatedAt.Format(time.RFC3339)})
	}
}

func writeRatingSection(w *csv.Writer, res PollResults) {
	_ = w.Write([]string{"Rating Statistics"})
	_ = w.Write([]string{"Average Rating", strconv.FormatFloat(res.Rating.Average, 'f', 2, 64)})
	_ = w.Write([]string{})
	_ = w.Write([]string{"Rating", "Count"})

	ratings := make([]int, 0, len(res.Rating.Distribution))
	for r := range res.Rating.Distribution {
		ratings = append(ratings, r)
	}
	sort.Ints(ratings)
	for _, r := range ratings {
		_ = w.Write([]string{strconv.Itoa(r), strconv.Itoa(res.Rating.Distribution[r])})
	}
}
