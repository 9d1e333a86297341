package repository

import (
	"context"

	"quickpoll/internal/domain/vote"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresVoteRepository struct {
	pool *pgxpool.Pool
}

func NewVoteRepository(pool *pgxpool.Pool) VoteRepository {
	return &PostgresVoteRepository{pool: pool}
}

func (r *PostgresVoteRepository) Insert(ctx context.Context, v *vote.Vote) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO votes (id, poll_id, option_id, user_id, device_fingerprint,
			display_name, voter_key, dedup_key, rank, rating, answer_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.ID, v.PollID, v.OptionID, v.UserID, v.DeviceFingerprint,
		v.DisplayName, v.VoterKey, v.DedupKey, v.Rank, v.Rating, v.AnswerText, v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return quickpoll_errors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

const voteColumns = `id, poll_id, option_id, user_id, device_fingerprint,
	display_name, voter_key, dedup_key, rank, rating, answer_text, created_at`

func (r *PostgresVoteRepository) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]vote.Vote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+voteColumns+` FROM votes WHERE poll_id = $1 ORDER BY created_at ASC`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []vote.Vote
	for rows.Next() {
		var v vote.Vote
		if err := rows.Scan(&v.ID, &v.PollID, &v.OptionID, &v.UserID, &v.DeviceFingerprint,
			&v.DisplayName, &v.VoterKey, &v.DedupKey, &v.Rank, &v.Rating, &v.AnswerText, &v.CreatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (r *PostgresVoteRepository) ListByVoter(ctx context.Context, pollID uuid.UUID, voterKey string) ([]vote.Vote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+voteColumns+` FROM votes WHERE poll_id = $1 AND voter_key = $2`, pollID, voterKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []vote.Vote
	for rows.Next() {
		var v vote.Vote
		if err := rows.Scan(&v.ID, &v.PollID, &v.OptionID, &v.UserID, &v.DeviceFingerprint,
			&v.DisplayName, &v.VoterKey, &v.DedupKey, &v.Rank, &v.Rating, &v.AnswerText, &v.CreatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
