package repository

import (
	"context"
	"errors"

	"quickpoll/internal/domain/poll"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresPollRepository struct {
	pool *pgxpool.Pool
}

func NewPollRepository(pool *pgxpool.Pool) PollRepository {
	return &PostgresPollRepository{pool: pool}
}

const pollColumns = `id, owner_id, title, description, question_type, require_auth, show_results,
	allow_multiple, max_choices, rating_scale_max, created_at, end_date`

func scanPoll(row pgx.Row) (poll.Poll, error) {
	var p poll.Poll
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.QuestionType,
		&p.RequireAuth, &p.ShowResults, &p.AllowMultiple, &p.MaxChoices,
		&p.RatingScaleMax, &p.CreatedAt, &p.EndDate)
	return p, err
}

func (r *PostgresPollRepository) Create(ctx context.Context, p *poll.Poll, options []poll.Option) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO polls (id, owner_id, title, description, question_type, require_auth,
			show_results, allow_multiple, max_choices, rating_scale_max, created_at, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.OwnerID, p.Title, p.Description, p.QuestionType, p.RequireAuth,
		p.ShowResults, p.AllowMultiple, p.MaxChoices, p.RatingScaleMax, p.CreatedAt, p.EndDate)
	if err != nil {
		return err
	}

	for _, o := range options {
		_, err = tx.Exec(ctx, `
			INSERT INTO options (id, poll_id, text, image_url, position)
			VALUES ($1, $2, $3, $4, $5)`,
			o.ID, o.PollID, o.Text, o.ImageURL, o.Position)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresPollRepository) GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error) {
	p, err := scanPoll(r.pool.QueryRow(ctx,
		`SELECT `+pollColumns+` FROM polls WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return poll.Poll{}, quickpoll_errors.ErrNotFound
		}
		return poll.Poll{}, err
	}
	return p, nil
}

func (r *PostgresPollRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]poll.Poll, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+pollColumns+` FROM polls WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polls []poll.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	return polls, rows.Err()
}

func (r *PostgresPollRepository) Update(ctx context.Context, p poll.Poll) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE polls SET title = $2, description = $3, require_auth = $4,
			show_results = $5, end_date = $6
		WHERE id = $1`,
		p.ID, p.Title, p.Description, p.RequireAuth, p.ShowResults, p.EndDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return quickpoll_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresPollRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return quickpoll_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresPollRepository) GetOptions(ctx context.Context, pollID uuid.UUID) ([]poll.Option, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, poll_id, text, image_url, position
		FROM options WHERE poll_id = $1 ORDER BY position ASC`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []poll.Option
	for rows.Next() {
		var o poll.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text, &o.ImageURL, &o.Position); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *PostgresPollRepository) AddOption(ctx context.Context, o *poll.Option) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO options (id, poll_id, text, image_url, position)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.PollID, o.Text, o.ImageURL, o.Position)
	return err
}
