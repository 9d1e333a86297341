package repository

import (
	"context"
	"database/sql"
	"errors"

	"quickpoll/internal/domain/identity"
	quickpoll_errors "quickpoll/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDeviceRepository struct {
	pool *pgxpool.Pool
}

func NewDeviceRepository(pool *pgxpool.Pool) DeviceRepository {
	return &PostgresDeviceRepository{pool: pool}
}

func (r *PostgresDeviceRepository) Get(ctx context.Context, fingerprint string) (identity.Device, error) {
	var d identity.Device
	var name sql.NullString
	err := r.pool.QueryRow(ctx, `
		SELECT fingerprint, display_name, created_at, last_seen_at
		FROM devices WHERE fingerprint = $1`, fingerprint).
		Scan(&d.Fingerprint, &name, &d.CreatedAt, &d.LastSeenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Device{}, quickpoll_errors.ErrNotFound
		}
		return identity.Device{}, err
	}
	d.DisplayName = name.String
	return d, nil
}

func (r *PostgresDeviceRepository) Create(ctx context.Context, d *identity.Device) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO devices (fingerprint, display_name, created_at, last_seen_at)
		VALUES ($1, NULLIF($2, ''), $3, $4)`,
		d.Fingerprint, d.DisplayName, d.CreatedAt, d.LastSeenAt)
	if err != nil {
		if isUniqueViolation(err) {
			return quickpoll_errors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresDeviceRepository) SetDisplayName(ctx context.Context, fingerprint, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE devices SET display_name = $2 WHERE fingerprint = $1`, fingerprint, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return quickpoll_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresDeviceRepository) Touch(ctx context.Context, fingerprint string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE devices SET last_seen_at = NOW() WHERE fingerprint = $1`, fingerprint)
	return err
}
