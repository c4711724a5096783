package otp

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	upsertCodeQuery = `
		INSERT INTO otps (email, code_hash, expires_at, verified_at, attempts, created_at)
		VALUES ($1, $2, $3, NULL, 0, now())
		ON CONFLICT (email) DO UPDATE
		SET code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			verified_at = NULL,
			attempts = 0,
			created_at = now()
	`
	getCodeQuery           = `SELECT email, code_hash, expires_at, verified_at, attempts FROM otps WHERE email = $1`
	reserveAttemptQuery    = `
		UPDATE otps SET attempts = attempts + 1
		WHERE email = $1 AND attempts < $2
		RETURNING email, code_hash, expires_at, verified_at, attempts
	`
	markVerifiedQuery      = `UPDATE otps SET verified_at = $1 WHERE email = $2`
	deleteCodeQuery        = `DELETE FROM otps WHERE email = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, c Code) error {
	_, err := r.db.ExecContext(ctx, upsertCodeQuery, c.Email, c.Hash, c.ExpiresAt)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, email string) (Code, error) {
	c, err := scanCode(r.db.QueryRowContext(ctx, getCodeQuery, email))
	if errors.Is(err, sql.ErrNoRows) {
		return Code{}, ErrNotFound
	}
	return c, err
}

// ReserveAttempt relies on the row lock taken by UPDATE, so concurrent
// verifications cannot exceed max between them.
func (r *PostgresRepository) ReserveAttempt(ctx context.Context, email string, max int) (Code, error) {
	c, err := scanCode(r.db.QueryRowContext(ctx, reserveAttemptQuery, email, max))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.Get(ctx, email); getErr != nil {
			return Code{}, getErr
		}
		return Code{}, ErrNoAttemptsLeft
	}
	return c, err
}

func scanCode(row *sql.Row) (Code, error) {
	var (
		c          Code
		verifiedAt sql.NullTime
	)
	if err := row.Scan(&c.Email, &c.Hash, &c.ExpiresAt, &verifiedAt, &c.Attempts); err != nil {
		return Code{}, err
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		c.VerifiedAt = &t
	}
	return c, nil
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, email string, at time.Time) error {
	return r.exec(ctx, markVerifiedQuery, at, email)
}

func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	return r.exec(ctx, deleteCodeQuery, email)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
