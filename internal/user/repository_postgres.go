package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wichananm65/storefront/internal/listing"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	userColumns = `id, email, password, full_name, avatar, avatar_key, role, is_deleted, deleted_at, created_at, updated_at`

	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND is_deleted = FALSE
	`
	getUserByEmailQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)
	`
	insertUserQuery = `
		INSERT INTO users (email, password, full_name, avatar, avatar_key, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`
	updateProfileQuery = `
		UPDATE users
		SET email = $1,
			full_name = $2,
			avatar = $3,
			avatar_key = $4,
			updated_at = $5
		WHERE id = $6 AND is_deleted = FALSE
	`
	updatePasswordQuery = `UPDATE users SET password = $1, updated_at = now() WHERE id = $2 AND is_deleted = FALSE`
	softDeleteQuery     = `UPDATE users SET is_deleted = TRUE, deleted_at = $1, updated_at = $1 WHERE id = $2 AND is_deleted = FALSE`

	// %s is the ORDER BY direction, picked from a fixed set.
	listCustomersQuery = `
		SELECT u.id, u.email, u.full_name, u.avatar, u.avatar_key, u.role, u.created_at, u.updated_at,
			(SELECT COUNT(*) FROM orders o WHERE o.user_id = u.id),
			(SELECT COALESCE(SUM(t.amount), 0) FROM transactions t WHERE t.user_id = u.id AND t.state = 2)
		FROM users u
		WHERE u.is_deleted = FALSE
			AND ($1 = '' OR u.email ILIKE $1 OR u.full_name ILIKE $1)
		ORDER BY u.created_at %[1]s, u.id %[1]s
		LIMIT $2 OFFSET $3
	`
)

const uniqueViolation = "23505"

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		u         User
		role      string
		deletedAt sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Avatar, &u.AvatarKey, &role, &u.IsDeleted, &deletedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserByEmailQuery, email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	err := r.db.QueryRowContext(ctx, insertUserQuery,
		u.Email,
		u.Password,
		u.FullName,
		u.Avatar,
		u.AvatarKey,
		string(u.Role),
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, u User) (User, error) {
	result, err := r.db.ExecContext(ctx, updateProfileQuery, u.Email, u.FullName, u.Avatar, u.AvatarKey, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		return User{}, err
	}
	if err := expectAffected(result); err != nil {
		return User{}, err
	}
	return r.GetByID(ctx, u.ID)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	result, err := r.db.ExecContext(ctx, updatePasswordQuery, hash, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id int, at time.Time) error {
	result, err := r.db.ExecContext(ctx, softDeleteQuery, at, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *PostgresRepository) ListCustomers(ctx context.Context, p listing.Params, limit, offset int) ([]Customer, error) {
	dir := "DESC"
	if p.SortFilter(false) == listing.FilterOldest {
		dir = "ASC"
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(listCustomersQuery, dir), p.Pattern(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Customer, 0)
	for rows.Next() {
		var (
			c    Customer
			role string
		)
		if err := rows.Scan(&c.ID, &c.Email, &c.FullName, &c.Avatar, &c.AvatarKey, &role, &c.CreatedAt, &c.UpdatedAt, &c.OrderCount, &c.TotalPaid); err != nil {
			return nil, err
		}
		c.Role = Role(role)
		out = append(out, c)
	}
	return out, rows.Err()
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
