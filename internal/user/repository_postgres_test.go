package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wichananm65/storefront/internal/listing"
)

func TestPostgresCreate_UniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = repo.Create(context.Background(), User{Email: "a@example.com", Role: RoleUser})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "password", "full_name", "avatar", "avatar_key", "role", "is_deleted", "deleted_at", "created_at", "updated_at"}).
		AddRow(3, "a@example.com", "hash", "Alice", "", "", "admin", true, now, now, now)
	mock.ExpectQuery("FROM users").WithArgs("A@example.com").WillReturnRows(rows)

	u, err := repo.GetByEmail(context.Background(), "A@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u.Role != RoleAdmin || !u.IsDeleted || u.DeletedAt == nil {
		t.Fatalf("unexpected user %+v", u)
	}

	mock.ExpectQuery("FROM users").WithArgs(9).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := repo.GetByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresSoftDelete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE users SET is_deleted").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.SoftDelete(context.Background(), 4, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresListCustomers_OrderAndSearch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "avatar", "avatar_key", "role", "created_at", "updated_at", "orders", "paid"}).
		AddRow(1, "a@example.com", "Alice", "", "", "user", now, now, 2, 4500)
	mock.ExpectQuery(`ORDER BY u.created_at ASC, u.id ASC`).WithArgs("%ali%", 11, 0).WillReturnRows(rows)

	out, err := repo.ListCustomers(context.Background(), listing.Params{Query: "ali", Filter: listing.FilterOldest, Page: 1}, 11, 0)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(out) != 1 || out[0].OrderCount != 2 || out[0].TotalPaid != 4500 {
		t.Fatalf("unexpected customers %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
