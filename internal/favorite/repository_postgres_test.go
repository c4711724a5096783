package favorite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/wichananm65/storefront/internal/listing"
)

func TestAdd_DuplicateIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("INSERT INTO favorites").WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO favorites").WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Add(context.Background(), 1, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := repo.Add(context.Background(), 1, 2); !errors.Is(err, ErrAlreadyFavorite) {
		t.Fatalf("expected ErrAlreadyFavorite, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRemove_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("DELETE FROM favorites").WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Remove(context.Background(), 1, 2); !errors.Is(err, ErrNotFavorite) {
		t.Fatalf("expected ErrNotFavorite, got %v", err)
	}
}

func TestList_JoinsLiveProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "category", "price", "image", "image_key", "created_at", "updated_at", "created_at"}).
		AddRow(4, "Hat", "warm hat", "Accessories", 900, "img", "", now, now, now)
	mock.ExpectQuery(`p.deleted_at IS NULL[\s\S]*ORDER BY f.created_at ASC`).
		WithArgs(7, "", "", 11, 0).
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), 7, listing.Params{Filter: listing.FilterOldest, Page: 1}, 11, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Hat" || items[0].FavoritedAt.IsZero() {
		t.Fatalf("unexpected items %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
