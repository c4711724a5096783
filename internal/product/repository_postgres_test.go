package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/wichananm65/storefront/internal/listing"
)

var productCols = []string{"id", "title", "description", "category", "price", "image", "image_key", "created_at", "updated_at"}

func TestList_SortAndFilterArgs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(productCols).
		AddRow(5, "Foo", "desc long enough", "Shoes", 100, "img", "", now, now)
	mock.ExpectQuery(`ORDER BY price ASC, id DESC`).WithArgs("%foo%", "Shoes", 7, 6).WillReturnRows(rows)

	p := listing.Params{Query: "foo", Category: "Shoes", Filter: listing.FilterLowestPrice, Page: 2}
	products, err := repo.List(context.Background(), p, 7, 6)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 || products[0].Title != "Foo" {
		t.Fatalf("unexpected products %+v", products)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListByIDs_UsesArray(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	out, err := repo.ListByIDs(context.Background(), nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("expected empty result without query, got %v %v", out, err)
	}

	now := time.Now().UTC()
	rows := sqlmock.NewRows(productCols).
		AddRow(1, "A", "d", "Books", 10, "img", "", now, now).
		AddRow(2, "B", "d", "Books", 20, "img", "", now, now)
	mock.ExpectQuery(`id = ANY\(\$1::int\[\]\)`).WithArgs("{1,2}").WillReturnRows(rows)

	out, err = repo.ListByIDs(context.Background(), []int{1, 2})
	if err != nil || len(out) != 2 {
		t.Fatalf("expected 2 products, got %d %v", len(out), err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM products").WithArgs(9).WillReturnRows(sqlmock.NewRows(productCols))
	if _, err := repo.GetByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_Soft(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE products SET deleted_at").WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mock.ExpectExec("UPDATE products SET deleted_at").WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
