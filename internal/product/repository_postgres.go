package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/wichananm65/storefront/internal/listing"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, title, description, category, price, image, image_key, created_at, updated_at`

	// %s is an ORDER BY clause from productOrder.
	listProductsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE deleted_at IS NULL
			AND ($1 = '' OR title ILIKE $1)
			AND ($2 = '' OR category = $2)
		ORDER BY %s
		LIMIT $3 OFFSET $4
	`
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND deleted_at IS NULL
	`
	listProductsByIDsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1::int[]) AND deleted_at IS NULL
		ORDER BY id
	`
	countProductsQuery = `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL`
	insertProductQuery = `
		INSERT INTO products (title, description, category, price, image, image_key, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`
	updateProductQuery = `
		UPDATE products
		SET title = $1,
			description = $2,
			category = $3,
			price = $4,
			image = $5,
			image_key = $6,
			updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	deleteProductQuery = `UPDATE products SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`
)

var productOrder = map[listing.Filter]string{
	listing.FilterNewest:       "created_at DESC, id DESC",
	listing.FilterOldest:       "created_at ASC, id ASC",
	listing.FilterLowestPrice:  "price ASC, id DESC",
	listing.FilterHighestPrice: "price DESC, id DESC",
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Price, &p.Image, &p.ImageKey, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepository) List(ctx context.Context, p listing.Params, limit, offset int) ([]Product, error) {
	q := fmt.Sprintf(listProductsQuery, productOrder[p.SortFilter(true)])
	rows, err := r.db.QueryContext(ctx, q, p.Pattern(), p.Category, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// ListByIDs returns the live products among ids. Returns an empty slice when
// input is empty.
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := r.db.QueryContext(ctx, listProductsByIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countProductsQuery).Scan(&n)
	return n, err
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(ctx, insertProductQuery,
		p.Title,
		p.Description,
		p.Category,
		p.Price,
		p.Image,
		p.ImageKey,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p Product) (Product, error) {
	result, err := r.db.ExecContext(ctx, updateProductQuery,
		p.Title,
		p.Description,
		p.Category,
		p.Price,
		p.Image,
		p.ImageKey,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return Product{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Product{}, err
	}
	if affected == 0 {
		return Product{}, ErrNotFound
	}
	return r.GetByID(ctx, p.ID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteProductQuery, id)
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

func collect(rows *sql.Rows) ([]Product, error) {
	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
