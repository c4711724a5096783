package favorite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wichananm65/storefront/internal/listing"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	addFavoriteQuery = `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`
	removeFavoriteQuery = `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`

	// %s is an ORDER BY clause from favoriteOrder.
	listFavoritesQuery = `
		SELECT p.id, p.title, p.description, p.category, p.price, p.image, p.image_key,
			p.created_at, p.updated_at, f.created_at
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id = $1
			AND p.deleted_at IS NULL
			AND ($2 = '' OR p.title ILIKE $2)
			AND ($3 = '' OR p.category = $3)
		ORDER BY %s
		LIMIT $4 OFFSET $5
	`
	countFavoritesQuery = `
		SELECT COUNT(*)
		FROM favorites f
		JOIN products p ON p.id = f.product_id
		WHERE f.user_id = $1 AND p.deleted_at IS NULL
	`
)

var favoriteOrder = map[listing.Filter]string{
	listing.FilterNewest:       "f.created_at DESC, p.id DESC",
	listing.FilterOldest:       "f.created_at ASC, p.id ASC",
	listing.FilterLowestPrice:  "p.price ASC, p.id DESC",
	listing.FilterHighestPrice: "p.price DESC, p.id DESC",
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, userID, productID int) error {
	result, err := r.db.ExecContext(ctx, addFavoriteQuery, userID, productID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyFavorite
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, productID int) error {
	result, err := r.db.ExecContext(ctx, removeFavoriteQuery, userID, productID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFavorite
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int, p listing.Params, limit, offset int) ([]Item, error) {
	q := fmt.Sprintf(listFavoritesQuery, favoriteOrder[p.SortFilter(true)])
	rows, err := r.db.QueryContext(ctx, q, userID, p.Pattern(), p.Category, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.Title, &it.Description, &it.Category, &it.Price, &it.Image, &it.ImageKey,
			&it.CreatedAt, &it.UpdatedAt, &it.FavoritedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Count(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countFavoritesQuery, userID).Scan(&n)
	return n, err
}
