package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wichananm65/storefront/internal/listing"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	orderColumns = `o.id, o.user_id, o.product_id, o.price, o.status, o.created_at, o.updated_at,
		p.title, p.category, p.image, u.email, u.full_name`
	orderJoins = `
		FROM orders o
		JOIN products p ON p.id = o.product_id
		JOIN users u ON u.id = o.user_id`

	insertOrderQuery = `
		INSERT INTO orders (user_id, product_id, price, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`
	getOrderQuery = `SELECT ` + orderColumns + orderJoins + ` WHERE o.id = $1`

	// %[1]s is ASC or DESC.
	listOrdersQuery = `SELECT ` + orderColumns + orderJoins + `
		WHERE ($1 = 0 OR o.user_id = $1)
			AND ($2 = '' OR p.title ILIKE $2)
		ORDER BY o.created_at %[1]s, o.id %[1]s
		LIMIT $3 OFFSET $4
	`
	updateOrderStatusQuery = `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`
	countOrdersQuery = `SELECT COUNT(*) FROM orders WHERE ($1 = 0 OR user_id = $1)`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o Order
		p ProductRef
		u UserRef
	)
	err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Price, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		&p.Title, &p.Category, &p.Image, &u.Email, &u.FullName)
	if err != nil {
		return Order{}, err
	}
	p.ID = o.ProductID
	u.ID = o.UserID
	o.Product = &p
	o.User = &u
	return o, nil
}

func (r *PostgresRepository) Create(ctx context.Context, ord Order) (Order, error) {
	err := r.db.QueryRowContext(ctx, insertOrderQuery,
		ord.UserID, ord.ProductID, ord.Price, ord.Status, ord.CreatedAt, ord.UpdatedAt,
	).Scan(&ord.ID)
	if err != nil {
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, getOrderQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *PostgresRepository) List(ctx context.Context, userID int, p listing.Params, limit, offset int) ([]Order, error) {
	dir := "DESC"
	if p.SortFilter(false) == listing.FilterOldest {
		dir = "ASC"
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(listOrdersQuery, dir), userID, p.Pattern(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, from, to Status) (Order, error) {
	result, err := r.db.ExecContext(ctx, updateOrderStatusQuery, to, id, from)
	if err != nil {
		return Order{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Order{}, err
	}
	if affected == 0 {
		return Order{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Count(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countOrdersQuery, userID).Scan(&n)
	return n, err
}
