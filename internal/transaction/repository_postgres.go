package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/order"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	transactionColumns = `t.id, t.user_id, t.product_id, t.order_id, t.amount, t.provider, t.charge_id,
		t.state, t.created_at, t.updated_at, p.title, p.category, p.image, u.email, u.full_name`
	transactionJoins = `
		FROM transactions t
		JOIN products p ON p.id = t.product_id
		JOIN users u ON u.id = t.user_id`

	insertTransactionQuery = `
		INSERT INTO transactions (user_id, product_id, order_id, amount, provider, charge_id, state, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`
	getTransactionQuery         = `SELECT ` + transactionColumns + transactionJoins + ` WHERE t.id = $1`
	getTransactionByChargeQuery = `SELECT ` + transactionColumns + transactionJoins + ` WHERE t.charge_id = $1`
	getTransactionByOrderQuery  = `SELECT ` + transactionColumns + transactionJoins + ` WHERE t.order_id = $1 ORDER BY t.id DESC LIMIT 1`

	// %[1]s is ASC or DESC.
	listTransactionsQuery = `SELECT ` + transactionColumns + transactionJoins + `
		WHERE ($1 = 0 OR t.user_id = $1)
			AND ($2 = '' OR p.title ILIKE $2)
		ORDER BY t.created_at %[1]s, t.id %[1]s
		LIMIT $3 OFFSET $4
	`
	setChargeIDQuery = `UPDATE transactions SET charge_id = $1, updated_at = now() WHERE id = $2`
	updateStateQuery = `
		UPDATE transactions SET state = $1, updated_at = now()
		WHERE id = $2 AND state = $3
	`
	countTransactionsQuery = `SELECT COUNT(*) FROM transactions WHERE ($1 = 0 OR user_id = $1)`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var (
		t Transaction
		p order.ProductRef
		u order.UserRef
	)
	err := row.Scan(&t.ID, &t.UserID, &t.ProductID, &t.OrderID, &t.Amount, &t.Provider, &t.ChargeID,
		&t.State, &t.CreatedAt, &t.UpdatedAt, &p.Title, &p.Category, &p.Image, &u.Email, &u.FullName)
	if err != nil {
		return Transaction{}, err
	}
	p.ID = t.ProductID
	u.ID = t.UserID
	t.Product = &p
	t.User = &u
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t Transaction) (Transaction, error) {
	err := r.db.QueryRowContext(ctx, insertTransactionQuery,
		t.UserID, t.ProductID, t.OrderID, t.Amount, t.Provider, t.ChargeID, t.State, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg any) (Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return t, err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Transaction, error) {
	return r.get(ctx, getTransactionQuery, id)
}

func (r *PostgresRepository) GetByChargeID(ctx context.Context, chargeID string) (Transaction, error) {
	if chargeID == "" {
		return Transaction{}, ErrNotFound
	}
	return r.get(ctx, getTransactionByChargeQuery, chargeID)
}

func (r *PostgresRepository) List(ctx context.Context, userID int, p listing.Params, limit, offset int) ([]Transaction, error) {
	dir := "DESC"
	if p.SortFilter(false) == listing.FilterOldest {
		dir = "ASC"
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(listTransactionsQuery, dir), userID, p.Pattern(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByOrderID(ctx context.Context, orderID int) (Transaction, error) {
	return r.get(ctx, getTransactionByOrderQuery, orderID)
}

func (r *PostgresRepository) SetChargeID(ctx context.Context, id int, chargeID string) error {
	result, err := r.db.ExecContext(ctx, setChargeIDQuery, chargeID, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *PostgresRepository) UpdateState(ctx context.Context, id int, from, to State) (Transaction, error) {
	result, err := r.db.ExecContext(ctx, updateStateQuery, to, id, from)
	if err != nil {
		return Transaction{}, err
	}
	if err := expectAffected(result); err != nil {
		return Transaction{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Count(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countTransactionsQuery, userID).Scan(&n)
	return n, err
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
