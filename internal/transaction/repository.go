package transaction

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wichananm65/storefront/internal/listing"
)

var ErrNotFound = errors.New("transaction not found")

// Repository persists payments. A zero userID in List and Count means every user.
type Repository interface {
	Create(ctx context.Context, t Transaction) (Transaction, error)
	GetByID(ctx context.Context, id int) (Transaction, error)
	GetByChargeID(ctx context.Context, chargeID string) (Transaction, error)
	// GetByOrderID returns the latest payment opened for the order.
	GetByOrderID(ctx context.Context, orderID int) (Transaction, error)
	List(ctx context.Context, userID int, p listing.Params, limit, offset int) ([]Transaction, error)
	SetChargeID(ctx context.Context, id int, chargeID string) error
	// UpdateState moves the payment only while it is still in from; otherwise
	// it returns ErrNotFound.
	UpdateState(ctx context.Context, id int, from, to State) (Transaction, error)
	Count(ctx context.Context, userID int) (int, error)
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Transaction
	nextID  int
}

func NewInMemoryRepository(seed []Transaction) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Transaction, 0, len(seed)), nextID: 1}
	for _, t := range seed {
		r.storage = append(r.storage, t)
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r
}

func (r *InMemoryRepository) Create(_ context.Context, t Transaction) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	r.nextID++
	r.storage = append(r.storage, t)
	return t, nil
}

func (r *InMemoryRepository) find(match func(Transaction) bool) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.storage {
		if match(t) {
			return t, nil
		}
	}
	return Transaction{}, ErrNotFound
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Transaction, error) {
	return r.find(func(t Transaction) bool { return t.ID == id })
}

func (r *InMemoryRepository) GetByChargeID(_ context.Context, chargeID string) (Transaction, error) {
	if chargeID == "" {
		return Transaction{}, ErrNotFound
	}
	return r.find(func(t Transaction) bool { return t.ChargeID == chargeID })
}

func (r *InMemoryRepository) GetByOrderID(_ context.Context, orderID int) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.storage) - 1; i >= 0; i-- {
		if r.storage[i].OrderID == orderID {
			return r.storage[i], nil
		}
	}
	return Transaction{}, ErrNotFound
}

func (r *InMemoryRepository) List(_ context.Context, userID int, p listing.Params, limit, offset int) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(p.Query)
	out := make([]Transaction, 0)
	for _, t := range r.storage {
		if userID != 0 && t.UserID != userID {
			continue
		}
		if q != "" && (t.Product == nil || !strings.Contains(strings.ToLower(t.Product.Title), q)) {
			continue
		}
		out = append(out, t)
	}
	oldest := p.SortFilter(false) == listing.FilterOldest
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt) == oldest
		}
		return (a.ID < b.ID) == oldest
	})
	return listing.Slice(out, limit, offset), nil
}

func (r *InMemoryRepository) SetChargeID(_ context.Context, id int, chargeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage[i].ChargeID = chargeID
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) UpdateState(_ context.Context, id int, from, to State) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id && r.storage[i].State == from {
			r.storage[i].State = to
			r.storage[i].UpdatedAt = time.Now().UTC()
			return r.storage[i], nil
		}
	}
	return Transaction{}, ErrNotFound
}

func (r *InMemoryRepository) Count(_ context.Context, userID int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, t := range r.storage {
		if userID == 0 || t.UserID == userID {
			n++
		}
	}
	return n, nil
}
