package order

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wichananm65/storefront/internal/listing"
)

var ErrNotFound = errors.New("order not found")

// Repository defines persistence operations for orders. A zero userID in List
// and Count means every user.
type Repository interface {
	Create(ctx context.Context, ord Order) (Order, error)
	GetByID(ctx context.Context, id int) (Order, error)
	List(ctx context.Context, userID int, p listing.Params, limit, offset int) ([]Order, error)
	// UpdateStatus moves the order from one status to another and fails with
	// ErrNotFound when the order is no longer in from.
	UpdateStatus(ctx context.Context, id int, from, to Status) (Order, error)
	Count(ctx context.Context, userID int) (int, error)
}

// InMemoryRepository keeps the refs it was given on Create.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Order
	nextID  int
}

func NewInMemoryRepository(seed []Order) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Order, 0, len(seed)), nextID: 1}
	for _, o := range seed {
		r.storage = append(r.storage, o)
		if o.ID >= r.nextID {
			r.nextID = o.ID + 1
		}
	}
	return r
}

func (r *InMemoryRepository) Create(_ context.Context, ord Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord.ID = r.nextID
	r.nextID++
	r.storage = append(r.storage, ord)
	return ord, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.storage {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) List(_ context.Context, userID int, p listing.Params, limit, offset int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q := strings.ToLower(p.Query)
	out := make([]Order, 0)
	for _, o := range r.storage {
		if userID != 0 && o.UserID != userID {
			continue
		}
		if q != "" && (o.Product == nil || !strings.Contains(strings.ToLower(o.Product.Title), q)) {
			continue
		}
		out = append(out, o)
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

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id int, from, to Status) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id && r.storage[i].Status == from {
			r.storage[i].Status = to
			r.storage[i].UpdatedAt = time.Now().UTC()
			return r.storage[i], nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) Count(_ context.Context, userID int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, o := range r.storage {
		if userID == 0 || o.UserID == userID {
			n++
		}
	}
	return n, nil
}
