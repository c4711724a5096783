package favorite

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/product"
)

var (
	ErrAlreadyFavorite = errors.New("product already in favorites")
	ErrNotFavorite     = errors.New("product not in favorites")
)

// Repository stores the user–product watch-list pairs.
type Repository interface {
	Add(ctx context.Context, userID, productID int) error
	Remove(ctx context.Context, userID, productID int) error
	// List returns the user's favorites whose products are still live.
	List(ctx context.Context, userID int, p listing.Params, limit, offset int) ([]Item, error)
	Count(ctx context.Context, userID int) (int, error)
}

// Catalog resolves product ids; *product.InMemoryRepository satisfies it.
type Catalog interface {
	ListByIDs(ctx context.Context, ids []int) ([]product.Product, error)
}

type pair struct {
	userID    int
	productID int
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu      sync.RWMutex
	catalog Catalog
	added   map[pair]time.Time
	now     func() time.Time
}

func NewInMemoryRepository(catalog Catalog) *InMemoryRepository {
	return &InMemoryRepository{
		catalog: catalog,
		added:   map[pair]time.Time{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemoryRepository) Add(_ context.Context, userID, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := pair{userID, productID}
	if _, ok := r.added[k]; ok {
		return ErrAlreadyFavorite
	}
	r.added[k] = r.now()
	return nil
}

func (r *InMemoryRepository) Remove(_ context.Context, userID, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := pair{userID, productID}
	if _, ok := r.added[k]; !ok {
		return ErrNotFavorite
	}
	delete(r.added, k)
	return nil
}

func (r *InMemoryRepository) live(ctx context.Context, userID int) ([]Item, error) {
	r.mu.RLock()
	ids := make([]int, 0)
	at := map[int]time.Time{}
	for k, t := range r.added {
		if k.userID == userID {
			ids = append(ids, k.productID)
			at[k.productID] = t
		}
	}
	r.mu.RUnlock()

	products, err := r.catalog.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(products))
	for _, p := range products {
		out = append(out, Item{Product: p, FavoritedAt: at[p.ID]})
	}
	return out, nil
}

func (r *InMemoryRepository) List(ctx context.Context, userID int, p listing.Params, limit, offset int) ([]Item, error) {
	items, err := r.live(ctx, userID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(p.Query)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if q != "" && !strings.Contains(strings.ToLower(it.Title), q) {
			continue
		}
		if p.Category != "" && it.Category != p.Category {
			continue
		}
		out = append(out, it)
	}

	f := p.SortFilter(true)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f {
		case listing.FilterOldest:
			if !a.FavoritedAt.Equal(b.FavoritedAt) {
				return a.FavoritedAt.Before(b.FavoritedAt)
			}
			return a.ID < b.ID
		case listing.FilterLowestPrice:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case listing.FilterHighestPrice:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		default:
			if !a.FavoritedAt.Equal(b.FavoritedAt) {
				return a.FavoritedAt.After(b.FavoritedAt)
			}
		}
		return a.ID > b.ID
	})
	return listing.Slice(out, limit, offset), nil
}

func (r *InMemoryRepository) Count(ctx context.Context, userID int) (int, error) {
	items, err := r.live(ctx, userID)
	return len(items), err
}
