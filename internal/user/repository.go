package user

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wichananm65/storefront/internal/listing"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
)

type Repository interface {
	// GetByID returns active users only.
	GetByID(ctx context.Context, id int) (User, error)
	// GetByEmail includes soft-deleted users so callers can tell them apart.
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	UpdateProfile(ctx context.Context, u User) (User, error)
	UpdatePassword(ctx context.Context, id int, hash string) error
	SoftDelete(ctx context.Context, id int, at time.Time) error
	ListCustomers(ctx context.Context, p listing.Params, limit, offset int) ([]Customer, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	nextID int
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		nextID: 1,
	}

	maxID := 0
	for _, u := range seed {
		repo.users = append(repo.users, u)
		if u.ID > maxID {
			maxID = u.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id && !u.IsDeleted {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrEmailExists
		}
	}
	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	}
	r.users = append(r.users, u)
	return u, nil
}

func (r *InMemoryRepository) UpdateProfile(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.ID != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrEmailExists
		}
	}
	for i, existing := range r.users {
		if existing.ID == u.ID && !existing.IsDeleted {
			existing.Email = u.Email
			existing.FullName = u.FullName
			existing.Avatar = u.Avatar
			existing.AvatarKey = u.AvatarKey
			existing.UpdatedAt = u.UpdatedAt
			r.users[i] = existing
			return existing, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) UpdatePassword(_ context.Context, id int, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if r.users[i].ID == id && !r.users[i].IsDeleted {
			r.users[i].Password = hash
			r.users[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) SoftDelete(_ context.Context, id int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if r.users[i].ID == id && !r.users[i].IsDeleted {
			r.users[i].IsDeleted = true
			r.users[i].DeletedAt = &at
			r.users[i].UpdatedAt = at
			return nil
		}
	}
	return ErrNotFound
}

// ListCustomers has no order data in memory, so counts and totals stay zero.
func (r *InMemoryRepository) ListCustomers(_ context.Context, p listing.Params, limit, offset int) ([]Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(p.Query)
	out := make([]Customer, 0)
	for _, u := range r.users {
		if u.IsDeleted {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Email), q) && !strings.Contains(strings.ToLower(u.FullName), q) {
			continue
		}
		out = append(out, Customer{User: sanitizeUser(u)})
	}

	oldest := p.SortFilter(false) == listing.FilterOldest
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			if oldest {
				return out[i].ID < out[j].ID
			}
			return out[i].ID > out[j].ID
		}
		if oldest {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return listing.Slice(out, limit, offset), nil
}
