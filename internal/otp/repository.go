package otp

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound       = errors.New("otp not found")
	ErrNoAttemptsLeft = errors.New("otp attempts exhausted")
)

type Repository interface {
	// Upsert replaces any previous code for the same email.
	Upsert(ctx context.Context, c Code) error
	Get(ctx context.Context, email string) (Code, error)
	// ReserveAttempt counts one verification attempt before the code is
	// compared and returns the stored code. It fails with ErrNoAttemptsLeft
	// once max attempts were reserved.
	ReserveAttempt(ctx context.Context, email string, max int) (Code, error)
	MarkVerified(ctx context.Context, email string, at time.Time) error
	Delete(ctx context.Context, email string) error
}

type InMemoryRepository struct {
	mu    sync.RWMutex
	codes map[string]Code
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{codes: map[string]Code{}}
}

func (r *InMemoryRepository) Upsert(_ context.Context, c Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[c.Email] = c
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, email string) (Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codes[email]
	if !ok {
		return Code{}, ErrNotFound
	}
	return c, nil
}

func (r *InMemoryRepository) ReserveAttempt(_ context.Context, email string, max int) (Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[email]
	if !ok {
		return Code{}, ErrNotFound
	}
	if c.Attempts >= max {
		return Code{}, ErrNoAttemptsLeft
	}
	c.Attempts++
	r.codes[email] = c
	return c, nil
}

func (r *InMemoryRepository) MarkVerified(_ context.Context, email string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[email]
	if !ok {
		return ErrNotFound
	}
	c.VerifiedAt = &at
	r.codes[email] = c
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[email]; !ok {
		return ErrNotFound
	}
	delete(r.codes, email)
	return nil
}
