package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/storefront/internal/events"
)

var (
	ErrUserExists      = errors.New("user already exists")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrInvalidCode     = errors.New("invalid otp")
	ErrNotVerified     = errors.New("email not verified")
)

// Registry answers whether an email already belongs to an active account.
type Registry interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
}

type Service struct {
	repo        Repository
	users       Registry
	pub         events.Publisher
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	generate    func() (string, error)
	compare     func(hash, code []byte) error
}

func NewService(repo Repository, users Registry, pub events.Publisher, ttl time.Duration, maxAttempts int) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		pub:         pub,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
		generate:    generateCode,
		compare:     bcrypt.CompareHashAndPassword,
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Send issues a fresh code for email, replacing any earlier one, and hands it
// to the notification pipeline.
func (s *Service) Send(ctx context.Context, email string) error {
	email = normalize(email)
	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrUserExists
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.repo.Upsert(ctx, Code{Email: email, Hash: string(hash), ExpiresAt: expiresAt}); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	return s.pub.PublishJSON(ctx, events.RKOTPRequested, events.OTPRequested{
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
	})
}

// Verify checks code against the stored hash. An expired code yields
// StatusExpired and no error so the client can offer a resend.
func (s *Service) Verify(ctx context.Context, email, code string) (int, error) {
	email = normalize(email)
	c, err := s.repo.Get(ctx, email)
	if err != nil {
		return 0, err
	}
	if !s.now().Before(c.ExpiresAt) {
		return StatusExpired, nil
	}
	c, err = s.repo.ReserveAttempt(ctx, email, s.maxAttempts)
	if err != nil {
		if errors.Is(err, ErrNoAttemptsLeft) {
			return 0, ErrTooManyAttempts
		}
		return 0, err
	}
	if s.compare([]byte(c.Hash), []byte(strings.TrimSpace(code))) != nil {
		return 0, ErrInvalidCode
	}
	if err := s.repo.MarkVerified(ctx, email, s.now()); err != nil {
		return 0, err
	}
	return StatusOK, nil
}

// Consume spends a verification. It succeeds once per verified code and only
// within the code TTL after verification.
func (s *Service) Consume(ctx context.Context, email string) error {
	email = normalize(email)
	c, err := s.repo.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotVerified
		}
		return err
	}
	if c.VerifiedAt == nil || s.now().Sub(*c.VerifiedAt) > s.ttl {
		return ErrNotVerified
	}
	if err := s.repo.Delete(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotVerified
		}
		return err
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
