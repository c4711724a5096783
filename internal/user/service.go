package user

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/upload"
)

var (
	ErrUserExists        = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrWeakPassword      = errors.New("password too short")
)

const minPasswordLen = 6

// Verifier spends a completed email verification.
type Verifier interface {
	Consume(ctx context.Context, email string) error
}

type Service struct {
	repo     Repository
	verifier Verifier
	files    upload.Uploader
	tokens   *TokenIssuer
	admins   map[string]bool
	pageSize int
	log      *zap.Logger
}

type Options struct {
	AdminEmails []string
	PageSize    int
}

func NewService(repo Repository, verifier Verifier, files upload.Uploader, tokens *TokenIssuer, log *zap.Logger, opts Options) *Service {
	admins := make(map[string]bool, len(opts.AdminEmails))
	for _, e := range opts.AdminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = true
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	return &Service{
		repo:     repo,
		verifier: verifier,
		files:    files,
		tokens:   tokens,
		admins:   admins,
		pageSize: opts.PageSize,
		log:      log,
	}
}

// Session is a signed-in user with its bearer token.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// EmailTaken reports whether any account, deleted or not, uses email.
func (s *Service) EmailTaken(ctx context.Context, email string) (bool, error) {
	return Registry{repo: s.repo}.EmailTaken(ctx, email)
}

// Registry answers email lookups from the repository alone, for services that
// must exist before the user Service is built.
type Registry struct {
	repo Repository
}

func NewRegistry(repo Repository) Registry {
	return Registry{repo: repo}
}

// EmailTaken reports whether any account row, deleted or not, holds email.
func (r Registry) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := r.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *Service) Register(ctx context.Context, email, password, fullName string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	taken, err := s.EmailTaken(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if taken {
		return Session{}, ErrUserExists
	}
	if len(password) < minPasswordLen {
		return Session{}, ErrWeakPassword
	}
	if err := s.verifier.Consume(ctx, email); err != nil {
		return Session{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, err
	}
	role := RoleUser
	if s.admins[email] {
		role = RoleAdmin
	}
	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, User{
		Email:     email,
		Password:  string(hashed),
		FullName:  strings.TrimSpace(fullName),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return Session{}, ErrUserExists
		}
		return Session{}, err
	}
	return s.session(created)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrUserNotFound
		}
		return Session{}, err
	}
	if u.IsDeleted {
		return Session{}, ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return Session{}, ErrIncorrectPassword
	}
	return s.session(u)
}

func (s *Service) session(u User) (Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{User: sanitizeUser(u), Token: token}, nil
}

func (s *Service) Profile(ctx context.Context, id int) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return sanitizeUser(u), nil
}

// ProfileUpdate carries the fields a user may change; nil leaves a field as is.
// The avatar is only replaced through UploadAvatar.
type ProfileUpdate struct {
	FullName *string
	Email    *string
}

func (s *Service) UpdateProfile(ctx context.Context, id int, upd ProfileUpdate) (User, error) {
	return s.update(ctx, id, func(u *User) {
		if upd.FullName != nil {
			u.FullName = strings.TrimSpace(*upd.FullName)
		}
		if upd.Email != nil {
			u.Email = strings.ToLower(strings.TrimSpace(*upd.Email))
		}
	})
}

// UploadAvatar stores the image, makes it the user's avatar and removes the
// previous avatar file.
func (s *Service) UploadAvatar(ctx context.Context, id int, fh *multipart.FileHeader) (User, error) {
	f, err := s.files.SaveMultipart(ctx, fh)
	if err != nil {
		return User{}, err
	}
	var prevKey string
	u, err := s.update(ctx, id, func(u *User) {
		prevKey = u.AvatarKey
		u.Avatar = f.URL
		u.AvatarKey = f.Key
	})
	if err != nil {
		s.removeFile(ctx, f.Key)
		return User{}, err
	}
	if prevKey != "" && prevKey != f.Key {
		s.removeFile(ctx, prevKey)
	}
	return u, nil
}

func (s *Service) update(ctx context.Context, id int, apply func(u *User)) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	apply(&u)
	u.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.UpdateProfile(ctx, u)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return User{}, ErrUserExists
		}
		return User{}, err
	}
	return sanitizeUser(updated), nil
}

func (s *Service) UpdatePassword(ctx context.Context, id int, oldPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(oldPassword)) != nil {
		return ErrIncorrectPassword
	}
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hashed))
}

func (s *Service) DeleteAccount(ctx context.Context, id int) error {
	err := s.repo.SoftDelete(ctx, id, time.Now().UTC())
	if errors.Is(err, ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *Service) ListCustomers(ctx context.Context, p listing.Params) (listing.Page[Customer], error) {
	rows, err := s.repo.ListCustomers(ctx, p, listing.Limit(s.pageSize), p.Offset(s.pageSize))
	if err != nil {
		return listing.Page[Customer]{}, err
	}
	return listing.NewPage(rows, p, s.pageSize), nil
}

func (s *Service) removeFile(ctx context.Context, key string) {
	if err := s.files.Delete(ctx, key); err != nil && !errors.Is(err, upload.ErrNotFound) {
		s.log.Warn("remove stale file", zap.String("key", key), zap.Error(err))
	}
}
