package product

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/upload"
)

type Service struct {
	repo      Repository
	files     upload.Uploader
	log       *zap.Logger
	pageSize  int
	adminSize int
}

func NewService(repo Repository, files upload.Uploader, log *zap.Logger, pageSize, adminPageSize int) *Service {
	return &Service{repo: repo, files: files, log: log, pageSize: pageSize, adminSize: adminPageSize}
}

// List is the storefront listing.
func (s *Service) List(ctx context.Context, p listing.Params) (listing.Page[Product], error) {
	return s.list(ctx, p, s.pageSize)
}

// AdminList is the back-office listing, with a larger page.
func (s *Service) AdminList(ctx context.Context, p listing.Params) (listing.Page[Product], error) {
	return s.list(ctx, p, s.adminSize)
}

func (s *Service) list(ctx context.Context, p listing.Params, size int) (listing.Page[Product], error) {
	rows, err := s.repo.List(ctx, p, listing.Limit(size), p.Offset(size))
	if err != nil {
		return listing.Page[Product]{}, err
	}
	return listing.NewPage(rows, p, size), nil
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetMany returns the live products among ids in the order requested.
// Unknown and repeated ids are skipped.
func (s *Service) GetMany(ctx context.Context, ids []int) ([]Product, error) {
	found, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	if err := in.validate(); err != nil {
		return Product{}, err
	}
	now := time.Now().UTC()
	return s.repo.Create(ctx, in.apply(Product{CreatedAt: now, UpdatedAt: now}))
}

// Update replaces the product fields; a changed image key removes the old file.
func (s *Service) Update(ctx context.Context, id int, in Input) (Product, error) {
	if err := in.validate(); err != nil {
		return Product{}, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}

	next := in.apply(existing)
	next.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return Product{}, err
	}
	if existing.ImageKey != "" && existing.ImageKey != updated.ImageKey {
		s.removeFile(ctx, existing.ImageKey)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if existing.ImageKey != "" {
		s.removeFile(ctx, existing.ImageKey)
	}
	return nil
}

// Seed inserts products when the catalogue is empty and reports how many were added.
func (s *Service) Seed(ctx context.Context, items []Input) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	inserted := 0
	for _, in := range items {
		if _, err := s.Create(ctx, in); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (s *Service) removeFile(ctx context.Context, key string) {
	if err := s.files.Delete(ctx, key); err != nil && !errors.Is(err, upload.ErrNotFound) {
		s.log.Warn("remove product image", zap.String("key", key), zap.Error(err))
	}
}
