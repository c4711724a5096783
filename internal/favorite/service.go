package favorite

import (
	"context"
	"errors"

	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/product"
)

var ErrProductNotFound = errors.New("product not found")

// Products checks that a product exists before it is favorited.
type Products interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
}

type Service struct {
	repo     Repository
	products Products
	pageSize int
}

func NewService(repo Repository, products Products, pageSize int) *Service {
	return &Service{repo: repo, products: products, pageSize: pageSize}
}

func (s *Service) Add(ctx context.Context, userID, productID int) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	return s.repo.Add(ctx, userID, productID)
}

func (s *Service) Remove(ctx context.Context, userID, productID int) error {
	return s.repo.Remove(ctx, userID, productID)
}

func (s *Service) List(ctx context.Context, userID int, p listing.Params) (listing.Page[Item], error) {
	rows, err := s.repo.List(ctx, userID, p, listing.Limit(s.pageSize), p.Offset(s.pageSize))
	if err != nil {
		return listing.Page[Item]{}, err
	}
	return listing.NewPage(rows, p, s.pageSize), nil
}

func (s *Service) Count(ctx context.Context, userID int) (int, error) {
	return s.repo.Count(ctx, userID)
}
