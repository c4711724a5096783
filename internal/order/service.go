package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/events"
	"github.com/wichananm65/storefront/internal/listing"
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrStatusTransition  = errors.New("order status cannot change")
	ErrInvalidOrderInput = errors.New("invalid order")
	ErrNoPayment         = errors.New("order has no payment")
	ErrRefundFailed      = errors.New("order refund failed")
)

// PaymentCanceler cancels the payment of an order, refunding it when it was
// paid, and moves the order to canceled.
type PaymentCanceler interface {
	CancelOrderPayment(ctx context.Context, orderID int) error
}

// Service provides business logic for orders.
type Service struct {
	repo     Repository
	pub      events.Publisher
	log      *zap.Logger
	pageSize int
	payments PaymentCanceler
}

func NewService(repo Repository, pub events.Publisher, log *zap.Logger, pageSize int) *Service {
	return &Service{repo: repo, pub: pub, log: log, pageSize: pageSize}
}

// Create stores a pending order for a single product.
func (s *Service) Create(ctx context.Context, ord Order) (Order, error) {
	if ord.UserID <= 0 || ord.ProductID <= 0 || ord.Price <= 0 {
		return Order{}, ErrInvalidOrderInput
	}
	now := time.Now().UTC()
	ord.Status = StatusPending
	ord.CreatedAt = now
	ord.UpdatedAt = now

	created, err := s.repo.Create(ctx, ord)
	if err != nil {
		return Order{}, err
	}
	s.publish(ctx, events.RKOrderCreated, events.OrderCreated{
		OrderID:   created.ID,
		UserID:    created.UserID,
		ProductID: created.ProductID,
		Price:     created.Price,
	})
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (Order, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the caller's own orders.
func (s *Service) List(ctx context.Context, userID int, p listing.Params) (listing.Page[Order], error) {
	rows, err := s.repo.List(ctx, userID, p, listing.Limit(s.pageSize), p.Offset(s.pageSize))
	if err != nil {
		return listing.Page[Order]{}, err
	}
	for i := range rows {
		rows[i].User = nil
	}
	return listing.NewPage(rows, p, s.pageSize), nil
}

// AdminList returns every order with product and customer populated.
func (s *Service) AdminList(ctx context.Context, p listing.Params) (listing.Page[Order], error) {
	rows, err := s.repo.List(ctx, 0, p, listing.Limit(s.pageSize), p.Offset(s.pageSize))
	if err != nil {
		return listing.Page[Order]{}, err
	}
	return listing.NewPage(rows, p, s.pageSize), nil
}

// SetPayments wires the payment side used by AdminUpdateStatus. The payment
// service depends on orders, so it is attached after both are built.
func (s *Service) SetPayments(p PaymentCanceler) {
	s.payments = p
}

// AdminUpdateStatus is the back-office status change. Orders become paid only
// through their payment, and a cancel goes through the payment so a paid order
// is refunded.
func (s *Service) AdminUpdateStatus(ctx context.Context, id int, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, ErrInvalidStatus
	}
	if to == StatusPaid {
		return Order{}, ErrStatusTransition
	}
	if to != StatusCanceled || s.payments == nil {
		return s.UpdateStatus(ctx, id, to)
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !current.Status.CanMove(to) {
		return Order{}, ErrStatusTransition
	}
	err = s.payments.CancelOrderPayment(ctx, id)
	switch {
	case errors.Is(err, ErrNoPayment):
		return s.UpdateStatus(ctx, id, to)
	case err != nil:
		return Order{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus applies a status change allowed by Status.CanMove.
func (s *Service) UpdateStatus(ctx context.Context, id int, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, ErrInvalidStatus
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !current.Status.CanMove(to) {
		return Order{}, ErrStatusTransition
	}
	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// moved concurrently
			return Order{}, ErrStatusTransition
		}
		return Order{}, err
	}
	s.publish(ctx, events.RKOrderStatusChanged, events.OrderStatusChanged{
		OrderID: updated.ID,
		UserID:  updated.UserID,
		Status:  string(updated.Status),
	})
	return updated, nil
}

func (s *Service) Count(ctx context.Context, userID int) (int, error) {
	return s.repo.Count(ctx, userID)
}

func (s *Service) publish(ctx context.Context, key string, v any) {
	if err := s.pub.PublishJSON(ctx, key, v); err != nil {
		s.log.Warn("publish order event", zap.String("key", key), zap.Error(err))
	}
}
