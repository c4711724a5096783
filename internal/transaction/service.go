package transaction

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/events"
	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/order"
)

var (
	ErrInvalidState = errors.New("invalid transaction state")
	ErrRefundFailed = errors.New("refund failed")
)

// Orders keeps the order status in step with its payment.
type Orders interface {
	UpdateStatus(ctx context.Context, id int, to order.Status) (order.Order, error)
}

// Refunder returns a captured charge to the customer.
type Refunder interface {
	Refund(ctx context.Context, provider, chargeID string, amount int64) error
}

type Service struct {
	repo     Repository
	orders   Orders
	refunder Refunder
	pub      events.Publisher
	log      *zap.Logger
	pageSize int
	currency string
}

func NewService(repo Repository, orders Orders, refunder Refunder, pub events.Publisher, log *zap.Logger, pageSize int, currency string) *Service {
	return &Service{
		repo:     repo,
		orders:   orders,
		refunder: refunder,
		pub:      pub,
		log:      log,
		pageSize: pageSize,
		currency: currency,
	}
}

// AdminPage is the back-office listing with the total of paid amounts on the page.
type AdminPage struct {
	listing.Page[Transaction]
	Total int64 `json:"total"`
}

// Create stores a pending payment for an order.
func (s *Service) Create(ctx context.Context, t Transaction) (Transaction, error) {
	now := time.Now().UTC()
	t.State = StatePending
	t.CreatedAt = now
	t.UpdatedAt = now
	return s.repo.Create(ctx, t)
}

func (s *Service) GetByID(ctx context.Context, id int) (Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByChargeID(ctx context.Context, chargeID string) (Transaction, error) {
	return s.repo.GetByChargeID(ctx, chargeID)
}

func (s *Service) SetChargeID(ctx context.Context, id int, chargeID string) error {
	return s.repo.SetChargeID(ctx, id, chargeID)
}

func (s *Service) List(ctx context.Context, userID int, p listing.Params) (listing.Page[Transaction], error) {
	rows, err := s.repo.List(ctx, userID, p, listing.Limit(s.pageSize), p.Offset(s.pageSize))
	if err != nil {
		return listing.Page[Transaction]{}, err
	}
	for i := range rows {
		rows[i].User = nil
	}
	return listing.NewPage(rows, p, s.pageSize), nil
}

func (s *Service) AdminList(ctx context.Context, p listing.Params) (AdminPage, error) {
	rows, err := s.repo.List(ctx, 0, p, listing.Limit(s.pageSize), p.Offset(s.pageSize))
	if err != nil {
		return AdminPage{}, err
	}
	page := AdminPage{Page: listing.NewPage(rows, p, s.pageSize)}
	for _, t := range page.Items {
		if t.State == StatePaid {
			page.Total += t.Amount
		}
	}
	return page, nil
}

func (s *Service) Count(ctx context.Context, userID int) (int, error) {
	return s.repo.Count(ctx, userID)
}

// MarkPaid settles a pending payment and its order as paid.
func (s *Service) MarkPaid(ctx context.Context, t Transaction) (Transaction, error) {
	updated, err := s.move(ctx, t, StatePaid)
	if err != nil {
		return Transaction{}, err
	}
	s.syncOrder(ctx, updated.OrderID, order.StatusPaid)
	s.publish(ctx, events.RKPaymentPaid, events.PaymentPaid{
		TransactionID: updated.ID,
		OrderID:       updated.OrderID,
		UserID:        updated.UserID,
		ChargeID:      updated.ChargeID,
		Provider:      updated.Provider,
		Amount:        updated.Amount,
		Currency:      s.currency,
	})
	return updated, nil
}

// MarkFailed cancels a pending payment whose charge was declined.
func (s *Service) MarkFailed(ctx context.Context, t Transaction, code, message string) (Transaction, error) {
	updated, err := s.move(ctx, t, StatePendingCanceled)
	if err != nil {
		return Transaction{}, err
	}
	s.syncOrder(ctx, updated.OrderID, order.StatusCanceled)
	s.publish(ctx, events.RKPaymentFailed, events.PaymentFailed{
		TransactionID:  updated.ID,
		OrderID:        updated.OrderID,
		UserID:         updated.UserID,
		ChargeID:       updated.ChargeID,
		FailureCode:    code,
		FailureMessage: message,
	})
	return updated, nil
}

// RefundCanceled returns the money of a canceled payment whose charge the
// provider completed afterwards, and records it as a refunded payment.
func (s *Service) RefundCanceled(ctx context.Context, t Transaction) (Transaction, error) {
	if t.State != StatePendingCanceled {
		return Transaction{}, ErrInvalidState
	}
	if err := s.refunder.Refund(ctx, t.Provider, t.ChargeID, t.Amount); err != nil {
		s.log.Error("refund late charge", zap.Int("transaction_id", t.ID), zap.String("charge_id", t.ChargeID), zap.Error(err))
		return Transaction{}, ErrRefundFailed
	}
	updated, err := s.move(ctx, t, StatePaidCanceled)
	if err != nil {
		return Transaction{}, err
	}
	s.publish(ctx, events.RKPaymentCanceled, events.PaymentCanceled{
		TransactionID: updated.ID,
		OrderID:       updated.OrderID,
		UserID:        updated.UserID,
		Amount:        updated.Amount,
		Refunded:      true,
	})
	return updated, nil
}

// CancelOrderPayment cancels the latest payment of an order on behalf of an
// admin. Errors are reported in order terms.
func (s *Service) CancelOrderPayment(ctx context.Context, orderID int) error {
	t, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return order.ErrNoPayment
		}
		return err
	}
	_, err = s.Cancel(ctx, t.ID, 0)
	switch {
	case errors.Is(err, ErrInvalidState):
		return order.ErrStatusTransition
	case errors.Is(err, ErrRefundFailed):
		return order.ErrRefundFailed
	}
	return err
}

// Cancel cancels a payment. A zero userID is an admin acting on any payment;
// otherwise the payment must belong to userID. Paid payments are refunded
// through their provider first.
func (s *Service) Cancel(ctx context.Context, id, userID int) (Transaction, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if userID != 0 && t.UserID != userID {
		return Transaction{}, ErrNotFound
	}

	var to State
	switch t.State {
	case StatePending:
		to = StatePendingCanceled
	case StatePaid:
		to = StatePaidCanceled
	default:
		return Transaction{}, ErrInvalidState
	}

	refunded := false
	if to == StatePaidCanceled {
		if err := s.refunder.Refund(ctx, t.Provider, t.ChargeID, t.Amount); err != nil {
			s.log.Error("refund", zap.Int("transaction_id", t.ID), zap.String("provider", t.Provider), zap.Error(err))
			return Transaction{}, ErrRefundFailed
		}
		refunded = true
	}

	updated, err := s.move(ctx, t, to)
	if err != nil {
		return Transaction{}, err
	}
	s.syncOrder(ctx, updated.OrderID, order.StatusCanceled)
	s.publish(ctx, events.RKPaymentCanceled, events.PaymentCanceled{
		TransactionID: updated.ID,
		OrderID:       updated.OrderID,
		UserID:        updated.UserID,
		Amount:        updated.Amount,
		Refunded:      refunded,
	})
	return updated, nil
}

func (s *Service) move(ctx context.Context, t Transaction, to State) (Transaction, error) {
	if !t.State.CanMove(to) {
		return Transaction{}, ErrInvalidState
	}
	updated, err := s.repo.UpdateState(ctx, t.ID, t.State, to)
	if errors.Is(err, ErrNotFound) {
		return Transaction{}, ErrInvalidState
	}
	return updated, err
}

func (s *Service) syncOrder(ctx context.Context, orderID int, status order.Status) {
	if _, err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		s.log.Warn("sync order status",
			zap.Int("order_id", orderID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

func (s *Service) publish(ctx context.Context, key string, v any) {
	if err := s.pub.PublishJSON(ctx, key, v); err != nil {
		s.log.Warn("publish payment event", zap.String("key", key), zap.Error(err))
	}
}
