package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/order"
	"github.com/wichananm65/storefront/internal/payment"
	"github.com/wichananm65/storefront/internal/product"
	"github.com/wichananm65/storefront/internal/transaction"
)

var ErrProductNotFound = errors.New("product not found")

// PaymentError is a declined or failed charge.
type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	if e.Code == "" {
		return "payment failed: " + e.Message
	}
	return fmt.Sprintf("payment failed (%s): %s", e.Code, e.Message)
}

type Products interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
}

type Orders interface {
	Create(ctx context.Context, ord order.Order) (order.Order, error)
}

// Payments is the transaction store; *transaction.Service satisfies it.
type Payments interface {
	Create(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error)
	SetChargeID(ctx context.Context, id int, chargeID string) error
	GetByChargeID(ctx context.Context, chargeID string) (transaction.Transaction, error)
	MarkPaid(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error)
	MarkFailed(ctx context.Context, t transaction.Transaction, code, message string) (transaction.Transaction, error)
	RefundCanceled(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error)
}

type Providers interface {
	Get(name string) (payment.Provider, error)
}

type Request struct {
	ProductID int    `json:"productId" validate:"gt=0"`
	Provider  string `json:"provider" validate:"required,oneof=omise cash"`
	Token     string `json:"token"`
	Source    string `json:"source"`
	ReturnURI string `json:"returnUri"`
}

type Result struct {
	Order        order.Order             `json:"order"`
	Transaction  transaction.Transaction `json:"transaction"`
	AuthorizeURI string                  `json:"authorizeUri,omitempty"`
}

type Options struct {
	Currency  string
	ReturnURI string
}

type Service struct {
	products  Products
	orders    Orders
	payments  Payments
	providers Providers
	log       *zap.Logger
	opts      Options
}

func NewService(products Products, orders Orders, payments Payments, providers Providers, log *zap.Logger, opts Options) *Service {
	return &Service{
		products:  products,
		orders:    orders,
		payments:  payments,
		providers: providers,
		log:       log,
		opts:      opts,
	}
}

// Checkout buys a single product: it opens a pending order and payment,
// charges the provider and settles both when the charge completes at once.
// Redirect flows stay pending and return the provider's authorize URI.
func (s *Service) Checkout(ctx context.Context, userID int, req Request) (Result, error) {
	provider, err := s.providers.Get(req.Provider)
	if err != nil {
		return Result{}, err
	}
	if provider.Name() == transaction.ProviderOmise && req.Token == "" && req.Source == "" {
		return Result{}, payment.ErrMissingSource
	}
	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return Result{}, ErrProductNotFound
		}
		return Result{}, err
	}

	ord, err := s.orders.Create(ctx, order.Order{
		UserID:    userID,
		ProductID: p.ID,
		Price:     p.Price,
		Product:   &order.ProductRef{ID: p.ID, Title: p.Title, Category: p.Category, Image: p.Image},
	})
	if err != nil {
		return Result{}, fmt.Errorf("create order: %w", err)
	}
	t, err := s.payments.Create(ctx, transaction.Transaction{
		UserID:    userID,
		ProductID: p.ID,
		OrderID:   ord.ID,
		Amount:    p.Price,
		Provider:  provider.Name(),
		Product:   ord.Product,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create transaction: %w", err)
	}

	returnURI := req.ReturnURI
	if returnURI == "" {
		returnURI = s.opts.ReturnURI
	}
	ch, err := provider.Charge(ctx, payment.ChargeRequest{
		Amount:      p.Price,
		Currency:    s.opts.Currency,
		Token:       req.Token,
		Source:      req.Source,
		ReturnURI:   returnURI,
		Description: p.Title,
		Metadata: map[string]any{
			"order_id":       strconv.Itoa(ord.ID),
			"transaction_id": strconv.Itoa(t.ID),
		},
	})
	if err != nil {
		s.log.Warn("charge", zap.Int("transaction_id", t.ID), zap.String("provider", provider.Name()), zap.Error(err))
		perr := &PaymentError{Code: "charge_error", Message: err.Error()}
		if _, ferr := s.payments.MarkFailed(ctx, t, perr.Code, perr.Message); ferr != nil {
			return Result{}, ferr
		}
		return Result{}, perr
	}

	if ch.ID != "" {
		if err := s.payments.SetChargeID(ctx, t.ID, ch.ID); err != nil {
			return Result{}, fmt.Errorf("store charge id: %w", err)
		}
		t.ChargeID = ch.ID
	}

	res := Result{Order: ord, Transaction: t}
	switch ch.Status {
	case payment.StatusSuccessful:
		paid, err := s.payments.MarkPaid(ctx, t)
		if err != nil {
			return Result{}, err
		}
		res.Transaction = paid
		res.Order.Status = order.StatusPaid
	case payment.StatusFailed:
		if _, err := s.payments.MarkFailed(ctx, t, ch.FailureCode, ch.FailureMessage); err != nil {
			return Result{}, err
		}
		return Result{}, &PaymentError{Code: ch.FailureCode, Message: ch.FailureMessage}
	default:
		res.AuthorizeURI = ch.AuthorizeURI
	}
	return res, nil
}

// Settle applies a completed charge reported by the provider to its pending
// payment. Already settled payments are left untouched, except a payment
// canceled while its charge was in flight: a successful charge is refunded.
func (s *Service) Settle(ctx context.Context, ch payment.Charge) error {
	t, err := s.payments.GetByChargeID(ctx, ch.ID)
	if err != nil {
		return err
	}
	if t.State == transaction.StatePending {
		switch ch.Status {
		case payment.StatusSuccessful:
			_, err = s.payments.MarkPaid(ctx, t)
		case payment.StatusFailed:
			_, err = s.payments.MarkFailed(ctx, t, ch.FailureCode, ch.FailureMessage)
		}
		if !errors.Is(err, transaction.ErrInvalidState) {
			return err
		}
		// moved concurrently by the checkout request, a redelivery or a cancel
		if t, err = s.payments.GetByChargeID(ctx, ch.ID); err != nil {
			return err
		}
	}
	if t.State != transaction.StatePendingCanceled || ch.Status != payment.StatusSuccessful {
		return nil
	}
	s.log.Warn("charge completed after cancel, refunding",
		zap.Int("transaction_id", t.ID), zap.String("charge_id", ch.ID))
	if _, err := s.payments.RefundCanceled(ctx, t); err != nil && !errors.Is(err, transaction.ErrInvalidState) {
		return err
	}
	return nil
}
