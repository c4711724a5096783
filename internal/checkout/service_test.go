package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/events"
	"github.com/wichananm65/storefront/internal/listing"
	"github.com/wichananm65/storefront/internal/order"
	"github.com/wichananm65/storefront/internal/payment"
	"github.com/wichananm65/storefront/internal/product"
	"github.com/wichananm65/storefront/internal/transaction"
)

type scriptedProvider struct {
	charge   payment.Charge
	err      error
	requests []payment.ChargeRequest
	refunds  []string
}

func (p *scriptedProvider) Name() string { return "omise" }

func (p *scriptedProvider) Charge(_ context.Context, req payment.ChargeRequest) (payment.Charge, error) {
	p.requests = append(p.requests, req)
	return p.charge, p.err
}

func (p *scriptedProvider) Retrieve(_ context.Context, id string) (payment.Charge, error) {
	return payment.Charge{ID: id, Status: payment.StatusSuccessful}, nil
}

func (p *scriptedProvider) Refund(_ context.Context, chargeID string, _ int64) error {
	p.refunds = append(p.refunds, chargeID)
	return nil
}

type fixture struct {
	svc      *Service
	omise    *scriptedProvider
	orders   *order.Service
	payments *transaction.Service
	pub      *events.Recorder
}

func newFixture() fixture {
	f := fixture{omise: &scriptedProvider{}, pub: &events.Recorder{}}
	log := zap.NewNop()
	products := product.NewInMemoryRepository([]product.Product{
		{ID: 5, Title: "Wool Hat", Category: "Accessories", Price: 1500, CreatedAt: time.Now()},
	})
	f.orders = order.NewService(order.NewInMemoryRepository(nil), f.pub, log, 10)
	registry := payment.NewRegistry(f.omise, payment.CashProvider{})
	f.payments = transaction.NewService(transaction.NewInMemoryRepository(nil), f.orders, registry, f.pub, log, 10, "thb")
	f.svc = NewService(products, f.orders, f.payments, registry, log, Options{Currency: "thb", ReturnURI: "https://shop.example/return"})
	return f
}

func (f fixture) orderStatus(t *testing.T, id int) order.Status {
	t.Helper()
	o, err := f.orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	return o.Status
}

func TestCheckout_Successful(t *testing.T) {
	f := newFixture()
	f.omise.charge = payment.Charge{ID: "chrg_1", Status: payment.StatusSuccessful}

	res, err := f.svc.Checkout(context.Background(), 7, Request{ProductID: 5, Provider: "omise", Token: "tokn_1"})
	require.NoError(t, err)

	assert.Equal(t, transaction.StatePaid, res.Transaction.State)
	assert.Equal(t, "chrg_1", res.Transaction.ChargeID)
	assert.Equal(t, int64(1500), res.Transaction.Amount)
	assert.Equal(t, order.StatusPaid, f.orderStatus(t, res.Order.ID))
	assert.Empty(t, res.AuthorizeURI)

	req := f.omise.requests[0]
	assert.Equal(t, "thb", req.Currency)
	assert.Equal(t, "https://shop.example/return", req.ReturnURI)
	assert.Equal(t, []string{events.RKOrderCreated, events.RKOrderStatusChanged, events.RKPaymentPaid}, f.pub.Sent())
}

func TestCheckout_Declined(t *testing.T) {
	f := newFixture()
	f.omise.charge = payment.Charge{ID: "chrg_2", Status: payment.StatusFailed, FailureCode: "insufficient_fund", FailureMessage: "declined"}

	_, err := f.svc.Checkout(context.Background(), 7, Request{ProductID: 5, Provider: "omise", Token: "tokn_1"})
	var perr *PaymentError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "insufficient_fund", perr.Code)

	page, err := f.payments.List(context.Background(), 7, listing.Params{Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, transaction.StatePendingCanceled, page.Items[0].State)
	assert.Equal(t, order.StatusCanceled, f.orderStatus(t, page.Items[0].OrderID))
}

func TestCheckout_ChargeError(t *testing.T) {
	f := newFixture()
	f.omise.err = errors.New("connection reset")

	_, err := f.svc.Checkout(context.Background(), 7, Request{ProductID: 5, Provider: "omise", Source: "src_1"})
	var perr *PaymentError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "charge_error", perr.Code)
}

func TestCheckout_PendingThenWebhook(t *testing.T) {
	f := newFixture()
	f.omise.charge = payment.Charge{ID: "chrg_3", Status: payment.StatusPending, AuthorizeURI: "https://pay.example/3ds"}
	ctx := context.Background()

	res, err := f.svc.Checkout(ctx, 7, Request{ProductID: 5, Provider: "omise", Source: "src_1"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/3ds", res.AuthorizeURI)
	assert.Equal(t, transaction.StatePending, res.Transaction.State)

	require.NoError(t, f.svc.Settle(ctx, payment.Charge{ID: "chrg_3", Status: payment.StatusSuccessful}))
	got, err := f.payments.GetByChargeID(ctx, "chrg_3")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatePaid, got.State)
	assert.Equal(t, order.StatusPaid, f.orderStatus(t, res.Order.ID))

	// redelivery is a no-op
	require.NoError(t, f.svc.Settle(ctx, payment.Charge{ID: "chrg_3", Status: payment.StatusFailed}))
	got, err = f.payments.GetByChargeID(ctx, "chrg_3")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatePaid, got.State)
}

func TestSettle_RefundsChargeCompletedAfterCancel(t *testing.T) {
	f := newFixture()
	f.omise.charge = payment.Charge{ID: "chrg_9", Status: payment.StatusPending, AuthorizeURI: "https://pay.example/3ds"}
	ctx := context.Background()

	res, err := f.svc.Checkout(ctx, 7, Request{ProductID: 5, Provider: "omise", Source: "src_1"})
	require.NoError(t, err)
	_, err = f.payments.Cancel(ctx, res.Transaction.ID, 7)
	require.NoError(t, err)
	assert.Empty(t, f.omise.refunds)

	require.NoError(t, f.svc.Settle(ctx, payment.Charge{ID: "chrg_9", Status: payment.StatusSuccessful}))
	got, err := f.payments.GetByChargeID(ctx, "chrg_9")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatePaidCanceled, got.State)
	assert.Equal(t, []string{"chrg_9"}, f.omise.refunds)
	assert.Equal(t, order.StatusCanceled, f.orderStatus(t, res.Order.ID))

	// redelivery does not refund twice
	require.NoError(t, f.svc.Settle(ctx, payment.Charge{ID: "chrg_9", Status: payment.StatusSuccessful}))
	assert.Len(t, f.omise.refunds, 1)
}

func TestCheckout_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, 7, Request{ProductID: 5, Provider: "omise"})
	assert.ErrorIs(t, err, payment.ErrMissingSource)

	_, err = f.svc.Checkout(ctx, 7, Request{ProductID: 99, Provider: "cash"})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.svc.Checkout(ctx, 7, Request{ProductID: 5, Provider: "paypal"})
	assert.ErrorIs(t, err, payment.ErrUnknownProvider)

	assert.Empty(t, f.pub.Sent(), "rejected checkouts must not open orders")
}

func TestCheckout_Cash(t *testing.T) {
	f := newFixture()
	res, err := f.svc.Checkout(context.Background(), 7, Request{ProductID: 5, Provider: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "cash", res.Transaction.Provider)
	assert.Equal(t, transaction.StatePaid, res.Transaction.State)
}
