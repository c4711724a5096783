package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/wichananm65/storefront/internal/events"
	"github.com/wichananm65/storefront/internal/user"
)

// Keys are the routing keys the worker subscribes to.
var Keys = []string{
	events.RKOTPRequested,
	events.RKOrderCreated,
	events.RKOrderStatusChanged,
	events.RKPaymentPaid,
	events.RKPaymentFailed,
	events.RKPaymentCanceled,
}

// errPoison marks messages that can never be handled and must not be requeued.
var errPoison = errors.New("undeliverable message")

// Directory resolves a user's email address.
type Directory interface {
	GetByID(ctx context.Context, id int) (user.User, error)
}

type Worker struct {
	notifier Notifier
	users    Directory
	log      *zap.Logger
}

// NewWorker builds a worker. A nil users directory leaves account messages
// without a recipient.
func NewWorker(n Notifier, users Directory, log *zap.Logger) *Worker {
	return &Worker{notifier: n, users: users, log: log}
}

// Run handles deliveries until ctx ends or the channel closes. Failed
// notifications are requeued; malformed messages are dropped.
func (w *Worker) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.deliver(ctx, d)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, d amqp.Delivery) {
	err := w.Handle(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errPoison):
		w.log.Error("drop message", zap.String("key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
	default:
		w.log.Warn("notify failed, requeue", zap.String("key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, true)
	}
}

// Handle turns one event into a notification.
func (w *Worker) Handle(ctx context.Context, key string, body []byte) error {
	var (
		m   Message
		err error
	)
	switch key {
	case events.RKOTPRequested:
		var ev events.OTPRequested
		if ev, err = events.Decode[events.OTPRequested](body); err == nil {
			m = Message{
				To:      ev.Email,
				Subject: "Your verification code",
				Body: fmt.Sprintf("Your verification code is %s. It expires at %s.",
					ev.Code, ev.ExpiresAt.UTC().Format("15:04 MST")),
			}
		}
	case events.RKOrderCreated:
		var ev events.OrderCreated
		if ev, err = events.Decode[events.OrderCreated](body); err == nil {
			m = Message{
				To:      w.emailOf(ctx, ev.UserID),
				Subject: fmt.Sprintf("Order #%d received", ev.OrderID),
				Body:    fmt.Sprintf("We received your order #%d for %s.", ev.OrderID, money(ev.Price, "")),
			}
		}
	case events.RKOrderStatusChanged:
		var ev events.OrderStatusChanged
		if ev, err = events.Decode[events.OrderStatusChanged](body); err == nil {
			m = Message{
				To:      w.emailOf(ctx, ev.UserID),
				Subject: fmt.Sprintf("Order #%d is %s", ev.OrderID, ev.Status),
				Body:    fmt.Sprintf("Your order #%d is now %s.", ev.OrderID, ev.Status),
			}
		}
	case events.RKPaymentPaid:
		var ev events.PaymentPaid
		if ev, err = events.Decode[events.PaymentPaid](body); err == nil {
			m = Message{
				To:      w.emailOf(ctx, ev.UserID),
				Subject: "Payment received",
				Body: fmt.Sprintf("We received %s for order #%d via %s.",
					money(ev.Amount, ev.Currency), ev.OrderID, ev.Provider),
			}
		}
	case events.RKPaymentFailed:
		var ev events.PaymentFailed
		if ev, err = events.Decode[events.PaymentFailed](body); err == nil {
			msg := fmt.Sprintf("The payment for order #%d did not go through.", ev.OrderID)
			if ev.FailureMessage != "" {
				msg += " Reason: " + ev.FailureMessage
			}
			m = Message{To: w.emailOf(ctx, ev.UserID), Subject: "Payment failed", Body: msg}
		}
	case events.RKPaymentCanceled:
		var ev events.PaymentCanceled
		if ev, err = events.Decode[events.PaymentCanceled](body); err == nil {
			msg := fmt.Sprintf("The payment for order #%d was canceled.", ev.OrderID)
			if ev.Refunded {
				msg += fmt.Sprintf(" %s will be refunded.", money(ev.Amount, ""))
			}
			m = Message{To: w.emailOf(ctx, ev.UserID), Subject: "Payment canceled", Body: msg}
		}
	default:
		w.log.Debug("skip unknown key", zap.String("key", key))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	return w.notifier.Notify(ctx, m)
}

func (w *Worker) emailOf(ctx context.Context, userID int) string {
	if w.users == nil || userID == 0 {
		return ""
	}
	u, err := w.users.GetByID(ctx, userID)
	if err != nil {
		w.log.Warn("resolve recipient", zap.Int("user_id", userID), zap.Error(err))
		return ""
	}
	return u.Email
}

// money renders an amount in the smallest currency unit, e.g. 150050 -> "1500.50 THB".
func money(amount int64, currency string) string {
	s := fmt.Sprintf("%d.%02d", amount/100, amount%100)
	if currency != "" {
		s += " " + strings.ToUpper(currency)
	}
	return s
}
