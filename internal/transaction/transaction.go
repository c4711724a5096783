package transaction

import (
	"time"

	"github.com/wichananm65/storefront/internal/order"
)

// State is the stored payment state code.
type State int

const (
	StatePaid            State = 2
	StatePending         State = 1
	StatePendingCanceled State = -1
	StatePaidCanceled    State = -2
)

func (s State) String() string {
	switch s {
	case StatePaid:
		return "paid"
	case StatePending:
		return "pending"
	case StatePendingCanceled:
		return "pending_canceled"
	case StatePaidCanceled:
		return "paid_canceled"
	}
	return "unknown"
}

// CanMove reports whether a payment in state s may move to to.
func (s State) CanMove(to State) bool {
	switch s {
	case StatePending:
		return to == StatePaid || to == StatePendingCanceled
	case StatePaid:
		return to == StatePaidCanceled
	case StatePendingCanceled:
		// a charge that completed after the payment was canceled is refunded
		return to == StatePaidCanceled
	}
	return false
}

const (
	ProviderOmise = "omise"
	ProviderCash  = "cash"
)

type Transaction struct {
	ID        int               `json:"transactionId"`
	UserID    int               `json:"-"`
	ProductID int               `json:"-"`
	OrderID   int               `json:"orderId"`
	Amount    int64             `json:"amount"`
	Provider  string            `json:"provider"`
	ChargeID  string            `json:"chargeId,omitempty"`
	State     State             `json:"state"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Product   *order.ProductRef `json:"product,omitempty"`
	User      *order.UserRef    `json:"user,omitempty"`
}
