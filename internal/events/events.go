package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Routing keys published on the storefront topic exchange.
const (
	RKOTPRequested       = "otp.requested"
	RKOrderCreated       = "order.created"
	RKOrderStatusChanged = "order.status_changed"
	RKPaymentPaid        = "payment.paid"
	RKPaymentFailed      = "payment.failed"
	RKPaymentCanceled    = "payment.canceled"
)

type OTPRequested struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type OrderCreated struct {
	OrderID   int   `json:"order_id"`
	UserID    int   `json:"user_id"`
	ProductID int   `json:"product_id"`
	Price     int64 `json:"price"`
}

type OrderStatusChanged struct {
	OrderID int    `json:"order_id"`
	UserID  int    `json:"user_id"`
	Status  string `json:"status"`
}

type PaymentPaid struct {
	TransactionID int    `json:"transaction_id"`
	OrderID       int    `json:"order_id"`
	UserID        int    `json:"user_id"`
	ChargeID      string `json:"charge_id"`
	Provider      string `json:"provider"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

type PaymentFailed struct {
	TransactionID  int    `json:"transaction_id"`
	OrderID        int    `json:"order_id"`
	UserID         int    `json:"user_id"`
	ChargeID       string `json:"charge_id"`
	FailureCode    string `json:"failure_code,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
}

type PaymentCanceled struct {
	TransactionID int   `json:"transaction_id"`
	OrderID       int   `json:"order_id"`
	UserID        int   `json:"user_id"`
	Amount        int64 `json:"amount"`
	Refunded      bool  `json:"refunded"`
}

func Decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
