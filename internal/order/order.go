package order

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// next lists the statuses each status may move to.
var next = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCanceled},
	StatusPaid:    {StatusCompleted, StatusCanceled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// CanMove reports whether an order in status s may be moved to to.
func (s Status) CanMove(to Status) bool {
	for _, n := range next[s] {
		if n == to {
			return true
		}
	}
	return false
}

// ProductRef is the product summary embedded in order and payment listings.
type ProductRef struct {
	ID       int    `json:"productId"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// UserRef is the customer summary embedded in admin listings.
type UserRef struct {
	ID       int    `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// Order represents a purchase of a single product.
type Order struct {
	ID        int         `json:"orderId"`
	UserID    int         `json:"-"`
	ProductID int         `json:"-"`
	Price     int64       `json:"price"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Product   *ProductRef `json:"product,omitempty"`
	User      *UserRef    `json:"user,omitempty"`
}
