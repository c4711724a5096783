package otp

import "time"

// Code is the pending verification for one email address. Only the bcrypt
// hash of the code is stored.
type Code struct {
	Email      string
	Hash       string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	Attempts   int
}

// Status codes returned by Verify. StatusExpired tells the client to resend.
const (
	StatusOK      = 200
	StatusExpired = 301
)
