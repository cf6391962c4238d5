// internal/models/otp_code.go
package models

import (
	"time"
)

// OTPCode is a pending delivered one-time code. Attempts counts failed
// verifications so a code can be invalidated after too many wrong guesses.
type OTPCode struct {
	UserID    string    `json:"user_id"`
	Method    string    `json:"method"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *OTPCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
