// internal/models/enrollment.go
package models

import (
	"time"
)

// SecondFactorEnrollment records which second-factor method a user has
// enabled, plus the method's per-user state. Stored under
// second-factor:{userId}.
type SecondFactorEnrollment struct {
	UserID string `json:"user_id"`
	Method string `json:"method"`

	// TOTPSecret is set for TOTP enrollments only.
	TOTPSecret string `json:"totp_secret,omitempty"`
	// Destination is the email address or phone number for OTP enrollments.
	Destination string `json:"destination,omitempty"`

	EnabledAt time.Time `json:"enabled_at"`
}
