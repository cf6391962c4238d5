// internal/models/challenge.go
package models

import (
	"time"
)

// Ceremony kinds a challenge can be issued for. A challenge is only valid
// for the kind it was issued for.
const (
	CeremonyRegistration   = "registration"
	CeremonyAuthentication = "authentication"
)

// Challenge represents a single-use ceremony challenge stored in the
// key-value store under challenge:{token}.
type Challenge struct {
	Token     string    `json:"token"`
	Ceremony  string    `json:"ceremony"`
	UserID    string    `json:"user_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *Challenge) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
