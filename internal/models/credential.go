// internal/models/credential.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// WebAuthnCredential is a registered public-key credential. The stored
// sign counter is monotonically non-decreasing across successful
// authentications; authenticators that always report zero are exempt.
type WebAuthnCredential struct {
	ID           uuid.UUID `json:"id"`
	CredentialID string    `json:"credential_id"` // base64url of the raw id
	UserID       string    `json:"user_id"`
	PublicKey    []byte    `json:"public_key"` // raw COSE key bytes
	Algorithm    int       `json:"algorithm"`  // COSE identifier negotiated at registration
	SignCount    uint32    `json:"sign_count"`
	Transports   []string  `json:"transports,omitempty"`
	Name         string    `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsedAt   time.Time `json:"last_used_at,omitempty"`
}
