// internal/webauthn/client_data.go
package webauthn

import (
	"crypto/subtle"
	"encoding/json"
)

// Ceremony type strings carried in clientDataJSON.
const (
	CeremonyCreate = "webauthn.create"
	CeremonyGet    = "webauthn.get"
)

// ClientData is the browser-supplied context for a ceremony. Decoded per
// ceremony, never persisted.
type ClientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"`
	Origin      string `json:"origin"`
	CrossOrigin bool   `json:"crossOrigin"`
}

// ParseClientData decodes clientDataJSON.
func ParseClientData(b []byte) (*ClientData, error) {
	var cd ClientData
	if err := json.Unmarshal(b, &cd); err != nil {
		return nil, formatErrorf("client data is not valid JSON: %v", err)
	}
	return &cd, nil
}

// ChallengeEqual compares the client-data challenge against the issued token
// in constant time.
func (cd *ClientData) ChallengeEqual(token string) bool {
	return subtle.ConstantTimeCompare([]byte(cd.Challenge), []byte(token)) == 1
}
