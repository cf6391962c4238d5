// internal/webauthn/encoding.go
package webauthn

import (
	"encoding/base64"
	"strings"
)

// EncodeBase64URL encodes bytes with the URL-safe alphabet and no padding,
// the form browsers use for credential ids and challenges.
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64URL handles URL-safe base64 with or without padding, and
// tolerates the standard alphabet ('+', '/') from older clients.
func DecodeBase64URL(s string) ([]byte, error) {
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	s = strings.TrimRight(s, "=")
	return base64.RawURLEncoding.DecodeString(s)
}
