// internal/webauthn/authenticator_data.go
package webauthn

import (
	"encoding/binary"
)

// Flags is the authenticator-data flag byte.
//
// https://www.w3.org/TR/webauthn-3/#authdata-flags
type Flags byte

// UserPresent reports whether the authenticator performed a successful
// user-presence test.
func (f Flags) UserPresent() bool {
	return (byte(f) & 1) != 0
}

// UserVerified reports whether the authenticator additionally verified the
// user (PIN, biometric).
func (f Flags) UserVerified() bool {
	return (byte(f) & (1 << 2)) != 0
}

// AttestedCredentialDataIncluded reports whether the attested-credential
// block follows the fixed header.
func (f Flags) AttestedCredentialDataIncluded() bool {
	return (byte(f) & (1 << 6)) != 0
}

// ExtensionDataIncluded reports whether extension data follows.
func (f Flags) ExtensionDataIncluded() bool {
	return (byte(f) & (1 << 7)) != 0
}

// AttestedCredentialData is the optional registration-time block carrying
// the new credential.
type AttestedCredentialData struct {
	AAGUID       [16]byte
	CredentialID []byte
	// PublicKey holds the raw COSE key bytes; everything after the
	// credential id belongs to the key.
	PublicKey []byte
}

// AuthenticatorData is the fixed-layout structure authenticators return for
// every ceremony: 32-byte rpIdHash, 1 flag byte, 4-byte big-endian signature
// counter, then the optional attested-credential block.
type AuthenticatorData struct {
	RPIDHash  [32]byte
	Flags     Flags
	SignCount uint32

	// AttestedCredential is nil unless the AT flag is set.
	AttestedCredential *AttestedCredentialData
}

const authDataMinLen = 32 + 1 + 4

// ParseAuthenticatorData decodes the fixed layout. Buffers shorter than any
// required field fail with a FormatError.
func ParseAuthenticatorData(b []byte) (*AuthenticatorData, error) {
	if len(b) < authDataMinLen {
		return nil, formatErrorf("authenticator data is %d bytes, need at least %d", len(b), authDataMinLen)
	}

	ad := &AuthenticatorData{}
	copy(ad.RPIDHash[:], b[:32])
	ad.Flags = Flags(b[32])
	ad.SignCount = binary.BigEndian.Uint32(b[33:37])

	if !ad.Flags.AttestedCredentialDataIncluded() {
		return ad, nil
	}

	rest := b[authDataMinLen:]
	if len(rest) < 16 {
		return nil, formatErrorf("not enough bytes for aaguid")
	}
	acd := &AttestedCredentialData{}
	copy(acd.AAGUID[:], rest[:16])
	rest = rest[16:]

	if len(rest) < 2 {
		return nil, formatErrorf("not enough bytes for credential-id length")
	}
	idLen := int(binary.BigEndian.Uint16(rest[:2]))
	rest = rest[2:]

	if len(rest) < idLen {
		return nil, formatErrorf("credential id of %d bytes overruns buffer", idLen)
	}
	acd.CredentialID = rest[:idLen]
	acd.PublicKey = rest[idLen:]

	ad.AttestedCredential = acd
	return ad, nil
}
