package webauthn

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	flagUP = 1 << 0
	flagUV = 1 << 2
	flagAT = 1 << 6
)

func mkAuthData(rpID string, flags byte, signCount uint32) []byte {
	hash := sha256.Sum256([]byte(rpID))
	buf := make([]byte, 37)
	copy(buf, hash[:])
	buf[32] = flags
	binary.BigEndian.PutUint32(buf[33:37], signCount)
	return buf
}

func mkAttestedCredential(credID, coseKey []byte) []byte {
	out := make([]byte, 16) // zero AAGUID
	out = append(out, byte(len(credID)>>8), byte(len(credID)))
	out = append(out, credID...)
	return append(out, coseKey...)
}

func TestParseAuthenticatorDataHeader(t *testing.T) {
	buf := mkAuthData("example.com", flagUP|flagUV, 42)

	ad, err := ParseAuthenticatorData(buf)
	require.NoError(t, err)

	expected := sha256.Sum256([]byte("example.com"))
	require.Equal(t, expected, ad.RPIDHash)
	require.True(t, ad.Flags.UserPresent())
	require.True(t, ad.Flags.UserVerified())
	require.False(t, ad.Flags.AttestedCredentialDataIncluded())
	require.Equal(t, uint32(42), ad.SignCount)
	require.Nil(t, ad.AttestedCredential)
}

func TestParseAuthenticatorDataWithAttestedCredential(t *testing.T) {
	credID := []byte{0xde, 0xad, 0xbe, 0xef}
	coseKey := []byte{0xa5, 0x01, 0x02} // opaque at this layer

	buf := mkAuthData("example.com", flagUP|flagAT, 0)
	buf = append(buf, mkAttestedCredential(credID, coseKey)...)

	ad, err := ParseAuthenticatorData(buf)
	require.NoError(t, err)
	require.NotNil(t, ad.AttestedCredential)
	require.Equal(t, credID, ad.AttestedCredential.CredentialID)
	require.Equal(t, coseKey, ad.AttestedCredential.PublicKey)
	require.Equal(t, [16]byte{}, ad.AttestedCredential.AAGUID)
}

func TestParseAuthenticatorDataTruncated(t *testing.T) {
	cases := map[string][]byte{
		"empty":             {},
		"short header":      make([]byte, 36),
		"missing aaguid":    mkAuthData("example.com", flagAT, 0),
		"missing id length": append(mkAuthData("example.com", flagAT, 0), make([]byte, 16)...),
		"id overruns buffer": append(
			append(mkAuthData("example.com", flagAT, 0), make([]byte, 16)...),
			0x00, 0x10, 0x01),
	}

	for name, buf := range cases {
		_, err := ParseAuthenticatorData(buf)
		require.Error(t, err, name)
		require.IsType(t, &FormatError{}, err, name)
	}
}

func TestFlagBits(t *testing.T) {
	f := Flags(flagUP | flagAT | 1<<7)
	require.True(t, f.UserPresent())
	require.False(t, f.UserVerified())
	require.True(t, f.AttestedCredentialDataIncluded())
	require.True(t, f.ExtensionDataIncluded())
}
