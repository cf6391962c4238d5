package webauthn

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBase64URLRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 31, 32, 33} {
		buf := make([]byte, size)
		_, err := rand.Read(buf)
		require.NoError(t, err)

		encoded := EncodeBase64URL(buf)
		decoded, err := DecodeBase64URL(encoded)
		require.NoError(t, err)
		require.Equal(t, buf, decoded, "round trip failed for %d bytes", size)
	}
}

func TestDecodeBase64URLTolerance(t *testing.T) {
	// 0xfb 0xef 0xff encodes to "++//" standard, "--__" url-safe.
	raw := []byte{0xfb, 0xef, 0xff}

	decoded, err := DecodeBase64URL("--__")
	require.NoError(t, err)
	require.Equal(t, raw, decoded)

	// Standard alphabet from an older client.
	decoded, err = DecodeBase64URL("++//")
	require.NoError(t, err)
	require.Equal(t, raw, decoded)

	// Padded form.
	decoded, err = DecodeBase64URL("AQI=")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, decoded)
}

func TestDecodeBase64URLRejectsGarbage(t *testing.T) {
	_, err := DecodeBase64URL("not!valid")
	require.Error(t, err)
}

func TestEncodeBase64URLNoPadding(t *testing.T) {
	require.NotContains(t, EncodeBase64URL([]byte{1, 2}), "=")
}
