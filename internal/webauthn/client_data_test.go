package webauthn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClientData(t *testing.T) {
	raw := []byte(`{"type":"webauthn.create","challenge":"abc","origin":"https://example.com","crossOrigin":false}`)

	cd, err := ParseClientData(raw)
	require.NoError(t, err)
	require.Equal(t, CeremonyCreate, cd.Type)
	require.Equal(t, "https://example.com", cd.Origin)
	require.True(t, cd.ChallengeEqual("abc"))
	require.False(t, cd.ChallengeEqual("abd"))
	require.False(t, cd.ChallengeEqual("ab"))
}

func TestParseClientDataInvalidJSON(t *testing.T) {
	_, err := ParseClientData([]byte("{"))
	require.Error(t, err)
	require.IsType(t, &FormatError{}, err)
}
