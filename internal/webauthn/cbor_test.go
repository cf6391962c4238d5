package webauthn

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// Minimal CBOR writers covering exactly the subset the decoder accepts.

func mkCBORText(s string) []byte {
	if len(s) > 23 {
		panic("test text string too long for short form")
	}
	return append([]byte{0x60 | byte(len(s))}, s...)
}

func mkCBORBytes(b []byte) []byte {
	if len(b) > 23 {
		panic("use cborBytesLong")
	}
	return append([]byte{0x40 | byte(len(b))}, b...)
}

func mkCBORBytesLong(b []byte) []byte {
	switch {
	case len(b) < 256:
		return append([]byte{0x58, byte(len(b))}, b...)
	default:
		out := []byte{0x59, 0, 0}
		binary.BigEndian.PutUint16(out[1:3], uint16(len(b)))
		return append(out, b...)
	}
}

func mkCBORMapHeader(entries int) []byte {
	return []byte{0xa0 | byte(entries)}
}

func TestParseAttestationObjectSingleEntry(t *testing.T) {
	authData := make([]byte, 37)
	for i := range authData {
		authData[i] = byte(i)
	}

	payload := mkCBORMapHeader(1)
	payload = append(payload, mkCBORText("authData")...)
	payload = append(payload, mkCBORBytesLong(authData)...)

	obj, err := ParseAttestationObject(payload)
	require.NoError(t, err)
	require.Equal(t, authData, obj.AuthData)
	require.Empty(t, obj.Format)
}

func TestParseAttestationObjectNoneFormat(t *testing.T) {
	authData := make([]byte, 37)

	payload := mkCBORMapHeader(3)
	payload = append(payload, mkCBORText("fmt")...)
	payload = append(payload, mkCBORText("none")...)
	payload = append(payload, mkCBORText("attStmt")...)
	payload = append(payload, 0xa0) // empty map
	payload = append(payload, mkCBORText("authData")...)
	payload = append(payload, mkCBORBytesLong(authData)...)

	obj, err := ParseAttestationObject(payload)
	require.NoError(t, err)
	require.Equal(t, "none", obj.Format)
	require.Equal(t, authData, obj.AuthData)
}

func TestParseAttestationObjectTwoByteLength(t *testing.T) {
	authData := make([]byte, 300)
	payload := mkCBORMapHeader(1)
	payload = append(payload, mkCBORText("authData")...)
	payload = append(payload, mkCBORBytesLong(authData)...)

	obj, err := ParseAttestationObject(payload)
	require.NoError(t, err)
	require.Len(t, obj.AuthData, 300)
}

func TestParseAttestationObjectRejections(t *testing.T) {
	authData := make([]byte, 37)
	valid := mkCBORMapHeader(1)
	valid = append(valid, mkCBORText("authData")...)
	valid = append(valid, mkCBORBytesLong(authData)...)

	cases := map[string][]byte{
		"empty payload":       {},
		"not a map":           mkCBORBytes([]byte{1, 2, 3}),
		"indefinite map":      {0xbf},
		"extended map length": {0xb8, 0x01},
		"trailing bytes":      append(append([]byte{}, valid...), 0x00),
		"integer key":         {0xa1, 0x01, 0x41, 0x00},
		"missing authData": append(append(mkCBORMapHeader(1), mkCBORText("fmt")...),
			mkCBORText("none")...),
		"nested non-empty map": append(append(mkCBORMapHeader(1), mkCBORText("attStmt")...),
			0xa1, 0x61, 0x78, 0x41, 0x00),
		"unsupported value type": append(append(mkCBORMapHeader(1), mkCBORText("authData")...),
			0x01),
		"truncated byte string": append(append(mkCBORMapHeader(1), mkCBORText("authData")...),
			0x58, 0x20, 0x01),
	}

	for name, payload := range cases {
		_, err := ParseAttestationObject(payload)
		require.Error(t, err, name)
		require.IsType(t, &FormatError{}, err, name)
	}
}

func TestParseAttestationObjectEmptyAuthData(t *testing.T) {
	payload := mkCBORMapHeader(1)
	payload = append(payload, mkCBORText("authData")...)
	payload = append(payload, mkCBORBytes(nil)...)

	_, err := ParseAttestationObject(payload)
	require.Error(t, err)
}
