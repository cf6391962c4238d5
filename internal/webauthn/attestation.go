// internal/webauthn/attestation.go
package webauthn

// AttestationObject is the decoded registration-time envelope. Only the
// "none" trust model is supported: the attestation statement is parsed far
// enough to be skipped, never verified.
type AttestationObject struct {
	Format   string
	AuthData []byte
}

// ParseAttestationObject decodes the CBOR envelope returned by
// navigator.credentials.create() and extracts the authenticator data.
func ParseAttestationObject(b []byte) (*AttestationObject, error) {
	m, err := decodeCBORMap(b)
	if err != nil {
		return nil, err
	}

	obj := &AttestationObject{}
	if v, ok := m["fmt"]; ok && v.kind == cborText {
		obj.Format = v.text
	}
	v, ok := m["authData"]
	if !ok || v.kind != cborBytes {
		return nil, formatErrorf("attestation object has no authData byte string")
	}
	if len(v.bytes) == 0 {
		return nil, formatErrorf("attestation object authData is empty")
	}
	obj.AuthData = v.bytes
	return obj, nil
}
