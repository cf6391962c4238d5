// internal/webauthn/cose.go
package webauthn

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// COSE algorithm identifiers negotiated at registration. The identifier is
// persisted with each credential so later signature verification is
// unambiguous.
//
// https://www.iana.org/assignments/cose/cose.xhtml#algorithms
const (
	AlgES256 = -7
	AlgRS256 = -257
)

// COSE key parameter labels.
const (
	coseLabelKty = 1
	coseLabelAlg = 3

	coseKtyEC2 = 2
	coseKtyRSA = 3

	coseEC2LabelCrv = -1
	coseEC2LabelX   = -2
	coseEC2LabelY   = -3
	coseEC2CrvP256  = 1

	coseRSALabelN = -1
	coseRSALabelE = -2
)

// ParseCOSEPublicKey decodes a COSE_Key structure into a usable public key
// and its algorithm identifier. Only ES256 (EC2/P-256) and RS256 keys are
// accepted; those are the algorithms offered in registration options.
func ParseCOSEPublicKey(b []byte) (crypto.PublicKey, int, error) {
	var raw map[int]any
	if err := cbor.Unmarshal(b, &raw); err != nil {
		return nil, 0, formatErrorf("cose key: %v", err)
	}

	kty, ok := coseInt(raw[coseLabelKty])
	if !ok {
		return nil, 0, formatErrorf("cose key has no kty")
	}
	alg, ok := coseInt(raw[coseLabelAlg])
	if !ok {
		return nil, 0, formatErrorf("cose key has no alg")
	}

	switch {
	case kty == coseKtyEC2 && alg == AlgES256:
		crv, _ := coseInt(raw[coseEC2LabelCrv])
		if crv != coseEC2CrvP256 {
			return nil, 0, formatErrorf("unsupported EC2 curve %d", crv)
		}
		x, _ := raw[coseEC2LabelX].([]byte)
		y, _ := raw[coseEC2LabelY].([]byte)
		if len(x) != 32 || len(y) != 32 {
			return nil, 0, formatErrorf("unexpected EC2 coordinate size")
		}
		pub := &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(x),
			Y:     new(big.Int).SetBytes(y),
		}
		return pub, AlgES256, nil

	case kty == coseKtyRSA && alg == AlgRS256:
		n, _ := raw[coseRSALabelN].([]byte)
		e, _ := raw[coseRSALabelE].([]byte)
		if len(n) == 0 || len(e) == 0 {
			return nil, 0, formatErrorf("rsa cose key missing modulus or exponent")
		}
		pub := &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}
		return pub, AlgRS256, nil

	default:
		return nil, 0, formatErrorf("unsupported cose key type %d / algorithm %d", kty, alg)
	}
}

// VerifySignature checks sig over data using the algorithm recorded at
// registration time.
func VerifySignature(pub crypto.PublicKey, alg int, data, sig []byte) error {
	digest := sha256.Sum256(data)

	switch alg {
	case AlgES256:
		ecdsaPub, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return errors.New("public key is not an ECDSA key")
		}
		if !ecdsa.VerifyASN1(ecdsaPub, digest[:], sig) {
			return errors.New("invalid ES256 signature")
		}
	case AlgRS256:
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return errors.New("public key is not an RSA key")
		}
		if err := rsa.VerifyPKCS1v15(rsaPub, crypto.SHA256, digest[:], sig); err != nil {
			return errors.New("invalid RS256 signature")
		}
	default:
		return errors.New("unsupported signature algorithm")
	}
	return nil
}

// SignedPayload recomputes the byte string the authenticator signed:
// authenticatorData ‖ SHA-256(clientDataJSON).
func SignedPayload(authData, clientDataJSON []byte) []byte {
	clientDataHash := sha256.Sum256(clientDataJSON)
	payload := make([]byte, 0, len(authData)+len(clientDataHash))
	payload = append(payload, authData...)
	payload = append(payload, clientDataHash[:]...)
	return payload
}

// coseInt coerces the integer types the cbor decoder can produce.
func coseInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
