// Package webauthn implements the binary formats and verification gates of
// FIDO2/WebAuthn ceremonies as consumed by the relying party: base64url
// encoding, the narrow CBOR subset used by "none"-attestation objects,
// fixed-layout authenticator data, client data, and COSE credential keys.
//
// The CBOR decoder here is deliberately NOT a general-purpose decoder; see
// cbor.go for its contract before assuming broader support.
package webauthn
