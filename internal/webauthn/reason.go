// internal/webauthn/reason.go
package webauthn

// Reason is the machine-readable outcome of a verification gate. Every
// ceremony ends in a tagged result carrying one of these codes; structural
// failures and protocol failures never surface as Go errors to callers,
// which keeps feedback precise without leaking verifier internals.
type Reason string

const (
	ReasonOK Reason = "ok"

	// Challenge lifecycle. Both are user-recoverable: the caller restarts
	// the ceremony with a freshly issued challenge.
	ReasonChallengeInvalid Reason = "challenge_invalid"
	ReasonChallengeExpired Reason = "challenge_expired"

	// Client-data gates.
	ReasonClientDataMismatch Reason = "client_data_mismatch"
	ReasonOriginMismatch     Reason = "origin_mismatch"

	// Authenticator-data gates.
	ReasonRPIDMismatch    Reason = "rp_id_mismatch"
	ReasonUserNotPresent  Reason = "user_not_present"
	ReasonUserNotVerified Reason = "user_not_verified"

	// Registration-specific.
	ReasonAttestationParseError Reason = "attestation_parse_error"
	ReasonDuplicateCredential   Reason = "duplicate_credential"

	// Authentication-specific.
	ReasonCredentialNotFound Reason = "credential_not_found"
	ReasonSignatureInvalid   Reason = "signature_invalid"
	// ReasonCloneDetected must be surfaced to the caller for security
	// handling; the engine never silently accepts a replayed counter.
	ReasonCloneDetected Reason = "clone_detected"

	// Structural category: malformed CBOR or truncated binary structures.
	ReasonFormatError Reason = "format_error"
)
