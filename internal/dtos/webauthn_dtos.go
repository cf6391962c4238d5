package dtos

// DTOs for the WebAuthn ceremony endpoints. All binary fields are base64url
// strings, the encoding browsers produce.

type RegistrationOptionsRequest struct {
	UserID                  string `json:"user_id" validate:"required"`
	UserName                string `json:"user_name" validate:"required"`
	DisplayName             string `json:"display_name"`
	AuthenticatorAttachment string `json:"authenticator_attachment" validate:"omitempty,oneof=platform cross-platform"`
}

// RegistrationResponse mirrors the serialized PublicKeyCredential returned
// by navigator.credentials.create().
type RegistrationResponse struct {
	CredentialID      string   `json:"credential_id" validate:"required"`
	ClientDataJSON    string   `json:"client_data_json" validate:"required"`
	AttestationObject string   `json:"attestation_object" validate:"required"`
	Transports        []string `json:"transports"`
}

type VerifyRegistrationRequest struct {
	ChallengeToken string               `json:"challenge_token" validate:"required"`
	CredentialName string               `json:"credential_name"`
	Response       RegistrationResponse `json:"response" validate:"required"`
}

type AuthenticationOptionsRequest struct {
	// UserID is optional; when present the options carry an allow-list of
	// the user's registered credentials.
	UserID string `json:"user_id"`
}

// AuthenticationResponse mirrors the serialized PublicKeyCredential returned
// by navigator.credentials.get().
type AuthenticationResponse struct {
	CredentialID      string `json:"credential_id" validate:"required"`
	ClientDataJSON    string `json:"client_data_json" validate:"required"`
	AuthenticatorData string `json:"authenticator_data" validate:"required"`
	Signature         string `json:"signature" validate:"required"`
	UserHandle        string `json:"user_handle"`
}

type VerifyAuthenticationRequest struct {
	ChallengeToken string                 `json:"challenge_token" validate:"required"`
	Response       AuthenticationResponse `json:"response" validate:"required"`
}

// VerificationResultResponse is the tagged outcome for both ceremonies.
type VerificationResultResponse struct {
	Success    bool                `json:"success"`
	Reason     string              `json:"reason"`
	Credential *CredentialResponse `json:"credential,omitempty"`
}

type CredentialResponse struct {
	ID           string   `json:"id"`
	CredentialID string   `json:"credential_id"`
	Name         string   `json:"name,omitempty"`
	Transports   []string `json:"transports,omitempty"`
	SignCount    uint32   `json:"sign_count"`
	CreatedAt    string   `json:"created_at"`
	LastUsedAt   string   `json:"last_used_at,omitempty"`
}
