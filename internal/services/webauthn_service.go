// internal/services/webauthn_service.go
package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/poofware/mfa-service/internal/config"
	"github.com/poofware/mfa-service/internal/dtos"
	"github.com/poofware/mfa-service/internal/models"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/utils"
	"github.com/poofware/mfa-service/internal/webauthn"
)

// VerificationResult is the tagged outcome of a ceremony. Success is true
// only when Reason is ReasonOK. Protocol failures land here; store I/O
// failures are returned as Go errors instead.
type VerificationResult struct {
	Success    bool
	Reason     webauthn.Reason
	Credential *models.WebAuthnCredential
}

func failure(reason webauthn.Reason) *VerificationResult {
	return &VerificationResult{Success: false, Reason: reason}
}

// WebAuthnService drives both WebAuthn ceremonies end to end: option
// generation, response verification, and credential management.
type WebAuthnService interface {
	GenerateRegistrationOptions(ctx context.Context, req dtos.RegistrationOptionsRequest) (*webauthn.CreationOptions, error)
	VerifyRegistration(ctx context.Context, req dtos.VerifyRegistrationRequest) (*VerificationResult, error)
	GenerateAuthenticationOptions(ctx context.Context, userID string) (*webauthn.RequestOptions, error)
	VerifyAuthentication(ctx context.Context, req dtos.VerifyAuthenticationRequest) (*VerificationResult, error)
	ListCredentials(ctx context.Context, userID string) ([]*models.WebAuthnCredential, error)
	RemoveCredential(ctx context.Context, userID, credentialID string) error
	// RemoveAllCredentials deletes every credential for the user; used when
	// the webauthn second factor is disabled.
	RemoveAllCredentials(ctx context.Context, userID string) error
}

type webAuthnService struct {
	challengeSvc   ChallengeService
	credentialRepo repositories.CredentialRepository
	cfg            *config.Config
}

func NewWebAuthnService(
	challengeSvc ChallengeService,
	credentialRepo repositories.CredentialRepository,
	cfg *config.Config,
) WebAuthnService {
	return &webAuthnService{
		challengeSvc:   challengeSvc,
		credentialRepo: credentialRepo,
		cfg:            cfg,
	}
}

// ---------------------------------------------------------------------
// Option generation
// ---------------------------------------------------------------------

func (s *webAuthnService) GenerateRegistrationOptions(ctx context.Context, req dtos.RegistrationOptionsRequest) (*webauthn.CreationOptions, error) {
	token, err := s.challengeSvc.Generate(ctx, models.CeremonyRegistration, req.UserID)
	if err != nil {
		return nil, err
	}

	existing, err := s.credentialRepo.ListByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	exclude := make([]webauthn.CredentialDescriptor, 0, len(existing))
	for _, cred := range existing {
		exclude = append(exclude, webauthn.CredentialDescriptor{
			Type:       "public-key",
			ID:         cred.CredentialID,
			Transports: cred.Transports,
		})
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.UserName
	}

	uv := "preferred"
	if s.cfg.RequireUserVerification {
		uv = "required"
	}

	return &webauthn.CreationOptions{
		Challenge: token,
		RP: webauthn.RelyingPartyEntity{
			ID:   s.cfg.RPID,
			Name: s.cfg.RPName,
		},
		User: webauthn.UserEntity{
			ID:          webauthn.EncodeBase64URL([]byte(req.UserID)),
			Name:        req.UserName,
			DisplayName: displayName,
		},
		PubKeyCredParams: []webauthn.PubKeyCredParam{
			{Type: "public-key", Alg: webauthn.AlgES256},
			{Type: "public-key", Alg: webauthn.AlgRS256},
		},
		Timeout:     s.cfg.RegistrationTimeout.Milliseconds(),
		Attestation: "none",
		AuthenticatorSelection: webauthn.AuthenticatorSelection{
			AuthenticatorAttachment: req.AuthenticatorAttachment,
			ResidentKey:             "preferred",
			UserVerification:        uv,
		},
		ExcludeCredentials: exclude,
	}, nil
}

func (s *webAuthnService) GenerateAuthenticationOptions(ctx context.Context, userID string) (*webauthn.RequestOptions, error) {
	token, err := s.challengeSvc.Generate(ctx, models.CeremonyAuthentication, userID)
	if err != nil {
		return nil, err
	}

	var allow []webauthn.CredentialDescriptor
	if userID != "" {
		creds, err := s.credentialRepo.ListByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, cred := range creds {
			allow = append(allow, webauthn.CredentialDescriptor{
				Type:       "public-key",
				ID:         cred.CredentialID,
				Transports: cred.Transports,
			})
		}
	}

	uv := "preferred"
	if s.cfg.RequireUserVerification {
		uv = "required"
	}

	return &webauthn.RequestOptions{
		Challenge:        token,
		Timeout:          s.cfg.AuthenticationTimeout.Milliseconds(),
		RPID:             s.cfg.RPID,
		AllowCredentials: allow,
		UserVerification: uv,
	}, nil
}

// ---------------------------------------------------------------------
// Registration verification
// ---------------------------------------------------------------------

// VerifyRegistration runs the registration gates in order. The challenge is
// consumed first, whatever the later outcome: a response that fails any gate
// still burns its challenge.
func (s *webAuthnService) VerifyRegistration(ctx context.Context, req dtos.VerifyRegistrationRequest) (*VerificationResult, error) {
	challenge, reason, err := s.challengeSvc.Consume(ctx, req.ChallengeToken, models.CeremonyRegistration)
	if err != nil {
		return nil, err
	}
	if reason != webauthn.ReasonOK {
		return failure(reason), nil
	}

	clientDataJSON, err := webauthn.DecodeBase64URL(req.Response.ClientDataJSON)
	if err != nil {
		return failure(webauthn.ReasonFormatError), nil
	}
	clientData, err := webauthn.ParseClientData(clientDataJSON)
	if err != nil {
		return failure(webauthn.ReasonFormatError), nil
	}

	if clientData.Type != webauthn.CeremonyCreate {
		return failure(webauthn.ReasonClientDataMismatch), nil
	}
	if !clientData.ChallengeEqual(req.ChallengeToken) {
		return failure(webauthn.ReasonClientDataMismatch), nil
	}
	if clientData.Origin != s.cfg.RPOrigin {
		return failure(webauthn.ReasonOriginMismatch), nil
	}

	attObjBytes, err := webauthn.DecodeBase64URL(req.Response.AttestationObject)
	if err != nil {
		return failure(webauthn.ReasonFormatError), nil
	}
	attObj, err := webauthn.ParseAttestationObject(attObjBytes)
	if err != nil {
		return failure(webauthn.ReasonAttestationParseError), nil
	}
	authData, err := webauthn.ParseAuthenticatorData(attObj.AuthData)
	if err != nil {
		return failure(webauthn.ReasonAttestationParseError), nil
	}

	if reason := s.checkAuthDataPolicy(authData); reason != webauthn.ReasonOK {
		return failure(reason), nil
	}

	if authData.AttestedCredential == nil {
		return failure(webauthn.ReasonAttestationParseError), nil
	}
	acd := authData.AttestedCredential

	credentialID := webauthn.EncodeBase64URL(acd.CredentialID)
	if req.Response.CredentialID != "" && req.Response.CredentialID != credentialID {
		return failure(webauthn.ReasonAttestationParseError), nil
	}

	// The key must decode to a supported algorithm before anything is
	// persisted; the identifier is stored for authentication time.
	_, alg, err := webauthn.ParseCOSEPublicKey(acd.PublicKey)
	if err != nil {
		return failure(webauthn.ReasonAttestationParseError), nil
	}

	existing, err := s.credentialRepo.GetByCredentialID(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return failure(webauthn.ReasonDuplicateCredential), nil
	}

	cred := &models.WebAuthnCredential{
		ID:           uuid.New(),
		CredentialID: credentialID,
		UserID:       challenge.UserID,
		PublicKey:    acd.PublicKey,
		Algorithm:    alg,
		SignCount:    authData.SignCount,
		Transports:   req.Response.Transports,
		Name:         req.CredentialName,
		CreatedAt:    time.Now(),
	}
	if err := s.credentialRepo.Create(ctx, cred); err != nil {
		return nil, err
	}

	utils.Logger.Infof("Registered webauthn credential %s for user %s (alg %d)", credentialID, challenge.UserID, alg)
	return &VerificationResult{Success: true, Reason: webauthn.ReasonOK, Credential: cred}, nil
}

// ---------------------------------------------------------------------
// Authentication verification
// ---------------------------------------------------------------------

// VerifyAuthentication runs the authentication gates in order, including
// mandatory signature verification against the stored key and the counter
// replay rule.
func (s *webAuthnService) VerifyAuthentication(ctx context.Context, req dtos.VerifyAuthenticationRequest) (*VerificationResult, error) {
	challenge, reason, err := s.challengeSvc.Consume(ctx, req.ChallengeToken, models.CeremonyAuthentication)
	if err != nil {
		return nil, err
	}
	if reason != webauthn.ReasonOK {
		return failure(reason), nil
	}

	clientDataJSON, err := webauthn.DecodeBase64URL(req.Response.ClientDataJSON)
	if err != nil {
		return failure(webauthn.ReasonFormatError), nil
	}
	clientData, err := webauthn.ParseClientData(clientDataJSON)
	if err != nil {
		return failure(webauthn.ReasonFormatError), nil
	}

	if clientData.Type != webauthn.CeremonyGet {
		return failure(webauthn.ReasonClientDataMismatch), nil
	}
	if !clientData.ChallengeEqual(req.ChallengeToken) {
		return failure(webauthn.ReasonClientDataMismatch), nil
	}
	if clientData.Origin != s.cfg.RPOrigin {
		return failure(webauthn.ReasonOriginMismatch), nil
	}

	cred, err := s.credentialRepo.GetByCredentialID(ctx, req.Response.CredentialID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return failure(webauthn.ReasonCredentialNotFound), nil
	}
	// A challenge issued for one user never validates another's credential.
	if challenge.UserID != "" && cred.UserID != challenge.UserID {
		return failure(webauthn.ReasonCredentialNotFound), nil
	}

	authDataBytes, err := webauthn.DecodeBase64URL(req.Response.AuthenticatorData)
	if err != nil {
		return failure(webauthn.ReasonFormatError), nil
	}
	authData, err := webauthn.ParseAuthenticatorData(authDataBytes)
	if err != nil {
		return failure(webauthn.ReasonFormatError), nil
	}

	if reason := s.checkAuthDataPolicy(authData); reason != webauthn.ReasonOK {
		return failure(reason), nil
	}

	sig, err := webauthn.DecodeBase64URL(req.Response.Signature)
	if err != nil {
		return failure(webauthn.ReasonFormatError), nil
	}
	pub, _, err := webauthn.ParseCOSEPublicKey(cred.PublicKey)
	if err != nil {
		// A stored key that no longer parses is a data problem, not a
		// client protocol failure.
		return nil, fmt.Errorf("stored cose key for credential %s is unreadable: %w", cred.CredentialID, err)
	}
	payload := webauthn.SignedPayload(authDataBytes, clientDataJSON)
	if err := webauthn.VerifySignature(pub, cred.Algorithm, payload, sig); err != nil {
		return failure(webauthn.ReasonSignatureInvalid), nil
	}

	// Counter replay rule: a non-zero reported count must strictly exceed
	// the stored one. Authenticators that always report zero are exempt.
	if authData.SignCount != 0 || cred.SignCount != 0 {
		if authData.SignCount <= cred.SignCount {
			utils.Logger.Warnf("Possible cloned authenticator for credential %s: reported count %d, stored %d",
				cred.CredentialID, authData.SignCount, cred.SignCount)
			return failure(webauthn.ReasonCloneDetected), nil
		}
	}

	cred.SignCount = authData.SignCount
	cred.LastUsedAt = time.Now()
	if err := s.credentialRepo.Update(ctx, cred); err != nil {
		return nil, err
	}

	return &VerificationResult{Success: true, Reason: webauthn.ReasonOK, Credential: cred}, nil
}

// checkAuthDataPolicy applies the gates shared by both ceremonies: rpIdHash
// and the presence/verification flags.
func (s *webAuthnService) checkAuthDataPolicy(authData *webauthn.AuthenticatorData) webauthn.Reason {
	expected := sha256.Sum256([]byte(s.cfg.RPID))
	if subtle.ConstantTimeCompare(authData.RPIDHash[:], expected[:]) != 1 {
		return webauthn.ReasonRPIDMismatch
	}
	if !authData.Flags.UserPresent() {
		return webauthn.ReasonUserNotPresent
	}
	if s.cfg.RequireUserVerification && !authData.Flags.UserVerified() {
		return webauthn.ReasonUserNotVerified
	}
	return webauthn.ReasonOK
}

// ---------------------------------------------------------------------
// Credential management
// ---------------------------------------------------------------------

func (s *webAuthnService) ListCredentials(ctx context.Context, userID string) ([]*models.WebAuthnCredential, error) {
	return s.credentialRepo.ListByUserID(ctx, userID)
}

func (s *webAuthnService) RemoveCredential(ctx context.Context, userID, credentialID string) error {
	cred, err := s.credentialRepo.GetByCredentialID(ctx, credentialID)
	if err != nil {
		return err
	}
	if cred == nil || cred.UserID != userID {
		return errors.New("credential not found")
	}
	return s.credentialRepo.Delete(ctx, credentialID)
}

func (s *webAuthnService) RemoveAllCredentials(ctx context.Context, userID string) error {
	return s.credentialRepo.DeleteAllForUser(ctx, userID)
}
