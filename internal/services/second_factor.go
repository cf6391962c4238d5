// internal/services/second_factor.go
package services

import (
	"context"
	"fmt"

	"github.com/poofware/mfa-service/internal/config"
	"github.com/poofware/mfa-service/internal/dtos"
	"github.com/poofware/mfa-service/internal/models"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/utils"
	"github.com/poofware/mfa-service/internal/webauthn"
)

// Outcome codes for the code-based providers, same tagged-result scheme the
// ceremony verifiers use.
const (
	ReasonCodeInvalid     webauthn.Reason = "code_invalid"
	ReasonCodeExpired     webauthn.Reason = "code_expired"
	ReasonTooManyAttempts webauthn.Reason = "too_many_attempts"
)

// SecondFactorOutcome is the tagged result of a code verification.
type SecondFactorOutcome struct {
	Success bool
	Reason  webauthn.Reason
}

// SecondFactorProvider is the capability surface shared by every supported
// second-factor mechanism. The variant set is closed: WebAuthn, TOTP,
// OTP-email, OTP-sms. Operations a mechanism cannot support return
// utils.ErrUnsupportedForMethod.
type SecondFactorProvider interface {
	Method() utils.SecondFactorMethod

	// Setup begins enrollment. For TOTP it provisions and returns the
	// secret; for the OTP methods it records the destination and delivers
	// a first code; for WebAuthn enrollment happens through the ceremony
	// endpoints and Setup only acknowledges the method.
	Setup(ctx context.Context, req dtos.SetupSecondFactorRequest) (*dtos.SetupSecondFactorResponse, error)
	// VerifySetup confirms enrollment with a code. Enrollment stays
	// pending until this succeeds.
	VerifySetup(ctx context.Context, userID, code string) (*SecondFactorOutcome, error)
	// RequestLoginCode delivers a fresh login code for the OTP methods.
	RequestLoginCode(ctx context.Context, userID string) error
	// VerifyLogin validates a login code against an enabled enrollment.
	VerifyLogin(ctx context.Context, userID, code string) (*SecondFactorOutcome, error)

	Disable(ctx context.Context, userID string) error
	GetInfo(ctx context.Context, userID string) (*models.SecondFactorEnrollment, error)

	// Credential management; only WebAuthn has credentials, the rest
	// return empty lists.
	ListCredentials(ctx context.Context, userID string) ([]*models.WebAuthnCredential, error)
	RemoveCredential(ctx context.Context, userID, credentialID string) error
}

// SecondFactorRegistry holds the providers enabled by configuration.
// Selection is an explicit switch over the closed method set; there is no
// name-keyed runtime registration.
type SecondFactorRegistry struct {
	providers map[utils.SecondFactorMethod]SecondFactorProvider
}

// NewSecondFactorRegistry constructs the provider for each configured
// method and nothing else.
func NewSecondFactorRegistry(
	cfg *config.Config,
	webauthnSvc WebAuthnService,
	enrollmentRepo repositories.EnrollmentRepository,
	otpCodeRepo repositories.OTPCodeRepository,
	rateLimiter RateLimiterService,
) (*SecondFactorRegistry, error) {
	providers := make(map[utils.SecondFactorMethod]SecondFactorProvider)

	for _, m := range cfg.EnabledMethods {
		switch m {
		case utils.MethodWebAuthn:
			providers[m] = newWebAuthnProvider(webauthnSvc, enrollmentRepo)
		case utils.MethodTOTP:
			providers[m] = NewTOTPService(cfg, enrollmentRepo)
		case utils.MethodOTPEmail:
			providers[m] = NewEmailOTPService(cfg, enrollmentRepo, otpCodeRepo, rateLimiter)
		case utils.MethodOTPSMS:
			providers[m] = NewSMSOTPService(cfg, enrollmentRepo, otpCodeRepo, rateLimiter)
		default:
			return nil, fmt.Errorf("unknown second-factor method %d", m)
		}
	}
	return &SecondFactorRegistry{providers: providers}, nil
}

// Provider returns the provider for an enabled method.
func (r *SecondFactorRegistry) Provider(m utils.SecondFactorMethod) (SecondFactorProvider, error) {
	p, ok := r.providers[m]
	if !ok {
		return nil, fmt.Errorf("%w: second-factor method %s is not enabled", utils.ErrMethodNotEnabled, m)
	}
	return p, nil
}

// ---------------------------------------------------------------------
// WebAuthn provider adapter
// ---------------------------------------------------------------------

// webAuthnProvider adapts the ceremony service to the provider surface.
// Enrollment state mirrors whether the user has any registered credential.
type webAuthnProvider struct {
	svc            WebAuthnService
	enrollmentRepo repositories.EnrollmentRepository
}

func newWebAuthnProvider(svc WebAuthnService, enrollmentRepo repositories.EnrollmentRepository) SecondFactorProvider {
	return &webAuthnProvider{svc: svc, enrollmentRepo: enrollmentRepo}
}

func (p *webAuthnProvider) Method() utils.SecondFactorMethod {
	return utils.MethodWebAuthn
}

func (p *webAuthnProvider) Setup(ctx context.Context, req dtos.SetupSecondFactorRequest) (*dtos.SetupSecondFactorResponse, error) {
	// Actual enrollment happens through the registration ceremony.
	return &dtos.SetupSecondFactorResponse{Method: p.Method().String()}, nil
}

func (p *webAuthnProvider) VerifySetup(ctx context.Context, userID, code string) (*SecondFactorOutcome, error) {
	return nil, utils.ErrUnsupportedForMethod
}

func (p *webAuthnProvider) RequestLoginCode(ctx context.Context, userID string) error {
	return utils.ErrUnsupportedForMethod
}

func (p *webAuthnProvider) VerifyLogin(ctx context.Context, userID, code string) (*SecondFactorOutcome, error) {
	return nil, utils.ErrUnsupportedForMethod
}

func (p *webAuthnProvider) Disable(ctx context.Context, userID string) error {
	if err := p.svc.RemoveAllCredentials(ctx, userID); err != nil {
		return err
	}
	return p.enrollmentRepo.Delete(ctx, userID)
}

func (p *webAuthnProvider) GetInfo(ctx context.Context, userID string) (*models.SecondFactorEnrollment, error) {
	creds, err := p.svc.ListCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, nil
	}
	enrollment := &models.SecondFactorEnrollment{
		UserID: userID,
		Method: p.Method().String(),
	}
	for _, c := range creds {
		if enrollment.EnabledAt.IsZero() || c.CreatedAt.Before(enrollment.EnabledAt) {
			enrollment.EnabledAt = c.CreatedAt
		}
	}
	return enrollment, nil
}

func (p *webAuthnProvider) ListCredentials(ctx context.Context, userID string) ([]*models.WebAuthnCredential, error) {
	return p.svc.ListCredentials(ctx, userID)
}

func (p *webAuthnProvider) RemoveCredential(ctx context.Context, userID, credentialID string) error {
	return p.svc.RemoveCredential(ctx, userID, credentialID)
}
