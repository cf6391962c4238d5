// internal/services/totp_service.go
package services

import (
	"context"
	"time"

	"github.com/poofware/mfa-service/internal/config"
	"github.com/poofware/mfa-service/internal/dtos"
	"github.com/poofware/mfa-service/internal/models"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/utils"
	"github.com/poofware/mfa-service/internal/webauthn"
)

// totpService is the TOTP second-factor provider. The per-user secret lives
// in the enrollment record; enrollment stays pending until the user proves
// possession of the secret with a first valid code.
type totpService struct {
	cfg            *config.Config
	enrollmentRepo repositories.EnrollmentRepository
}

func NewTOTPService(cfg *config.Config, enrollmentRepo repositories.EnrollmentRepository) SecondFactorProvider {
	return &totpService{cfg: cfg, enrollmentRepo: enrollmentRepo}
}

func (s *totpService) Method() utils.SecondFactorMethod {
	return utils.MethodTOTP
}

func (s *totpService) Setup(ctx context.Context, req dtos.SetupSecondFactorRequest) (*dtos.SetupSecondFactorResponse, error) {
	existing, err := s.enrollmentRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	// An enabled enrollment blocks setup regardless of method; switching
	// methods requires disabling the current one first. Pending enrollments
	// are replaced.
	if existing != nil && !existing.EnabledAt.IsZero() {
		return nil, utils.ErrAlreadyEnrolled
	}

	secret, err := utils.GenerateTOTPSecret(s.cfg.OrganizationName, req.UserID)
	if err != nil {
		return nil, err
	}

	enrollment := &models.SecondFactorEnrollment{
		UserID:     req.UserID,
		Method:     s.Method().String(),
		TOTPSecret: secret,
	}
	if err := s.enrollmentRepo.Save(ctx, enrollment); err != nil {
		return nil, err
	}

	return &dtos.SetupSecondFactorResponse{
		Method:     s.Method().String(),
		TOTPSecret: secret,
	}, nil
}

func (s *totpService) VerifySetup(ctx context.Context, userID, code string) (*SecondFactorOutcome, error) {
	enrollment, err := s.pendingOrEnabled(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !utils.ValidateTOTPCode(enrollment.TOTPSecret, code) {
		return &SecondFactorOutcome{Success: false, Reason: ReasonCodeInvalid}, nil
	}

	if enrollment.EnabledAt.IsZero() {
		enrollment.EnabledAt = time.Now()
		if err := s.enrollmentRepo.Save(ctx, enrollment); err != nil {
			return nil, err
		}
	}
	return &SecondFactorOutcome{Success: true, Reason: webauthn.ReasonOK}, nil
}

func (s *totpService) RequestLoginCode(ctx context.Context, userID string) error {
	// Codes come from the user's authenticator app, nothing to deliver.
	return utils.ErrUnsupportedForMethod
}

func (s *totpService) VerifyLogin(ctx context.Context, userID, code string) (*SecondFactorOutcome, error) {
	enrollment, err := s.pendingOrEnabled(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enrollment.EnabledAt.IsZero() {
		return nil, utils.ErrNotEnrolled
	}

	if !utils.ValidateTOTPCode(enrollment.TOTPSecret, code) {
		return &SecondFactorOutcome{Success: false, Reason: ReasonCodeInvalid}, nil
	}
	return &SecondFactorOutcome{Success: true, Reason: webauthn.ReasonOK}, nil
}

func (s *totpService) Disable(ctx context.Context, userID string) error {
	return s.enrollmentRepo.Delete(ctx, userID)
}

func (s *totpService) GetInfo(ctx context.Context, userID string) (*models.SecondFactorEnrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Method != s.Method().String() {
		return nil, nil
	}
	return enrollment, nil
}

func (s *totpService) ListCredentials(ctx context.Context, userID string) ([]*models.WebAuthnCredential, error) {
	return nil, nil
}

func (s *totpService) RemoveCredential(ctx context.Context, userID, credentialID string) error {
	return utils.ErrUnsupportedForMethod
}

func (s *totpService) pendingOrEnabled(ctx context.Context, userID string) (*models.SecondFactorEnrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Method != s.Method().String() {
		return nil, utils.ErrNotEnrolled
	}
	return enrollment, nil
}
