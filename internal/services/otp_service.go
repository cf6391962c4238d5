// internal/services/otp_service.go
package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/poofware/mfa-service/internal/config"
	"github.com/poofware/mfa-service/internal/dtos"
	"github.com/poofware/mfa-service/internal/models"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/utils"
	"github.com/poofware/mfa-service/internal/webauthn"
)

// codeSender delivers a one-time code to an enrolled destination.
type codeSender interface {
	Send(ctx context.Context, destination, code string) error
}

// otpService is the delivered-code second-factor provider, parameterized by
// method and sender so the email and sms variants share one lifecycle:
// request, deliver, verify single-use with bounded attempts.
type otpService struct {
	method         utils.SecondFactorMethod
	sender         codeSender
	cfg            *config.Config
	enrollmentRepo repositories.EnrollmentRepository
	otpCodeRepo    repositories.OTPCodeRepository
	rateLimiter    RateLimiterService
}

func NewEmailOTPService(
	cfg *config.Config,
	enrollmentRepo repositories.EnrollmentRepository,
	otpCodeRepo repositories.OTPCodeRepository,
	rateLimiter RateLimiterService,
) SecondFactorProvider {
	return &otpService{
		method:         utils.MethodOTPEmail,
		sender:         newSendGridSender(cfg),
		cfg:            cfg,
		enrollmentRepo: enrollmentRepo,
		otpCodeRepo:    otpCodeRepo,
		rateLimiter:    rateLimiter,
	}
}

func NewSMSOTPService(
	cfg *config.Config,
	enrollmentRepo repositories.EnrollmentRepository,
	otpCodeRepo repositories.OTPCodeRepository,
	rateLimiter RateLimiterService,
) SecondFactorProvider {
	return &otpService{
		method:         utils.MethodOTPSMS,
		sender:         newTwilioSender(cfg),
		cfg:            cfg,
		enrollmentRepo: enrollmentRepo,
		otpCodeRepo:    otpCodeRepo,
		rateLimiter:    rateLimiter,
	}
}

func (s *otpService) Method() utils.SecondFactorMethod {
	return s.method
}

func (s *otpService) Setup(ctx context.Context, req dtos.SetupSecondFactorRequest) (*dtos.SetupSecondFactorResponse, error) {
	if req.Destination == "" {
		return nil, fmt.Errorf("destination is required for %s", s.method)
	}

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

	enrollment := &models.SecondFactorEnrollment{
		UserID:      req.UserID,
		Method:      s.method.String(),
		Destination: req.Destination,
	}
	if err := s.enrollmentRepo.Save(ctx, enrollment); err != nil {
		return nil, err
	}

	if err := s.issueAndDeliver(ctx, req.UserID, req.Destination); err != nil {
		return nil, err
	}
	return &dtos.SetupSecondFactorResponse{
		Method:    s.method.String(),
		Delivered: true,
	}, nil
}

func (s *otpService) VerifySetup(ctx context.Context, userID, code string) (*SecondFactorOutcome, error) {
	enrollment, err := s.enrollment(ctx, userID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.verifyCode(ctx, userID, code)
	if err != nil || !outcome.Success {
		return outcome, err
	}

	if enrollment.EnabledAt.IsZero() {
		enrollment.EnabledAt = time.Now()
		if err := s.enrollmentRepo.Save(ctx, enrollment); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func (s *otpService) RequestLoginCode(ctx context.Context, userID string) error {
	enrollment, err := s.enrollment(ctx, userID)
	if err != nil {
		return err
	}
	if enrollment.EnabledAt.IsZero() {
		return utils.ErrNotEnrolled
	}
	return s.issueAndDeliver(ctx, userID, enrollment.Destination)
}

func (s *otpService) VerifyLogin(ctx context.Context, userID, code string) (*SecondFactorOutcome, error) {
	enrollment, err := s.enrollment(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enrollment.EnabledAt.IsZero() {
		return nil, utils.ErrNotEnrolled
	}
	return s.verifyCode(ctx, userID, code)
}

func (s *otpService) Disable(ctx context.Context, userID string) error {
	if err := s.otpCodeRepo.Delete(ctx, s.method.String(), userID); err != nil {
		return err
	}
	return s.enrollmentRepo.Delete(ctx, userID)
}

func (s *otpService) GetInfo(ctx context.Context, userID string) (*models.SecondFactorEnrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Method != s.method.String() {
		return nil, nil
	}
	return enrollment, nil
}

func (s *otpService) ListCredentials(ctx context.Context, userID string) ([]*models.WebAuthnCredential, error) {
	return nil, nil
}

func (s *otpService) RemoveCredential(ctx context.Context, userID, credentialID string) error {
	return utils.ErrUnsupportedForMethod
}

// ---------------------------------------------------------------------
// Code lifecycle
// ---------------------------------------------------------------------

// issueAndDeliver generates a fresh code, replacing any pending one, and
// sends it. Rate limits are checked before anything is stored.
func (s *otpService) issueAndDeliver(ctx context.Context, userID, destination string) error {
	if err := s.rateLimiter.CheckOTPRateLimits(ctx, s.method.String(), userID); err != nil {
		return err
	}

	code, err := generateVerificationCode(s.cfg.OTPCodeLength)
	if err != nil {
		return err
	}

	now := time.Now()
	record := &models.OTPCode{
		UserID:    userID,
		Method:    s.method.String(),
		Code:      code,
		ExpiresAt: now.Add(s.cfg.OTPCodeExpiry),
		CreatedAt: now,
	}
	if err := s.otpCodeRepo.Save(ctx, record, s.cfg.OTPCodeExpiry); err != nil {
		return err
	}

	return s.sender.Send(ctx, destination, code)
}

// verifyCode applies the single-use contract: a matching code is deleted on
// success, a wrong guess counts against the attempt budget, and a code past
// its budget is withdrawn.
func (s *otpService) verifyCode(ctx context.Context, userID, code string) (*SecondFactorOutcome, error) {
	record, err := s.otpCodeRepo.Get(ctx, s.method.String(), userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &SecondFactorOutcome{Success: false, Reason: ReasonCodeInvalid}, nil
	}
	if record.IsExpired() {
		if err := s.otpCodeRepo.Delete(ctx, s.method.String(), userID); err != nil {
			return nil, err
		}
		return &SecondFactorOutcome{Success: false, Reason: ReasonCodeExpired}, nil
	}
	if record.Attempts >= s.cfg.OTPMaxAttempts {
		if err := s.otpCodeRepo.Delete(ctx, s.method.String(), userID); err != nil {
			return nil, err
		}
		return &SecondFactorOutcome{Success: false, Reason: ReasonTooManyAttempts}, nil
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		record.Attempts++
		if err := s.otpCodeRepo.Update(ctx, record); err != nil {
			return nil, err
		}
		return &SecondFactorOutcome{Success: false, Reason: ReasonCodeInvalid}, nil
	}

	if err := s.otpCodeRepo.Delete(ctx, s.method.String(), userID); err != nil {
		return nil, err
	}
	return &SecondFactorOutcome{Success: true, Reason: webauthn.ReasonOK}, nil
}

func (s *otpService) enrollment(ctx context.Context, userID string) (*models.SecondFactorEnrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Method != s.method.String() {
		return nil, utils.ErrNotEnrolled
	}
	return enrollment, nil
}

// ---------------------------------------------------------------------
// Senders
// ---------------------------------------------------------------------

type sendGridSender struct {
	client *sendgrid.Client
	cfg    *config.Config
}

func newSendGridSender(cfg *config.Config) codeSender {
	return &sendGridSender{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		cfg:    cfg,
	}
}

func (s *sendGridSender) Send(ctx context.Context, destination, code string) error {
	from := mail.NewEmail(s.cfg.OrganizationName, s.cfg.SendGridFromEmail)
	to := mail.NewEmail("", destination)
	subject := s.cfg.OrganizationName + " - Verification Code"
	plainTextContent := fmt.Sprintf("Your verification code is %s", code)
	htmlContent := fmt.Sprintf(verificationEmailHTML,
		"Verification Code",
		"Please use the following code to complete your verification.",
		code,
		time.Now().Year())
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	_, sendErr := s.client.Send(message)
	if sendErr != nil {
		utils.Logger.WithError(sendErr).Errorf("Failed to send verification email to %s via SendGrid", destination)
		return fmt.Errorf("%w: failed to send email via sendgrid: %v", utils.ErrExternalServiceFailure, sendErr)
	}
	return nil
}

type twilioSender struct {
	client *twilio.RestClient
	cfg    *config.Config
}

func newTwilioSender(cfg *config.Config) codeSender {
	return &twilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		}),
		cfg: cfg,
	}
}

func (s *twilioSender) Send(ctx context.Context, destination, code string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(destination)
	params.SetFrom(s.cfg.TwilioFromPhone)
	params.SetBody(fmt.Sprintf("Your %s verification code is %s", s.cfg.OrganizationName, code))

	_, sendErr := s.client.Api.CreateMessage(params)
	if sendErr != nil {
		utils.Logger.WithError(sendErr).Errorf("Failed to send verification sms to %s via Twilio", destination)
		return fmt.Errorf("%w: failed to send sms via twilio: %v", utils.ErrExternalServiceFailure, sendErr)
	}
	return nil
}
