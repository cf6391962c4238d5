package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poofware/mfa-service/internal/dtos"
	"github.com/poofware/mfa-service/internal/models"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/utils"
	"github.com/poofware/mfa-service/internal/webauthn"
)

func newTOTPTestService() SecondFactorProvider {
	repo := repositories.NewEnrollmentRepository(repositories.NewMemoryKVStore())
	return NewTOTPService(testConfig(), repo)
}

func TestTOTPSetupAndVerify(t *testing.T) {
	ctx := context.Background()
	svc := newTOTPTestService()

	resp, err := svc.Setup(ctx, dtos.SetupSecondFactorRequest{
		UserID: "user-1",
		Method: "totp",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.TOTPSecret)

	// Enrollment is pending until the first valid code.
	info, err := svc.GetInfo(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, info.EnabledAt.IsZero())

	code, err := utils.GenerateTOTPCode(resp.TOTPSecret)
	require.NoError(t, err)

	outcome, err := svc.VerifySetup(ctx, "user-1", code)
	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Equal(t, webauthn.ReasonOK, outcome.Reason)

	info, err = svc.GetInfo(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, info.EnabledAt.IsZero())

	// Login verification with a fresh code.
	code, err = utils.GenerateTOTPCode(resp.TOTPSecret)
	require.NoError(t, err)
	outcome, err = svc.VerifyLogin(ctx, "user-1", code)
	require.NoError(t, err)
	require.True(t, outcome.Success)
}

func TestTOTPSetupRejectsEnrollmentOfAnotherMethod(t *testing.T) {
	ctx := context.Background()
	enrollments := repositories.NewEnrollmentRepository(repositories.NewMemoryKVStore())
	svc := NewTOTPService(testConfig(), enrollments)

	require.NoError(t, enrollments.Save(ctx, &models.SecondFactorEnrollment{
		UserID:      "user-1",
		Method:      "otp_email",
		Destination: "user@example.com",
		EnabledAt:   time.Now(),
	}))

	_, err := svc.Setup(ctx, dtos.SetupSecondFactorRequest{UserID: "user-1", Method: "totp"})
	require.ErrorIs(t, err, utils.ErrAlreadyEnrolled)

	// The enabled enrollment is untouched.
	existing, err := enrollments.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "otp_email", existing.Method)
}

func TestTOTPWrongCode(t *testing.T) {
	ctx := context.Background()
	svc := newTOTPTestService()

	_, err := svc.Setup(ctx, dtos.SetupSecondFactorRequest{
		UserID: "user-1",
		Method: "totp",
	})
	require.NoError(t, err)

	outcome, err := svc.VerifySetup(ctx, "user-1", "000000")
	require.NoError(t, err)
	require.False(t, outcome.Success)
	require.Equal(t, ReasonCodeInvalid, outcome.Reason)
}

func TestTOTPLoginRequiresEnabledEnrollment(t *testing.T) {
	ctx := context.Background()
	svc := newTOTPTestService()

	_, err := svc.VerifyLogin(ctx, "user-1", "123456")
	require.ErrorIs(t, err, utils.ErrNotEnrolled)

	// Pending (setup not confirmed) is not enough for login.
	resp, err := svc.Setup(ctx, dtos.SetupSecondFactorRequest{UserID: "user-1", Method: "totp"})
	require.NoError(t, err)
	code, err := utils.GenerateTOTPCode(resp.TOTPSecret)
	require.NoError(t, err)
	_, err = svc.VerifyLogin(ctx, "user-1", code)
	require.ErrorIs(t, err, utils.ErrNotEnrolled)
}

func TestTOTPDisable(t *testing.T) {
	ctx := context.Background()
	svc := newTOTPTestService()

	resp, err := svc.Setup(ctx, dtos.SetupSecondFactorRequest{UserID: "user-1", Method: "totp"})
	require.NoError(t, err)
	code, err := utils.GenerateTOTPCode(resp.TOTPSecret)
	require.NoError(t, err)
	_, err = svc.VerifySetup(ctx, "user-1", code)
	require.NoError(t, err)

	require.NoError(t, svc.Disable(ctx, "user-1"))
	info, err := svc.GetInfo(ctx, "user-1")
	require.NoError(t, err)
	require.Nil(t, info)
}

func TestTOTPUnsupportedOperations(t *testing.T) {
	ctx := context.Background()
	svc := newTOTPTestService()

	require.ErrorIs(t, svc.RequestLoginCode(ctx, "user-1"), utils.ErrUnsupportedForMethod)
	require.ErrorIs(t, svc.RemoveCredential(ctx, "user-1", "x"), utils.ErrUnsupportedForMethod)

	creds, err := svc.ListCredentials(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, creds)
}
