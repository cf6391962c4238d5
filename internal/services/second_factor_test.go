package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/utils"
)

func TestSecondFactorRegistrySelection(t *testing.T) {
	cfg := testConfig()
	cfg.EnabledMethods = []utils.SecondFactorMethod{utils.MethodWebAuthn, utils.MethodTOTP}

	kv := repositories.NewMemoryKVStore()
	webauthnSvc, _ := newWebAuthnTestService(cfg)

	registry, err := NewSecondFactorRegistry(
		cfg,
		webauthnSvc,
		repositories.NewEnrollmentRepository(kv),
		repositories.NewOTPCodeRepository(kv),
		NewRateLimiterService(kv, cfg),
	)
	require.NoError(t, err)

	p, err := registry.Provider(utils.MethodTOTP)
	require.NoError(t, err)
	require.Equal(t, utils.MethodTOTP, p.Method())

	p, err = registry.Provider(utils.MethodWebAuthn)
	require.NoError(t, err)
	require.Equal(t, utils.MethodWebAuthn, p.Method())

	// Methods outside the configured set are not reachable.
	_, err = registry.Provider(utils.MethodOTPEmail)
	require.ErrorIs(t, err, utils.ErrMethodNotEnabled)
	_, err = registry.Provider(utils.MethodOTPSMS)
	require.ErrorIs(t, err, utils.ErrMethodNotEnabled)
}

func TestWebAuthnProviderDisableRemovesCredentials(t *testing.T) {
	cfg := testConfig()
	svc, _ := newWebAuthnTestService(cfg)
	auth := newFakeAuthenticator(t)
	ctx := context.Background()

	require.True(t, register(t, svc, auth, cfg, 0).Success)

	kv := repositories.NewMemoryKVStore()
	provider := newWebAuthnProvider(svc, repositories.NewEnrollmentRepository(kv))

	info, err := provider.GetInfo(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, info)
	require.False(t, info.EnabledAt.IsZero())

	require.NoError(t, provider.Disable(ctx, "user-1"))

	creds, err := provider.ListCredentials(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, creds)

	info, err = provider.GetInfo(ctx, "user-1")
	require.NoError(t, err)
	require.Nil(t, info)
}
