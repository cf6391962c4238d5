package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poofware/mfa-service/internal/config"
	"github.com/poofware/mfa-service/internal/models"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/webauthn"
)

func testConfig() *config.Config {
	return &config.Config{
		OrganizationName:        "Poof",
		AppName:                 "mfa-service-test",
		RPID:                    "example.com",
		RPName:                  "Example",
		RPOrigin:                "https://example.com",
		RegistrationTimeout:     2 * time.Minute,
		AuthenticationTimeout:   2 * time.Minute,
		ChallengeTTLGrace:       time.Minute,
		OTPCodeLength:           6,
		OTPCodeExpiry:           5 * time.Minute,
		OTPMaxAttempts:          3,
		OTPLimitPerUserPerHour:  5,
		GlobalOTPLimitPerHour:   1000,
		RateLimitWindow:         time.Hour,
	}
}

func newChallengeService(cfg *config.Config) ChallengeService {
	repo := repositories.NewChallengeRepository(repositories.NewMemoryKVStore())
	return NewChallengeService(repo, cfg)
}

func TestChallengeGenerateAndConsume(t *testing.T) {
	ctx := context.Background()
	svc := newChallengeService(testConfig())

	token, err := svc.Generate(ctx, models.CeremonyRegistration, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Tokens are base64url of 32 random bytes.
	raw, err := webauthn.DecodeBase64URL(token)
	require.NoError(t, err)
	require.Len(t, raw, 32)

	challenge, reason, err := svc.Consume(ctx, token, models.CeremonyRegistration)
	require.NoError(t, err)
	require.Equal(t, webauthn.ReasonOK, reason)
	require.Equal(t, "user-1", challenge.UserID)
}

func TestChallengeSingleUse(t *testing.T) {
	ctx := context.Background()
	svc := newChallengeService(testConfig())

	token, err := svc.Generate(ctx, models.CeremonyRegistration, "user-1")
	require.NoError(t, err)

	_, reason, err := svc.Consume(ctx, token, models.CeremonyRegistration)
	require.NoError(t, err)
	require.Equal(t, webauthn.ReasonOK, reason)

	challenge, reason, err := svc.Consume(ctx, token, models.CeremonyRegistration)
	require.NoError(t, err)
	require.Nil(t, challenge)
	require.Equal(t, webauthn.ReasonChallengeInvalid, reason)
}

func TestChallengeUnknownToken(t *testing.T) {
	ctx := context.Background()
	svc := newChallengeService(testConfig())

	challenge, reason, err := svc.Consume(ctx, "never-issued", models.CeremonyRegistration)
	require.NoError(t, err)
	require.Nil(t, challenge)
	require.Equal(t, webauthn.ReasonChallengeInvalid, reason)
}

func TestChallengeWrongCeremonyKind(t *testing.T) {
	ctx := context.Background()
	svc := newChallengeService(testConfig())

	token, err := svc.Generate(ctx, models.CeremonyRegistration, "user-1")
	require.NoError(t, err)

	_, reason, err := svc.Consume(ctx, token, models.CeremonyAuthentication)
	require.NoError(t, err)
	require.Equal(t, webauthn.ReasonChallengeInvalid, reason)

	// The wrong-kind attempt already consumed the token.
	_, reason, err = svc.Consume(ctx, token, models.CeremonyRegistration)
	require.NoError(t, err)
	require.Equal(t, webauthn.ReasonChallengeInvalid, reason)
}

func TestChallengeExpired(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	// Issue a challenge that is already past its deadline; the grace window
	// keeps the record in the store so consumption can tell expired apart
	// from unknown.
	cfg.RegistrationTimeout = -time.Second
	svc := newChallengeService(cfg)

	token, err := svc.Generate(ctx, models.CeremonyRegistration, "user-1")
	require.NoError(t, err)

	challenge, reason, err := svc.Consume(ctx, token, models.CeremonyRegistration)
	require.NoError(t, err)
	require.Nil(t, challenge)
	require.Equal(t, webauthn.ReasonChallengeExpired, reason)
}
