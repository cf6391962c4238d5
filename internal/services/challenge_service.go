// internal/services/challenge_service.go
package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/poofware/mfa-service/internal/config"
	"github.com/poofware/mfa-service/internal/models"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/webauthn"
)

// ChallengeService issues and consumes single-use ceremony challenges.
type ChallengeService interface {
	// Generate creates a random challenge for the given ceremony kind,
	// persists it, and returns the base64url token handed to the browser.
	Generate(ctx context.Context, ceremony, userID string) (string, error)
	// Consume atomically takes the challenge for token. A store error is
	// returned as err; every other outcome is a reason: ReasonOK with the
	// challenge, ReasonChallengeInvalid (unknown token or wrong ceremony
	// kind), or ReasonChallengeExpired.
	Consume(ctx context.Context, token, ceremony string) (*models.Challenge, webauthn.Reason, error)
}

type challengeService struct {
	repo repositories.ChallengeRepository
	cfg  *config.Config
}

func NewChallengeService(repo repositories.ChallengeRepository, cfg *config.Config) ChallengeService {
	return &challengeService{repo: repo, cfg: cfg}
}

func (s *challengeService) Generate(ctx context.Context, ceremony, userID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random challenge: %w", err)
	}
	token := webauthn.EncodeBase64URL(raw)

	timeout := s.cfg.RegistrationTimeout
	if ceremony == models.CeremonyAuthentication {
		timeout = s.cfg.AuthenticationTimeout
	}

	challenge := &models.Challenge{
		Token:     token,
		Ceremony:  ceremony,
		UserID:    userID,
		ExpiresAt: time.Now().Add(timeout),
	}

	// The store TTL outlives ExpiresAt by the grace window so a late
	// consumption reads the record and reports "expired" rather than
	// "invalid".
	if err := s.repo.Create(ctx, challenge, timeout+s.cfg.ChallengeTTLGrace); err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}
	return token, nil
}

func (s *challengeService) Consume(ctx context.Context, token, ceremony string) (*models.Challenge, webauthn.Reason, error) {
	challenge, err := s.repo.Consume(ctx, token)
	if err != nil {
		return nil, "", err
	}
	if challenge == nil {
		return nil, webauthn.ReasonChallengeInvalid, nil
	}
	if challenge.Ceremony != ceremony {
		return nil, webauthn.ReasonChallengeInvalid, nil
	}
	if challenge.IsExpired() {
		return nil, webauthn.ReasonChallengeExpired, nil
	}
	return challenge, webauthn.ReasonOK, nil
}
