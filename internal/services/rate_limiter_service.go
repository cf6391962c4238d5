// internal/services/rate_limiter_service.go
package services

import (
	"context"
	"fmt"

	"github.com/poofware/mfa-service/internal/config"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/utils"
)

// RateLimiterService provides a high-level interface for checking OTP
// delivery rate limits.
type RateLimiterService interface {
	CheckOTPRateLimits(ctx context.Context, method, userID string) error
}

type rateLimiterService struct {
	kv  repositories.KVStore
	cfg *config.Config
}

func NewRateLimiterService(kv repositories.KVStore, cfg *config.Config) RateLimiterService {
	return &rateLimiterService{kv: kv, cfg: cfg}
}

// CheckOTPRateLimits checks the global and per-user limits for one delivery
// method. Both counters are bumped even when the check ultimately fails, so
// retry storms keep counting.
func (s *rateLimiterService) CheckOTPRateLimits(ctx context.Context, method, userID string) error {
	// 1. Global limit
	globalKey := fmt.Sprintf("rate:%s:global", method)
	allowed, err := s.kv.IncrementAndCheck(ctx, globalKey, s.cfg.GlobalOTPLimitPerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}
	if !allowed {
		utils.Logger.Warnf("Global OTP rate limit exceeded (key: %s)", globalKey)
		return utils.ErrRateLimitExceeded
	}

	// 2. Per-user limit
	userKey := fmt.Sprintf("rate:%s:user:%s", method, userID)
	allowed, err = s.kv.IncrementAndCheck(ctx, userKey, s.cfg.OTPLimitPerUserPerHour, s.cfg.RateLimitWindow)
	if err != nil {
		return err
	}
	if !allowed {
		utils.Logger.Warnf("Per-user OTP rate limit exceeded (key: %s)", userKey)
		return utils.ErrRateLimitExceeded
	}

	return nil
}
