// internal/repositories/otp_code_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/poofware/mfa-service/internal/models"
)

// OTPCodeRepository stores pending one-time codes under
// otp:{method}:{userId}. A user has at most one pending code per method;
// issuing a new code replaces any previous one.
type OTPCodeRepository interface {
	Save(ctx context.Context, code *models.OTPCode, ttl time.Duration) error
	Get(ctx context.Context, method, userID string) (*models.OTPCode, error)
	// Update rewrites the code in place, preserving the remaining TTL window
	// by recomputing it from the code's expiry.
	Update(ctx context.Context, code *models.OTPCode) error
	Delete(ctx context.Context, method, userID string) error
}

type otpCodeRepository struct {
	kv KVStore
}

// NewOTPCodeRepository creates an OTP code repository over the store.
func NewOTPCodeRepository(kv KVStore) OTPCodeRepository {
	return &otpCodeRepository{kv: kv}
}

func (r *otpCodeRepository) Save(ctx context.Context, c *models.OTPCode, ttl time.Duration) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal otp code: %w", err)
	}
	return r.kv.Set(ctx, otpCodeKey(c.Method, c.UserID), raw, ttl)
}

func (r *otpCodeRepository) Get(ctx context.Context, method, userID string) (*models.OTPCode, error) {
	raw, err := r.kv.Get(ctx, otpCodeKey(method, userID))
	if err != nil {
		return nil, fmt.Errorf("get otp code: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var c models.OTPCode
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal otp code: %w", err)
	}
	return &c, nil
}

func (r *otpCodeRepository) Update(ctx context.Context, c *models.OTPCode) error {
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, c.Method, c.UserID)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal otp code: %w", err)
	}
	return r.kv.Set(ctx, otpCodeKey(c.Method, c.UserID), raw, ttl)
}

func (r *otpCodeRepository) Delete(ctx context.Context, method, userID string) error {
	return r.kv.Delete(ctx, otpCodeKey(method, userID))
}
