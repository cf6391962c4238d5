// internal/repositories/enrollment_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/poofware/mfa-service/internal/models"
)

// EnrollmentRepository stores per-user second-factor enrollment state under
// second-factor:{userId}. At most one enrollment exists per user.
type EnrollmentRepository interface {
	Save(ctx context.Context, enrollment *models.SecondFactorEnrollment) error
	GetByUserID(ctx context.Context, userID string) (*models.SecondFactorEnrollment, error)
	Delete(ctx context.Context, userID string) error
}

type enrollmentRepository struct {
	kv KVStore
}

// NewEnrollmentRepository creates an enrollment repository over the store.
func NewEnrollmentRepository(kv KVStore) EnrollmentRepository {
	return &enrollmentRepository{kv: kv}
}

func (r *enrollmentRepository) Save(ctx context.Context, e *models.SecondFactorEnrollment) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal enrollment: %w", err)
	}
	return r.kv.Set(ctx, secondFactorKey(e.UserID), raw, 0)
}

func (r *enrollmentRepository) GetByUserID(ctx context.Context, userID string) (*models.SecondFactorEnrollment, error) {
	raw, err := r.kv.Get(ctx, secondFactorKey(userID))
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var e models.SecondFactorEnrollment
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("unmarshal enrollment: %w", err)
	}
	return &e, nil
}

func (r *enrollmentRepository) Delete(ctx context.Context, userID string) error {
	return r.kv.Delete(ctx, secondFactorKey(userID))
}
