// internal/services/store_cleanup_service.go
package services

import (
	"context"

	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/utils"
)

// StoreCleanupService removes expired key-value rows and rate limit
// counters from the backing store.
type StoreCleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type storeCleanupService struct {
	cleaner repositories.ExpiredCleaner
}

// NewStoreCleanupService wraps a store that needs periodic purging. Pass
// nil for stores that purge themselves; CleanupDaily is then a no-op.
func NewStoreCleanupService(cleaner repositories.ExpiredCleaner) StoreCleanupService {
	return &storeCleanupService{cleaner: cleaner}
}

// CleanupDaily removes expired rows and logs any errors.
func (s *storeCleanupService) CleanupDaily(ctx context.Context) error {
	if s.cleaner == nil {
		return nil
	}

	if err := s.cleaner.CleanupExpired(ctx); err != nil {
		utils.Logger.WithError(err).Error("Failed to cleanup expired store entries")
		return err
	}

	utils.Logger.Info("Daily store cleanup completed successfully.")
	return nil
}
