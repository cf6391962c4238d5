// internal/repositories/challenge_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/poofware/mfa-service/internal/models"
)

// ChallengeRepository manages the lifecycle of single-use ceremony
// challenges in the key-value store.
type ChallengeRepository interface {
	// Create stores a new challenge with the given store TTL.
	Create(ctx context.Context, challenge *models.Challenge, ttl time.Duration) error
	// Consume retrieves a challenge by token and immediately deletes it so
	// the token cannot be reused. Returns nil if absent; the atomicity of
	// the underlying Take guarantees at most one caller wins.
	Consume(ctx context.Context, token string) (*models.Challenge, error)
}

type challengeRepository struct {
	kv KVStore
}

// NewChallengeRepository creates a challenge repository over the store.
func NewChallengeRepository(kv KVStore) ChallengeRepository {
	return &challengeRepository{kv: kv}
}

func (r *challengeRepository) Create(ctx context.Context, c *models.Challenge, ttl time.Duration) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	return r.kv.Set(ctx, challengeKey(c.Token), raw, ttl)
}

func (r *challengeRepository) Consume(ctx context.Context, token string) (*models.Challenge, error) {
	raw, err := r.kv.Take(ctx, challengeKey(token))
	if err != nil {
		return nil, fmt.Errorf("take challenge: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var c models.Challenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return &c, nil
}
