// internal/repositories/kv.go
package repositories

import (
	"context"
	"time"
)

// KVStore is the contract the engine places on its backing store. Values
// are opaque bytes; keys follow the schemes below. Take must be atomic per
// key: under concurrent callers, at most one receives the value. That
// requirement lives here, on the store, rather than in process-local
// locking, because the store may be distributed.
type KVStore interface {
	// Get returns the value for key, or nil if absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Take atomically gets and deletes key, returning nil if absent.
	Take(ctx context.Context, key string) ([]byte, error)
	// IncrementAndCheck atomically bumps a counter under key and reports
	// whether the count is still within limit. The counter resets when its
	// window expires.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ExpiredCleaner is implemented by stores that need periodic purging of
// expired rows (the postgres implementation; go-cache purges itself).
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) error
}

// Key schemes shared by every KVStore implementation.
const (
	keyPrefixChallenge       = "challenge:"
	keyPrefixCredential      = "credential:"
	keyPrefixUserCredentials = "user-credentials:"
	keyPrefixSecondFactor    = "second-factor:"
	keyPrefixOTPCode         = "otp:"
)

func challengeKey(token string) string       { return keyPrefixChallenge + token }
func credentialKey(credID string) string     { return keyPrefixCredential + credID }
func userCredentialsKey(userID string) string { return keyPrefixUserCredentials + userID }
func secondFactorKey(userID string) string   { return keyPrefixSecondFactor + userID }
func otpCodeKey(method, userID string) string { return keyPrefixOTPCode + method + ":" + userID }
