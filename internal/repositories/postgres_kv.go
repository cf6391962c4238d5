// internal/repositories/postgres_kv.go
package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// postgresKVStore implements KVStore on a single kv_entries table:
//
//	CREATE TABLE kv_entries (
//	    key        TEXT PRIMARY KEY,
//	    value      BYTEA NOT NULL,
//	    expires_at TIMESTAMPTZ
//	);
//
// DELETE ... RETURNING gives Take the per-key atomicity the challenge
// contract requires.
type postgresKVStore struct {
	db *pgxpool.Pool
}

// NewPostgresKVStore creates a KVStore over the given pool.
func NewPostgresKVStore(db *pgxpool.Pool) KVStore {
	return &postgresKVStore{db: db}
}

func (s *postgresKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	q := `
        SELECT value FROM kv_entries
        WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())
    `
	var value []byte
	err := s.db.QueryRow(ctx, q, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *postgresKVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	q := `
        INSERT INTO kv_entries (key, value, expires_at)
        VALUES ($1, $2, CASE WHEN $3::interval IS NULL THEN NULL ELSE NOW() + $3::interval END)
        ON CONFLICT (key) DO UPDATE
        SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
    `
	var window *time.Duration
	if ttl > 0 {
		window = &ttl
	}
	_, err := s.db.Exec(ctx, q, key, value, window)
	return err
}

func (s *postgresKVStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
	return err
}

func (s *postgresKVStore) Take(ctx context.Context, key string) ([]byte, error) {
	q := `
        DELETE FROM kv_entries
        WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())
        RETURNING value
    `
	var value []byte
	err := s.db.QueryRow(ctx, q, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *postgresKVStore) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	q := `
        INSERT INTO rate_limit_attempts (key, attempt_count, expires_at)
        VALUES ($1, 1, NOW() + $2::interval)
        ON CONFLICT (key) DO UPDATE
        SET attempt_count = CASE
            WHEN rate_limit_attempts.expires_at < NOW() THEN 1
            ELSE rate_limit_attempts.attempt_count + 1
        END,
        expires_at = CASE
            WHEN rate_limit_attempts.expires_at < NOW() THEN NOW() + $2::interval
            ELSE rate_limit_attempts.expires_at
        END
        RETURNING attempt_count
    `
	var currentCount int
	err := s.db.QueryRow(ctx, q, key, window).Scan(&currentCount)
	if err != nil && err != pgx.ErrNoRows {
		return false, err
	}
	return currentCount <= limit, nil
}

// CleanupExpired removes expired KV rows and rate-limit counters. Wired to
// the daily cron in main.
func (s *postgresKVStore) CleanupExpired(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM kv_entries WHERE expires_at < NOW()`); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `DELETE FROM rate_limit_attempts WHERE expires_at < NOW()`)
	return err
}
