package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/poofware/mfa-service/internal/config"
	"github.com/poofware/mfa-service/internal/repositories"
	"github.com/poofware/mfa-service/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App owns the process-wide resources: configuration, the key-value store
// and, for the postgres backend, the underlying pool.
type App struct {
	Config *config.Config
	KV     repositories.KVStore
	DB     *pgxpool.Pool
}

// NewApp builds the backing store selected by STORE_BACKEND. The postgres
// backend retries the initial connection with exponential backoff.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg.StoreBackend == "memory" {
		utils.Logger.Info("Using in-memory key-value store")
		return &App{
			Config: cfg,
			KV:     repositories.NewMemoryKVStore(),
		}, nil
	}

	var (
		dbPool  *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		dbPool, err = newDBPool(ctx, cfg.DBUrl)
		if err == nil {
			utils.Logger.Infof("Successfully connected to database on attempt %d", i)
			break
		}

		utils.Logger.WithError(err).Warnf(
			"Failed to connect to database on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)

		if i == maxRetries {
			return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
		}

		time.Sleep(backoff)
		backoff *= 2
	}

	return &App{
		Config: cfg,
		KV:     repositories.NewPostgresKVStore(dbPool),
		DB:     dbPool,
	}, nil
}

// Ping reports backing-store reachability for health checks.
func (a *App) Ping(ctx context.Context) error {
	if a.DB != nil {
		return a.DB.Ping(ctx)
	}
	return nil
}

// ExpiredCleaner returns the store's cleaner, or nil when the store purges
// itself.
func (a *App) ExpiredCleaner() repositories.ExpiredCleaner {
	if cleaner, ok := a.KV.(repositories.ExpiredCleaner); ok {
		return cleaner
	}
	return nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("Database connection closed.")
	}
}

// newDBPool constructs the pgx pool with production-safe settings. Idle
// connections are retired before the platform proxy kills them, and the
// health check keeps every socket warm.
func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	return pgxpool.ConnectConfig(ctx, cfg)
}
