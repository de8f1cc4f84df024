// Package bootstrap holds the start-up steps shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prospectai_backend/internal/prospect/sweep"
	"prospectai_backend/internal/scheduler"
	"prospectai_backend/platform/config"
	"prospectai_backend/platform/db"
	"prospectai_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// WithRetry runs fn up to attempts times, sleeping attempt² × baseDelay
// between failures.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

// Database runs pending migrations when migrate is set and opens the pool.
// It panics when the database stays unreachable.
func Database(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger, migrate bool) *pgxpool.Pool {
	if migrate {
		if err := WithRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, log)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	var pool *pgxpool.Pool
	if err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")
	return pool
}

// Redis opens and pings the shared Redis connection. It returns a nil client
// when Redis is not configured; the close func is always safe to call.
func Redis(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) (*redis.Client, func()) {
	if !cfg.IsSchedulerEnabled() {
		log.Warn("REDIS_URL not configured; sweep lock and cross-process push disabled")
		return nil, func() {}
	}

	client, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	if err := WithRetry(ctx, log, "redis connection", 5, time.Second, func() error {
		return client.Ping(ctx).Err()
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}

	return client, func() { closeRedis(client, log) }
}

// SweepLocker returns the distributed sweep lock on client, or nil when
// there is no Redis.
func SweepLocker(client *redis.Client) sweep.Locker {
	if client == nil {
		return nil
	}
	return sweep.NewRedisLocker(client)
}

func closeRedis(client *redis.Client, log *logger.Logger) {
	if err := client.Close(); err != nil {
		log.Warn("failed to close redis client", "error", err)
	}
}
