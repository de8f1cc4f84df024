// Command sweep runs one overdue lead sweep and exits. It is meant for
// cron or systemd timers on deployments without the asynq scheduler.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prospectai_backend/internal/activity"
	"prospectai_backend/internal/bootstrap"
	"prospectai_backend/internal/email"
	"prospectai_backend/internal/events"
	"prospectai_backend/internal/notification"
	"prospectai_backend/internal/prospect"
	"prospectai_backend/internal/prospect/sweep"
	"prospectai_backend/platform/config"
	"prospectai_backend/platform/logger"
	"prospectai_backend/platform/validator"
)

func main() {
	os.Exit(run())
}

// run performs the sweep and returns the process exit code, so deferred
// cleanup runs before the process exits.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	pool := bootstrap.Database(ctx, cfg, log, false)
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	redisClient, closeRedis := bootstrap.Redis(ctx, cfg, log)
	defer closeRedis()

	prospectModule := prospect.NewModule(pool, eventBus, val, cfg, log, prospect.Options{
		Locker:  bootstrap.SweepLocker(redisClient),
		LockTTL: cfg.GetSweepLockTTL(),
	})

	notificationModule := notification.New(email.NewSender(cfg), prospectModule.Repository(), prospectModule.Repository(), log)
	if redisClient != nil {
		notificationModule.SetRelay(notification.NewRedisRelay(redisClient, log))
	}
	notificationModule.RegisterHandlers(eventBus)
	activity.NewModule(pool, val, log).RegisterHandlers(eventBus)

	return sweepOnce(ctx, prospectModule.Sweeper(), eventBus, log)
}

type sweepRunner interface {
	SweepOverdueLeads(ctx context.Context) (sweep.Result, error)
}

type eventWaiter interface {
	Wait()
}

// sweepOnce runs the sweep, waits for its event handlers and maps the
// outcome to an exit code.
func sweepOnce(ctx context.Context, s sweepRunner, bus eventWaiter, log *logger.Logger) int {
	result, err := s.SweepOverdueLeads(ctx)
	bus.Wait()
	if err != nil {
		log.Error("sweep failed", "error", err)
		return 1
	}
	log.Info("sweep finished", "reassigned", result.Reassigned, "failed", result.Failed, "skipped", result.Skipped)
	return 0
}
