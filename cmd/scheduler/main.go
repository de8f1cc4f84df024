package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"prospectai_backend/internal/activity"
	"prospectai_backend/internal/bootstrap"
	"prospectai_backend/internal/email"
	"prospectai_backend/internal/events"
	"prospectai_backend/internal/notification"
	"prospectai_backend/internal/prospect"
	"prospectai_backend/internal/scheduler"
	"prospectai_backend/platform/config"
	"prospectai_backend/platform/logger"
	"prospectai_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "cron", cfg.GetSweepCron())

	if !cfg.IsSchedulerEnabled() {
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	// Automatic reassignments still notify the new owner and land in the
	// activity log. Board pushes are relayed to the API processes.
	notificationModule := notification.New(email.NewSender(cfg), prospectModule.Repository(), prospectModule.Repository(), log)
	notificationModule.SetRelay(notification.NewRedisRelay(redisClient, log))
	notificationModule.RegisterHandlers(eventBus)
	activity.NewModule(pool, val, log).RegisterHandlers(eventBus)

	periodic, err := scheduler.NewPeriodicSweep(cfg, log)
	if err != nil {
		log.Error("failed to register periodic sweep", "error", err)
		panic("failed to register periodic sweep: " + err.Error())
	}
	go func() {
		if err := periodic.Run(ctx); err != nil {
			log.Error("periodic sweep stopped", "error", err)
			stop()
		}
	}()

	worker, err := scheduler.NewWorker(cfg, prospectModule.Sweeper(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}
	worker.Run(ctx)

	eventBus.Wait()
	log.Info("scheduler stopped")
}
