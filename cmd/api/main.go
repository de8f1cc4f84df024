package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prospectai_backend/internal/activity"
	"prospectai_backend/internal/adapters/storage"
	"prospectai_backend/internal/bootstrap"
	"prospectai_backend/internal/email"
	"prospectai_backend/internal/events"
	apphttp "prospectai_backend/internal/http"
	"prospectai_backend/internal/http/router"
	"prospectai_backend/internal/notification"
	"prospectai_backend/internal/notification/sse"
	"prospectai_backend/internal/prospect"
	"prospectai_backend/internal/prospect/management"
	"prospectai_backend/internal/scheduler"
	"prospectai_backend/platform/config"
	"prospectai_backend/platform/db"
	"prospectai_backend/platform/logger"
	"prospectai_backend/platform/metrics"
	"prospectai_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool := bootstrap.Database(ctx, cfg, log, true)
	defer pool.Close()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	appMetrics := metrics.New()
	val := validator.New()

	redisClient, closeRedis := bootstrap.Redis(ctx, cfg, log)
	defer closeRedis()

	sweepClient, closeClient := initSweepClient(cfg, log)
	defer closeClient()

	imageStorage := initImageStorage(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	prospectOpts := prospect.Options{
		ImageStorage: imageStorage,
		ImageBucket:  cfg.GetMinioBucketFeedbackImages(),
		Metrics:      appMetrics,
		Locker:       bootstrap.SweepLocker(redisClient),
		LockTTL:      cfg.GetSweepLockTTL(),
	}
	if sweepClient != nil {
		prospectOpts.Enqueuer = sweepClient
	}
	prospectModule := prospect.NewModule(pool, eventBus, val, cfg, log, prospectOpts)

	// Notification module pushes SSE updates and e-mails new lead owners
	notificationModule := notification.New(email.NewSender(cfg), prospectModule.Repository(), prospectModule.Repository(), log)
	sseService := sse.New(log)
	notificationModule.SetSSE(sseService)
	notificationModule.RegisterHandlers(eventBus)

	// Reassignments made by the scheduler process reach our SSE clients here.
	if redisClient != nil {
		go func() {
			if err := notification.NewRedisRelay(redisClient, log).Forward(ctx, sseService); err != nil {
				log.Error("sse relay stopped", "error", err)
			}
		}()
	}

	activityModule := activity.NewModule(pool, val, log)
	activityModule.RegisterHandlers(eventBus)

	// Without Redis there is no asynq scheduler, so this process sweeps itself.
	if !cfg.IsSchedulerEnabled() {
		go scheduler.NewTickerSweep(prospectModule.Sweeper(), log, cfg.GetSweepCron()).Run(ctx)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		Metrics:  appMetrics,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			prospectModule,
			activityModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initSweepClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if !cfg.IsSchedulerEnabled() {
		return nil, func() {}
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize sweep scheduler client", "error", err)
		return nil, func() {}
	}

	return client, func() {
		_ = client.Close()
	}
}

// initImageStorage connects to MinIO and makes sure the feedback bucket
// exists. Feedback images are disabled when MinIO is not configured.
func initImageStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) management.ImageStorage {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; feedback image uploads disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketFeedbackImages()
	if err := bootstrap.WithRetry(ctx, log, "ensure feedback-images bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "feedbackImagesBucket", bucket)
	return storageSvc
}
