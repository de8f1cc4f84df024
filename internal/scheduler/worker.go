package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"prospectai_backend/internal/prospect/sweep"
	"prospectai_backend/platform/config"
	"prospectai_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Sweeper runs one overdue lead sweep.
type Sweeper interface {
	SweepOverdueLeads(ctx context.Context) (sweep.Result, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper Sweeper
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		log:     log,
	}

	mux.HandleFunc(TaskSweepOverdueLeads, w.handleSweepOverdueLeads)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleSweepOverdueLeads(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSweepOverdueLeadsPayload(task)
	if err != nil {
		return fmt.Errorf("invalid sweep payload: %v: %w", err, asynq.SkipRetry)
	}

	res, err := w.sweeper.SweepOverdueLeads(ctx)
	if err != nil {
		return err
	}
	if res.Skipped {
		w.log.Debug("sweep task skipped", slog.String("triggered_by", payload.TriggeredBy))
		return nil
	}
	w.log.Info("sweep task finished",
		slog.String("triggered_by", payload.TriggeredBy),
		slog.Int("reassigned", res.Reassigned),
		slog.Int("failed", res.Failed),
	)
	return nil
}
