package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"prospectai_backend/platform/config"
	"prospectai_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultSweepInterval = time.Minute

// PeriodicSweep registers the overdue lead sweep on the configured cron spec.
type PeriodicSweep struct {
	scheduler *asynq.Scheduler
	entryID   string
	log       *logger.Logger
}

type periodicConfig interface {
	config.SchedulerConfig
	config.SweepConfig
	config.ProspectConfig
}

func NewPeriodicSweep(cfg periodicConfig, log *logger.Logger) (*PeriodicSweep, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	task, err := NewSweepOverdueLeadsTask(SweepOverdueLeadsPayload{TriggeredBy: TriggerCron})
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: cfg.GetProspectLocation()})
	// A run that is not picked up before the next tick is dropped; the next
	// one covers the same leads.
	entryID, err := s.Register(cfg.GetSweepCron(), task,
		asynq.Queue(queueName(cfg)),
		asynq.MaxRetry(0),
		asynq.Timeout(cfg.GetSweepLockTTL()),
		asynq.Unique(cfg.GetSweepLockTTL()),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_CRON %q: %w", cfg.GetSweepCron(), err)
	}

	return &PeriodicSweep{scheduler: s, entryID: entryID, log: log}, nil
}

// Run starts the scheduler and blocks until ctx is done.
func (p *PeriodicSweep) Run(ctx context.Context) error {
	if p == nil || p.scheduler == nil {
		return nil
	}
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	p.log.Info("periodic sweep registered", "entry_id", p.entryID)

	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}

// TickerSweep runs the sweep in-process on a fixed interval. The API uses it
// when Redis is not configured.
type TickerSweep struct {
	sweeper  Sweeper
	log      *logger.Logger
	interval time.Duration
}

func NewTickerSweep(sweeper Sweeper, log *logger.Logger, cronSpec string) *TickerSweep {
	return &TickerSweep{sweeper: sweeper, log: log, interval: EveryInterval(cronSpec)}
}

func (t *TickerSweep) Run(ctx context.Context) {
	if t == nil || t.sweeper == nil {
		return
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.sweeper.SweepOverdueLeads(ctx); err != nil {
				t.log.Warn("in-process sweep failed", "error", err)
			}
		}
	}
}

// EveryInterval extracts the interval of an "@every <duration>" spec. Other
// cron expressions fall back to one minute.
func EveryInterval(spec string) time.Duration {
	raw, ok := strings.CutPrefix(strings.TrimSpace(spec), "@every ")
	if !ok {
		return defaultSweepInterval
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return defaultSweepInterval
	}
	return d
}
