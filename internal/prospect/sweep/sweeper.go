// Package sweep reassigns entry-stage leads whose owner missed the
// initial-contact deadline.
package sweep

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/repository"
	"prospectai_backend/platform/logger"
	"prospectai_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Sweep result labels.
const (
	ResultSuccess = "success"
	ResultPartial = "partial"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

// Store is the storage the sweep needs.
type Store interface {
	repository.SweepStore
	ListSalespeople(ctx context.Context, tenantID uuid.UUID) ([]domain.Member, error)
}

// PipelineLoader returns the validated pipeline of a company.
type PipelineLoader interface {
	Load(ctx context.Context, tenantID uuid.UUID) (*domain.Pipeline, error)
}

// Options configures a Sweeper. Zero values are usable.
type Options struct {
	Locker  Locker
	LockTTL time.Duration
	Metrics *metrics.Metrics
}

// Result summarizes one sweep run.
type Result struct {
	Reassigned int
	// Failed counts leads or companies whose processing returned an error.
	Failed int
	// Skipped is true when another instance held the lock.
	Skipped bool
}

// Sweeper runs the overdue lead sweep over every company.
type Sweeper struct {
	store     Store
	pipelines PipelineLoader
	bus       events.Bus
	log       *logger.Logger
	locker    Locker
	lockTTL   time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time
	rnd       domain.Rand
}

// New creates a Sweeper.
func New(store Store, pipelines PipelineLoader, bus events.Bus, log *logger.Logger, opts Options) *Sweeper {
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = 55 * time.Second
	}
	return &Sweeper{
		store:     store,
		pipelines: pipelines,
		bus:       bus,
		log:       log,
		locker:    opts.Locker,
		lockTTL:   ttl,
		metrics:   opts.Metrics,
		now:       time.Now,
		rnd:       globalRand{},
	}
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// SweepOverdueLeads reassigns every overdue lead once. A failure on one lead
// or company is logged and counted and never aborts the run. The returned
// error is only set when the run could not start.
func (s *Sweeper) SweepOverdueLeads(ctx context.Context) (Result, error) {
	started := time.Now()

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, LockKey, s.lockTTL)
		if err != nil {
			s.metrics.RecordSweep(ResultError, time.Since(started), 0)
			return Result{}, err
		}
		if !ok {
			s.log.Info("sweep skipped, another run holds the lock")
			s.metrics.RecordSweep(ResultSkipped, time.Since(started), 0)
			return Result{Skipped: true}, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("failed to release sweep lock", slog.String("error", err.Error()))
			}
		}()
	}

	tenants, err := s.store.ListTenantIDs(ctx)
	if err != nil {
		s.metrics.RecordSweep(ResultError, time.Since(started), 0)
		return Result{}, err
	}

	var res Result
	for _, tenantID := range tenants {
		if err := ctx.Err(); err != nil {
			break
		}
		reassigned, failed := s.sweepTenant(ctx, tenantID)
		res.Reassigned += reassigned
		res.Failed += failed
	}

	duration := time.Since(started)
	result := ResultSuccess
	if res.Failed > 0 {
		result = ResultPartial
	}
	s.metrics.RecordSweep(result, duration, res.Failed)
	s.log.SweepCompleted(res.Reassigned, res.Failed, duration)
	return res, nil
}

func (s *Sweeper) sweepTenant(ctx context.Context, tenantID uuid.UUID) (reassigned, failed int) {
	var (
		p           *domain.Pipeline
		salespeople []domain.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = s.pipelines.Load(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		salespeople, err = s.store.ListSalespeople(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("sweep failed to load company",
			slog.String("tenant_id", tenantID.String()),
			slog.String("error", err.Error()),
		)
		return 0, 1
	}

	ids := make([]uuid.UUID, len(salespeople))
	for i, m := range salespeople {
		ids[i] = m.ID
	}

	entry := p.Entry()
	for _, owner := range salespeople {
		settings := owner.Deadlines.WithDefaults()
		if !settings.AutoReassignEnabled {
			continue
		}
		now := s.now()
		leads, err := s.store.ListOverdueLeads(ctx, tenantID, owner.ID, entry.ID, domain.Cutoff(settings, now))
		if err != nil {
			s.log.Error("sweep failed to list overdue leads",
				slog.String("tenant_id", tenantID.String()),
				slog.String("salesperson_id", owner.ID.String()),
				slog.String("error", err.Error()),
			)
			failed++
			continue
		}

		for _, lead := range leads {
			if !domain.IsOverdue(p, lead, settings, now) {
				continue
			}
			ok, err := s.reassign(ctx, lead, settings, ids, now)
			if err != nil {
				s.log.Error("sweep failed to reassign lead",
					slog.String("lead_id", lead.ID.String()),
					slog.String("error", err.Error()),
				)
				failed++
				continue
			}
			if ok {
				reassigned++
			}
		}
	}
	return reassigned, failed
}

func (s *Sweeper) reassign(ctx context.Context, lead domain.Lead, settings domain.DeadlineSettings, salespeople []uuid.UUID, now time.Time) (bool, error) {
	next, ok := domain.PickNewOwner(settings, lead.SalespersonID, salespeople, s.rnd)
	if !ok {
		s.log.Debug("overdue lead left with owner",
			slog.String("lead_id", lead.ID.String()),
			slog.String("reason", "no eligible salesperson"),
		)
		return false, nil
	}

	update := domain.PlanAutoReassignment(lead, next, now)
	applied, err := s.store.ReassignIfUnchanged(ctx, lead, update)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	mode := string(settings.ReassignmentMode)
	s.metrics.RecordReassignment(events.TriggerAuto, mode)
	s.log.LeadReassigned(lead.ID.String(), lead.SalespersonID.String(), next.String(), events.TriggerAuto)
	s.bus.Publish(ctx, events.LeadReassigned{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		TenantID:    lead.TenantID,
		LeadName:    lead.Name,
		FromOwnerID: lead.SalespersonID,
		ToOwnerID:   next,
		Trigger:     events.TriggerAuto,
		Mode:        mode,
	})
	return true, nil
}
