// Package prospect is the prospecting funnel bounded context: the pipeline,
// lead lifecycle, deadlines, performance reports and the overdue sweep.
package prospect

import (
	"context"
	"time"

	"prospectai_backend/internal/events"
	apphttp "prospectai_backend/internal/http"
	"prospectai_backend/internal/prospect/deadlines"
	"prospectai_backend/internal/prospect/handler"
	"prospectai_backend/internal/prospect/management"
	"prospectai_backend/internal/prospect/performance"
	"prospectai_backend/internal/prospect/pipeline"
	"prospectai_backend/internal/prospect/repository"
	"prospectai_backend/internal/prospect/sweep"
	"prospectai_backend/internal/prospect/transport"
	"prospectai_backend/internal/scheduler"
	"prospectai_backend/platform/apperr"
	"prospectai_backend/platform/config"
	"prospectai_backend/platform/httpkit"
	"prospectai_backend/platform/logger"
	"prospectai_backend/platform/metrics"
	"prospectai_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Options carries the optional infrastructure of the module.
type Options struct {
	// ImageStorage and ImageBucket enable feedback image uploads.
	ImageStorage management.ImageStorage
	ImageBucket  string
	Metrics      *metrics.Metrics
	// Locker guards the sweep across instances. Nil runs unguarded.
	Locker  sweep.Locker
	LockTTL time.Duration
	// Enqueuer hands admin-triggered sweeps to the worker. Nil runs them inline.
	Enqueuer scheduler.SweepEnqueuer
}

// Module is the prospecting bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	repo       *repository.Repository
	pipelines  *pipeline.Service
	management *management.Service
	sweeper    *sweep.Sweeper
}

// NewModule creates and initializes the prospecting module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, cfg config.ProspectConfig, log *logger.Logger, opts Options) *Module {
	repo := repository.New(pool)
	loc := cfg.GetProspectLocation()

	pipelineSvc := pipeline.New(repo, bus, log)
	managementSvc := management.New(repo, pipelineSvc, bus, log, management.Options{
		Location:     loc,
		PhoneRegion:  cfg.GetPhoneDefaultRegion(),
		ImageBucket:  opts.ImageBucket,
		ImageStorage: opts.ImageStorage,
		Metrics:      opts.Metrics,
	})
	sweeper := sweep.New(repo, pipelineSvc, bus, log, sweep.Options{
		Locker:  opts.Locker,
		LockTTL: opts.LockTTL,
		Metrics: opts.Metrics,
	})

	h := handler.New(handler.Services{
		Pipelines:   pipelineSvc,
		Leads:       managementSvc,
		Deadlines:   deadlines.New(repo, bus),
		Performance: performance.New(repo, pipelineSvc, loc),
		Sweeps:      &sweepTrigger{enqueuer: opts.Enqueuer, sweeper: sweeper},
	}, val, loc)

	return &Module{
		handler:    h,
		repo:       repo,
		pipelines:  pipelineSvc,
		management: managementSvc,
		sweeper:    sweeper,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "prospect"
}

// Repository exposes the lead and member store to other modules.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Pipelines exposes the pipeline service.
func (m *Module) Pipelines() *pipeline.Service {
	return m.pipelines
}

// Sweeper exposes the overdue lead sweep for schedulers.
func (m *Module) Sweeper() *sweep.Sweeper {
	return m.sweeper
}

// RegisterRoutes mounts the prospecting routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	registerRoutes(ctx, m.handler)
}

func registerRoutes(ctx *apphttp.RouterContext, h *handler.Handler) {
	managers := httpkit.RequireAnyRole(httpkit.RoleManager, httpkit.RoleAdmin)

	g := ctx.Protected.Group("/prospect")

	g.GET("/pipeline", h.ListStages)
	g.POST("/pipeline/stages", managers, h.AddStage)
	g.PATCH("/pipeline/stages/:stageId", managers, h.RenameStage)
	g.POST("/pipeline/stages/:stageId/enabled", managers, h.SetStageEnabled)
	g.DELETE("/pipeline/stages/:stageId", managers, h.DeleteStage)

	g.POST("/leads", managers, h.CreateLead)
	g.GET("/leads/:id", h.GetLead)
	g.GET("/leads/:id/actionable-stages", h.ListActionableStages)
	g.POST("/leads/:id/transition", h.TransitionLead)
	g.POST("/leads/:id/feedback", h.SubmitFeedback)
	g.POST("/leads/:id/feedback/images", h.UploadFeedbackImage)
	g.POST("/leads/:id/reassign", h.ReassignLead)

	g.GET("/board", h.Board)
	g.GET("/lock", h.Lock)

	g.GET("/performance", h.Performance)
	g.GET("/performance/export", h.ExportPerformance)

	g.GET("/team/:memberId/deadlines", h.GetDeadlines)
	g.PUT("/team/:memberId/deadlines", managers, h.UpdateDeadlines)

	g.GET("/settings/kpi", h.GetKPISettings)
	g.PUT("/settings/kpi", managers, h.UpdateKPISettings)

	if ctx.Admin != nil {
		ctx.Admin.POST("/prospect/sweep", h.TriggerSweep)
	}
}

// sweepRunner is the part of the sweeper an admin trigger needs.
type sweepRunner interface {
	SweepOverdueLeads(ctx context.Context) (sweep.Result, error)
}

// sweepTrigger queues admin-requested sweeps, or runs them in the request
// when no queue is configured.
type sweepTrigger struct {
	enqueuer scheduler.SweepEnqueuer
	sweeper  sweepRunner
}

func (t *sweepTrigger) TriggerSweep(ctx context.Context) (transport.SweepTriggerResponse, error) {
	if t.enqueuer != nil {
		if err := t.enqueuer.EnqueueSweep(ctx, scheduler.TriggerAdmin); err != nil {
			return transport.SweepTriggerResponse{}, apperr.Wrap(apperr.KindInternal, "failed to enqueue sweep", err)
		}
		return transport.SweepTriggerResponse{Enqueued: true}, nil
	}

	res, err := t.sweeper.SweepOverdueLeads(ctx)
	if err != nil {
		return transport.SweepTriggerResponse{}, apperr.Wrap(apperr.KindInternal, "sweep failed", err)
	}
	return transport.SweepTriggerResponse{Reassigned: res.Reassigned, Failed: res.Failed, Skipped: res.Skipped}, nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
