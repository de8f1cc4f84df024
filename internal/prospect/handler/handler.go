// Package handler exposes the prospecting funnel over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/management"
	"prospectai_backend/internal/prospect/performance"
	"prospectai_backend/internal/prospect/transport"
	"prospectai_backend/platform/httpkit"
	"prospectai_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead ID"
	msgInvalidMemberID  = "invalid member ID"
)

// PipelineService configures a company's funnel.
type PipelineService interface {
	ListStages(ctx context.Context, tenantID uuid.UUID) ([]domain.Stage, error)
	AddStage(ctx context.Context, actor domain.Actor, name string) (domain.Stage, error)
	RenameStage(ctx context.Context, actor domain.Actor, stageID, name string) (domain.Stage, error)
	SetStageEnabled(ctx context.Context, actor domain.Actor, stageID string, enabled bool) (domain.Stage, error)
	DeleteStage(ctx context.Context, actor domain.Actor, stageID string) error
}

// LeadService runs lead operations.
type LeadService interface {
	CreateLead(ctx context.Context, actor domain.Actor, in management.CreateLeadInput) (domain.Lead, error)
	GetLead(ctx context.Context, actor domain.Actor, leadID uuid.UUID) (domain.Lead, error)
	ListActionableStages(ctx context.Context, actor domain.Actor, leadID uuid.UUID) ([]domain.Stage, error)
	TransitionLead(ctx context.Context, actor domain.Actor, leadID uuid.UUID, in domain.TransitionInput) (domain.Lead, error)
	SubmitFeedback(ctx context.Context, actor domain.Actor, leadID uuid.UUID, text string, images []string) (domain.Lead, error)
	UploadFeedbackImage(ctx context.Context, actor domain.Actor, leadID uuid.UUID, file management.ImageUpload) (management.ImageRef, error)
	ReassignManually(ctx context.Context, actor domain.Actor, leadID, newOwnerID uuid.UUID) (domain.Lead, error)
	Board(ctx context.Context, actor domain.Actor, salespersonID *uuid.UUID) (domain.Board, error)
	ProspectingLock(ctx context.Context, actor domain.Actor, salespersonID *uuid.UUID) (domain.LockState, error)
}

// DeadlineService reads and edits per-salesperson deadline policies.
type DeadlineService interface {
	GetDeadlineSettings(ctx context.Context, actor domain.Actor, memberID uuid.UUID) (domain.DeadlineSettings, error)
	UpdateDeadlineSettings(ctx context.Context, actor domain.Actor, memberID uuid.UUID, settings domain.DeadlineSettings) (domain.DeadlineSettings, error)
}

// PerformanceService builds performance reports.
type PerformanceService interface {
	ComputeMetrics(ctx context.Context, actor domain.Actor, q performance.Query) (performance.Report, error)
	GetKPISettings(ctx context.Context, actor domain.Actor) (domain.MonthlyLeadsKPI, error)
	UpdateKPISettings(ctx context.Context, actor domain.Actor, kpi domain.MonthlyLeadsKPI) (domain.MonthlyLeadsKPI, error)
}

// SweepTrigger starts an overdue lead sweep outside the schedule.
type SweepTrigger interface {
	TriggerSweep(ctx context.Context) (transport.SweepTriggerResponse, error)
}

// Services groups the dependencies of the handler.
type Services struct {
	Pipelines   PipelineService
	Leads       LeadService
	Deadlines   DeadlineService
	Performance PerformanceService
	Sweeps      SweepTrigger
}

// Handler handles HTTP requests for the prospecting funnel.
type Handler struct {
	pipelines   PipelineService
	leads       LeadService
	deadlines   DeadlineService
	performance PerformanceService
	sweeps      SweepTrigger
	val         *validator.Validator
	loc         *time.Location
	now         func() time.Time
}

// New creates a new prospecting handler. loc is the company calendar used
// for export file names.
func New(svcs Services, val *validator.Validator, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		pipelines:   svcs.Pipelines,
		leads:       svcs.Leads,
		deadlines:   svcs.Deadlines,
		performance: svcs.Performance,
		sweeps:      svcs.Sweeps,
		val:         val,
		loc:         loc,
		now:         time.Now,
	}
}

// actorFrom builds the acting team member from the authenticated identity.
// It aborts the request and returns false when the identity is incomplete.
func actorFrom(c *gin.Context) (domain.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return domain.Actor{}, false
	}
	tenantID, ok := httpkit.MustGetTenantID(c, identity)
	if !ok {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: identity.UserID(), TenantID: tenantID, IsManager: identity.IsManager()}, true
}

func parseUUIDParam(c *gin.Context, name, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msg, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// optionalUUID parses a query value already validated as a UUID.
func optionalUUID(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}
