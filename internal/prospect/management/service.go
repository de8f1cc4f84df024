// Package management implements the lead operations of the prospecting
// funnel: intake, stage transitions, feedback, manual reassignment and the
// salesperson board.
package management

import (
	"context"
	"io"
	"time"

	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/repository"
	"prospectai_backend/platform/apperr"
	"prospectai_backend/platform/logger"
	"prospectai_backend/platform/metrics"
	"prospectai_backend/platform/phone"
	"prospectai_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository defines the data access the management service needs.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
	repository.MemberReader
}

// PipelineLoader returns the validated pipeline of a company.
type PipelineLoader interface {
	Load(ctx context.Context, tenantID uuid.UUID) (*domain.Pipeline, error)
}

// ImageStorage stores feedback images.
type ImageStorage interface {
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)
	ObjectURL(ctx context.Context, bucket, fileKey string) (string, error)
	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}

// Options configures the service.
type Options struct {
	Location     *time.Location
	PhoneRegion  string
	ImageBucket  string
	ImageStorage ImageStorage
	Metrics      *metrics.Metrics
}

// Service handles lead operations.
type Service struct {
	repo      Repository
	pipelines PipelineLoader
	bus       events.Bus
	log       *logger.Logger
	storage   ImageStorage
	bucket    string
	metrics   *metrics.Metrics
	loc       *time.Location
	region    string
	now       func() time.Time
}

// New creates a lead management service.
func New(repo Repository, pipelines PipelineLoader, bus events.Bus, log *logger.Logger, opts Options) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      repo,
		pipelines: pipelines,
		bus:       bus,
		log:       log,
		storage:   opts.ImageStorage,
		bucket:    opts.ImageBucket,
		metrics:   opts.Metrics,
		loc:       loc,
		region:    opts.PhoneRegion,
		now:       time.Now,
	}
}

// CreateLeadInput holds the intake data of a new lead.
type CreateLeadInput struct {
	SalespersonID   uuid.UUID
	Name            string
	Phone           string
	InterestVehicle string
	RawData         map[string]any
	Details         map[string]any
}

// CreateLead registers a lead in the entry stage of the company's funnel.
func (s *Service) CreateLead(ctx context.Context, actor domain.Actor, in CreateLeadInput) (domain.Lead, error) {
	if !actor.IsManager {
		return domain.Lead{}, apperr.Forbidden("only managers can register leads")
	}
	name := sanitize.Name(in.Name)
	if name == "" {
		return domain.Lead{}, apperr.Validation("lead name is required")
	}

	owner, err := s.repo.GetMember(ctx, actor.TenantID, in.SalespersonID)
	if err != nil {
		return domain.Lead{}, err
	}
	if !owner.IsSalesperson() {
		return domain.Lead{}, apperr.ConstraintViolation("leads can only be assigned to salespeople")
	}

	p, err := s.pipelines.Load(ctx, actor.TenantID)
	if err != nil {
		return domain.Lead{}, err
	}

	lead, err := s.repo.CreateLead(ctx, repository.CreateLeadParams{
		TenantID:        actor.TenantID,
		SalespersonID:   owner.ID,
		Name:            name,
		Phone:           phone.NormalizeE164(in.Phone, s.region),
		InterestVehicle: sanitize.Name(in.InterestVehicle),
		StageID:         p.Entry().ID,
		RawData:         in.RawData,
		Details:         in.Details,
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		TenantID:      lead.TenantID,
		SalespersonID: lead.SalespersonID,
		CreatedByID:   actor.ID,
		LeadName:      lead.Name,
	})
	return lead, nil
}

// GetLead returns one lead of the actor's company.
func (s *Service) GetLead(ctx context.Context, actor domain.Actor, leadID uuid.UUID) (domain.Lead, error) {
	return s.repo.GetLead(ctx, actor.TenantID, leadID)
}

// ListActionableStages returns the stages the lead may move to next.
func (s *Service) ListActionableStages(ctx context.Context, actor domain.Actor, leadID uuid.UUID) ([]domain.Stage, error) {
	lead, p, err := s.loadLeadAndPipeline(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}
	return p.ActionableStages(lead.StageID), nil
}

// TransitionLead moves a lead to another stage. Only managers may force a
// move outside the forward-only path.
func (s *Service) TransitionLead(ctx context.Context, actor domain.Actor, leadID uuid.UUID, in domain.TransitionInput) (domain.Lead, error) {
	lead, p, err := s.loadLeadAndPipeline(ctx, actor, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	if !actor.CanActOn(lead) {
		return domain.Lead{}, apperr.Forbidden("only the owner or a manager can move this lead")
	}
	if !actor.IsManager {
		in.Force = false
	}

	update, target, err := domain.PlanTransition(p, lead, in, s.now())
	if err != nil {
		return domain.Lead{}, err
	}
	updated, err := s.repo.ApplyUpdate(ctx, actor.TenantID, lead.ID, update)
	if err != nil {
		return domain.Lead{}, err
	}

	s.metrics.RecordTransition(string(target.Role))
	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    updated.ID,
		TenantID:  updated.TenantID,
		ActorID:   actor.ID,
		LeadName:  updated.Name,
		FromStage: stageName(p, lead.StageID),
		ToStage:   target.Name,
		StageRole: string(target.Role),
		Outcome:   string(updated.Outcome),
	})
	return updated, nil
}

func (s *Service) loadLeadAndPipeline(ctx context.Context, actor domain.Actor, leadID uuid.UUID) (domain.Lead, *domain.Pipeline, error) {
	lead, err := s.repo.GetLead(ctx, actor.TenantID, leadID)
	if err != nil {
		return domain.Lead{}, nil, err
	}
	p, err := s.pipelines.Load(ctx, actor.TenantID)
	if err != nil {
		return domain.Lead{}, nil, err
	}
	return lead, p, nil
}

func stageName(p *domain.Pipeline, stageID string) string {
	if st, ok := p.Stage(stageID); ok {
		return st.Name
	}
	return stageID
}
