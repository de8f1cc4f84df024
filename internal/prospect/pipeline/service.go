// Package pipeline manages the per-company stage configuration of the
// prospecting funnel.
package pipeline

import (
	"context"

	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/repository"
	"prospectai_backend/platform/apperr"
	"prospectai_backend/platform/logger"
	"prospectai_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository is the storage the pipeline service needs.
type Repository interface {
	repository.PipelineStore
}

// Service loads and edits company pipelines.
type Service struct {
	repo  Repository
	bus   events.Bus
	log   *logger.Logger
	newID func() string
}

// New creates a pipeline service.
func New(repo Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, newID: uuid.NewString}
}

// maxSaveAttempts bounds how often an edit is re-applied after losing a
// version race to another writer.
const maxSaveAttempts = 3

// Load returns the validated pipeline of a company, seeding the default
// funnel first if the company has none. Stages stored without a role are
// resolved by name and written back once.
func (s *Service) Load(ctx context.Context, tenantID uuid.UUID) (*domain.Pipeline, error) {
	p, _, err := s.load(ctx, tenantID)
	return p, err
}

// EnsureDefaultPipeline seeds the default funnel when the company has no
// stages and returns the current pipeline otherwise.
func (s *Service) EnsureDefaultPipeline(ctx context.Context, tenantID uuid.UUID) (*domain.Pipeline, error) {
	return s.Load(ctx, tenantID)
}

func (s *Service) load(ctx context.Context, tenantID uuid.UUID) (*domain.Pipeline, int64, error) {
	stored, err := s.repo.GetPipelineStages(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	if len(stored.Stages) == 0 {
		return s.seed(ctx, tenantID, stored.Version)
	}

	p, err := domain.NewPipeline(tenantID, stored.Stages)
	if err != nil {
		return nil, 0, err
	}

	version := stored.Version
	if missingRoles(stored.Stages) {
		saved, err := s.repo.SavePipelineStages(ctx, tenantID, version, p.Stages())
		switch {
		case err != nil:
			s.log.Warn("failed to persist resolved stage roles", "tenantId", tenantID, "error", err)
		case saved:
			version++
		}
	}
	return p, version, nil
}

// seed writes the default funnel if the company is still at version. When a
// concurrent caller seeded first, its stages are returned instead so every
// caller hands out the same stage ids.
func (s *Service) seed(ctx context.Context, tenantID uuid.UUID, version int64) (*domain.Pipeline, int64, error) {
	stages, err := DefaultStages(s.newID)
	if err != nil {
		return nil, 0, apperr.Internal("default pipeline is unavailable").WithOp("pipeline.seed")
	}
	p, err := domain.NewPipeline(tenantID, stages)
	if err != nil {
		return nil, 0, err
	}

	saved, err := s.repo.SavePipelineStages(ctx, tenantID, version, p.Stages())
	if err != nil {
		return nil, 0, err
	}
	if saved {
		s.log.Info("seeded default pipeline", "tenantId", tenantID, "stages", len(stages))
		return p, version + 1, nil
	}

	stored, err := s.repo.GetPipelineStages(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	if len(stored.Stages) == 0 {
		return nil, 0, apperr.Conflict("pipeline was changed concurrently, try again").WithOp("pipeline.seed")
	}
	p, err = domain.NewPipeline(tenantID, stored.Stages)
	if err != nil {
		return nil, 0, err
	}
	return p, stored.Version, nil
}

// update applies change to the latest stored pipeline and saves the result,
// re-reading and re-applying when another writer saved in between.
func (s *Service) update(ctx context.Context, tenantID uuid.UUID, change func(*domain.Pipeline) (*domain.Pipeline, error)) (*domain.Pipeline, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		p, version, err := s.load(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		next, err := change(p)
		if err != nil {
			return nil, err
		}
		saved, err := s.repo.SavePipelineStages(ctx, tenantID, version, next.Stages())
		if err != nil {
			return nil, err
		}
		if saved {
			return next, nil
		}
		s.log.Debug("pipeline version moved, retrying edit", "tenantId", tenantID, "attempt", attempt+1)
	}
	return nil, apperr.Conflict("pipeline was changed concurrently, try again").WithOp("pipeline.update")
}

func missingRoles(stages []domain.Stage) bool {
	for _, st := range stages {
		if st.Role == "" {
			return true
		}
	}
	return false
}

// ListStages returns the company's stages sorted by order.
func (s *Service) ListStages(ctx context.Context, tenantID uuid.UUID) ([]domain.Stage, error) {
	p, err := s.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return p.Stages(), nil
}

// AddStage appends a custom stage before the closing block.
func (s *Service) AddStage(ctx context.Context, actor domain.Actor, name string) (domain.Stage, error) {
	name = sanitize.Name(name)
	if name == "" {
		return domain.Stage{}, apperr.Validation("stage name is required")
	}

	var stage domain.Stage
	_, err := s.update(ctx, actor.TenantID, func(p *domain.Pipeline) (*domain.Pipeline, error) {
		next, added, err := p.WithStageAdded(s.newID(), name)
		stage = added
		return next, err
	})
	if err != nil {
		return domain.Stage{}, err
	}

	s.publish(ctx, actor, stage, events.StageAdded)
	return stage, nil
}

// RenameStage changes the display name of a custom stage.
func (s *Service) RenameStage(ctx context.Context, actor domain.Actor, stageID, name string) (domain.Stage, error) {
	name = sanitize.Name(name)
	if name == "" {
		return domain.Stage{}, apperr.Validation("stage name is required")
	}

	return s.mutate(ctx, actor, stageID, events.StageRenamed, func(p *domain.Pipeline) (*domain.Pipeline, error) {
		return p.WithStageRenamed(stageID, name)
	})
}

// SetStageEnabled enables or disables a custom stage.
func (s *Service) SetStageEnabled(ctx context.Context, actor domain.Actor, stageID string, enabled bool) (domain.Stage, error) {
	action := events.StageDisabled
	if enabled {
		action = events.StageEnabled
	}
	return s.mutate(ctx, actor, stageID, action, func(p *domain.Pipeline) (*domain.Pipeline, error) {
		return p.WithStageEnabled(stageID, enabled)
	})
}

// DeleteStage removes a custom stage that holds no leads.
func (s *Service) DeleteStage(ctx context.Context, actor domain.Actor, stageID string) error {
	var stage domain.Stage
	_, err := s.update(ctx, actor.TenantID, func(p *domain.Pipeline) (*domain.Pipeline, error) {
		st, ok := p.Stage(stageID)
		if !ok {
			return nil, apperr.NotFound("stage not found")
		}
		stage = st

		count, err := s.repo.CountLeadsInStage(ctx, actor.TenantID, stageID)
		if err != nil {
			return nil, err
		}
		return p.WithStageRemoved(stageID, count)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, actor, stage, events.StageDeleted)
	return nil
}

func (s *Service) mutate(ctx context.Context, actor domain.Actor, stageID, action string, change func(*domain.Pipeline) (*domain.Pipeline, error)) (domain.Stage, error) {
	next, err := s.update(ctx, actor.TenantID, change)
	if err != nil {
		return domain.Stage{}, err
	}

	stage, _ := next.Stage(stageID)
	s.publish(ctx, actor, stage, action)
	return stage, nil
}

func (s *Service) publish(ctx context.Context, actor domain.Actor, stage domain.Stage, action string) {
	s.bus.Publish(ctx, events.PipelineStageChanged{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  actor.TenantID,
		ActorID:   actor.ID,
		StageID:   stage.ID,
		StageName: stage.Name,
		Action:    action,
	})
}
