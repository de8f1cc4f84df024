// Package deadlines manages the initial-contact policy of each salesperson.
package deadlines

import (
	"context"

	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/repository"
	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
)

// Repository is the storage the deadlines service needs.
type Repository interface {
	repository.MemberReader
	repository.DeadlineWriter
}

// Service reads and updates deadline settings.
type Service struct {
	repo Repository
	bus  events.Bus
}

// New creates a deadlines service.
func New(repo Repository, bus events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// GetDeadlineSettings returns the member's settings, defaults included.
func (s *Service) GetDeadlineSettings(ctx context.Context, actor domain.Actor, memberID uuid.UUID) (domain.DeadlineSettings, error) {
	member, err := s.repo.GetMember(ctx, actor.TenantID, memberID)
	if err != nil {
		return domain.DeadlineSettings{}, err
	}
	return member.Deadlines.WithDefaults(), nil
}

// UpdateDeadlineSettings validates and stores new settings for a salesperson.
func (s *Service) UpdateDeadlineSettings(ctx context.Context, actor domain.Actor, memberID uuid.UUID, settings domain.DeadlineSettings) (domain.DeadlineSettings, error) {
	if !actor.IsManager {
		return domain.DeadlineSettings{}, apperr.Forbidden("only managers can change deadline settings")
	}

	member, err := s.repo.GetMember(ctx, actor.TenantID, memberID)
	if err != nil {
		return domain.DeadlineSettings{}, err
	}
	if !member.IsSalesperson() {
		return domain.DeadlineSettings{}, apperr.ConstraintViolation("deadline settings only apply to salespeople")
	}

	salespeople, err := s.repo.ListSalespeople(ctx, actor.TenantID)
	if err != nil {
		return domain.DeadlineSettings{}, err
	}
	ids := make([]uuid.UUID, 0, len(salespeople))
	for _, sp := range salespeople {
		ids = append(ids, sp.ID)
	}

	if settings.ReassignmentMode == domain.ModeRandom {
		settings.ReassignmentTargetID = nil
	}
	if err := settings.Validate(member.ID, ids); err != nil {
		return domain.DeadlineSettings{}, err
	}
	if err := s.repo.SaveDeadlineSettings(ctx, actor.TenantID, member.ID, settings); err != nil {
		return domain.DeadlineSettings{}, err
	}

	s.bus.Publish(ctx, events.DeadlineSettingsUpdated{
		BaseEvent:           events.NewBaseEvent(),
		TenantID:            actor.TenantID,
		ActorID:             actor.ID,
		MemberID:            member.ID,
		Minutes:             settings.Minutes,
		AutoReassignEnabled: settings.AutoReassignEnabled,
	})
	return settings, nil
}
