package management

import (
	"context"

	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
)

// ReassignManually hands a lead to another salesperson and parks it in the
// holding stage.
func (s *Service) ReassignManually(ctx context.Context, actor domain.Actor, leadID, newOwnerID uuid.UUID) (domain.Lead, error) {
	lead, p, err := s.loadLeadAndPipeline(ctx, actor, leadID)
	if err != nil {
		return domain.Lead{}, err
	}
	if !actor.CanActOn(lead) {
		return domain.Lead{}, apperr.Forbidden("only the owner or a manager can reassign this lead")
	}

	target, err := s.repo.GetMember(ctx, actor.TenantID, newOwnerID)
	if err != nil {
		return domain.Lead{}, err
	}
	if !target.IsSalesperson() {
		return domain.Lead{}, apperr.ConstraintViolation("leads can only be reassigned to salespeople")
	}

	previousOwner := lead.SalespersonID
	update, err := domain.PlanManualReassignment(p, lead, target.ID, previousOwner, s.now())
	if err != nil {
		return domain.Lead{}, err
	}
	updated, err := s.repo.ApplyUpdate(ctx, actor.TenantID, lead.ID, update)
	if err != nil {
		return domain.Lead{}, err
	}

	actorID := actor.ID
	s.metrics.RecordReassignment(events.TriggerManual, events.TriggerManual)
	s.log.LeadReassigned(updated.ID.String(), previousOwner.String(), target.ID.String(), events.TriggerManual)
	s.bus.Publish(ctx, events.LeadReassigned{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       updated.ID,
		TenantID:     updated.TenantID,
		LeadName:     updated.Name,
		FromOwnerID:  previousOwner,
		ToOwnerID:    target.ID,
		ActorID:      &actorID,
		Trigger:      events.TriggerManual,
		StageChanged: lead.StageID != updated.StageID,
	})
	return updated, nil
}
