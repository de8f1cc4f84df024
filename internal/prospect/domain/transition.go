package domain

import (
	"time"

	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
)

// TransitionInput describes a requested stage move.
type TransitionInput struct {
	TargetStageID   string
	Outcome         Outcome
	AppointmentDate *time.Time
	// Force allows moves outside the forward-only path. Only managers set it.
	Force bool
}

// LeadUpdate holds the full new value of every field a mutation touches.
// Repositories persist it as one statement.
type LeadUpdate struct {
	SalespersonID uuid.UUID
	StageID       string
	Outcome       Outcome
	AppointmentAt *time.Time
	ProspectedAt  *time.Time
	Details       map[string]any
}

// Apply returns lead with the update applied.
func (u LeadUpdate) Apply(lead Lead) Lead {
	lead.SalespersonID = u.SalespersonID
	lead.StageID = u.StageID
	lead.Outcome = u.Outcome
	lead.AppointmentAt = u.AppointmentAt
	lead.ProspectedAt = u.ProspectedAt
	lead.Details = u.Details
	return lead
}

// PlanTransition validates a move and computes the resulting field values.
// It never mutates lead.
func PlanTransition(p *Pipeline, lead Lead, in TransitionInput, now time.Time) (LeadUpdate, Stage, error) {
	if lead.TenantID != p.TenantID {
		return LeadUpdate{}, Stage{}, apperr.InvalidStage("stage does not belong to the lead's company")
	}
	target, ok := p.Stage(in.TargetStageID)
	if !ok {
		return LeadUpdate{}, Stage{}, apperr.InvalidStage("target stage not found in the company pipeline")
	}
	if !in.Force && !canMoveTo(p, lead.StageID, target) {
		return LeadUpdate{}, Stage{}, apperr.InvalidStage("target stage is not reachable from the current stage")
	}
	if in.Outcome != OutcomeNone && !in.Outcome.IsFinal() {
		return LeadUpdate{}, Stage{}, apperr.Validation("outcome must be convertido or nao_convertido")
	}

	update := baseUpdate(lead, target)

	if target.Role == RoleFirstAttempt && update.ProspectedAt == nil {
		stamp := now
		update.ProspectedAt = &stamp
	}

	if target.Role == RoleTerminal && in.Outcome.IsFinal() {
		update.Outcome = in.Outcome
	}

	if target.Role == RoleScheduling {
		switch {
		case in.AppointmentDate != nil:
			at := *in.AppointmentDate
			update.AppointmentAt = &at
		case stagedAppointment(lead.Details) != nil:
			update.AppointmentAt = stagedAppointment(lead.Details)
		}
	}

	return update, target, nil
}

// baseUpdate carries over what a move into target keeps and clears what the
// target cannot hold: outcome outside terminal, appointment outside scheduling.
func baseUpdate(lead Lead, target Stage) LeadUpdate {
	details := cloneDetails(lead.Details)
	delete(details, DetailAppointmentDate)

	update := LeadUpdate{
		SalespersonID: lead.SalespersonID,
		StageID:       target.ID,
		ProspectedAt:  lead.ProspectedAt,
		Details:       normalizeDetails(details),
	}
	if target.Role == RoleTerminal {
		update.Outcome = lead.Outcome
	}
	if target.Role == RoleScheduling {
		update.AppointmentAt = lead.AppointmentAt
	}
	return update
}

func canMoveTo(p *Pipeline, currentStageID string, target Stage) bool {
	if target.ID == currentStageID {
		return true
	}
	for _, s := range p.ActionableStages(currentStageID) {
		if s.ID == target.ID {
			return true
		}
	}
	return false
}

func stagedAppointment(details map[string]any) *time.Time {
	raw, ok := details[DetailAppointmentDate].(string)
	if !ok || raw == "" {
		return nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &at
}
