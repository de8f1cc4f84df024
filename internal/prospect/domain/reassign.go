package domain

import (
	"slices"
	"time"

	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
)

// ReassignmentMode selects how the sweep picks a new owner.
type ReassignmentMode string

const (
	ModeRandom   ReassignmentMode = "random"
	ModeSpecific ReassignmentMode = "specific"
)

// Deadline bounds accepted for the initial contact window.
const (
	DefaultDeadlineMinutes = 60
	MinDeadlineMinutes     = 1
	MaxDeadlineMinutes     = 7 * 24 * 60
)

// AutoReassignReason is recorded on leads moved by the sweep.
const AutoReassignReason = "Lead not prospected within the time limit."

// Member roles stored on team members.
const (
	MemberRoleManager     = "Gestor"
	MemberRoleSalesperson = "Vendedor"
)

// DeadlineSettings is the initial-contact policy of one salesperson.
type DeadlineSettings struct {
	Minutes              int              `json:"minutes"`
	AutoReassignEnabled  bool             `json:"auto_reassign_enabled"`
	ReassignmentMode     ReassignmentMode `json:"reassignment_mode"`
	ReassignmentTargetID *uuid.UUID       `json:"reassignment_target_id"`
}

// DefaultDeadlineSettings applies to salespeople without stored settings.
func DefaultDeadlineSettings() DeadlineSettings {
	return DeadlineSettings{
		Minutes:             DefaultDeadlineMinutes,
		AutoReassignEnabled: false,
		ReassignmentMode:    ModeRandom,
	}
}

// WithDefaults fills zero values left by partially stored settings.
func (s DeadlineSettings) WithDefaults() DeadlineSettings {
	if s.Minutes <= 0 {
		s.Minutes = DefaultDeadlineMinutes
	}
	if s.ReassignmentMode == "" {
		s.ReassignmentMode = ModeRandom
	}
	if s.ReassignmentMode == ModeRandom {
		s.ReassignmentTargetID = nil
	}
	return s
}

// Validate checks the settings of owner against the salespeople of the same
// company.
func (s DeadlineSettings) Validate(owner uuid.UUID, salespeople []uuid.UUID) error {
	if s.Minutes < MinDeadlineMinutes || s.Minutes > MaxDeadlineMinutes {
		return apperr.Validation("minutes must be between 1 and 10080")
	}
	switch s.ReassignmentMode {
	case ModeRandom:
		return nil
	case ModeSpecific:
	default:
		return apperr.Validation("reassignment mode must be random or specific")
	}
	if s.ReassignmentTargetID == nil {
		return apperr.Validation("a target salesperson is required in specific mode")
	}
	if *s.ReassignmentTargetID == owner {
		return apperr.ConstraintViolation("a salesperson cannot be their own reassignment target")
	}
	if !slices.Contains(salespeople, *s.ReassignmentTargetID) {
		return apperr.ConstraintViolation("reassignment target must be a salesperson of the same company")
	}
	return nil
}

// Member is a person of a company's team.
type Member struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Email     string
	Role      string
	Deadlines DeadlineSettings
}

// IsSalesperson reports whether the member can own leads.
func (m Member) IsSalesperson() bool {
	return m.Role == MemberRoleSalesperson
}

// Rand is the random source used for peer selection. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// PickNewOwner chooses who receives an overdue lead of owner. It returns
// false when the lead must be left alone: no peer exists, no usable target
// is configured, or the choice would be owner again.
func PickNewOwner(settings DeadlineSettings, owner uuid.UUID, salespeople []uuid.UUID, rnd Rand) (uuid.UUID, bool) {
	peers := make([]uuid.UUID, 0, len(salespeople))
	for _, id := range salespeople {
		if id != owner {
			peers = append(peers, id)
		}
	}
	if len(peers) == 0 {
		return uuid.Nil, false
	}

	var next uuid.UUID
	switch settings.ReassignmentMode {
	case ModeSpecific:
		if settings.ReassignmentTargetID == nil || !slices.Contains(peers, *settings.ReassignmentTargetID) {
			return uuid.Nil, false
		}
		next = *settings.ReassignmentTargetID
	default:
		next = peers[rnd.IntN(len(peers))]
	}

	if next == owner || next == uuid.Nil {
		return uuid.Nil, false
	}
	return next, true
}

// DeadlineStart is when the current owner's response window opened: the
// last reassignment if there was one, otherwise creation.
func DeadlineStart(lead Lead) time.Time {
	raw, ok := lead.Details[DetailReassignedAt].(string)
	if !ok {
		return lead.CreatedAt
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil || at.Before(lead.CreatedAt) {
		return lead.CreatedAt
	}
	return at
}

// DeadlineAt is the moment an entry-stage lead becomes overdue, or nil when
// the owner has no automatic reassignment.
func DeadlineAt(lead Lead, settings DeadlineSettings) *time.Time {
	if !settings.AutoReassignEnabled {
		return nil
	}
	at := DeadlineStart(lead).Add(time.Duration(settings.Minutes) * time.Minute)
	return &at
}

// Cutoff returns the creation time before which entry-stage leads are overdue.
func Cutoff(settings DeadlineSettings, now time.Time) time.Time {
	return now.Add(-time.Duration(settings.Minutes) * time.Minute)
}

// IsOverdue reports whether the sweep may take lead away from its owner.
func IsOverdue(p *Pipeline, lead Lead, settings DeadlineSettings, now time.Time) bool {
	if !settings.AutoReassignEnabled {
		return false
	}
	return lead.StageID == p.Entry().ID && DeadlineStart(lead).Before(Cutoff(settings, now))
}

// PlanAutoReassignment moves ownership and keeps the stage unchanged.
func PlanAutoReassignment(lead Lead, newOwner uuid.UUID, now time.Time) LeadUpdate {
	details := cloneDetails(lead.Details)
	details[DetailReassignedBySystem] = true
	details[DetailReassignedFrom] = lead.SalespersonID.String()
	details[DetailReassignedTo] = newOwner.String()
	details[DetailReassignedAt] = now.UTC().Format(time.RFC3339)
	details[DetailReason] = AutoReassignReason

	return LeadUpdate{
		SalespersonID: newOwner,
		StageID:       lead.StageID,
		Outcome:       lead.Outcome,
		AppointmentAt: lead.AppointmentAt,
		ProspectedAt:  lead.ProspectedAt,
		Details:       details,
	}
}

// PlanManualReassignment parks lead in the holding stage under newOwner.
// The system flag and reason of an earlier automatic move are dropped so
// reports can tell both kinds apart.
func PlanManualReassignment(p *Pipeline, lead Lead, newOwner, from uuid.UUID, now time.Time) (LeadUpdate, error) {
	if lead.TenantID != p.TenantID {
		return LeadUpdate{}, apperr.InvalidStage("lead does not belong to this company")
	}
	if newOwner == uuid.Nil {
		return LeadUpdate{}, apperr.Validation("new owner is required")
	}
	if newOwner == lead.SalespersonID {
		return LeadUpdate{}, apperr.ConstraintViolation("lead already belongs to this salesperson")
	}

	update := baseUpdate(lead, p.Holding())
	details := cloneDetails(update.Details)
	delete(details, DetailReassignedBySystem)
	delete(details, DetailReason)
	details[DetailReassignedFrom] = from.String()
	details[DetailReassignedTo] = newOwner.String()
	details[DetailReassignedAt] = now.UTC().Format(time.RFC3339)

	update.SalespersonID = newOwner
	update.Details = details
	return update, nil
}
