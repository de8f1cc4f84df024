package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result recorded on a finished lead.
type Outcome string

const (
	OutcomeNone         Outcome = ""
	OutcomeConverted    Outcome = "convertido"
	OutcomeNotConverted Outcome = "nao_convertido"
)

// ParseOutcome accepts the stored values and their English aliases.
func ParseOutcome(raw string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return OutcomeNone, true
	case "convertido", "converted":
		return OutcomeConverted, true
	case "nao_convertido", "não_convertido", "not_converted":
		return OutcomeNotConverted, true
	}
	return OutcomeNone, false
}

// IsFinal reports whether the outcome closes the lead.
func (o Outcome) IsFinal() bool {
	return o == OutcomeConverted || o == OutcomeNotConverted
}

// Keys used inside Lead.Details.
const (
	DetailAppointmentDate    = "appointment_date"
	DetailReassignedBySystem = "reassigned_by_system"
	DetailReassignedFrom     = "reassigned_from"
	DetailReassignedTo       = "reassigned_to"
	DetailReassignedAt       = "reassigned_at"
	DetailReason             = "reason"
)

// Feedback is one note a salesperson attached to a lead.
type Feedback struct {
	Text      string    `json:"text"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"createdAt"`
}

// Lead is one prospect owned by exactly one salesperson.
type Lead struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	SalespersonID   uuid.UUID
	CreatedAt       time.Time
	Name            string
	Phone           string
	InterestVehicle string
	StageID         string
	Outcome         Outcome
	RawData         map[string]any
	Details         map[string]any
	AppointmentAt   *time.Time
	Feedback        []Feedback
	ProspectedAt    *time.Time
	LastFeedbackAt  *time.Time
}

// LastFeedback returns the most recent feedback entry.
func (l Lead) LastFeedback() (Feedback, bool) {
	if len(l.Feedback) == 0 {
		return Feedback{}, false
	}
	last := l.Feedback[0]
	for _, f := range l.Feedback[1:] {
		if !f.CreatedAt.Before(last.CreatedAt) {
			last = f
		}
	}
	return last, true
}

// ReassignedFrom returns the previous owner recorded by a reassignment.
func (l Lead) ReassignedFrom() (uuid.UUID, bool) {
	raw, ok := l.Details[DetailReassignedFrom].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ReassignedBySystem reports whether the last reassignment came from the sweep.
func (l Lead) ReassignedBySystem() bool {
	v, _ := l.Details[DetailReassignedBySystem].(bool)
	return v
}

func cloneDetails(details map[string]any) map[string]any {
	out := make(map[string]any, len(details)+5)
	for k, v := range details {
		out[k] = v
	}
	return out
}

func normalizeDetails(details map[string]any) map[string]any {
	if len(details) == 0 {
		return nil
	}
	return details
}
