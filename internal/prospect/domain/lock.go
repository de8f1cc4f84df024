package domain

import (
	"time"

	"github.com/google/uuid"
)

// LockState is the prospecting gate of one salesperson.
type LockState struct {
	Locked  bool   `json:"locked"`
	Pending []Lead `json:"-"`
}

// StartOfDay returns local midnight of now in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// IsPending reports whether lead still needs feedback for today before its
// owner may pick up new leads.
func IsPending(p *Pipeline, lead Lead, dayStart time.Time) bool {
	if !p.IsWorkStage(lead.StageID) {
		return false
	}
	if last, ok := lead.LastFeedback(); ok {
		return last.CreatedAt.Before(dayStart)
	}
	since := lead.CreatedAt
	if lead.ProspectedAt != nil {
		since = *lead.ProspectedAt
	}
	return since.Before(dayStart)
}

// PendingLeads returns the leads owned by salesperson that block prospecting.
func PendingLeads(p *Pipeline, leads []Lead, salesperson uuid.UUID, now time.Time, loc *time.Location) []Lead {
	dayStart := StartOfDay(now, loc)
	out := make([]Lead, 0)
	for _, l := range leads {
		if l.SalespersonID != salesperson {
			continue
		}
		if IsPending(p, l, dayStart) {
			out = append(out, l)
		}
	}
	return out
}

// ProspectingLock evaluates the gate for salesperson.
func ProspectingLock(p *Pipeline, leads []Lead, salesperson uuid.UUID, now time.Time, loc *time.Location) LockState {
	pending := PendingLeads(p, leads, salesperson, now, loc)
	return LockState{Locked: len(pending) > 0, Pending: pending}
}
