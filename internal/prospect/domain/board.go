package domain

import (
	"time"

	"github.com/google/uuid"
)

// BoardLead is a lead as shown on a salesperson's board.
type BoardLead struct {
	Lead
	ReassignedAway bool
	DeadlineAt     *time.Time
}

// BoardColumn groups the leads displayed under one stage.
type BoardColumn struct {
	Stage Stage
	Leads []BoardLead
}

// Board is the salesperson's view of the funnel.
type Board struct {
	SalespersonID     uuid.UUID
	Columns           []BoardColumn
	Converted         int
	NotConverted      int
	HasLeadInProgress bool
	Lock              LockState
}

// BuildBoard lays out every lead visible to salesperson: the ones they own
// and the ones reassigned away from them. Reassigned-away leads go to the
// holding column; owned leads parked in the holding stage show under entry.
func BuildBoard(p *Pipeline, leads []Lead, salesperson uuid.UUID, settings DeadlineSettings, now time.Time, loc *time.Location) Board {
	board := Board{SalespersonID: salesperson}
	byStage := make(map[string][]BoardLead)
	entry := p.Entry()
	holding := p.Holding()

	owned := make([]Lead, 0, len(leads))
	for _, l := range leads {
		from, hasFrom := l.ReassignedFrom()
		mine := l.SalespersonID == salesperson
		if !mine && !(hasFrom && from == salesperson) {
			continue
		}

		if !mine {
			byStage[holding.ID] = append(byStage[holding.ID], BoardLead{Lead: l, ReassignedAway: true})
			continue
		}
		owned = append(owned, l)

		stage, ok := p.Stage(l.StageID)
		column := l.StageID
		if !ok || stage.Role == RoleHolding {
			column = entry.ID
		}

		bl := BoardLead{Lead: l}
		if column == entry.ID {
			bl.DeadlineAt = DeadlineAt(l, settings)
		}
		byStage[column] = append(byStage[column], bl)

		if ok && stage.Role == RoleTerminal {
			switch l.Outcome {
			case OutcomeConverted:
				board.Converted++
			case OutcomeNotConverted:
				board.NotConverted++
			}
		}
		if ok && stage.Role == RoleFirstAttempt {
			board.HasLeadInProgress = true
		}
	}

	for _, s := range p.Stages() {
		items := byStage[s.ID]
		if !s.IsEnabled && len(items) == 0 {
			continue
		}
		if items == nil {
			items = []BoardLead{}
		}
		board.Columns = append(board.Columns, BoardColumn{Stage: s, Leads: items})
	}

	board.Lock = ProspectingLock(p, owned, salesperson, now, loc)
	return board
}
