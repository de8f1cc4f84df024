package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func column(b Board, stageID string) (BoardColumn, bool) {
	for _, c := range b.Columns {
		if c.Stage.ID == stageID {
			return c, true
		}
	}
	return BoardColumn{}, false
}

func TestBuildBoardShowsReassignedAwayLeads(t *testing.T) {
	p := testPipeline(t)
	s1 := uuid.New()
	s3 := uuid.New()
	now := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

	lead := newLead(s1, stSecond, now.Add(-time.Hour))
	update, err := PlanManualReassignment(p, lead, s3, s1, now)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	lead = update.Apply(lead)

	former := BuildBoard(p, []Lead{lead}, s1, DefaultDeadlineSettings(), now, time.UTC)
	holding, _ := column(former, stHolding)
	if len(holding.Leads) != 1 || !holding.Leads[0].ReassignedAway {
		t.Fatalf("former owner should see the lead as reassigned away, got %+v", holding.Leads)
	}

	current := BuildBoard(p, []Lead{lead}, s3, DefaultDeadlineSettings(), now, time.UTC)
	entry, _ := column(current, stEntry)
	if len(entry.Leads) != 1 || entry.Leads[0].ReassignedAway {
		t.Fatalf("new owner should see the lead under the entry column, got %+v", entry.Leads)
	}
}

func TestBuildBoardCountsAndFlags(t *testing.T) {
	p := testPipeline(t)
	sp := uuid.New()
	now := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	settings := DeadlineSettings{Minutes: 15, AutoReassignEnabled: true, ReassignmentMode: ModeRandom}

	waiting := newLead(sp, stEntry, now.Add(-5*time.Minute))
	working := newLead(sp, stFirst, now)
	won := newLead(sp, stTerminal, now)
	won.Outcome = OutcomeConverted
	lost := newLead(sp, stTerminal, now)
	lost.Outcome = OutcomeNotConverted
	stray := newLead(uuid.New(), stFirst, now)

	board := BuildBoard(p, []Lead{waiting, working, won, lost, stray}, sp, settings, now, time.UTC)

	if board.Converted != 1 || board.NotConverted != 1 {
		t.Errorf("converted=%d notConverted=%d", board.Converted, board.NotConverted)
	}
	if !board.HasLeadInProgress {
		t.Errorf("a lead in the first attempt stage means work in progress")
	}
	entry, _ := column(board, stEntry)
	if len(entry.Leads) != 1 || entry.Leads[0].DeadlineAt == nil {
		t.Fatalf("entry lead should carry its deadline, got %+v", entry.Leads)
	}
	if want := waiting.CreatedAt.Add(15 * time.Minute); !entry.Leads[0].DeadlineAt.Equal(want) {
		t.Errorf("deadline = %v, want %v", entry.Leads[0].DeadlineAt, want)
	}
	first, _ := column(board, stFirst)
	if len(first.Leads) != 1 {
		t.Errorf("leads of other salespeople must not show, got %d", len(first.Leads))
	}
}

func TestBuildBoardHidesEmptyDisabledStages(t *testing.T) {
	p := testPipeline(t)
	disabled, err := p.WithStageEnabled(stSecond, false)
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	sp := uuid.New()
	now := time.Now()

	board := BuildBoard(disabled, nil, sp, DefaultDeadlineSettings(), now, time.UTC)
	if _, ok := column(board, stSecond); ok {
		t.Fatalf("empty disabled stage should be hidden")
	}

	board = BuildBoard(disabled, []Lead{newLead(sp, stSecond, now)}, sp, DefaultDeadlineSettings(), now, time.UTC)
	if _, ok := column(board, stSecond); !ok {
		t.Fatalf("disabled stage holding leads should stay visible")
	}
}
