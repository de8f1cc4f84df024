package domain

import (
	"testing"

	"prospectai_backend/platform/apperr"
)

func TestNewPipelineResolvesLegacyRolesAndSorts(t *testing.T) {
	p := testPipeline(t)

	stages := p.Stages()
	if stages[0].ID != stEntry || stages[len(stages)-1].ID != stHolding {
		t.Fatalf("stages not sorted by order: first=%s last=%s", stages[0].ID, stages[len(stages)-1].ID)
	}

	wantRoles := map[string]StageRole{
		stEntry:    RoleEntry,
		stFirst:    RoleFirstAttempt,
		stSecond:   RoleStandard,
		stSchedule: RoleScheduling,
		stTerminal: RoleTerminal,
		stHolding:  RoleHolding,
	}
	for id, want := range wantRoles {
		s, _ := p.Stage(id)
		if s.Role != want {
			t.Errorf("stage %s role = %q, want %q", id, s.Role, want)
		}
	}
}

func TestNewPipelineRequiresCoreRoles(t *testing.T) {
	stages := legacyStages()[1:] // drop holding
	_, err := NewPipeline(testTenant, stages)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestNewPipelineRejectsAccentInsensitiveDuplicates(t *testing.T) {
	stages := append(legacyStages(), Stage{ID: "x", Name: "segunda tentatíva", Order: 4, IsEnabled: true})
	if _, err := NewPipeline(testTenant, stages); err == nil {
		t.Fatalf("expected duplicate name to be rejected")
	}
}

func TestFoldName(t *testing.T) {
	if FoldName("  NÃO   Convertido ") != FoldName("nao convertido") {
		t.Fatalf("fold should ignore accents, case and spacing")
	}
	if RoleForName("novos leads") != RoleEntry {
		t.Fatalf("legacy role lookup should be case-insensitive")
	}
}

func TestRenamedFixedRoleStaysPut(t *testing.T) {
	p := testPipeline(t)

	renamed, err := p.WithStageRenamed(stSchedule, "Visita Marcada")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	s, _ := renamed.Stage(stSchedule)
	if s.Role != RoleScheduling {
		t.Fatalf("renaming must not change the role, got %q", s.Role)
	}

	if _, err := p.WithStageRenamed(stTerminal, "Encerrados"); apperr.GetCode(err) != apperr.CodeConstraintViolation {
		t.Fatalf("expected fixed stage rename to fail, got %v", err)
	}
}

func TestReservedNamesStayWithTheirRole(t *testing.T) {
	p := testPipeline(t)

	renamed, err := p.WithStageRenamed(stSchedule, "Visita Marcada")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, _, err := renamed.WithStageAdded("st-new", "agendado"); apperr.GetCode(err) != apperr.CodeConstraintViolation {
		t.Fatalf("custom stage must not take the scheduling name, got %v", err)
	}
	if _, err := renamed.WithStageRenamed(stSecond, "Remanejados"); apperr.GetCode(err) != apperr.CodeConstraintViolation {
		t.Fatalf("custom stage must not take the holding name, got %v", err)
	}
	if _, err := renamed.WithStageRenamed(stSchedule, "Agendado"); err != nil {
		t.Fatalf("scheduling stage may take its own name back: %v", err)
	}
}

func TestWithStageAddedPlacesBeforeClosingBlock(t *testing.T) {
	p := testPipeline(t)

	next, stage, err := p.WithStageAdded("st-new", "Quarta Tentativa")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if stage.Order != 4 || stage.Role != RoleStandard || stage.IsFixed || !stage.IsEnabled {
		t.Fatalf("unexpected new stage %+v", stage)
	}
	if len(next.Stages()) != len(p.Stages())+1 {
		t.Fatalf("original pipeline must stay untouched")
	}
}

func TestWithStageRemoved(t *testing.T) {
	p := testPipeline(t)

	_, err := p.WithStageRemoved(stSecond, 3)
	if apperr.GetCode(err) != apperr.CodeConstraintViolation {
		t.Fatalf("expected constraint violation with leads present, got %v", err)
	}

	next, err := p.WithStageRemoved(stSecond, 0)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := next.Stage(stSecond); ok {
		t.Fatalf("stage still present after removal")
	}

	if _, err := p.WithStageRemoved(stEntry, 0); err == nil {
		t.Fatalf("fixed stage removal must fail")
	}
	if _, err := p.WithStageEnabled(stHolding, false); err == nil {
		t.Fatalf("fixed stage toggle must fail")
	}
}

func TestActionableStagesIsForwardOnly(t *testing.T) {
	p := testPipeline(t)
	disabled, err := p.WithStageEnabled(stSecond, false)
	if err != nil {
		t.Fatalf("disable: %v", err)
	}

	for _, pl := range []*Pipeline{p, disabled} {
		for _, current := range pl.Stages() {
			cur, _ := pl.EffectiveStage(current.ID)
			prev := -1
			for _, s := range pl.ActionableStages(current.ID) {
				if s.Order <= cur.Order {
					t.Errorf("from %s: stage %s has order %d <= %d", current.ID, s.ID, s.Order, cur.Order)
				}
				if s.Role == RoleHolding || !s.IsEnabled {
					t.Errorf("from %s: stage %s must not be actionable", current.ID, s.ID)
				}
				if s.Order < prev {
					t.Errorf("from %s: not sorted ascending", current.ID)
				}
				prev = s.Order
			}
		}
	}

	got := disabled.ActionableStages(stFirst)
	if len(got) != 2 || got[0].ID != stSchedule || got[1].ID != stTerminal {
		t.Fatalf("unexpected actionable stages %+v", got)
	}
}

func TestHoldingStageActsAsEntry(t *testing.T) {
	p := testPipeline(t)
	fromHolding := p.ActionableStages(stHolding)
	fromEntry := p.ActionableStages(stEntry)
	if len(fromHolding) != len(fromEntry) || fromHolding[0].ID != stFirst {
		t.Fatalf("holding stage should expose the entry stage's moves, got %+v", fromHolding)
	}
}
