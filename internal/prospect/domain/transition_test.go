package domain

import (
	"testing"
	"time"

	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestPlanTransitionFirstContactThenFinalize(t *testing.T) {
	p := testPipeline(t)
	owner := uuid.New()
	t0 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	lead := newLead(owner, stEntry, t0.Add(-time.Hour))

	update, stage, err := PlanTransition(p, lead, TransitionInput{TargetStageID: stFirst}, t0)
	if err != nil {
		t.Fatalf("move to first attempt: %v", err)
	}
	if stage.Role != RoleFirstAttempt {
		t.Fatalf("unexpected target %+v", stage)
	}
	if update.ProspectedAt == nil || !update.ProspectedAt.Equal(t0) {
		t.Fatalf("prospected_at = %v, want %v", update.ProspectedAt, t0)
	}
	lead = update.Apply(lead)

	t1 := t0.Add(2 * time.Hour)
	update, _, err = PlanTransition(p, lead, TransitionInput{TargetStageID: stTerminal, Outcome: OutcomeConverted}, t1)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	lead = update.Apply(lead)

	if lead.Outcome != OutcomeConverted {
		t.Fatalf("outcome = %q, want convertido", lead.Outcome)
	}
	if !lead.ProspectedAt.Equal(t0) {
		t.Fatalf("prospected_at must keep the first contact time, got %v", lead.ProspectedAt)
	}
}

func TestPlanTransitionProspectedAtIsSetOnce(t *testing.T) {
	p := testPipeline(t)
	first := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	lead := newLead(uuid.New(), stEntry, first.Add(-time.Minute))

	update, _, err := PlanTransition(p, lead, TransitionInput{TargetStageID: stFirst}, first)
	if err != nil {
		t.Fatalf("first move: %v", err)
	}
	lead = update.Apply(lead)

	// Managers can force a lead back; a second visit keeps the original stamp.
	update, _, err = PlanTransition(p, lead, TransitionInput{TargetStageID: stEntry, Force: true}, first.Add(time.Hour))
	if err != nil {
		t.Fatalf("forced move back: %v", err)
	}
	lead = update.Apply(lead)
	update, _, err = PlanTransition(p, lead, TransitionInput{TargetStageID: stFirst}, first.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second visit: %v", err)
	}
	if !update.ProspectedAt.Equal(first) {
		t.Fatalf("prospected_at changed to %v", update.ProspectedAt)
	}
}

func TestPlanTransitionSchedulingAppointment(t *testing.T) {
	p := testPipeline(t)
	now := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	visit := now.Add(48 * time.Hour)
	lead := newLead(uuid.New(), stFirst, now.Add(-time.Hour))

	update, _, err := PlanTransition(p, lead, TransitionInput{TargetStageID: stSchedule, AppointmentDate: &visit}, now)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if update.AppointmentAt == nil || !update.AppointmentAt.Equal(visit) {
		t.Fatalf("appointment_at = %v, want %v", update.AppointmentAt, visit)
	}
	lead = update.Apply(lead)

	update, _, err = PlanTransition(p, lead, TransitionInput{TargetStageID: stTerminal, Outcome: OutcomeNotConverted}, now)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if update.AppointmentAt != nil {
		t.Fatalf("leaving the scheduling stage must clear the appointment")
	}
	if update.Outcome != OutcomeNotConverted {
		t.Fatalf("outcome = %q", update.Outcome)
	}
}

func TestPlanTransitionUsesStagedAppointmentDate(t *testing.T) {
	p := testPipeline(t)
	now := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	staged := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	lead := newLead(uuid.New(), stSecond, now.Add(-time.Hour))
	lead.Details = map[string]any{DetailAppointmentDate: staged.Format(time.RFC3339), "source": "site"}

	update, _, err := PlanTransition(p, lead, TransitionInput{TargetStageID: stSchedule}, now)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if update.AppointmentAt == nil || !update.AppointmentAt.Equal(staged) {
		t.Fatalf("appointment_at = %v, want %v", update.AppointmentAt, staged)
	}
	if _, ok := update.Details[DetailAppointmentDate]; ok {
		t.Fatalf("staged appointment_date must be consumed")
	}
	if update.Details["source"] != "site" {
		t.Fatalf("unrelated details must be kept")
	}
}

func TestPlanTransitionOutcomeOnlyInTerminal(t *testing.T) {
	p := testPipeline(t)
	lead := newLead(uuid.New(), stFirst, time.Now())

	update, _, err := PlanTransition(p, lead, TransitionInput{TargetStageID: stSecond, Outcome: OutcomeConverted}, time.Now())
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if update.Outcome != OutcomeNone {
		t.Fatalf("outcome must be empty outside the terminal stage, got %q", update.Outcome)
	}

	if _, _, err := PlanTransition(p, lead, TransitionInput{TargetStageID: stTerminal, Outcome: "talvez"}, time.Now()); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown outcome, got %v", err)
	}
}

func TestPlanTransitionLeavingTerminalClearsOutcome(t *testing.T) {
	p := testPipeline(t)
	lead := newLead(uuid.New(), stTerminal, time.Now())
	lead.Outcome = OutcomeConverted

	update, _, err := PlanTransition(p, lead, TransitionInput{TargetStageID: stSecond, Force: true}, time.Now())
	if err != nil {
		t.Fatalf("forced move: %v", err)
	}
	if update.Outcome != OutcomeNone {
		t.Fatalf("outcome = %q, want empty", update.Outcome)
	}

	same, _, err := PlanTransition(p, lead, TransitionInput{TargetStageID: stTerminal}, time.Now())
	if err != nil {
		t.Fatalf("same-stage move: %v", err)
	}
	if same.Outcome != OutcomeConverted {
		t.Fatalf("terminal to terminal without outcome must keep it, got %q", same.Outcome)
	}
}

func TestPlanTransitionRejectsInvalidTargets(t *testing.T) {
	p := testPipeline(t)
	lead := newLead(uuid.New(), stSecond, time.Now())

	cases := []struct {
		name string
		lead Lead
		in   TransitionInput
	}{
		{"unknown stage", lead, TransitionInput{TargetStageID: "nope"}},
		{"backwards", lead, TransitionInput{TargetStageID: stFirst}},
		{"holding stage", lead, TransitionInput{TargetStageID: stHolding}},
		{"other tenant", func() Lead { l := lead; l.TenantID = uuid.New(); return l }(), TransitionInput{TargetStageID: stTerminal}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := PlanTransition(p, tc.lead, tc.in, time.Now())
			if apperr.GetCode(err) != apperr.CodeInvalidStage {
				t.Fatalf("expected invalid_stage, got %v", err)
			}
		})
	}
}

func TestPlanTransitionDoesNotMutateLead(t *testing.T) {
	p := testPipeline(t)
	lead := newLead(uuid.New(), stEntry, time.Now())
	lead.Details = map[string]any{DetailAppointmentDate: "2024-01-01T10:00:00Z"}

	if _, _, err := PlanTransition(p, lead, TransitionInput{TargetStageID: stFirst}, time.Now()); err != nil {
		t.Fatalf("move: %v", err)
	}
	if lead.StageID != stEntry || lead.ProspectedAt != nil {
		t.Fatalf("input lead was mutated: %+v", lead)
	}
	if _, ok := lead.Details[DetailAppointmentDate]; !ok {
		t.Fatalf("input details were mutated")
	}
}

// Every reachable state keeps outcome and appointment exclusive to their
// stages, whatever path the lead takes.
func TestTransitionsKeepFieldExclusivity(t *testing.T) {
	p := testPipeline(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	visit := now.Add(24 * time.Hour)

	targets := []string{stEntry, stFirst, stSecond, stSchedule, stTerminal}
	for _, a := range targets {
		for _, b := range targets {
			lead := newLead(uuid.New(), stEntry, now.Add(-time.Hour))
			for _, target := range []string{a, b} {
				in := TransitionInput{TargetStageID: target, Outcome: OutcomeConverted, AppointmentDate: &visit, Force: true}
				update, stage, err := PlanTransition(p, lead, in, now)
				if err != nil {
					t.Fatalf("%s -> %s: %v", lead.StageID, target, err)
				}
				lead = update.Apply(lead)

				if lead.Outcome != OutcomeNone && stage.Role != RoleTerminal {
					t.Fatalf("outcome %q set in %s", lead.Outcome, stage.Name)
				}
				if lead.AppointmentAt != nil && stage.Role != RoleScheduling {
					t.Fatalf("appointment set in %s", stage.Name)
				}
			}
		}
	}
}
