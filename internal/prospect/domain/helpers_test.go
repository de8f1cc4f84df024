package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

const (
	stEntry    = "st-novos"
	stFirst    = "st-primeira"
	stSecond   = "st-segunda"
	stSchedule = "st-agendado"
	stTerminal = "st-finalizados"
	stHolding  = "st-remanejados"
)

var testTenant = uuid.MustParse("7b0f3c1e-5a2d-4c8e-9f10-2b3c4d5e6f70")

// legacyStages have no role set, like rows written before roles existed.
func legacyStages() []Stage {
	return []Stage{
		{ID: stHolding, Name: "Remanejados", Order: 100, IsFixed: true, IsEnabled: true},
		{ID: stEntry, Name: "Novos Leads", Order: 0, IsFixed: true, IsEnabled: true},
		{ID: stFirst, Name: "Primeira Tentativa", Order: 1, IsFixed: true, IsEnabled: true},
		{ID: stSecond, Name: "Segunda Tentativa", Order: 2, IsEnabled: true},
		{ID: stSchedule, Name: "Agendado", Order: 3, IsEnabled: true},
		{ID: stTerminal, Name: "Finalizados", Order: 99, IsFixed: true, IsEnabled: true},
	}
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(testTenant, legacyStages())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func newLead(owner uuid.UUID, stageID string, createdAt time.Time) Lead {
	return Lead{
		ID:            uuid.New(),
		TenantID:      testTenant,
		SalespersonID: owner,
		CreatedAt:     createdAt,
		Name:          "Maria Souza",
		StageID:       stageID,
	}
}

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func ptrTime(t time.Time) *time.Time { return &t }
