package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestMonthlyLeadsKPIJSON(t *testing.T) {
	member := uuid.New()

	var all CompanySettings
	if err := json.Unmarshal([]byte(`{"show_monthly_leads_kpi":{"enabled":true,"visible_to":"all"}}`), &all); err != nil {
		t.Fatalf("unmarshal all: %v", err)
	}
	if !all.ShowMonthlyLeadsKPI.VisibleToAll || !all.ShowMonthlyLeadsKPI.VisibleFor(member, false) {
		t.Fatalf("visible_to=all should show the card to everyone")
	}

	raw := `{"show_monthly_leads_kpi":{"enabled":true,"visible_to":["` + member.String() + `"]}}`
	var some CompanySettings
	if err := json.Unmarshal([]byte(raw), &some); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if !some.ShowMonthlyLeadsKPI.VisibleFor(member, false) {
		t.Fatalf("listed member should see the card")
	}
	if some.ShowMonthlyLeadsKPI.VisibleFor(uuid.New(), false) {
		t.Fatalf("unlisted member should not see the card")
	}

	out, err := json.Marshal(MonthlyLeadsKPI{Enabled: true, VisibleToAll: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"enabled":true,"visible_to":"all"}` {
		t.Fatalf("unexpected json %s", out)
	}
}

func TestMonthlyLeadsKPIDisabled(t *testing.T) {
	k := MonthlyLeadsKPI{Enabled: false, VisibleToAll: true}
	if k.VisibleFor(uuid.New(), true) {
		t.Fatalf("disabled card is hidden even from managers")
	}
}
