package domain

import (
	"encoding/json"
	"slices"

	"github.com/google/uuid"
)

// MonthlyLeadsKPI controls who sees the "leads received this month" card.
type MonthlyLeadsKPI struct {
	Enabled      bool
	VisibleToAll bool
	VisibleTo    []uuid.UUID
}

type monthlyLeadsKPIJSON struct {
	Enabled   bool            `json:"enabled"`
	VisibleTo json.RawMessage `json:"visible_to"`
}

// MarshalJSON stores visible_to as "all" or a list of member ids.
func (k MonthlyLeadsKPI) MarshalJSON() ([]byte, error) {
	var visible any = k.VisibleTo
	if k.VisibleToAll {
		visible = "all"
	} else if k.VisibleTo == nil {
		visible = []uuid.UUID{}
	}
	raw, err := json.Marshal(visible)
	if err != nil {
		return nil, err
	}
	return json.Marshal(monthlyLeadsKPIJSON{Enabled: k.Enabled, VisibleTo: raw})
}

// UnmarshalJSON accepts both shapes of visible_to.
func (k *MonthlyLeadsKPI) UnmarshalJSON(data []byte) error {
	var raw monthlyLeadsKPIJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k.Enabled = raw.Enabled
	k.VisibleToAll = false
	k.VisibleTo = nil

	if len(raw.VisibleTo) == 0 || string(raw.VisibleTo) == "null" {
		return nil
	}
	var all string
	if err := json.Unmarshal(raw.VisibleTo, &all); err == nil {
		k.VisibleToAll = all == "all"
		return nil
	}
	return json.Unmarshal(raw.VisibleTo, &k.VisibleTo)
}

// VisibleFor reports whether member may see the card.
func (k MonthlyLeadsKPI) VisibleFor(member uuid.UUID, isManager bool) bool {
	if !k.Enabled {
		return false
	}
	return isManager || k.VisibleToAll || slices.Contains(k.VisibleTo, member)
}

// CompanySettings are the prospecting settings stored on a company.
type CompanySettings struct {
	ShowMonthlyLeadsKPI MonthlyLeadsKPI `json:"show_monthly_leads_kpi"`
}
