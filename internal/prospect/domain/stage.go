package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StageRole tells the engine how a stage behaves. Every rule of the state
// machine dispatches on the role, never on the display name.
type StageRole string

const (
	RoleEntry        StageRole = "entry"
	RoleStandard     StageRole = "standard"
	RoleFirstAttempt StageRole = "first_attempt"
	RoleScheduling   StageRole = "scheduling"
	RoleTerminal     StageRole = "terminal"
	RoleHolding      StageRole = "holding"
)

// Canonical names of the stages seeded for every company. They are only
// consulted when a stored stage carries no role yet.
const (
	StageNameEntry        = "Novos Leads"
	StageNameFirstAttempt = "Primeira Tentativa"
	StageNameScheduling   = "Agendado"
	StageNameTerminal     = "Finalizados"
	StageNameHolding      = "Remanejados"
)

// ReservedOrder is the first order index of the closing block. Stages added
// by a company are always placed below it.
const ReservedOrder = 99

// Stage is one step of a company's funnel.
type Stage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Order     int       `json:"stageOrder"`
	IsFixed   bool      `json:"isFixed"`
	IsEnabled bool      `json:"isEnabled"`
	Role      StageRole `json:"role,omitempty"`
}

// IsValid reports whether r is a known role.
func (r StageRole) IsValid() bool {
	switch r {
	case RoleEntry, RoleStandard, RoleFirstAttempt, RoleScheduling, RoleTerminal, RoleHolding:
		return true
	}
	return false
}

// IsWork reports whether leads in a stage of this role are being worked by
// the salesperson, i.e. neither waiting, finished nor parked.
func (r StageRole) IsWork() bool {
	return r == RoleStandard || r == RoleFirstAttempt || r == RoleScheduling
}

var legacyRoles = map[string]StageRole{
	FoldName(StageNameEntry):        RoleEntry,
	FoldName(StageNameFirstAttempt): RoleFirstAttempt,
	FoldName(StageNameScheduling):   RoleScheduling,
	FoldName(StageNameTerminal):     RoleTerminal,
	FoldName(StageNameHolding):      RoleHolding,
}

// RoleForName resolves the role of a stage stored before roles existed.
func RoleForName(name string) StageRole {
	if role, ok := legacyRoles[FoldName(name)]; ok {
		return role
	}
	return RoleStandard
}

// FoldName returns the comparison key of a stage name: accents stripped,
// case folded and surrounding space trimmed.
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	folded, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return strings.Join(strings.Fields(folded), " ")
}
