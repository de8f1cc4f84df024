// Package repository persists companies, team members and prospecting leads
// in PostgreSQL.
package repository

import (
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	leadNotFoundMsg    = "lead not found"
	memberNotFoundMsg  = "team member not found"
	companyNotFoundMsg = "company not found"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Compile-time checks that Repository satisfies every consumer interface.
var (
	_ PipelineStore        = (*Repository)(nil)
	_ CompanySettingsStore = (*Repository)(nil)
	_ MemberReader         = (*Repository)(nil)
	_ DeadlineWriter       = (*Repository)(nil)
	_ LeadReader           = (*Repository)(nil)
	_ LeadWriter           = (*Repository)(nil)
	_ SweepStore           = (*Repository)(nil)
)

// nullableJSON encodes maps for jsonb columns, storing empty maps as NULL.
func nullableJSON(v map[string]any) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}

func decodeMap(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
