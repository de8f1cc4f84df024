package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const memberColumns = `id, company_id, name, email, role, prospect_ai_settings`

// memberSettings is the layout of a member's prospect_ai_settings document.
// Only the initial-contact deadline is read here; other keys are left alone.
type memberSettings struct {
	Deadlines struct {
		InitialContact *domain.DeadlineSettings `json:"initial_contact"`
	} `json:"deadlines"`
}

// decodeDeadlineSettings reads deadlines.initial_contact, falling back to the
// defaults when the document is empty or unreadable.
func decodeDeadlineSettings(raw []byte) domain.DeadlineSettings {
	if len(raw) == 0 {
		return domain.DefaultDeadlineSettings()
	}
	var doc memberSettings
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Deadlines.InitialContact == nil {
		return domain.DefaultDeadlineSettings()
	}
	return doc.Deadlines.InitialContact.WithDefaults()
}

func scanMember(row pgx.Row) (domain.Member, error) {
	var m domain.Member
	var raw []byte
	if err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.Email, &m.Role, &raw); err != nil {
		return domain.Member{}, err
	}
	m.Deadlines = decodeDeadlineSettings(raw)
	return m, nil
}

// GetMember returns one member of the company.
func (r *Repository) GetMember(ctx context.Context, tenantID, memberID uuid.UUID) (domain.Member, error) {
	m, err := scanMember(r.pool.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM team_members
		WHERE id = $1 AND company_id = $2
	`, memberID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, apperr.NotFound(memberNotFoundMsg)
		}
		return domain.Member{}, fmt.Errorf("failed to get team member: %w", err)
	}
	return m, nil
}

// ListSalespeople returns the members of the company that can own leads.
func (r *Repository) ListSalespeople(ctx context.Context, tenantID uuid.UUID) ([]domain.Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM team_members
		WHERE company_id = $1 AND role = $2
		ORDER BY name ASC
	`, tenantID, domain.MemberRoleSalesperson)
	if err != nil {
		return nil, fmt.Errorf("failed to list salespeople: %w", err)
	}
	defer rows.Close()

	members := make([]domain.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return members, nil
}

// SaveDeadlineSettings stores the deadline policy of a member under
// deadlines.initial_contact, keeping sibling keys of the document.
func (r *Repository) SaveDeadlineSettings(ctx context.Context, tenantID, memberID uuid.UUID, settings domain.DeadlineSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode deadline settings: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE team_members
		SET prospect_ai_settings = COALESCE(prospect_ai_settings, '{}'::jsonb) || jsonb_build_object(
			'deadlines',
			COALESCE(prospect_ai_settings->'deadlines', '{}'::jsonb) || jsonb_build_object('initial_contact', $3::jsonb)
		)
		WHERE id = $1 AND company_id = $2
	`, memberID, tenantID, raw)
	if err != nil {
		return apperr.Persistence("save deadline settings", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(memberNotFoundMsg)
	}
	return nil
}
