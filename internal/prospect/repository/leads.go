package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leadColumns = `id, company_id, salesperson_id, created_at, lead_name, lead_phone, interest_vehicle,
	stage_id, outcome, raw_lead_data, details, appointment_at, feedback, prospected_at, last_feedback_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		l                         domain.Lead
		phone, vehicle, outcome   *string
		rawData, details, feedRaw []byte
	)
	err := row.Scan(
		&l.ID, &l.TenantID, &l.SalespersonID, &l.CreatedAt, &l.Name, &phone, &vehicle,
		&l.StageID, &outcome, &rawData, &details, &l.AppointmentAt, &feedRaw, &l.ProspectedAt, &l.LastFeedbackAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	if phone != nil {
		l.Phone = *phone
	}
	if vehicle != nil {
		l.InterestVehicle = *vehicle
	}
	if outcome != nil {
		l.Outcome = domain.Outcome(*outcome)
	}
	l.RawData = decodeMap(rawData)
	l.Details = decodeMap(details)

	l.Feedback = make([]domain.Feedback, 0)
	if len(feedRaw) > 0 {
		if err := json.Unmarshal(feedRaw, &l.Feedback); err != nil {
			return domain.Lead{}, fmt.Errorf("failed to decode feedback of lead %s: %w", l.ID, err)
		}
	}
	return l, nil
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateLead inserts a new lead.
func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	rawData, err := nullableJSON(params.RawData)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to encode raw lead data: %w", err)
	}
	details, err := nullableJSON(params.Details)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to encode lead details: %w", err)
	}

	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO prospectai (company_id, salesperson_id, lead_name, lead_phone, interest_vehicle, stage_id, raw_lead_data, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+leadColumns,
		params.TenantID, params.SalespersonID, params.Name, nullableText(params.Phone),
		nullableText(params.InterestVehicle), params.StageID, rawData, details,
	))
	if err != nil {
		return domain.Lead{}, apperr.Persistence("create lead", err)
	}
	return lead, nil
}

// GetLead returns one lead of the company.
func (r *Repository) GetLead(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM prospectai
		WHERE id = $1 AND company_id = $2
	`, leadID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
		}
		return domain.Lead{}, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// ListLeads returns the company's leads matching filter, newest first.
func (r *Repository) ListLeads(ctx context.Context, tenantID uuid.UUID, filter LeadFilter) ([]domain.Lead, error) {
	conditions := []string{"company_id = $1"}
	args := []any{tenantID}

	if filter.VisibleTo != nil {
		args = append(args, *filter.VisibleTo, filter.VisibleTo.String())
		conditions = append(conditions, fmt.Sprintf("(salesperson_id = $%d OR details->>'reassigned_from' = $%d)", len(args)-1, len(args)))
	}
	if filter.OwnedBy != nil {
		args = append(args, *filter.OwnedBy)
		conditions = append(conditions, fmt.Sprintf("salesperson_id = $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedUntil != nil {
		args = append(args, *filter.CreatedUntil)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := `SELECT ` + leadColumns + ` FROM prospectai WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return collectLeads(rows)
}

// CountLeadsCreatedSince counts leads created at or after since, optionally
// restricted to one owner.
func (r *Repository) CountLeadsCreatedSince(ctx context.Context, tenantID uuid.UUID, salespersonID *uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM prospectai
		WHERE company_id = $1 AND created_at >= $2 AND ($3::uuid IS NULL OR salesperson_id = $3)
	`, tenantID, since, salespersonID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

// ApplyUpdate writes every field of update in one statement.
func (r *Repository) ApplyUpdate(ctx context.Context, tenantID, leadID uuid.UUID, update domain.LeadUpdate) (domain.Lead, error) {
	details, err := nullableJSON(update.Details)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to encode lead details: %w", err)
	}

	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE prospectai SET
			salesperson_id = $3,
			stage_id = $4,
			outcome = $5,
			appointment_at = $6,
			prospected_at = $7,
			details = $8
		WHERE id = $1 AND company_id = $2
		RETURNING `+leadColumns,
		leadID, tenantID, update.SalespersonID, update.StageID, nullableText(string(update.Outcome)),
		update.AppointmentAt, update.ProspectedAt, details,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
		}
		return domain.Lead{}, apperr.Persistence("update lead", err)
	}
	return lead, nil
}

// AppendFeedback appends one entry to the lead's feedback list and stamps
// last_feedback_at in a single statement, so concurrent submissions never
// drop each other's entries.
func (r *Repository) AppendFeedback(ctx context.Context, tenantID, leadID uuid.UUID, feedback domain.Feedback) (domain.Lead, error) {
	if feedback.Images == nil {
		feedback.Images = []string{}
	}
	entry, err := json.Marshal(feedback)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("failed to encode feedback: %w", err)
	}

	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE prospectai SET
			feedback = COALESCE(feedback, '[]'::jsonb) || jsonb_build_array($3::jsonb),
			last_feedback_at = $4
		WHERE id = $1 AND company_id = $2
		RETURNING `+leadColumns,
		leadID, tenantID, entry, feedback.CreatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
		}
		return domain.Lead{}, apperr.Persistence("append feedback", err)
	}
	return lead, nil
}

// ListOverdueLeads returns entry-stage leads of one owner created before the cutoff.
func (r *Repository) ListOverdueLeads(ctx context.Context, tenantID, salespersonID uuid.UUID, entryStageID string, createdBefore time.Time) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM prospectai
		WHERE company_id = $1 AND salesperson_id = $2 AND stage_id = $3 AND created_at < $4
		ORDER BY created_at ASC
	`, tenantID, salespersonID, entryStageID, createdBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue leads: %w", err)
	}
	return collectLeads(rows)
}

// ReassignIfUnchanged applies an automatic reassignment only while the lead
// still has the owner and stage it was selected with. It reports whether the
// row was updated.
func (r *Repository) ReassignIfUnchanged(ctx context.Context, lead domain.Lead, update domain.LeadUpdate) (bool, error) {
	details, err := nullableJSON(update.Details)
	if err != nil {
		return false, fmt.Errorf("failed to encode lead details: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE prospectai SET salesperson_id = $3, details = $4
		WHERE id = $1 AND company_id = $2 AND salesperson_id = $5 AND stage_id = $6
	`, lead.ID, lead.TenantID, update.SalespersonID, details, lead.SalespersonID, lead.StageID)
	if err != nil {
		return false, apperr.Persistence("reassign lead", err)
	}
	return tag.RowsAffected() == 1, nil
}
