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

// GetPipelineStages returns the stored stages of a company, unsorted and
// possibly without roles, along with their version.
func (r *Repository) GetPipelineStages(ctx context.Context, tenantID uuid.UUID) (StoredPipeline, error) {
	var (
		raw     []byte
		version int64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT pipeline_stages, pipeline_version FROM companies WHERE id = $1
	`, tenantID).Scan(&raw, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredPipeline{}, apperr.NotFound(companyNotFoundMsg)
		}
		return StoredPipeline{}, fmt.Errorf("failed to get pipeline stages: %w", err)
	}

	stages := make([]domain.Stage, 0)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &stages); err != nil {
			return StoredPipeline{}, fmt.Errorf("failed to decode pipeline stages: %w", err)
		}
	}
	return StoredPipeline{Stages: stages, Version: version}, nil
}

// SavePipelineStages replaces the stage configuration of a company if it is
// still at version. It returns false when another writer got there first.
func (r *Repository) SavePipelineStages(ctx context.Context, tenantID uuid.UUID, version int64, stages []domain.Stage) (bool, error) {
	raw, err := json.Marshal(stages)
	if err != nil {
		return false, fmt.Errorf("failed to encode pipeline stages: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE companies
		SET pipeline_stages = $2, pipeline_version = pipeline_version + 1
		WHERE id = $1 AND pipeline_version = $3
	`, tenantID, raw, version)
	if err != nil {
		return false, apperr.Persistence("save pipeline stages", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountLeadsInStage returns how many leads of the company sit in stageID.
func (r *Repository) CountLeadsInStage(ctx context.Context, tenantID uuid.UUID, stageID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM prospectai WHERE company_id = $1 AND stage_id = $2
	`, tenantID, stageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads in stage: %w", err)
	}
	return count, nil
}

// GetCompanySettings returns the prospecting settings stored on a company.
func (r *Repository) GetCompanySettings(ctx context.Context, tenantID uuid.UUID) (domain.CompanySettings, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT prospect_ai_settings FROM companies WHERE id = $1`, tenantID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CompanySettings{}, apperr.NotFound(companyNotFoundMsg)
		}
		return domain.CompanySettings{}, fmt.Errorf("failed to get company settings: %w", err)
	}

	var settings domain.CompanySettings
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return domain.CompanySettings{}, fmt.Errorf("failed to decode company settings: %w", err)
		}
	}
	return settings, nil
}

// SaveCompanySettings merges settings into the company's settings document so
// keys owned by other features survive.
func (r *Repository) SaveCompanySettings(ctx context.Context, tenantID uuid.UUID, settings domain.CompanySettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode company settings: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE companies
		SET prospect_ai_settings = COALESCE(prospect_ai_settings, '{}'::jsonb) || $2::jsonb
		WHERE id = $1
	`, tenantID, raw)
	if err != nil {
		return apperr.Persistence("save company settings", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(companyNotFoundMsg)
	}
	return nil
}

// ListTenantIDs returns every company id.
func (r *Repository) ListTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM companies ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}
