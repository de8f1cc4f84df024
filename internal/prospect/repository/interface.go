package repository

import (
	"context"
	"time"

	"prospectai_backend/internal/prospect/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces
// =====================================

// StoredPipeline is the stage configuration of a company together with the
// version it was read at.
type StoredPipeline struct {
	Stages  []domain.Stage
	Version int64
}

// PipelineStore reads and writes the stage configuration of a company.
// SavePipelineStages only writes when the stored version still equals
// version and reports false otherwise.
type PipelineStore interface {
	GetPipelineStages(ctx context.Context, tenantID uuid.UUID) (StoredPipeline, error)
	SavePipelineStages(ctx context.Context, tenantID uuid.UUID, version int64, stages []domain.Stage) (bool, error)
	CountLeadsInStage(ctx context.Context, tenantID uuid.UUID, stageID string) (int, error)
}

// CompanySettingsStore reads and writes company-wide prospecting settings.
type CompanySettingsStore interface {
	GetCompanySettings(ctx context.Context, tenantID uuid.UUID) (domain.CompanySettings, error)
	SaveCompanySettings(ctx context.Context, tenantID uuid.UUID, settings domain.CompanySettings) error
}

// MemberReader provides read access to team members.
type MemberReader interface {
	GetMember(ctx context.Context, tenantID, memberID uuid.UUID) (domain.Member, error)
	ListSalespeople(ctx context.Context, tenantID uuid.UUID) ([]domain.Member, error)
}

// DeadlineWriter stores the initial-contact policy of a salesperson.
type DeadlineWriter interface {
	SaveDeadlineSettings(ctx context.Context, tenantID, memberID uuid.UUID, settings domain.DeadlineSettings) error
}

// LeadReader provides read-only access to leads.
type LeadReader interface {
	GetLead(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error)
	ListLeads(ctx context.Context, tenantID uuid.UUID, filter LeadFilter) ([]domain.Lead, error)
	CountLeadsCreatedSince(ctx context.Context, tenantID uuid.UUID, salespersonID *uuid.UUID, since time.Time) (int, error)
}

// LeadWriter provides write operations on leads.
type LeadWriter interface {
	CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error)
	ApplyUpdate(ctx context.Context, tenantID, leadID uuid.UUID, update domain.LeadUpdate) (domain.Lead, error)
	AppendFeedback(ctx context.Context, tenantID, leadID uuid.UUID, feedback domain.Feedback) (domain.Lead, error)
}

// SweepStore provides what the overdue lead sweep needs across companies.
type SweepStore interface {
	ListTenantIDs(ctx context.Context) ([]uuid.UUID, error)
	ListOverdueLeads(ctx context.Context, tenantID, salespersonID uuid.UUID, entryStageID string, createdBefore time.Time) ([]domain.Lead, error)
	ReassignIfUnchanged(ctx context.Context, lead domain.Lead, update domain.LeadUpdate) (bool, error)
}

// LeadFilter narrows ListLeads. A nil VisibleTo lists every lead of the company.
type LeadFilter struct {
	// VisibleTo selects leads owned by the member or reassigned away from them.
	VisibleTo *uuid.UUID
	// OwnedBy selects leads currently owned by the member.
	OwnedBy      *uuid.UUID
	CreatedFrom  *time.Time
	CreatedUntil *time.Time
}

// CreateLeadParams holds the fields of a new lead.
type CreateLeadParams struct {
	TenantID        uuid.UUID
	SalespersonID   uuid.UUID
	Name            string
	Phone           string
	InterestVehicle string
	StageID         string
	RawData         map[string]any
	Details         map[string]any
}
