package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Activity types recorded for the prospecting funnel.
const (
	TypeLeadCreated        = "lead_created"
	TypeStageChanged       = "stage_changed"
	TypeFeedbackAdded      = "feedback_added"
	TypeLeadReassigned     = "lead_reassigned"
	TypeLeadAutoReassigned = "lead_auto_reassigned"
	TypePipelineChanged    = "pipeline_changed"
	TypeDeadlinesUpdated   = "deadline_settings_updated"
)

// Entry is one row of the activity log.
type Entry struct {
	ID          uuid.UUID
	Timestamp   time.Time
	Type        string
	Description string
	TenantID    uuid.UUID
	UserID      *uuid.UUID
	LeadID      *uuid.UUID
}

// ListParams filters and pages the activity log of a company.
type ListParams struct {
	TenantID uuid.UUID
	Type     string
	LeadID   *uuid.UUID
	From     *time.Time
	To       *time.Time
	Offset   int
	Limit    int
}

type Writer interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
}

type Reader interface {
	List(ctx context.Context, params ListParams) ([]Entry, int, error)
}

// Repository combines all activity log operations.
type Repository interface {
	Writer
	Reader
}
