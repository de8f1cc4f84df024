package transport

import (
	"time"

	"github.com/google/uuid"
)

// ListActivityRequest holds the query parameters of the activity log.
type ListActivityRequest struct {
	Type     string     `form:"type" validate:"omitempty,oneof=lead_created stage_changed feedback_added lead_reassigned lead_auto_reassigned pipeline_changed deadline_settings_updated"`
	LeadID   string     `form:"leadId" validate:"omitempty,uuid"`
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page     int        `form:"page" validate:"omitempty,min=1"`
	PageSize int        `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ActivityResponse is one activity log entry.
type ActivityResponse struct {
	ID          uuid.UUID  `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	UserID      *uuid.UUID `json:"userId,omitempty"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
}

// ActivityListResponse wraps a page of activity entries.
type ActivityListResponse struct {
	Items    []ActivityResponse `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}
