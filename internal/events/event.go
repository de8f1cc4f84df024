// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"prospectai_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Reassignment triggers.
const (
	TriggerAuto   = "auto"
	TriggerManual = "manual"
)

// Pipeline configuration actions.
const (
	StageAdded    = "added"
	StageRenamed  = "renamed"
	StageEnabled  = "enabled"
	StageDisabled = "disabled"
	StageDeleted  = "deleted"
)

// =============================================================================
// Prospecting Lead Events
// =============================================================================

// LeadCreated is published when a lead enters the funnel.
type LeadCreated struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	TenantID      uuid.UUID `json:"tenantId"`
	SalespersonID uuid.UUID `json:"salespersonId"`
	CreatedByID   uuid.UUID `json:"createdById"`
	LeadName      string    `json:"leadName"`
}

func (e LeadCreated) EventName() string { return "prospect.lead.created" }

// LeadStageChanged is published after a lead moved to another stage.
type LeadStageChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	TenantID  uuid.UUID `json:"tenantId"`
	ActorID   uuid.UUID `json:"actorId"`
	LeadName  string    `json:"leadName"`
	FromStage string    `json:"fromStage"`
	ToStage   string    `json:"toStage"`
	StageRole string    `json:"stageRole"`
	Outcome   string    `json:"outcome,omitempty"`
}

func (e LeadStageChanged) EventName() string { return "prospect.lead.stage_changed" }

// LeadFeedbackAdded is published when a salesperson records feedback.
type LeadFeedbackAdded struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	TenantID   uuid.UUID `json:"tenantId"`
	ActorID    uuid.UUID `json:"actorId"`
	LeadName   string    `json:"leadName"`
	ImageCount int       `json:"imageCount"`
}

func (e LeadFeedbackAdded) EventName() string { return "prospect.lead.feedback_added" }

// LeadReassigned is published when ownership of a lead changes, either by a
// manager or by the overdue sweep.
type LeadReassigned struct {
	BaseEvent
	LeadID       uuid.UUID  `json:"leadId"`
	TenantID     uuid.UUID  `json:"tenantId"`
	LeadName     string     `json:"leadName"`
	FromOwnerID  uuid.UUID  `json:"fromOwnerId"`
	ToOwnerID    uuid.UUID  `json:"toOwnerId"`
	ActorID      *uuid.UUID `json:"actorId,omitempty"`
	Trigger      string     `json:"trigger"`
	Mode         string     `json:"mode,omitempty"`
	StageChanged bool       `json:"stageChanged"`
}

func (e LeadReassigned) EventName() string { return "prospect.lead.reassigned" }

// =============================================================================
// Pipeline Configuration Events
// =============================================================================

// PipelineStageChanged is published when a company edits its funnel.
type PipelineStageChanged struct {
	BaseEvent
	TenantID  uuid.UUID `json:"tenantId"`
	ActorID   uuid.UUID `json:"actorId"`
	StageID   string    `json:"stageId"`
	StageName string    `json:"stageName"`
	Action    string    `json:"action"`
}

func (e PipelineStageChanged) EventName() string { return "prospect.pipeline.stage_changed" }

// DeadlineSettingsUpdated is published when a manager edits a salesperson's deadline policy.
type DeadlineSettingsUpdated struct {
	BaseEvent
	TenantID            uuid.UUID `json:"tenantId"`
	ActorID             uuid.UUID `json:"actorId"`
	MemberID            uuid.UUID `json:"memberId"`
	Minutes             int       `json:"minutes"`
	AutoReassignEnabled bool      `json:"autoReassignEnabled"`
}

func (e DeadlineSettingsUpdated) EventName() string { return "prospect.deadlines.updated" }
