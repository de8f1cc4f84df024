package transport

import (
	"time"

	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/performance"

	"github.com/google/uuid"
)

// =============================================================================
// Pipeline
// =============================================================================

// AddStageRequest contains the name of a new funnel stage.
type AddStageRequest struct {
	Name string `json:"name" validate:"required,notblank,max=60"`
}

// RenameStageRequest contains the new name of a stage.
type RenameStageRequest struct {
	Name string `json:"name" validate:"required,notblank,max=60"`
}

// SetStageEnabledRequest toggles a stage on or off.
type SetStageEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// StageListResponse wraps the stages of a company's funnel.
type StageListResponse struct {
	Items []domain.Stage `json:"items"`
}

// =============================================================================
// Leads
// =============================================================================

// CreateLeadRequest contains the intake data of a new lead.
type CreateLeadRequest struct {
	SalespersonID   uuid.UUID      `json:"salespersonId" validate:"required"`
	Name            string         `json:"leadName" validate:"required,notblank,max=200"`
	Phone           string         `json:"leadPhone" validate:"required,min=8,max=30"`
	InterestVehicle string         `json:"interestVehicle" validate:"omitempty,max=200"`
	RawData         map[string]any `json:"rawLeadData,omitempty"`
	Details         map[string]any `json:"details,omitempty"`
}

// TransitionRequest asks to move a lead to another stage.
type TransitionRequest struct {
	TargetStageID   string     `json:"targetStageId" validate:"required"`
	Outcome         string     `json:"outcome" validate:"omitempty,oneof=convertido nao_convertido converted not_converted"`
	AppointmentDate *time.Time `json:"appointmentDate,omitempty"`
	Force           bool       `json:"force,omitempty"`
}

// FeedbackRequest contains one feedback entry.
type FeedbackRequest struct {
	Text   string   `json:"text" validate:"max=5000"`
	Images []string `json:"images" validate:"max=10,dive,required,max=1024"`
}

// ReassignRequest names the new owner of a lead.
type ReassignRequest struct {
	NewOwnerID uuid.UUID `json:"newOwnerId" validate:"required"`
}

// FeedbackResponse is one feedback entry of a lead.
type FeedbackResponse struct {
	Text      string    `json:"text"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeadResponse is a lead in API responses.
type LeadResponse struct {
	ID              uuid.UUID          `json:"id"`
	CreatedAt       time.Time          `json:"createdAt"`
	SalespersonID   uuid.UUID          `json:"salespersonId"`
	Name            string             `json:"leadName"`
	Phone           string             `json:"leadPhone"`
	InterestVehicle string             `json:"interestVehicle"`
	StageID         string             `json:"stageId"`
	Outcome         *string            `json:"outcome"`
	RawData         map[string]any     `json:"rawLeadData,omitempty"`
	Details         map[string]any     `json:"details"`
	AppointmentAt   *time.Time         `json:"appointmentAt,omitempty"`
	Feedback        []FeedbackResponse `json:"feedback"`
	ProspectedAt    *time.Time         `json:"prospectedAt,omitempty"`
	LastFeedbackAt  *time.Time         `json:"lastFeedbackAt,omitempty"`
}

// ActionableStagesResponse lists the stages a lead may be moved to.
type ActionableStagesResponse struct {
	Items []domain.Stage `json:"items"`
}

// ToLeadResponse maps a domain lead.
func ToLeadResponse(l domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:              l.ID,
		CreatedAt:       l.CreatedAt,
		SalespersonID:   l.SalespersonID,
		Name:            l.Name,
		Phone:           l.Phone,
		InterestVehicle: l.InterestVehicle,
		StageID:         l.StageID,
		RawData:         l.RawData,
		Details:         l.Details,
		AppointmentAt:   l.AppointmentAt,
		Feedback:        make([]FeedbackResponse, len(l.Feedback)),
		ProspectedAt:    l.ProspectedAt,
		LastFeedbackAt:  l.LastFeedbackAt,
	}
	if l.Outcome != domain.OutcomeNone {
		outcome := string(l.Outcome)
		resp.Outcome = &outcome
	}
	if resp.Details == nil {
		resp.Details = map[string]any{}
	}
	for i, f := range l.Feedback {
		images := f.Images
		if images == nil {
			images = []string{}
		}
		resp.Feedback[i] = FeedbackResponse{Text: f.Text, Images: images, CreatedAt: f.CreatedAt}
	}
	return resp
}

// =============================================================================
// Board and lock
// =============================================================================

// BoardQuery selects whose board a manager looks at.
type BoardQuery struct {
	SalespersonID string `form:"salespersonId" validate:"omitempty,uuid"`
}

// BoardLeadResponse is a lead card on the board.
type BoardLeadResponse struct {
	LeadResponse
	ReassignedAway bool       `json:"reassignedAway"`
	DeadlineAt     *time.Time `json:"deadlineAt,omitempty"`
}

// BoardColumnResponse is one stage column.
type BoardColumnResponse struct {
	Stage domain.Stage        `json:"stage"`
	Count int                 `json:"count"`
	Leads []BoardLeadResponse `json:"leads"`
}

// LockResponse is the prospecting gate of a salesperson.
type LockResponse struct {
	Locked       bool           `json:"locked"`
	PendingLeads []LeadResponse `json:"pendingLeads"`
}

// BoardResponse is the salesperson's funnel view.
type BoardResponse struct {
	SalespersonID     uuid.UUID             `json:"salespersonId"`
	Columns           []BoardColumnResponse `json:"columns"`
	Converted         int                   `json:"converted"`
	NotConverted      int                   `json:"notConverted"`
	HasLeadInProgress bool                  `json:"hasLeadInProgress"`
	Lock              LockResponse          `json:"lock"`
}

// ToLockResponse maps a lock state.
func ToLockResponse(s domain.LockState) LockResponse {
	resp := LockResponse{Locked: s.Locked, PendingLeads: make([]LeadResponse, len(s.Pending))}
	for i, l := range s.Pending {
		resp.PendingLeads[i] = ToLeadResponse(l)
	}
	return resp
}

// ToBoardResponse maps a board.
func ToBoardResponse(b domain.Board) BoardResponse {
	resp := BoardResponse{
		SalespersonID:     b.SalespersonID,
		Columns:           make([]BoardColumnResponse, len(b.Columns)),
		Converted:         b.Converted,
		NotConverted:      b.NotConverted,
		HasLeadInProgress: b.HasLeadInProgress,
		Lock:              ToLockResponse(b.Lock),
	}
	for i, col := range b.Columns {
		leads := make([]BoardLeadResponse, len(col.Leads))
		for j, l := range col.Leads {
			leads[j] = BoardLeadResponse{
				LeadResponse:   ToLeadResponse(l.Lead),
				ReassignedAway: l.ReassignedAway,
				DeadlineAt:     l.DeadlineAt,
			}
		}
		resp.Columns[i] = BoardColumnResponse{Stage: col.Stage, Count: len(leads), Leads: leads}
	}
	return resp
}

// =============================================================================
// Performance
// =============================================================================

// PerformanceQuery holds the filters of the performance report.
type PerformanceQuery struct {
	Period        string     `form:"period" validate:"omitempty,oneof=all 7d this_month 90d"`
	From          *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To            *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SalespersonID string     `form:"salespersonId" validate:"omitempty,uuid"`
}

// StageCountResponse is the lead count of one stage.
type StageCountResponse struct {
	StageID string `json:"stageId"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

// TimelineEntryResponse is one feedback entry of the report.
type TimelineEntryResponse struct {
	LeadID     uuid.UUID `json:"leadId"`
	LeadName   string    `json:"leadName"`
	LeadStatus string    `json:"leadStatus"`
	Text       string    `json:"text"`
	Images     []string  `json:"images"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PerformanceResponse is the performance report.
type PerformanceResponse struct {
	Period                 string                  `json:"period,omitempty"`
	From                   *time.Time              `json:"from,omitempty"`
	To                     *time.Time              `json:"to,omitempty"`
	SalespersonID          *uuid.UUID              `json:"salespersonId,omitempty"`
	TotalLeads             int                     `json:"totalLeads"`
	StageCounts            []StageCountResponse    `json:"stageCounts"`
	Converted              int                     `json:"converted"`
	NotConverted           int                     `json:"notConverted"`
	ConversionRate         float64                 `json:"conversionRate"`
	AvgResponseTimeMinutes float64                 `json:"avgResponseTimeMinutes"`
	AvgClosingTimeHours    float64                 `json:"avgClosingTimeHours"`
	FeedbackTimeline       []TimelineEntryResponse `json:"feedbackTimeline"`
	MonthlyLeads           *int                    `json:"monthlyLeads,omitempty"`
}

// ToPerformanceResponse maps a report.
func ToPerformanceResponse(r performance.Report) PerformanceResponse {
	m := r.Metrics
	resp := PerformanceResponse{
		Period:                 string(r.Period),
		From:                   r.Range.From,
		To:                     r.Range.To,
		SalespersonID:          r.SalespersonID,
		TotalLeads:             m.TotalLeads,
		StageCounts:            make([]StageCountResponse, len(m.StageCounts)),
		Converted:              m.Converted,
		NotConverted:           m.NotConverted,
		ConversionRate:         m.ConversionRate,
		AvgResponseTimeMinutes: m.AvgResponseTime.Minutes(),
		AvgClosingTimeHours:    m.AvgClosingTime.Hours(),
		FeedbackTimeline:       make([]TimelineEntryResponse, len(m.Timeline)),
		MonthlyLeads:           r.MonthlyLeads,
	}
	for i, sc := range m.StageCounts {
		resp.StageCounts[i] = StageCountResponse{StageID: sc.StageID, Name: sc.Name, Count: sc.Count}
	}
	for i, e := range m.Timeline {
		images := e.Images
		if images == nil {
			images = []string{}
		}
		resp.FeedbackTimeline[i] = TimelineEntryResponse{
			LeadID:     e.LeadID,
			LeadName:   e.LeadName,
			LeadStatus: e.LeadStatus,
			Text:       e.Text,
			Images:     images,
			CreatedAt:  e.CreatedAt,
		}
	}
	return resp
}

// =============================================================================
// Team settings
// =============================================================================

// DeadlineSettingsRequest is the initial-contact policy of one salesperson.
type DeadlineSettingsRequest struct {
	Minutes              int        `json:"minutes" validate:"required,min=1,max=10080"`
	AutoReassignEnabled  bool       `json:"autoReassignEnabled"`
	ReassignmentMode     string     `json:"reassignmentMode" validate:"omitempty,oneof=random specific"`
	ReassignmentTargetID *uuid.UUID `json:"reassignmentTargetId,omitempty"`
}

// DeadlineSettingsResponse echoes the stored policy.
type DeadlineSettingsResponse struct {
	MemberID             uuid.UUID  `json:"memberId"`
	Minutes              int        `json:"minutes"`
	AutoReassignEnabled  bool       `json:"autoReassignEnabled"`
	ReassignmentMode     string     `json:"reassignmentMode"`
	ReassignmentTargetID *uuid.UUID `json:"reassignmentTargetId,omitempty"`
}

// ToDeadlineSettings maps the request to the domain value. The mode
// defaults to random.
func (r DeadlineSettingsRequest) ToDeadlineSettings() domain.DeadlineSettings {
	mode := domain.ReassignmentMode(r.ReassignmentMode)
	if mode == "" {
		mode = domain.ModeRandom
	}
	return domain.DeadlineSettings{
		Minutes:              r.Minutes,
		AutoReassignEnabled:  r.AutoReassignEnabled,
		ReassignmentMode:     mode,
		ReassignmentTargetID: r.ReassignmentTargetID,
	}
}

// ToDeadlineSettingsResponse maps stored settings.
func ToDeadlineSettingsResponse(memberID uuid.UUID, s domain.DeadlineSettings) DeadlineSettingsResponse {
	return DeadlineSettingsResponse{
		MemberID:             memberID,
		Minutes:              s.Minutes,
		AutoReassignEnabled:  s.AutoReassignEnabled,
		ReassignmentMode:     string(s.ReassignmentMode),
		ReassignmentTargetID: s.ReassignmentTargetID,
	}
}

// KPISettingsRequest configures the monthly leads card. An empty VisibleTo
// with VisibleToAll false leaves the card visible to managers only.
type KPISettingsRequest struct {
	Enabled      bool        `json:"enabled"`
	VisibleToAll bool        `json:"visibleToAll"`
	VisibleTo    []uuid.UUID `json:"visibleTo" validate:"max=500"`
}

// KPISettingsResponse echoes the card configuration.
type KPISettingsResponse struct {
	Enabled      bool        `json:"enabled"`
	VisibleToAll bool        `json:"visibleToAll"`
	VisibleTo    []uuid.UUID `json:"visibleTo"`
}

// ToMonthlyLeadsKPI maps the request.
func (r KPISettingsRequest) ToMonthlyLeadsKPI() domain.MonthlyLeadsKPI {
	return domain.MonthlyLeadsKPI{Enabled: r.Enabled, VisibleToAll: r.VisibleToAll, VisibleTo: r.VisibleTo}
}

// ToKPISettingsResponse maps the stored settings.
func ToKPISettingsResponse(k domain.MonthlyLeadsKPI) KPISettingsResponse {
	visible := k.VisibleTo
	if visible == nil {
		visible = []uuid.UUID{}
	}
	return KPISettingsResponse{Enabled: k.Enabled, VisibleToAll: k.VisibleToAll, VisibleTo: visible}
}

// =============================================================================
// Admin
// =============================================================================

// SweepTriggerResponse reports how an admin-triggered sweep was handled.
type SweepTriggerResponse struct {
	Enqueued   bool `json:"enqueued"`
	Reassigned int  `json:"reassigned"`
	Failed     int  `json:"failed"`
	Skipped    bool `json:"skipped"`
}
