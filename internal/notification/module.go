// Package notification reacts to prospecting events: it e-mails salespeople
// who receive a lead and pushes board updates to connected clients.
package notification

import (
	"context"
	"log/slog"

	"prospectai_backend/internal/email"
	"prospectai_backend/internal/events"
	apphttp "prospectai_backend/internal/http"
	"prospectai_backend/internal/notification/sse"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/platform/httpkit"
	"prospectai_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MemberReader resolves team members for notifications.
type MemberReader interface {
	GetMember(ctx context.Context, tenantID, memberID uuid.UUID) (domain.Member, error)
}

// LeadReader resolves lead contact details for notifications.
type LeadReader interface {
	GetLead(ctx context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error)
}

// Module handles notification side effects of domain events.
type Module struct {
	sender  email.Sender
	members MemberReader
	leads   LeadReader
	sse     *sse.Service
	pusher  Pusher
	log     *logger.Logger
}

var _ apphttp.Module = (*Module)(nil)

// New creates the notification module. A nil sender disables e-mail.
func New(sender email.Sender, members MemberReader, leads LeadReader, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, members: members, leads: leads, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the board update stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.sse == nil {
		return
	}
	ctx.Protected.GET("/prospect/stream", m.sse.Handler(userIDFromContext, tenantIDFromContext))
}

func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	id := httpkit.GetIdentity(c)
	if !id.IsAuthenticated() {
		return uuid.Nil, false
	}
	return id.UserID(), true
}

func tenantIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	tenantID := httpkit.GetIdentity(c).TenantID()
	if tenantID == nil {
		return uuid.Nil, false
	}
	return *tenantID, true
}

// SetSSE injects the SSE service so board changes reach connected clients
// of this process and the stream route is mounted.
func (m *Module) SetSSE(s *sse.Service) {
	m.sse = s
	m.pusher = s
}

// SetRelay routes pushes through p instead. Processes without client
// connections, like the scheduler, use it to reach the API processes.
func (m *Module) SetRelay(p Pusher) { m.pusher = p }

// RegisterHandlers subscribes to the prospecting events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), m)
	bus.Subscribe(events.LeadStageChanged{}.EventName(), m)
	bus.Subscribe(events.LeadFeedbackAdded{}.EventName(), m)
	bus.Subscribe(events.LeadReassigned{}.EventName(), m)
	bus.Subscribe(events.PipelineStageChanged{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method. Delivery failures
// are logged and never returned.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadReassigned:
		return m.handleLeadReassigned(ctx, e)
	case events.LeadCreated:
		m.push(e.TenantID, e.SalespersonID, sse.Event{Type: sse.EventLeadCreated, LeadID: e.LeadID, Message: e.LeadName})
	case events.LeadStageChanged:
		m.broadcast(e.TenantID, sse.Event{
			Type:   sse.EventLeadUpdated,
			LeadID: e.LeadID,
			Data:   map[string]interface{}{"fromStage": e.FromStage, "toStage": e.ToStage},
		})
	case events.LeadFeedbackAdded:
		m.broadcast(e.TenantID, sse.Event{Type: sse.EventLeadUpdated, LeadID: e.LeadID})
	case events.PipelineStageChanged:
		m.broadcast(e.TenantID, sse.Event{
			Type: sse.EventPipelineChanged,
			Data: map[string]interface{}{"stageId": e.StageID, "action": e.Action},
		})
	}
	return nil
}

func (m *Module) handleLeadReassigned(ctx context.Context, e events.LeadReassigned) error {
	payload := sse.Event{
		Type:    sse.EventLeadReassigned,
		LeadID:  e.LeadID,
		Message: e.LeadName,
		Data:    map[string]interface{}{"trigger": e.Trigger, "from": e.FromOwnerID, "to": e.ToOwnerID},
	}
	m.push(e.TenantID, e.ToOwnerID, payload)
	m.push(e.TenantID, e.FromOwnerID, payload)

	recipient, err := m.members.GetMember(ctx, e.TenantID, e.ToOwnerID)
	if err != nil {
		m.log.Warn("reassignment e-mail skipped: recipient lookup failed",
			slog.String("lead_id", e.LeadID.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if recipient.Email == "" {
		return nil
	}

	data := email.LeadReassignedEmail{
		RecipientName: recipient.Name,
		LeadName:      e.LeadName,
		Automatic:     e.Trigger == events.TriggerAuto,
	}
	if previous, err := m.members.GetMember(ctx, e.TenantID, e.FromOwnerID); err == nil {
		data.PreviousOwner = previous.Name
	}
	if m.leads != nil {
		if lead, err := m.leads.GetLead(ctx, e.TenantID, e.LeadID); err == nil {
			data.LeadPhone = lead.Phone
		}
	}

	if err := m.sender.SendLeadReassignedEmail(ctx, recipient.Email, data); err != nil {
		m.log.Error("failed to send reassignment e-mail",
			slog.String("lead_id", e.LeadID.String()),
			slog.String("recipient_id", recipient.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (m *Module) push(tenantID, userID uuid.UUID, event sse.Event) {
	if m.pusher == nil || userID == uuid.Nil {
		return
	}
	m.pusher.Publish(tenantID, userID, event)
}

func (m *Module) broadcast(tenantID uuid.UUID, event sse.Event) {
	if m.pusher == nil {
		return
	}
	m.pusher.PublishToOrganization(tenantID, event)
}
