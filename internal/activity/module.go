// Package activity records prospecting events in the company activity log.
package activity

import (
	"context"

	"prospectai_backend/internal/activity/handler"
	"prospectai_backend/internal/activity/repository"
	"prospectai_backend/internal/activity/service"
	"prospectai_backend/internal/events"
	apphttp "prospectai_backend/internal/http"
	"prospectai_backend/platform/httpkit"
	"prospectai_backend/platform/logger"
	"prospectai_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the activity bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the activity module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	return newModule(repository.New(pool), val, log)
}

func newModule(repo repository.Repository, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// RegisterRoutes mounts the activity log route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/prospect/activity", httpkit.RequireAnyRole(httpkit.RoleManager, httpkit.RoleAdmin), m.handler.List)
}

// RegisterHandlers subscribes to every event that belongs in the log.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), m)
	bus.Subscribe(events.LeadStageChanged{}.EventName(), m)
	bus.Subscribe(events.LeadFeedbackAdded{}.EventName(), m)
	bus.Subscribe(events.LeadReassigned{}.EventName(), m)
	bus.Subscribe(events.PipelineStageChanged{}.EventName(), m)
	bus.Subscribe(events.DeadlineSettingsUpdated{}.EventName(), m)
}

// Handle records the event.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	return m.service.RecordEvent(ctx, event)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
