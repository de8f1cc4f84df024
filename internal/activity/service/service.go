// Package service turns prospecting events into activity log entries.
package service

import (
	"context"
	"fmt"

	"prospectai_backend/internal/activity/repository"
	"prospectai_backend/internal/activity/transport"
	"prospectai_backend/internal/events"
	"prospectai_backend/platform/apperr"
	"prospectai_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service provides business logic for the activity log.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new activity service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// RecordEvent persists the log entry describing event. Unknown events are ignored.
func (s *Service) RecordEvent(ctx context.Context, event events.Event) error {
	entry, ok := Describe(event)
	if !ok {
		return nil
	}
	if _, err := s.repo.Create(ctx, entry); err != nil {
		s.log.DatabaseError("create activity log", err)
		return err
	}
	return nil
}

// Describe maps a domain event to an activity entry.
func Describe(event events.Event) (repository.Entry, bool) {
	entry := repository.Entry{Timestamp: event.OccurredAt()}

	switch e := event.(type) {
	case events.LeadCreated:
		entry.Type = repository.TypeLeadCreated
		entry.TenantID = e.TenantID
		entry.UserID = ptr(e.CreatedByID)
		entry.LeadID = ptr(e.LeadID)
		entry.Description = fmt.Sprintf("Lead %s criado", e.LeadName)
	case events.LeadStageChanged:
		entry.Type = repository.TypeStageChanged
		entry.TenantID = e.TenantID
		entry.UserID = ptr(e.ActorID)
		entry.LeadID = ptr(e.LeadID)
		entry.Description = fmt.Sprintf("Lead %s movido de %s para %s", e.LeadName, e.FromStage, e.ToStage)
		if e.Outcome != "" {
			entry.Description += fmt.Sprintf(" (%s)", e.Outcome)
		}
	case events.LeadFeedbackAdded:
		entry.Type = repository.TypeFeedbackAdded
		entry.TenantID = e.TenantID
		entry.UserID = ptr(e.ActorID)
		entry.LeadID = ptr(e.LeadID)
		entry.Description = fmt.Sprintf("Feedback registrado para o lead %s", e.LeadName)
		if e.ImageCount > 0 {
			entry.Description += fmt.Sprintf(" com %d imagem(ns)", e.ImageCount)
		}
	case events.LeadReassigned:
		entry.TenantID = e.TenantID
		entry.UserID = e.ActorID
		entry.LeadID = ptr(e.LeadID)
		if e.Trigger == events.TriggerAuto {
			entry.Type = repository.TypeLeadAutoReassigned
			entry.Description = fmt.Sprintf("Lead %s remanejado automaticamente por prazo expirado", e.LeadName)
		} else {
			entry.Type = repository.TypeLeadReassigned
			entry.Description = fmt.Sprintf("Lead %s remanejado manualmente", e.LeadName)
		}
	case events.PipelineStageChanged:
		entry.Type = repository.TypePipelineChanged
		entry.TenantID = e.TenantID
		entry.UserID = ptr(e.ActorID)
		entry.Description = fmt.Sprintf("Etapa %s %s", e.StageName, stageActionLabel(e.Action))
	case events.DeadlineSettingsUpdated:
		entry.Type = repository.TypeDeadlinesUpdated
		entry.TenantID = e.TenantID
		entry.UserID = ptr(e.ActorID)
		state := "desativado"
		if e.AutoReassignEnabled {
			state = "ativado"
		}
		entry.Description = fmt.Sprintf("Prazo de primeiro contato alterado para %d minutos, remanejamento automático %s", e.Minutes, state)
	default:
		return repository.Entry{}, false
	}
	return entry, true
}

func stageActionLabel(action string) string {
	switch action {
	case events.StageAdded:
		return "adicionada"
	case events.StageRenamed:
		return "renomeada"
	case events.StageEnabled:
		return "ativada"
	case events.StageDisabled:
		return "desativada"
	case events.StageDeleted:
		return "excluída"
	}
	return action
}

func ptr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// List returns one page of a company's activity log.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListActivityRequest) (transport.ActivityListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	params := repository.ListParams{
		TenantID: tenantID,
		Type:     req.Type,
		From:     req.From,
		To:       req.To,
		Offset:   (page - 1) * size,
		Limit:    size,
	}
	if req.LeadID != "" {
		id, err := uuid.Parse(req.LeadID)
		if err != nil {
			return transport.ActivityListResponse{}, apperr.Validation("invalid lead ID")
		}
		params.LeadID = &id
	}

	entries, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ActivityListResponse{}, err
	}

	items := make([]transport.ActivityResponse, len(entries))
	for i, e := range entries {
		items[i] = transport.ActivityResponse{
			ID:          e.ID,
			Timestamp:   e.Timestamp,
			Type:        e.Type,
			Description: e.Description,
			UserID:      e.UserID,
			LeadID:      e.LeadID,
		}
	}
	return transport.ActivityListResponse{Items: items, Total: total, Page: page, PageSize: size}, nil
}
