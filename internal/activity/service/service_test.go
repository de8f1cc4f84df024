package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"prospectai_backend/internal/activity/repository"
	"prospectai_backend/internal/activity/transport"
	"prospectai_backend/internal/events"
	"prospectai_backend/platform/apperr"
	"prospectai_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	created []repository.Entry
	params  repository.ListParams
	err     error
}

func (f *fakeRepo) Create(_ context.Context, e repository.Entry) (repository.Entry, error) {
	if f.err != nil {
		return repository.Entry{}, f.err
	}
	e.ID = uuid.New()
	f.created = append(f.created, e)
	return e, nil
}

func (f *fakeRepo) List(_ context.Context, p repository.ListParams) ([]repository.Entry, int, error) {
	f.params = p
	return f.created, 42, nil
}

func TestDescribe(t *testing.T) {
	tenant := uuid.New()
	actor := uuid.New()
	lead := uuid.New()

	cases := []struct {
		name     string
		event    events.Event
		wantType string
		contains string
		hasUser  bool
	}{
		{
			name:     "stage change with outcome",
			event:    events.LeadStageChanged{BaseEvent: events.NewBaseEvent(), TenantID: tenant, ActorID: actor, LeadID: lead, LeadName: "Carlos", FromStage: "Agendado", ToStage: "Finalizados", Outcome: "convertido"},
			wantType: repository.TypeStageChanged,
			contains: "movido de Agendado para Finalizados (convertido)",
			hasUser:  true,
		},
		{
			name:     "automatic reassignment has no actor",
			event:    events.LeadReassigned{BaseEvent: events.NewBaseEvent(), TenantID: tenant, LeadID: lead, LeadName: "Carlos", Trigger: events.TriggerAuto},
			wantType: repository.TypeLeadAutoReassigned,
			contains: "automaticamente",
		},
		{
			name:     "manual reassignment",
			event:    events.LeadReassigned{BaseEvent: events.NewBaseEvent(), TenantID: tenant, LeadID: lead, LeadName: "Carlos", Trigger: events.TriggerManual, ActorID: &actor},
			wantType: repository.TypeLeadReassigned,
			contains: "manualmente",
			hasUser:  true,
		},
		{
			name:     "feedback with images",
			event:    events.LeadFeedbackAdded{BaseEvent: events.NewBaseEvent(), TenantID: tenant, ActorID: actor, LeadID: lead, LeadName: "Carlos", ImageCount: 2},
			wantType: repository.TypeFeedbackAdded,
			contains: "com 2 imagem(ns)",
			hasUser:  true,
		},
		{
			name:     "pipeline stage deleted",
			event:    events.PipelineStageChanged{BaseEvent: events.NewBaseEvent(), TenantID: tenant, ActorID: actor, StageName: "Negociação", Action: events.StageDeleted},
			wantType: repository.TypePipelineChanged,
			contains: "Etapa Negociação excluída",
			hasUser:  true,
		},
		{
			name:     "deadline settings",
			event:    events.DeadlineSettingsUpdated{BaseEvent: events.NewBaseEvent(), TenantID: tenant, ActorID: actor, Minutes: 30, AutoReassignEnabled: true},
			wantType: repository.TypeDeadlinesUpdated,
			contains: "30 minutos, remanejamento automático ativado",
			hasUser:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry, ok := Describe(tc.event)
			if !ok {
				t.Fatalf("event not described")
			}
			if entry.Type != tc.wantType {
				t.Fatalf("Type = %q, want %q", entry.Type, tc.wantType)
			}
			if entry.TenantID != tenant {
				t.Fatalf("tenant not set")
			}
			if !strings.Contains(entry.Description, tc.contains) {
				t.Fatalf("Description %q does not contain %q", entry.Description, tc.contains)
			}
			if (entry.UserID != nil) != tc.hasUser {
				t.Fatalf("UserID = %v, want set=%v", entry.UserID, tc.hasUser)
			}
		})
	}
}

type unrelatedEvent struct{ events.BaseEvent }

func (unrelatedEvent) EventName() string { return "other" }

func TestRecordEvent(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo, logger.NewWithWriter("test", io.Discard))
	ctx := context.Background()

	if err := svc.RecordEvent(ctx, unrelatedEvent{}); err != nil || len(repo.created) != 0 {
		t.Fatalf("unrelated events are ignored, got %v", err)
	}
	if err := svc.RecordEvent(ctx, events.LeadCreated{BaseEvent: events.NewBaseEvent(), TenantID: uuid.New(), LeadName: "Carlos"}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if len(repo.created) != 1 || repo.created[0].Type != repository.TypeLeadCreated {
		t.Fatalf("unexpected entries %+v", repo.created)
	}

	repo.err = errors.New("insert failed")
	if err := svc.RecordEvent(ctx, events.LeadCreated{TenantID: uuid.New()}); err == nil {
		t.Fatalf("expected repository error")
	}
}

func TestListPaging(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(repo, logger.NewWithWriter("test", io.Discard))
	tenant := uuid.New()
	from := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	res, err := svc.List(context.Background(), tenant, transport.ListActivityRequest{Page: 3, PageSize: 500, From: &from})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.params.Limit != 100 || repo.params.Offset != 200 || repo.params.TenantID != tenant || !repo.params.From.Equal(from) {
		t.Fatalf("unexpected params %+v", repo.params)
	}
	if res.Total != 42 || res.Page != 3 || res.PageSize != 100 {
		t.Fatalf("unexpected response %+v", res)
	}
	if res.Items == nil {
		t.Fatalf("items must be an empty list, not null")
	}

	if _, err := svc.List(context.Background(), tenant, transport.ListActivityRequest{LeadID: "nope"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
