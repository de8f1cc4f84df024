package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/repository"
	"prospectai_backend/platform/apperr"
	"prospectai_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu       sync.Mutex
	stages   map[uuid.UUID][]domain.Stage
	versions map[uuid.UUID]int64
	counts   map[string]int
	saves    int
	rejected int

	// afterGet runs outside the lock once a read has completed.
	afterGet func()
	// beforeSave runs outside the lock before a save is attempted.
	beforeSave func(tenantID uuid.UUID)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stages:   map[uuid.UUID][]domain.Stage{},
		versions: map[uuid.UUID]int64{},
		counts:   map[string]int{},
	}
}

func (f *fakeStore) GetPipelineStages(_ context.Context, tenantID uuid.UUID) (repository.StoredPipeline, error) {
	f.mu.Lock()
	stored := repository.StoredPipeline{
		Stages:  append([]domain.Stage(nil), f.stages[tenantID]...),
		Version: f.versions[tenantID],
	}
	f.mu.Unlock()

	if f.afterGet != nil {
		f.afterGet()
	}
	return stored, nil
}

func (f *fakeStore) SavePipelineStages(_ context.Context, tenantID uuid.UUID, version int64, stages []domain.Stage) (bool, error) {
	if f.beforeSave != nil {
		f.beforeSave(tenantID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.versions[tenantID] != version {
		f.rejected++
		return false, nil
	}
	f.saves++
	f.versions[tenantID]++
	f.stages[tenantID] = append([]domain.Stage(nil), stages...)
	return true, nil
}

func (f *fakeStore) CountLeadsInStage(_ context.Context, _ uuid.UUID, stageID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[stageID], nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService(store *fakeStore) (*Service, *recordingBus) {
	bus := &recordingBus{}
	svc := New(store, bus, logger.NewWithWriter("test", io.Discard))
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("stage-%d", n)
	}
	return svc, bus
}

func TestDefaultStagesTemplate(t *testing.T) {
	stages, err := DefaultStages(uuid.NewString)
	if err != nil {
		t.Fatalf("DefaultStages: %v", err)
	}
	p, err := domain.NewPipeline(uuid.New(), stages)
	if err != nil {
		t.Fatalf("default template must form a valid pipeline: %v", err)
	}
	if p.Entry().Name != domain.StageNameEntry || p.Holding().Order != 100 || p.Terminal().Order != domain.ReservedOrder {
		t.Fatalf("unexpected default pipeline %+v", p.Stages())
	}
	if len(stages) != 7 {
		t.Fatalf("expected 7 default stages, got %d", len(stages))
	}
}

func TestLoadSeedsDefaultPipelineOnce(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	tenant := uuid.New()

	first, err := svc.ListStages(context.Background(), tenant)
	if err != nil {
		t.Fatalf("ListStages: %v", err)
	}
	second, err := svc.ListStages(context.Background(), tenant)
	if err != nil {
		t.Fatalf("ListStages: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("expected one seed write, got %d", store.saves)
	}
	if first[0].ID != second[0].ID {
		t.Fatalf("seeded ids must be stable across loads")
	}
}

func TestLoadBackfillsLegacyRoles(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	tenant := uuid.New()
	store.stages[tenant] = []domain.Stage{
		{ID: "a", Name: "Novos Leads", Order: 0, IsFixed: true, IsEnabled: true},
		{ID: "b", Name: "Finalizados", Order: 99, IsFixed: true, IsEnabled: true},
		{ID: "c", Name: "Remanejados", Order: 100, IsFixed: true, IsEnabled: true},
	}

	if _, err := svc.Load(context.Background(), tenant); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, st := range store.stages[tenant] {
		if st.Role == "" {
			t.Fatalf("stage %s was not backfilled", st.Name)
		}
	}
}

func TestAddStage(t *testing.T) {
	store := newFakeStore()
	svc, bus := newTestService(store)
	actor := domain.Actor{ID: uuid.New(), TenantID: uuid.New(), IsManager: true}

	stage, err := svc.AddStage(context.Background(), actor, "  Proposta   Enviada ")
	if err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	if stage.Name != "Proposta Enviada" || stage.Order != 5 || stage.Role != domain.RoleStandard {
		t.Fatalf("unexpected stage %+v", stage)
	}

	if _, err := svc.AddStage(context.Background(), actor, "proposta enviada"); apperr.GetCode(err) != apperr.CodeConstraintViolation {
		t.Fatalf("expected duplicate name to be rejected, got %v", err)
	}
	if _, err := svc.AddStage(context.Background(), actor, "   "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	ev, ok := bus.events[0].(events.PipelineStageChanged)
	if !ok || ev.Action != events.StageAdded || ev.StageID != stage.ID {
		t.Fatalf("unexpected event %+v", bus.events[0])
	}
}

func TestDeleteStageWithLeads(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	actor := domain.Actor{ID: uuid.New(), TenantID: uuid.New(), IsManager: true}

	stage, err := svc.AddStage(context.Background(), actor, "Negociação")
	if err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	store.counts[stage.ID] = 2

	err = svc.DeleteStage(context.Background(), actor, stage.ID)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Code != apperr.CodeConstraintViolation {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	if details, ok := appErr.Details.(map[string]int); !ok || details["leadCount"] != 2 {
		t.Fatalf("expected lead count in details, got %#v", appErr.Details)
	}

	store.counts[stage.ID] = 0
	if err := svc.DeleteStage(context.Background(), actor, stage.ID); err != nil {
		t.Fatalf("DeleteStage: %v", err)
	}
	stages, _ := svc.ListStages(context.Background(), actor.TenantID)
	for _, st := range stages {
		if st.ID == stage.ID {
			t.Fatalf("stage still listed after delete")
		}
	}
}

func TestFixedStagesAreImmutable(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	actor := domain.Actor{ID: uuid.New(), TenantID: uuid.New(), IsManager: true}

	stages, err := svc.ListStages(context.Background(), actor.TenantID)
	if err != nil {
		t.Fatalf("ListStages: %v", err)
	}
	entry := stages[0]

	if _, err := svc.RenameStage(context.Background(), actor, entry.ID, "Entrada"); apperr.GetCode(err) != apperr.CodeConstraintViolation {
		t.Errorf("rename of fixed stage: %v", err)
	}
	if _, err := svc.SetStageEnabled(context.Background(), actor, entry.ID, false); apperr.GetCode(err) != apperr.CodeConstraintViolation {
		t.Errorf("disable of fixed stage: %v", err)
	}
	if err := svc.DeleteStage(context.Background(), actor, entry.ID); apperr.GetCode(err) != apperr.CodeConstraintViolation {
		t.Errorf("delete of fixed stage: %v", err)
	}
	if _, err := svc.SetStageEnabled(context.Background(), actor, "missing", false); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown stage: %v", err)
	}
}

func TestConcurrentSeedingHandsOutOneEntryStage(t *testing.T) {
	store := newFakeStore()
	svc := New(store, &recordingBus{}, logger.NewWithWriter("test", io.Discard))
	tenant := uuid.New()

	// Both callers finish their first read before either one writes.
	var reads atomic.Int32
	var bothRead sync.WaitGroup
	bothRead.Add(2)
	store.afterGet = func() {
		if reads.Add(1) <= 2 {
			bothRead.Done()
			bothRead.Wait()
		}
	}

	entryIDs := make([]string, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.EnsureDefaultPipeline(context.Background(), tenant)
			errs[i] = err
			if err == nil {
				entryIDs[i] = p.Entry().ID
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if store.saves != 1 || store.rejected != 1 {
		t.Fatalf("expected one winning and one rejected seed, got saves=%d rejected=%d", store.saves, store.rejected)
	}

	stored, err := domain.NewPipeline(tenant, store.stages[tenant])
	if err != nil {
		t.Fatalf("stored pipeline: %v", err)
	}
	for i, id := range entryIDs {
		if id != stored.Entry().ID {
			t.Fatalf("caller %d got entry stage %s, stored entry stage is %s", i, id, stored.Entry().ID)
		}
	}
}

func TestAddStageRetriesAfterConcurrentEdit(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	actor := domain.Actor{ID: uuid.New(), TenantID: uuid.New(), IsManager: true}

	if _, err := svc.AddStage(context.Background(), actor, "Visita"); err != nil {
		t.Fatalf("AddStage: %v", err)
	}

	// Another manager adds a stage between our read and our write.
	fired := false
	store.beforeSave = func(tenantID uuid.UUID) {
		if fired {
			return
		}
		fired = true
		other := New(store, &recordingBus{}, logger.NewWithWriter("test", io.Discard))
		other.newID = func() string { return "other-stage" }
		if _, err := other.AddStage(context.Background(), actor, "Test Drive"); err != nil {
			t.Errorf("concurrent AddStage: %v", err)
		}
	}

	if _, err := svc.AddStage(context.Background(), actor, "Proposta"); err != nil {
		t.Fatalf("AddStage: %v", err)
	}

	names := map[string]bool{}
	for _, st := range store.stages[actor.TenantID] {
		names[st.Name] = true
	}
	for _, want := range []string{"Visita", "Test Drive", "Proposta"} {
		if !names[want] {
			t.Fatalf("stage %q lost after concurrent edits; stored %v", want, names)
		}
	}
	if store.rejected != 1 {
		t.Fatalf("expected exactly one rejected save, got %d", store.rejected)
	}
}

func TestUpdateGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	actor := domain.Actor{ID: uuid.New(), TenantID: uuid.New(), IsManager: true}

	if _, err := svc.ListStages(context.Background(), actor.TenantID); err != nil {
		t.Fatalf("ListStages: %v", err)
	}
	store.beforeSave = func(tenantID uuid.UUID) {
		store.mu.Lock()
		store.versions[tenantID]++
		store.mu.Unlock()
	}

	_, err := svc.AddStage(context.Background(), actor, "Proposta")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict after repeated version races, got %v", err)
	}
	if store.rejected != maxSaveAttempts {
		t.Fatalf("expected %d attempts, got %d", maxSaveAttempts, store.rejected)
	}
}
