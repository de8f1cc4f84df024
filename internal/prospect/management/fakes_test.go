package management

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/repository"
	"prospectai_backend/platform/apperr"
	"prospectai_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]domain.Lead
	members map[uuid.UUID]domain.Member
	failOn  string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: map[uuid.UUID]domain.Lead{}, members: map[uuid.UUID]domain.Member{}}
}

func (f *fakeRepo) GetLead(_ context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[leadID]
	if !ok || l.TenantID != tenantID {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (f *fakeRepo) ListLeads(_ context.Context, tenantID uuid.UUID, filter repository.LeadFilter) ([]domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Lead, 0)
	for _, l := range f.leads {
		if l.TenantID != tenantID {
			continue
		}
		if filter.OwnedBy != nil && l.SalespersonID != *filter.OwnedBy {
			continue
		}
		if filter.VisibleTo != nil {
			from, _ := l.ReassignedFrom()
			if l.SalespersonID != *filter.VisibleTo && from != *filter.VisibleTo {
				continue
			}
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRepo) CountLeadsCreatedSince(_ context.Context, tenantID uuid.UUID, sp *uuid.UUID, since time.Time) (int, error) {
	return 0, nil
}

func (f *fakeRepo) CreateLead(_ context.Context, p repository.CreateLeadParams) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := domain.Lead{
		ID:              uuid.New(),
		TenantID:        p.TenantID,
		SalespersonID:   p.SalespersonID,
		CreatedAt:       time.Now(),
		Name:            p.Name,
		Phone:           p.Phone,
		InterestVehicle: p.InterestVehicle,
		StageID:         p.StageID,
		RawData:         p.RawData,
		Details:         p.Details,
		Feedback:        []domain.Feedback{},
	}
	f.leads[l.ID] = l
	return l, nil
}

func (f *fakeRepo) ApplyUpdate(_ context.Context, tenantID, leadID uuid.UUID, u domain.LeadUpdate) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == "update" {
		return domain.Lead{}, apperr.Persistence("update lead", io.ErrUnexpectedEOF)
	}
	l, ok := f.leads[leadID]
	if !ok || l.TenantID != tenantID {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	l = u.Apply(l)
	f.leads[leadID] = l
	return l, nil
}

func (f *fakeRepo) AppendFeedback(_ context.Context, tenantID, leadID uuid.UUID, fb domain.Feedback) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[leadID]
	if !ok || l.TenantID != tenantID {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	l.Feedback = append(append([]domain.Feedback(nil), l.Feedback...), fb)
	at := fb.CreatedAt
	l.LastFeedbackAt = &at
	f.leads[leadID] = l
	return l, nil
}

func (f *fakeRepo) GetMember(_ context.Context, tenantID, memberID uuid.UUID) (domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberID]
	if !ok || m.TenantID != tenantID {
		return domain.Member{}, apperr.NotFound("team member not found")
	}
	return m, nil
}

func (f *fakeRepo) ListSalespeople(_ context.Context, tenantID uuid.UUID) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Member, 0)
	for _, m := range f.members {
		if m.TenantID == tenantID && m.IsSalesperson() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) addMember(tenantID uuid.UUID, role string) domain.Member {
	m := domain.Member{ID: uuid.New(), TenantID: tenantID, Name: "Member", Email: "m@example.com", Role: role, Deadlines: domain.DefaultDeadlineSettings()}
	f.members[m.ID] = m
	return m
}

func (f *fakeRepo) put(l domain.Lead) domain.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads[l.ID] = l
	return l
}

type staticPipelines struct{ p *domain.Pipeline }

func (s staticPipelines) Load(_ context.Context, tenantID uuid.UUID) (*domain.Pipeline, error) {
	if tenantID != s.p.TenantID {
		return nil, apperr.NotFound("company not found")
	}
	return s.p, nil
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

type fakeStorage struct {
	uploads map[string][]byte
}

func (f *fakeStorage) UploadFile(_ context.Context, bucket, folder, fileName, _ string, r io.Reader, _ int64) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	key := folder + "/" + fileName
	f.uploads[bucket+"/"+key] = buf.Bytes()
	return key, nil
}

func (f *fakeStorage) ObjectURL(_ context.Context, bucket, key string) (string, error) {
	return "https://files.example.com/" + bucket + "/" + key, nil
}

func (f *fakeStorage) ValidateContentType(ct string) error {
	if ct != "image/png" && ct != "image/jpeg" {
		return apperr.Validation("content type not allowed")
	}
	return nil
}

func (f *fakeStorage) ValidateFileSize(n int64) error {
	if n <= 0 || n > 1024 {
		return apperr.Validation("bad size")
	}
	return nil
}

const (
	stEntry    = "st-novos"
	stFirst    = "st-primeira"
	stSchedule = "st-agendado"
	stTerminal = "st-finalizados"
	stHolding  = "st-remanejados"
)

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	bus      *recordingBus
	storage  *fakeStorage
	pipeline *domain.Pipeline
	tenant   uuid.UUID
	manager  domain.Member
	s1, s2   domain.Member
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tenant := uuid.New()
	p, err := domain.NewPipeline(tenant, []domain.Stage{
		{ID: stEntry, Name: "Novos Leads", Order: 0, IsFixed: true, IsEnabled: true, Role: domain.RoleEntry},
		{ID: stFirst, Name: "Primeira Tentativa", Order: 1, IsFixed: true, IsEnabled: true, Role: domain.RoleFirstAttempt},
		{ID: stSchedule, Name: "Agendado", Order: 2, IsEnabled: true, Role: domain.RoleScheduling},
		{ID: stTerminal, Name: "Finalizados", Order: 99, IsFixed: true, IsEnabled: true, Role: domain.RoleTerminal},
		{ID: stHolding, Name: "Remanejados", Order: 100, IsFixed: true, IsEnabled: true, Role: domain.RoleHolding},
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	repo := newFakeRepo()
	bus := &recordingBus{}
	storage := &fakeStorage{uploads: map[string][]byte{}}
	svc := New(repo, staticPipelines{p: p}, bus, logger.NewWithWriter("test", io.Discard), Options{
		Location:     time.UTC,
		PhoneRegion:  "BR",
		ImageBucket:  "feedback",
		ImageStorage: storage,
	})
	now := time.Date(2024, 9, 3, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &fixture{
		svc:      svc,
		repo:     repo,
		bus:      bus,
		storage:  storage,
		pipeline: p,
		tenant:   tenant,
		manager:  repo.addMember(tenant, domain.MemberRoleManager),
		s1:       repo.addMember(tenant, domain.MemberRoleSalesperson),
		s2:       repo.addMember(tenant, domain.MemberRoleSalesperson),
		now:      now,
	}
}

func (f *fixture) actor(m domain.Member) domain.Actor {
	return domain.Actor{ID: m.ID, TenantID: f.tenant, IsManager: m.Role == domain.MemberRoleManager}
}

func (f *fixture) lead(owner domain.Member, stageID string, createdAt time.Time) domain.Lead {
	return f.repo.put(domain.Lead{
		ID:            uuid.New(),
		TenantID:      f.tenant,
		SalespersonID: owner.ID,
		CreatedAt:     createdAt,
		Name:          "João Lima",
		StageID:       stageID,
		Feedback:      []domain.Feedback{},
	})
}
