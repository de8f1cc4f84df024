package deadlines

import (
	"context"
	"testing"

	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRepo struct {
	members map[uuid.UUID]domain.Member
	saved   map[uuid.UUID]domain.DeadlineSettings
}

func (f *fakeRepo) GetMember(_ context.Context, tenantID, memberID uuid.UUID) (domain.Member, error) {
	m, ok := f.members[memberID]
	if !ok || m.TenantID != tenantID {
		return domain.Member{}, apperr.NotFound("team member not found")
	}
	if s, ok := f.saved[memberID]; ok {
		m.Deadlines = s
	}
	return m, nil
}

func (f *fakeRepo) ListSalespeople(_ context.Context, tenantID uuid.UUID) ([]domain.Member, error) {
	out := make([]domain.Member, 0)
	for _, m := range f.members {
		if m.TenantID == tenantID && m.IsSalesperson() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) SaveDeadlineSettings(_ context.Context, _ uuid.UUID, memberID uuid.UUID, s domain.DeadlineSettings) error {
	f.saved[memberID] = s
	return nil
}

type nopBus struct{ published int }

func (b *nopBus) Publish(context.Context, events.Event) { b.published++ }

func (b *nopBus) PublishSync(context.Context, events.Event) error {
	b.published++
	return nil
}

func (b *nopBus) Subscribe(string, events.Handler) {}

func TestDeadlineSettings(t *testing.T) {
	tenant := uuid.New()
	otherTenant := uuid.New()
	manager := domain.Member{ID: uuid.New(), TenantID: tenant, Role: domain.MemberRoleManager}
	s1 := domain.Member{ID: uuid.New(), TenantID: tenant, Role: domain.MemberRoleSalesperson, Deadlines: domain.DefaultDeadlineSettings()}
	s2 := domain.Member{ID: uuid.New(), TenantID: tenant, Role: domain.MemberRoleSalesperson}
	foreign := domain.Member{ID: uuid.New(), TenantID: otherTenant, Role: domain.MemberRoleSalesperson}

	repo := &fakeRepo{
		members: map[uuid.UUID]domain.Member{manager.ID: manager, s1.ID: s1, s2.ID: s2, foreign.ID: foreign},
		saved:   map[uuid.UUID]domain.DeadlineSettings{},
	}
	bus := &nopBus{}
	svc := New(repo, bus)
	ctx := context.Background()
	mgr := domain.Actor{ID: manager.ID, TenantID: tenant, IsManager: true}

	got, err := svc.GetDeadlineSettings(ctx, mgr, s2.ID)
	if err != nil {
		t.Fatalf("GetDeadlineSettings: %v", err)
	}
	if got != domain.DefaultDeadlineSettings() {
		t.Fatalf("missing settings should fall back to defaults, got %+v", got)
	}

	valid := domain.DeadlineSettings{Minutes: 45, AutoReassignEnabled: true, ReassignmentMode: domain.ModeSpecific, ReassignmentTargetID: &s2.ID}
	if _, err := svc.UpdateDeadlineSettings(ctx, mgr, s1.ID, valid); err != nil {
		t.Fatalf("UpdateDeadlineSettings: %v", err)
	}
	if repo.saved[s1.ID].Minutes != 45 || bus.published != 1 {
		t.Fatalf("settings not stored or event missing")
	}

	cases := []struct {
		name     string
		actor    domain.Actor
		member   uuid.UUID
		settings domain.DeadlineSettings
		kind     apperr.Kind
	}{
		{"salesperson cannot edit", domain.Actor{ID: s1.ID, TenantID: tenant}, s1.ID, valid, apperr.KindForbidden},
		{"target from another company", mgr, s1.ID, domain.DeadlineSettings{Minutes: 10, ReassignmentMode: domain.ModeSpecific, ReassignmentTargetID: &foreign.ID}, apperr.KindConflict},
		{"self target", mgr, s1.ID, domain.DeadlineSettings{Minutes: 10, ReassignmentMode: domain.ModeSpecific, ReassignmentTargetID: &s1.ID}, apperr.KindConflict},
		{"manager as member", mgr, manager.ID, valid, apperr.KindConflict},
		{"too long", mgr, s1.ID, domain.DeadlineSettings{Minutes: 20000, ReassignmentMode: domain.ModeRandom}, apperr.KindValidation},
		{"unknown member", mgr, uuid.New(), valid, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateDeadlineSettings(ctx, tc.actor, tc.member, tc.settings)
			if got := apperr.GetKind(err); got != tc.kind {
				t.Fatalf("kind = %v, want %v (err=%v)", got, tc.kind, err)
			}
		})
	}
}

func TestRandomModeDropsTarget(t *testing.T) {
	tenant := uuid.New()
	s1 := domain.Member{ID: uuid.New(), TenantID: tenant, Role: domain.MemberRoleSalesperson}
	stale := uuid.New()
	repo := &fakeRepo{members: map[uuid.UUID]domain.Member{s1.ID: s1}, saved: map[uuid.UUID]domain.DeadlineSettings{}}
	svc := New(repo, &nopBus{})

	got, err := svc.UpdateDeadlineSettings(context.Background(), domain.Actor{ID: uuid.New(), TenantID: tenant, IsManager: true}, s1.ID,
		domain.DeadlineSettings{Minutes: 30, ReassignmentMode: domain.ModeRandom, ReassignmentTargetID: &stale})
	if err != nil {
		t.Fatalf("UpdateDeadlineSettings: %v", err)
	}
	if got.ReassignmentTargetID != nil {
		t.Fatalf("random mode must not keep a target")
	}
}
