package notification

import (
	"context"
	"errors"
	"io"
	"testing"

	"prospectai_backend/internal/email"
	"prospectai_backend/internal/events"
	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/platform/apperr"
	"prospectai_backend/platform/logger"

	"github.com/google/uuid"
)

type testSender struct {
	to    []string
	sent  []email.LeadReassignedEmail
	fails bool
}

func (s *testSender) SendLeadReassignedEmail(_ context.Context, toEmail string, data email.LeadReassignedEmail) error {
	if s.fails {
		return errors.New("smtp down")
	}
	s.to = append(s.to, toEmail)
	s.sent = append(s.sent, data)
	return nil
}

type testMembers map[uuid.UUID]domain.Member

func (m testMembers) GetMember(_ context.Context, _, memberID uuid.UUID) (domain.Member, error) {
	member, ok := m[memberID]
	if !ok {
		return domain.Member{}, apperr.NotFound("member not found")
	}
	return member, nil
}

type testLeads struct{ phone string }

func (l testLeads) GetLead(_ context.Context, tenantID, leadID uuid.UUID) (domain.Lead, error) {
	return domain.Lead{ID: leadID, TenantID: tenantID, Phone: l.phone}, nil
}

func reassignedEvent(from, to uuid.UUID, trigger string) events.LeadReassigned {
	return events.LeadReassigned{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      uuid.New(),
		TenantID:    uuid.New(),
		LeadName:    "Carlos Lima",
		FromOwnerID: from,
		ToOwnerID:   to,
		Trigger:     trigger,
	}
}

func TestLeadReassignedEmailsNewOwner(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	members := testMembers{
		from: {ID: from, Name: "Bruno", Email: "bruno@example.com"},
		to:   {ID: to, Name: "Ana", Email: "ana@example.com"},
	}
	sender := &testSender{}
	m := New(sender, members, testLeads{phone: "+5511987654321"}, logger.NewWithWriter("test", io.Discard))

	if err := m.Handle(context.Background(), reassignedEvent(from, to, events.TriggerAuto)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.to[0] != "ana@example.com" {
		t.Fatalf("expected one mail to the new owner, got %v", sender.to)
	}
	got := sender.sent[0]
	if !got.Automatic || got.PreviousOwner != "Bruno" || got.LeadPhone != "+5511987654321" || got.RecipientName != "Ana" {
		t.Fatalf("unexpected mail data %+v", got)
	}
}

func TestLeadReassignedFailuresAreSwallowed(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	log := logger.NewWithWriter("test", io.Discard)

	unknown := New(&testSender{}, testMembers{}, nil, log)
	if err := unknown.Handle(context.Background(), reassignedEvent(from, to, events.TriggerManual)); err != nil {
		t.Fatalf("missing recipient must not fail the handler: %v", err)
	}

	failing := New(&testSender{fails: true}, testMembers{to: {ID: to, Email: "ana@example.com"}}, nil, log)
	if err := failing.Handle(context.Background(), reassignedEvent(from, to, events.TriggerManual)); err != nil {
		t.Fatalf("send failure must not fail the handler: %v", err)
	}

	noEmail := &testSender{}
	m := New(noEmail, testMembers{to: {ID: to}}, nil, log)
	if err := m.Handle(context.Background(), reassignedEvent(from, to, events.TriggerManual)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(noEmail.sent) != 0 {
		t.Fatalf("members without e-mail are skipped")
	}
}

func TestNilSenderFallsBackToNoop(t *testing.T) {
	to := uuid.New()
	m := New(nil, testMembers{to: {ID: to, Email: "ana@example.com"}}, nil, logger.NewWithWriter("test", io.Discard))
	if err := m.Handle(context.Background(), reassignedEvent(uuid.New(), to, events.TriggerManual)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}
