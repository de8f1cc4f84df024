package email

import (
	"context"

	"prospectai_backend/platform/config"
)

// LeadReassignedEmail describes a lead handed to the recipient.
type LeadReassignedEmail struct {
	RecipientName string
	LeadName      string
	LeadPhone     string
	PreviousOwner string
	Automatic     bool
}

type Sender interface {
	SendLeadReassignedEmail(ctx context.Context, toEmail string, data LeadReassignedEmail) error
}

// NoopSender discards every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadReassignedEmail(ctx context.Context, toEmail string, data LeadReassignedEmail) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured and a NoopSender
// otherwise.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetSMTPFromEmail(),
		cfg.GetSMTPFromName(),
	)
}
