package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers summary emails through SendGrid. It implements the
// dispatch Mailer contract.
type Mailer struct {
	client     *sendgrid.Client
	from       *mail.Email
	recipients []string
}

// NewMailer creates a Mailer that sends from fromAddr to recipients.
// apiKey, fromAddr, and at least one recipient are required.
func NewMailer(apiKey, fromName, fromAddr string, recipients []string) (*Mailer, error) {
	if apiKey == "" {
		return nil, errors.New("summary: sendgrid apiKey must not be empty")
	}
	if fromAddr == "" {
		return nil, errors.New("summary: fromAddr must not be empty")
	}
	if len(recipients) == 0 {
		return nil, errors.New("summary: at least one recipient is required")
	}
	return &Mailer{
		client:     sendgrid.NewSendClient(apiKey),
		from:       mail.NewEmail(fromName, fromAddr),
		recipients: recipients,
	}, nil
}

// SendSummary delivers body (HTML) to all configured recipients under the
// given subject.
func (m *Mailer) SendSummary(ctx context.Context, subject, body string) error {
	msg := mail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.Subject = subject

	p := mail.NewPersonalization()
	for _, rcpt := range m.recipients {
		p.AddTos(mail.NewEmail("", rcpt))
	}
	msg.AddPersonalizations(p)
	msg.AddContent(mail.NewContent("text/html", body))

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("summary: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("summary: sendgrid send: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}

	slog.Info("summary email sent", "recipients", len(m.recipients), "subject", subject)
	return nil
}
