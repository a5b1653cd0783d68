package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPMailer delivers summary emails through a plain SMTP relay. It is the
// fallback for deployments without a SendGrid account and implements the
// dispatch Mailer contract.
type SMTPMailer struct {
	addr       string
	auth       smtp.Auth
	fromName   string
	fromAddr   string
	recipients []string

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates an SMTPMailer for the relay at host:port. Username
// and password are optional; when username is empty the connection is
// unauthenticated.
func NewSMTPMailer(host string, port int, username, password, fromName, fromAddr string, recipients []string) (*SMTPMailer, error) {
	if host == "" {
		return nil, errors.New("summary: smtp host must not be empty")
	}
	if fromAddr == "" {
		return nil, errors.New("summary: fromAddr must not be empty")
	}
	if len(recipients) == 0 {
		return nil, errors.New("summary: at least one recipient is required")
	}
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr:       fmt.Sprintf("%s:%d", host, port),
		auth:       auth,
		fromName:   fromName,
		fromAddr:   fromAddr,
		recipients: recipients,
		send:       smtp.SendMail,
	}, nil
}

// SendSummary delivers body (HTML) to all configured recipients under the
// given subject.
func (m *SMTPMailer) SendSummary(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := m.buildMessage(subject, body)
	if err := m.send(m.addr, m.auth, m.fromAddr, m.recipients, msg); err != nil {
		return fmt.Errorf("summary: smtp send: %w", err)
	}

	slog.Info("summary email sent",
		"provider", "smtp",
		"relay", m.addr,
		"recipients", len(m.recipients),
	)
	return nil
}

// buildMessage assembles an RFC 5322 message with an HTML body.
func (m *SMTPMailer) buildMessage(subject, body string) []byte {
	from := m.fromAddr
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromAddr)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
