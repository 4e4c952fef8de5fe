package mailer

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"fellowship-backend/internal/shared/telemetry"
)

// SMTPMailer delivers mail over a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string

	// send is swappable in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP builds a mailer against the given relay. Username and password may
// be empty for relays that accept unauthenticated submission.
func NewSMTP(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return m.deliver(ctx, to, otpMessage(name, code, ttl))
}

func (m *SMTPMailer) SendAcknowledgment(ctx context.Context, to, name string) error {
	return m.deliver(ctx, to, acknowledgmentMessage(name))
}

func (m *SMTPMailer) SendApprovalWithDocumentsRequest(ctx context.Context, to, name, submissionURL string) error {
	return m.deliver(ctx, to, approvalMessage(name, submissionURL))
}

func (m *SMTPMailer) SendRejection(ctx context.Context, to, name, reason, customBody string) error {
	return m.deliver(ctx, to, rejectionMessage(name, reason, customBody))
}

func (m *SMTPMailer) SendStatusNotification(ctx context.Context, to, name, status string) error {
	return m.deliver(ctx, to, statusMessage(name, status))
}

func (m *SMTPMailer) SendFundingInfoRequest(ctx context.Context, to, name, formURL, customMessage string) error {
	return m.deliver(ctx, to, fundingInfoRequestMessage(name, formURL, customMessage))
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, msg message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	raw := buildMIMEMessage(m.from, to, msg.Subject, msg.HTML)

	if err := m.send(addr, auth, m.from, []string{to}, raw); err != nil {
		telemetry.Error("mail.send_failed", map[string]any{"error": err.Error(), "to": to, "subject": msg.Subject})
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	telemetry.Info("mail.sent", map[string]any{"to": to, "subject": msg.Subject})
	return nil
}

func buildMIMEMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}

var _ Mailer = (*SMTPMailer)(nil)
