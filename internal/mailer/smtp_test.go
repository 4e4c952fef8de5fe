package mailer

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newCapturingMailer() (*SMTPMailer, *capturedMail) {
	captured := &capturedMail{}
	m := NewSMTP("smtp.example.com", 587, "relay-user", "relay-pass", "noreply@example.com")
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr = addr
		captured.from = from
		captured.to = to
		captured.msg = string(msg)
		return nil
	}
	return m, captured
}

func TestSendOTPBuildsHTMLMessage(t *testing.T) {
	m, captured := newCapturingMailer()

	err := m.SendOTP(context.Background(), "admin@example.com", "Ada", "123456", 5*time.Minute)
	if err != nil {
		t.Fatalf("SendOTP: %v", err)
	}

	if captured.addr != "smtp.example.com:587" {
		t.Fatalf("unexpected relay addr %q", captured.addr)
	}
	if captured.from != "noreply@example.com" {
		t.Fatalf("unexpected from %q", captured.from)
	}
	if len(captured.to) != 1 || captured.to[0] != "admin@example.com" {
		t.Fatalf("unexpected recipients %v", captured.to)
	}
	for _, want := range []string{
		"Content-Type: text/html",
		"123456",
		"expires in 5 minutes",
	} {
		if !strings.Contains(captured.msg, want) {
			t.Fatalf("message missing %q:\n%s", want, captured.msg)
		}
	}
}

func TestSendApprovalIncludesSubmissionURL(t *testing.T) {
	m, captured := newCapturingMailer()

	url := "http://localhost:3000/documents/abc-123"
	if err := m.SendApprovalWithDocumentsRequest(context.Background(), "x@y.com", "Ada", url); err != nil {
		t.Fatalf("SendApproval: %v", err)
	}
	if !strings.Contains(captured.msg, url) {
		t.Fatalf("approval mail missing submission URL:\n%s", captured.msg)
	}
	if !strings.Contains(captured.msg, "Submit Documents") {
		t.Fatalf("approval mail missing call to action")
	}
}

func TestSendRejectionPrefersCustomBody(t *testing.T) {
	m, captured := newCapturingMailer()

	custom := "<p>Custom farewell</p>"
	if err := m.SendRejection(context.Background(), "x@y.com", "Ada", "incomplete", custom); err != nil {
		t.Fatalf("SendRejection: %v", err)
	}
	if !strings.Contains(captured.msg, "Custom farewell") {
		t.Fatalf("custom body not used:\n%s", captured.msg)
	}
	if strings.Contains(captured.msg, "incomplete") {
		t.Fatalf("default reason should be replaced by custom body")
	}
}

func TestSendRejectionDefaultBodyEscapesReason(t *testing.T) {
	m, captured := newCapturingMailer()

	if err := m.SendRejection(context.Background(), "x@y.com", "Ada", "<script>bad</script>", ""); err != nil {
		t.Fatalf("SendRejection: %v", err)
	}
	if strings.Contains(captured.msg, "<script>") {
		t.Fatalf("reason was not escaped:\n%s", captured.msg)
	}
	if !strings.Contains(captured.msg, "&lt;script&gt;") {
		t.Fatalf("escaped reason missing:\n%s", captured.msg)
	}
}

func TestDeliverRespectsCanceledContext(t *testing.T) {
	m, captured := newCapturingMailer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.SendAcknowledgment(ctx, "x@y.com", "Ada"); err == nil {
		t.Fatalf("expected context error")
	}
	if captured.msg != "" {
		t.Fatalf("nothing should have been sent")
	}
}
