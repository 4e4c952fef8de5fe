package mailer

import (
	"context"
	"time"

	"fellowship-backend/internal/shared/telemetry"
)

// Mailer sends the program's transactional emails. Every send is
// best-effort from the caller's point of view; failures must never roll
// back the operation that triggered them.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error
	SendAcknowledgment(ctx context.Context, to, name string) error
	SendApprovalWithDocumentsRequest(ctx context.Context, to, name, submissionURL string) error
	SendRejection(ctx context.Context, to, name, reason, customBody string) error
	SendStatusNotification(ctx context.Context, to, name, status string) error
	SendFundingInfoRequest(ctx context.Context, to, name, formURL, customMessage string) error
}

// LogMailer logs instead of sending. Used when SMTP is unconfigured (dev,
// tests).
type LogMailer struct{}

func (LogMailer) SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	telemetry.Info("mail.skipped", map[string]any{"kind": "otp", "to": to})
	return nil
}

func (LogMailer) SendAcknowledgment(ctx context.Context, to, name string) error {
	telemetry.Info("mail.skipped", map[string]any{"kind": "acknowledgment", "to": to})
	return nil
}

func (LogMailer) SendApprovalWithDocumentsRequest(ctx context.Context, to, name, submissionURL string) error {
	telemetry.Info("mail.skipped", map[string]any{"kind": "approval", "to": to})
	return nil
}

func (LogMailer) SendRejection(ctx context.Context, to, name, reason, customBody string) error {
	telemetry.Info("mail.skipped", map[string]any{"kind": "rejection", "to": to})
	return nil
}

func (LogMailer) SendStatusNotification(ctx context.Context, to, name, status string) error {
	telemetry.Info("mail.skipped", map[string]any{"kind": "status", "to": to, "status": status})
	return nil
}

func (LogMailer) SendFundingInfoRequest(ctx context.Context, to, name, formURL, customMessage string) error {
	telemetry.Info("mail.skipped", map[string]any{"kind": "funding_info_request", "to": to})
	return nil
}

var _ Mailer = LogMailer{}
