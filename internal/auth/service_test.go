package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"fellowship-backend/internal/otp"
	"fellowship-backend/internal/users"
)

type recordingMailer struct {
	otpCodes []string
	otpTo    []string
}

func (m *recordingMailer) SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	m.otpTo = append(m.otpTo, to)
	m.otpCodes = append(m.otpCodes, code)
	return nil
}

func (m *recordingMailer) SendAcknowledgment(ctx context.Context, to, name string) error {
	return nil
}

func (m *recordingMailer) SendApprovalWithDocumentsRequest(ctx context.Context, to, name, submissionURL string) error {
	return nil
}

func (m *recordingMailer) SendRejection(ctx context.Context, to, name, reason, customBody string) error {
	return nil
}

func (m *recordingMailer) SendStatusNotification(ctx context.Context, to, name, status string) error {
	return nil
}

func (m *recordingMailer) SendFundingInfoRequest(ctx context.Context, to, name, formURL, customMessage string) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingMailer) {
	t.Helper()
	userSvc := users.NewService(users.NewMemoryRepo())
	for _, seed := range []users.CreateInput{
		{Email: "admin@example.com", Name: "Ada Admin", Password: "admin-pass-1", Role: users.RoleAdmin},
		{Email: "plain@example.com", Name: "Pat Plain", Password: "plain-pass-1", Role: users.RoleUser},
	} {
		if _, err := userSvc.Create(context.Background(), seed); err != nil {
			t.Fatalf("seed user %s: %v", seed.Email, err)
		}
	}
	m := &recordingMailer{}
	svc := NewService(userSvc, otp.NewManager(), m, 5*time.Minute)
	return svc, m
}

func TestRequestOTPSendsCodeForAdmin(t *testing.T) {
	svc, m := newTestService(t)

	result, err := svc.RequestOTP(context.Background(), "Admin@Example.com", "admin-pass-1")
	if err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	if result.ExpiresIn != 300 {
		t.Fatalf("expected 300s expiry, got %d", result.ExpiresIn)
	}
	if len(m.otpCodes) != 1 || m.otpTo[0] != "admin@example.com" {
		t.Fatalf("expected one OTP mail to admin, got %v", m.otpTo)
	}
}

func TestRequestOTPRejectsWrongPassword(t *testing.T) {
	svc, m := newTestService(t)

	_, err := svc.RequestOTP(context.Background(), "admin@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(m.otpCodes) != 0 {
		t.Fatalf("no OTP should be sent on bad password")
	}
}

func TestRequestOTPRejectsNonAdmin(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RequestOTP(context.Background(), "plain@example.com", "plain-pass-1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for non-admin, got %v", err)
	}
}

func TestRequestOTPRejectsUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RequestOTP(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRequestOTPReportsPendingCode(t *testing.T) {
	svc, m := newTestService(t)

	if _, err := svc.RequestOTP(context.Background(), "admin@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("first request: %v", err)
	}

	result, err := svc.RequestOTP(context.Background(), "admin@example.com", "admin-pass-1")
	if !errors.Is(err, ErrOTPPending) {
		t.Fatalf("expected ErrOTPPending, got %v", err)
	}
	if result.ExpiresIn <= 0 {
		t.Fatalf("pending result should carry remaining seconds, got %d", result.ExpiresIn)
	}
	if len(m.otpCodes) != 1 {
		t.Fatalf("second request must not send another code")
	}
}

func TestVerifyOTPMintsSession(t *testing.T) {
	svc, m := newTestService(t)

	if _, err := svc.RequestOTP(context.Background(), "admin@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}

	session, result, err := svc.VerifyOTP(context.Background(), "admin@example.com", m.otpCodes[0])
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got %+v", result)
	}
	if session.Token == "" {
		t.Fatalf("expected session token")
	}
	if session.User.Email != "admin@example.com" || session.User.Role != users.RoleAdmin {
		t.Fatalf("unexpected session user: %+v", session.User)
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.RequestOTP(context.Background(), "admin@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}

	session, result, err := svc.VerifyOTP(context.Background(), "admin@example.com", "000000")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if session.Token != "" {
		t.Fatalf("no session should be minted on wrong code")
	}
}

func TestResendOTPResetsCode(t *testing.T) {
	svc, m := newTestService(t)

	if _, err := svc.RequestOTP(context.Background(), "admin@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	if _, err := svc.ResendOTP(context.Background(), "admin@example.com"); err != nil {
		t.Fatalf("ResendOTP: %v", err)
	}
	if len(m.otpCodes) != 2 {
		t.Fatalf("expected two codes sent, got %d", len(m.otpCodes))
	}

	// Only the latest code verifies.
	if m.otpCodes[0] != m.otpCodes[1] {
		_, result, err := svc.VerifyOTP(context.Background(), "admin@example.com", m.otpCodes[0])
		if err != nil {
			t.Fatalf("VerifyOTP: %v", err)
		}
		if result.Valid {
			t.Fatalf("stale code must not verify")
		}
	}
	_, result, err := svc.VerifyOTP(context.Background(), "admin@example.com", m.otpCodes[1])
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if !result.Valid {
		t.Fatalf("fresh code should verify: %+v", result)
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Users.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("load admin: %v", err)
	}

	if err := svc.ChangePassword(ctx, admin.ID, "wrong-pass", "next-pass-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, admin.ID, "admin-pass-1", "short"); !errors.Is(err, users.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := svc.ChangePassword(ctx, admin.ID, "admin-pass-1", "next-pass-123"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	updated, err := svc.Users.GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if !svc.Users.CheckPassword(updated, "next-pass-123") {
		t.Fatalf("new password should verify")
	}
	if svc.Users.CheckPassword(updated, "admin-pass-1") {
		t.Fatalf("old password should no longer verify")
	}
}
