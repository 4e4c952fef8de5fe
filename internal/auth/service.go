package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fellowship-backend/internal/mailer"
	"fellowship-backend/internal/otp"
	sharedauth "fellowship-backend/internal/shared/auth"
	"fellowship-backend/internal/shared/telemetry"
	"fellowship-backend/internal/users"
)

var (
	// ErrInvalidCredentials covers unknown emails, wrong passwords, and
	// non-admin accounts so the login endpoint never leaks which it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOTPPending         = errors.New("an OTP was already sent recently")
)

const sessionTTL = 24 * time.Hour

type Service struct {
	Users  *users.Service
	OTP    *otp.Manager
	Mailer mailer.Mailer
	OTPTTL time.Duration
}

func NewService(userSvc *users.Service, manager *otp.Manager, m mailer.Mailer, otpTTL time.Duration) *Service {
	if otpTTL <= 0 {
		otpTTL = 5 * time.Minute
	}
	return &Service{Users: userSvc, OTP: manager, Mailer: m, OTPTTL: otpTTL}
}

// LoginResult reports the outcome of the password step.
type LoginResult struct {
	Email     string `json:"email"`
	ExpiresIn int    `json:"expiresIn"`
}

// RequestOTP validates the password and emails a one-time code. Only admin
// accounts may begin a session.
func (s *Service) RequestOTP(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if user.Role != users.RoleAdmin && user.Role != users.RoleSuperAdmin {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !s.Users.CheckPassword(user, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	if s.OTP.HasPending(email) {
		return LoginResult{Email: email, ExpiresIn: s.OTP.RemainingTime(email)}, ErrOTPPending
	}

	code := s.OTP.Create(email, s.OTPTTL)
	if err := s.Mailer.SendOTP(ctx, user.Email, user.Name, code, s.OTPTTL); err != nil {
		telemetry.Error("auth.otp_mail_failed", map[string]any{"error": err.Error(), "email": email})
		return LoginResult{}, fmt.Errorf("send otp: %w", err)
	}

	return LoginResult{Email: email, ExpiresIn: int(s.OTPTTL / time.Second)}, nil
}

// ResendOTP issues a fresh code, resetting expiry and attempts.
func (s *Service) ResendOTP(ctx context.Context, email string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if user.Role != users.RoleAdmin && user.Role != users.RoleSuperAdmin {
		return LoginResult{}, ErrInvalidCredentials
	}

	code := s.OTP.Resend(email, s.OTPTTL)
	if err := s.Mailer.SendOTP(ctx, user.Email, user.Name, code, s.OTPTTL); err != nil {
		telemetry.Error("auth.otp_mail_failed", map[string]any{"error": err.Error(), "email": email})
		return LoginResult{}, fmt.Errorf("send otp: %w", err)
	}

	return LoginResult{Email: email, ExpiresIn: int(s.OTPTTL / time.Second)}, nil
}

// Session is the signed-in identity returned after OTP verification.
type Session struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

// VerifyOTP checks the code and, when valid, mints a session token.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (Session, otp.Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	result := s.OTP.Verify(email, code)
	if !result.Valid {
		return Session{}, result, nil
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, otp.Result{}, err
	}

	now := time.Now().UTC()
	token, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		Iat:   now.Unix(),
		Exp:   now.Add(sessionTTL).Unix(),
	})
	if err != nil {
		return Session{}, otp.Result{}, fmt.Errorf("sign session token: %w", err)
	}

	telemetry.Info("auth.login", map[string]any{"user_id": user.ID, "role": user.Role})
	return Session{Token: token, User: user}, result, nil
}

// ChangePassword verifies the current password and stores the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.Users.CheckPassword(user, currentPassword) {
		return ErrInvalidCredentials
	}
	if _, err := s.Users.Update(ctx, userID, users.UpdateInput{Password: &newPassword}); err != nil {
		return err
	}
	telemetry.Info("auth.password_changed", map[string]any{"user_id": userID})
	return nil
}

// SessionMaxAge returns the cookie lifetime in seconds.
func SessionMaxAge() int {
	return int(sessionTTL / time.Second)
}
