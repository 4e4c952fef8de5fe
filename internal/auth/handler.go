package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fellowship-backend/internal/shared/server/middleware"
	"fellowship-backend/internal/shared/server/respond"
	"fellowship-backend/internal/users"
)

type Handler struct {
	Svc           *Service
	SecureCookies bool
}

func NewHandler(svc *Service, secureCookies bool) *Handler {
	return &Handler{Svc: svc, SecureCookies: secureCookies}
}

// RegisterRoutes mounts the login flow on a public group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
	rg.POST("/otp/verify", h.verifyOTP)
	rg.POST("/otp/resend", h.resendOTP)
}

// RegisterAuthedRoutes mounts routes that require a session.
func (h *Handler) RegisterAuthedRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.POST("/password", h.changePassword)
	rg.POST("/logout", h.logout)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type otpVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type otpResendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "email and password are required", nil)
		return
	}

	result, err := h.Svc.RequestOTP(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil)
		case errors.Is(err, ErrOTPPending):
			respond.OK(c, gin.H{
				"otpPending": true,
				"email":      result.Email,
				"expiresIn":  result.ExpiresIn,
				"message":    "An OTP was already sent. Check your email or wait for it to expire.",
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "login failed", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"otpSent":   true,
		"email":     result.Email,
		"expiresIn": result.ExpiresIn,
		"message":   "OTP sent to your email",
	})
}

func (h *Handler) verifyOTP(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "email and otp are required", nil)
		return
	}

	session, result, err := h.Svc.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "verification failed", nil)
		return
	}
	if !result.Valid {
		respond.Error(c, http.StatusUnauthorized, "invalid_otp", result.Message, nil)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookieName, session.Token, SessionMaxAge(), "/", "", h.SecureCookies, true)

	respond.OK(c, gin.H{
		"message": result.Message,
		"token":   session.Token,
		"user": gin.H{
			"id":    session.User.ID,
			"email": session.User.Email,
			"name":  session.User.Name,
			"role":  session.User.Role,
		},
	})
}

func (h *Handler) resendOTP(c *gin.Context) {
	var req otpResendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "email is required", nil)
		return
	}

	result, err := h.Svc.ResendOTP(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "unknown account", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "resend failed", nil)
		return
	}

	respond.OK(c, gin.H{
		"otpSent":   true,
		"email":     result.Email,
		"expiresIn": result.ExpiresIn,
		"message":   "A new OTP has been sent to your email",
	})
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.OK(c, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "currentPassword and newPassword are required", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	err := h.Svc.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		respond.OK(c, gin.H{"message": "password updated"})
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect", nil)
	case errors.Is(err, users.ErrWeakPassword):
		respond.Error(c, http.StatusBadRequest, "weak_password", err.Error(), nil)
	case errors.Is(err, users.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "password change failed", nil)
	}
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", h.SecureCookies, true)
	respond.OK(c, gin.H{"message": "logged out"})
}
