package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/hireloop/internal/common"
	"github.com/dmitrijs2005/hireloop/internal/server/models"
	"github.com/dmitrijs2005/hireloop/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Messages the client matches on verbatim.
const (
	msgRequires2FA        = "REQUIRES_2FA"
	msgRequiresOnboarding = "REQUIRES_ONBOARDING"
	msgUnauthorized       = "Unauthorized"
	msgInternal           = "Internal server error"
	msgBadRequest         = "Invalid request body"
)

type envelope struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	Data        any      `json:"data,omitempty"`
	BackupCodes []string `json:"backupCodes,omitempty"`
}

type identity struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	FullName            string `json:"fullName"`
	TwoFactorEnabled    bool   `json:"twoFactorEnabled"`
	OnboardingCompleted bool   `json:"onboardingCompleted"`
}

type authPayload struct {
	User               identity `json:"user"`
	Token              string   `json:"token"`
	RequiresOnboarding bool     `json:"requiresOnboarding"`
}

func toIdentity(u *models.User) identity {
	return identity{
		ID:                  u.ID,
		Email:               u.Email,
		Role:                string(u.Role),
		FullName:            u.FullName,
		TwoFactorEnabled:    u.TwoFactorEnabled,
		OnboardingCompleted: u.OnboardingCompleted,
	}
}

func toAuthPayload(r *services.AuthResult) authPayload {
	return authPayload{User: toIdentity(r.User), Token: r.Token, RequiresOnboarding: r.RequiresOnboarding}
}

func success(msg string) envelope { return envelope{Success: true, Message: msg} }

func failure(msg string) envelope { return envelope{Success: false, Message: msg} }

type errorMapping struct {
	err     error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{services.ErrUserExists, http.StatusConflict, "User already exists"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{services.ErrNotVerified, http.StatusForbidden, "Please verify your email before signing in"},
	{services.ErrRequires2FA, http.StatusForbidden, msgRequires2FA},
	{services.ErrRequiresOnboarding, http.StatusForbidden, msgRequiresOnboarding},
	{services.ErrInvalidOTP, http.StatusBadRequest, "Invalid or expired OTP"},
	{services.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many attempts, request a new code"},
	{services.ErrChallengeExpired, http.StatusBadRequest, "Sign-in expired, please sign in again"},
	{services.ErrInvalidBackupCode, http.StatusBadRequest, "Invalid backup code"},
	{services.ErrIncorrectPassword, http.StatusBadRequest, "Incorrect password"},
	{services.ErrWrongCurrentPassword, http.StatusBadRequest, "Current password is incorrect"},
	{services.ErrTwoFactorEnabled, http.StatusBadRequest, "Two-factor authentication is already enabled"},
	{services.ErrTwoFactorDisabled, http.StatusBadRequest, "Two-factor authentication is not enabled"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, msgUnauthorized},
}

// statusFor maps a service error to its HTTP status and user-facing message.
// Anything unknown is a 500 whose cause stays in the server log.
func statusFor(err error) (int, string) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, msgInternal
}

func (s *HTTPServer) fail(c *gin.Context, op string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), op+" failed", "error", err, "request_id", c.GetString(requestIDKey))
	}
	c.JSON(status, failure(msg))
}
