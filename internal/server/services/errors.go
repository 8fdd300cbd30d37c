package services

import "errors"

// Outcomes of AuthService operations. The HTTP layer maps each one to a
// status code and a user-facing message.
var (
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrNotVerified          = errors.New("email not verified")
	ErrRequires2FA          = errors.New("second factor required")
	ErrRequiresOnboarding   = errors.New("onboarding required")
	ErrInvalidOTP           = errors.New("invalid or expired otp")
	ErrTooManyAttempts      = errors.New("too many otp attempts")
	ErrChallengeExpired     = errors.New("sign-in challenge expired")
	ErrInvalidBackupCode    = errors.New("invalid backup code")
	ErrIncorrectPassword    = errors.New("incorrect password")
	ErrWrongCurrentPassword = errors.New("current password is incorrect")
	ErrTwoFactorEnabled     = errors.New("two-factor authentication already enabled")
	ErrTwoFactorDisabled    = errors.New("two-factor authentication not enabled")
)

// ValidationError is a rejected input; Message is safe to show to users.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }
