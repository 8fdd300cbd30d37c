// Package otpstore keeps short-lived one-time codes keyed by purpose and
// subject. Only code hashes are stored. A code is deleted when it is
// consumed, when it expires and when too many wrong guesses were made.
package otpstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("otp not found or expired")
	ErrMismatch         = errors.New("otp mismatch")
	ErrAttemptsExceeded = errors.New("otp attempts exceeded")
	ErrUnavailable      = errors.New("otp store unavailable")
)

// Purpose separates codes issued for different steps so that a code sent
// for one step cannot satisfy another.
type Purpose string

const (
	PurposeRegistration Purpose = "registration"
	PurposeLogin        Purpose = "login"
	PurposeSetup        Purpose = "2fa-setup"
)

type Store interface {
	// Save replaces any pending code for key.
	Save(ctx context.Context, key, codeHash string, ttl time.Duration) error
	// Consume deletes the code on a match. A mismatch counts as an attempt;
	// reaching maxAttempts burns the code and yields ErrAttemptsExceeded.
	Consume(ctx context.Context, key, codeHash string, maxAttempts int) error
	// Fail counts a wrong guess made by other means while the code under key
	// is pending. It yields ErrMismatch, or ErrAttemptsExceeded once the
	// guess reaches maxAttempts and the code is burned.
	Fail(ctx context.Context, key string, maxAttempts int) error
	// Pending reports whether an unexpired code is waiting under key.
	Pending(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Key builds the store key of a code. subject is an email or a user ID.
func Key(p Purpose, subject string) string {
	return "otp:" + string(p) + ":" + strings.ToLower(strings.TrimSpace(subject))
}
