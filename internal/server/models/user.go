// Package models holds the account records owned by the credential store.
package models

import (
	"strings"
	"time"
)

// Role is the kind of account a user registered as.
type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleEmployer  Role = "employer"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r == RoleJobSeeker || r == RoleEmployer
}

// Status is the verification state of an account.
type Status string

const (
	// StatusPending accounts exist until their email code is confirmed.
	StatusPending Status = "pending"
	StatusActive  Status = "active"
)

type User struct {
	ID                  string
	Email               string
	FullName            string
	Role                Role
	PasswordHash        []byte
	Status              Status
	TwoFactorEnabled    bool
	OnboardingCompleted bool
	CreatedAt           time.Time
}

// NeedsOnboarding reports whether an employer still has to finish onboarding.
func (u *User) NeedsOnboarding() bool {
	return u.Role == RoleEmployer && !u.OnboardingCompleted
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
