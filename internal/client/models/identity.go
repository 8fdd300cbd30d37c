// Package models defines the client-side projection of the accounts the
// credential store owns: roles, identities and sessions.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the kind of account. Every identity has exactly one.
type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleEmployer  Role = "employer"
)

// ErrInvalidRole is returned by ParseRole for anything but the two known roles.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole accepts "job_seeker" or "employer", case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	return r == RoleJobSeeker || r == RoleEmployer
}

func (r Role) String() string { return string(r) }

// Identity is the read-only projection of an authenticated principal.
// OnboardingCompleted is meaningful for employers only.
type Identity struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	Role                Role   `json:"role"`
	FullName            string `json:"fullName"`
	TwoFactorEnabled    bool   `json:"twoFactorEnabled"`
	OnboardingCompleted bool   `json:"onboardingCompleted"`
}

// NeedsOnboarding reports whether the onboarding gate still applies.
func (i Identity) NeedsOnboarding() bool {
	return i.Role == RoleEmployer && !i.OnboardingCompleted
}
