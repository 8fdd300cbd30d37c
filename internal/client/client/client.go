package client

import (
	"context"

	"github.com/dmitrijs2005/hireloop/internal/client/models"
)

// OTPPurpose selects which pending challenge a resend applies to.
type OTPPurpose string

const (
	PurposeRegistration OTPPurpose = "registration"
	PurposeLogin        OTPPurpose = "login"
)

// Sentinel messages the credential store uses on sign-in. They are decoded
// into SignInKind at this boundary and never travel further as strings.
const (
	sentinelRequires2FA        = "REQUIRES_2FA"
	sentinelRequiresOnboarding = "REQUIRES_ONBOARDING"
)

// RegisterRequest is the payload of the register operation.
type RegisterRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	FullName string      `json:"fullName"`
	Role     models.Role `json:"role"`
}

// VerifyOTPResult is what a confirmed registration yields.
type VerifyOTPResult struct {
	Session            models.Session
	RequiresOnboarding bool
}

// SignInKind tags the variants of SignInResult.
type SignInKind int

const (
	SignInRejected SignInKind = iota
	SignInAuthenticated
	SignInNeedsSecondFactor
	SignInNeedsOnboarding
)

func (k SignInKind) String() string {
	switch k {
	case SignInAuthenticated:
		return "authenticated"
	case SignInNeedsSecondFactor:
		return "needs_second_factor"
	case SignInNeedsOnboarding:
		return "needs_onboarding"
	default:
		return "rejected"
	}
}

// SignInResult is the decoded outcome of sign-in and of the second-factor
// challenge. Exactly one group of fields is meaningful per Kind:
//
//	SignInAuthenticated      Session
//	SignInNeedsSecondFactor  Role
//	SignInNeedsOnboarding    Role
//	SignInRejected           Reason
type SignInResult struct {
	Kind    SignInKind
	Session models.Session
	Role    models.Role
	Reason  string
}

// SecondFactorProof answers the sign-in challenge with either the emailed
// code or one backup code.
type SecondFactorProof struct {
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	Code       string      `json:"otp,omitempty"`
	BackupCode string      `json:"backupCode,omitempty"`
}

// TokenSource yields the bearer token for authenticated calls, or "" when
// there is no session.
type TokenSource interface {
	Token() string
}

// CredentialStore is the transport-agnostic contract of the identity backend.
//
// Operations that need a session read the token from the TokenSource the
// implementation was built with. A rejected token on those operations is
// reported as ErrUnauthorized; other server rejections as *APIError;
// network and decoding failures wrap ErrUnavailable.
type CredentialStore interface {
	Register(ctx context.Context, req RegisterRequest) error
	VerifyOTP(ctx context.Context, email, code string, role models.Role) (*VerifyOTPResult, error)
	ResendOTP(ctx context.Context, email string, purpose OTPPurpose) error
	SignIn(ctx context.Context, email, password string, role models.Role) (SignInResult, error)
	VerifySecondFactor(ctx context.Context, proof SecondFactorProof) (SignInResult, error)
	EnableSecondFactor(ctx context.Context) error
	VerifySecondFactorSetup(ctx context.Context, code string) ([]string, error)
	DisableSecondFactor(ctx context.Context) error
	DeleteAccount(ctx context.Context, password string) error
	Me(ctx context.Context) (*models.Identity, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}
