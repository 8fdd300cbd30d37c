// Package services contains the credential store's business logic.
// AuthService owns the account lifecycle: registration with an emailed
// code, password sign-in with an optional second factor, backup codes,
// employer onboarding, password change and account deletion.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/common"
	"github.com/dmitrijs2005/hireloop/internal/logging"
	"github.com/dmitrijs2005/hireloop/internal/server/auth"
	"github.com/dmitrijs2005/hireloop/internal/server/config"
	"github.com/dmitrijs2005/hireloop/internal/server/mailer"
	"github.com/dmitrijs2005/hireloop/internal/server/models"
	"github.com/dmitrijs2005/hireloop/internal/server/otpstore"
	"github.com/dmitrijs2005/hireloop/internal/server/repositories/repomanager"
)

// AuthResult is an established session: the account and its access token.
type AuthResult struct {
	User               *models.User
	Token              string
	RequiresOnboarding bool
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// SecondFactorInput answers a sign-in challenge with either Code or BackupCode.
type SecondFactorInput struct {
	Email      string
	Role       string
	Code       string
	BackupCode string
}

type AuthService struct {
	repomanager     repomanager.RepositoryManager
	otps            otpstore.Store
	mailer          mailer.Mailer
	log             logging.Logger
	jwtSecret       []byte
	tokenTTL        time.Duration
	otpTTL          time.Duration
	otpMaxAttempts  int
	backupCodeCount int
	newOTP          func() (string, error)
}

// NewAuthService wires the service to its stores and server config.
func NewAuthService(m repomanager.RepositoryManager, otps otpstore.Store, mail mailer.Mailer, cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		repomanager:     m,
		otps:            otps,
		mailer:          mail,
		log:             log.With("component", "auth"),
		jwtSecret:       []byte(cfg.SecretKey),
		tokenTTL:        cfg.TokenTTL,
		otpTTL:          cfg.OTPTTL,
		otpMaxAttempts:  cfg.OTPMaxAttempts,
		backupCodeCount: cfg.BackupCodeCount,
		newOTP:          auth.NewOTP,
	}
}

// Register creates a pending account, or refreshes one that was never
// verified, and emails it a verification code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	email := models.NormalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	role, ok := models.ParseRole(in.Role)

	switch {
	case email == "" || !strings.Contains(email, "@"):
		return invalid("A valid email is required")
	case fullName == "":
		return invalid("Full name is required")
	case !ok:
		return invalid("Please choose an account type")
	case len(in.Password) < auth.MinPasswordLength:
		return invalid("Password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	users := s.repomanager.Repos().Users
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Status == models.StatusActive:
		return ErrUserExists
	case err == nil:
		existing.FullName, existing.Role, existing.PasswordHash = fullName, role, hash
		if err := users.UpdatePending(ctx, existing); err != nil {
			return fmt.Errorf("update pending user: %w", err)
		}
	case errors.Is(err, common.ErrorNotFound):
		u := &models.User{Email: email, FullName: fullName, Role: role, PasswordHash: hash, Status: models.StatusPending}
		if _, err := users.Create(ctx, u); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return ErrUserExists
			}
			return fmt.Errorf("create user: %w", err)
		}
	default:
		return fmt.Errorf("lookup user: %w", err)
	}

	s.log.Info(ctx, "registration pending", "role", role)
	return s.sendCode(ctx, otpstore.PurposeRegistration, email, email, "Verify your hireloop account")
}

// VerifyOTP activates a pending account and signs it in.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code, role string) (*AuthResult, error) {
	email = models.NormalizeEmail(email)

	user, err := s.userByEmail(ctx, email, ErrInvalidOTP)
	if err != nil {
		return nil, err
	}
	if r, ok := models.ParseRole(role); ok && r != user.Role {
		return nil, invalid("Account type does not match this email")
	}

	if err := s.consumeCode(ctx, otpstore.PurposeRegistration, email, code); err != nil {
		return nil, err
	}

	if user.Status != models.StatusActive {
		if err := s.repomanager.Repos().Users.Activate(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("activate user: %w", err)
		}
		user.Status = models.StatusActive
	}

	s.log.Info(ctx, "account verified", "user_id", user.ID)
	return s.authenticated(user)
}

// ResendOTP issues a fresh code. Unknown emails get no code and no error so
// the call cannot be used to probe for accounts.
func (s *AuthService) ResendOTP(ctx context.Context, email, purpose string) error {
	email = models.NormalizeEmail(email)

	p := otpstore.Purpose(purpose)
	if p != otpstore.PurposeRegistration && p != otpstore.PurposeLogin {
		return invalid("Unknown code purpose")
	}

	user, err := s.repomanager.Repos().Users.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	switch p {
	case otpstore.PurposeRegistration:
		if user.Status != models.StatusPending {
			return nil
		}
		return s.sendCode(ctx, p, email, email, "Verify your hireloop account")
	default:
		// a login code may only be re-sent while a password-checked sign-in waits
		pending, err := s.otps.Pending(ctx, otpstore.Key(p, email))
		if err != nil {
			return fmt.Errorf("check challenge: %w", err)
		}
		if !pending {
			return ErrChallengeExpired
		}
		return s.sendCode(ctx, p, email, email, "Your hireloop sign-in code")
	}
}

// SignIn checks the password. Accounts with a second factor get an emailed
// code and ErrRequires2FA; employers who have not onboarded get
// ErrRequiresOnboarding. Neither yields a token.
func (s *AuthService) SignIn(ctx context.Context, email, password, role string) (*AuthResult, error) {
	user, err := s.checkPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if r, _ := models.ParseRole(role); r != user.Role {
		return nil, ErrInvalidCredentials
	}
	if user.Status != models.StatusActive {
		return nil, ErrNotVerified
	}

	if user.TwoFactorEnabled {
		if err := s.sendCode(ctx, otpstore.PurposeLogin, user.Email, user.Email, "Your hireloop sign-in code"); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "second factor challenge issued", "user_id", user.ID)
		return nil, ErrRequires2FA
	}
	if user.NeedsOnboarding() {
		return nil, ErrRequiresOnboarding
	}

	s.log.Info(ctx, "signed in", "user_id", user.ID)
	return s.authenticated(user)
}

// VerifySecondFactor completes a sign-in challenge with the emailed code or
// a single-use backup code.
func (s *AuthService) VerifySecondFactor(ctx context.Context, in SecondFactorInput) (*AuthResult, error) {
	email := models.NormalizeEmail(in.Email)
	code := strings.TrimSpace(in.Code)
	backup := auth.CanonicalizeBackupCode(in.BackupCode)

	if code == "" && backup == "" {
		return nil, invalid("A verification code or backup code is required")
	}

	user, err := s.userByEmail(ctx, email, ErrInvalidOTP)
	if err != nil {
		return nil, err
	}
	if r, _ := models.ParseRole(in.Role); r != user.Role || !user.TwoFactorEnabled {
		return nil, ErrInvalidOTP
	}

	key := otpstore.Key(otpstore.PurposeLogin, email)
	if backup != "" {
		pending, err := s.otps.Pending(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("check challenge: %w", err)
		}
		if !pending {
			return nil, ErrChallengeExpired
		}

		ok, err := s.repomanager.Repos().BackupCodes.Consume(ctx, user.ID, auth.HashBackupCode(user.ID, backup))
		if err != nil {
			return nil, fmt.Errorf("consume backup code: %w", err)
		}
		if !ok {
			return nil, s.failBackupCode(ctx, key)
		}
		if err := s.otps.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "failed to drop sign-in code", "user_id", user.ID, "error", err)
		}
		s.log.Info(ctx, "backup code used", "user_id", user.ID)
	} else if err := s.consumeCode(ctx, otpstore.PurposeLogin, email, code); err != nil {
		return nil, err
	}

	if user.NeedsOnboarding() {
		return nil, ErrRequiresOnboarding
	}
	return s.authenticated(user)
}

// EnableSecondFactor emails a setup code to the signed-in user.
func (s *AuthService) EnableSecondFactor(ctx context.Context, userID string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled {
		return ErrTwoFactorEnabled
	}
	return s.sendCode(ctx, otpstore.PurposeSetup, user.ID, user.Email, "Confirm two-factor authentication")
}

// ConfirmSecondFactor checks the setup code, turns the second factor on and
// returns a fresh batch of backup codes. Only their hashes are kept.
func (s *AuthService) ConfirmSecondFactor(ctx context.Context, userID, code string) ([]string, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, ErrTwoFactorEnabled
	}

	if err := s.consumeCode(ctx, otpstore.PurposeSetup, user.ID, code); err != nil {
		return nil, err
	}

	codes, err := auth.NewBackupCodes(s.backupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("generate backup codes: %w", err)
	}
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = auth.HashBackupCode(user.ID, auth.CanonicalizeBackupCode(c))
	}

	err = s.repomanager.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if err := r.Users.SetTwoFactor(ctx, user.ID, true); err != nil {
			return err
		}
		return r.BackupCodes.Replace(ctx, user.ID, hashes)
	})
	if err != nil {
		return nil, fmt.Errorf("enable second factor: %w", err)
	}

	s.log.Info(ctx, "second factor enabled", "user_id", user.ID)
	return codes, nil
}

// DisableSecondFactor turns the second factor off and drops backup codes.
func (s *AuthService) DisableSecondFactor(ctx context.Context, userID string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return ErrTwoFactorDisabled
	}

	err = s.repomanager.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if err := r.Users.SetTwoFactor(ctx, user.ID, false); err != nil {
			return err
		}
		return r.BackupCodes.DeleteAll(ctx, user.ID)
	})
	if err != nil {
		return fmt.Errorf("disable second factor: %w", err)
	}

	s.log.Info(ctx, "second factor disabled", "user_id", user.ID)
	return nil
}

// DeleteAccount removes the account after re-checking its password.
func (s *AuthService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return ErrIncorrectPassword
	}

	err = s.repomanager.InTx(ctx, func(ctx context.Context, r repomanager.Repos) error {
		if err := r.BackupCodes.DeleteAll(ctx, user.ID); err != nil {
			return err
		}
		return r.Users.Delete(ctx, user.ID)
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.Info(ctx, "account deleted", "user_id", user.ID)
	return nil
}

// Me loads the account a token was issued to. A deleted account yields
// common.ErrorUnauthorized.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Repos().Users.GetByID(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return invalid("New password must be at least 6 characters")
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, oldPassword) {
		return ErrWrongCurrentPassword
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repomanager.Repos().Users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// CompleteOnboarding marks an employer as onboarded. It takes credentials
// because onboarding happens before the employer can hold a token.
func (s *AuthService) CompleteOnboarding(ctx context.Context, email, password string) error {
	user, err := s.checkPassword(ctx, email, password)
	if err != nil {
		return err
	}
	if user.Role != models.RoleEmployer {
		return invalid("Only employer accounts complete onboarding")
	}
	if user.Status != models.StatusActive {
		return ErrNotVerified
	}

	if err := s.repomanager.Repos().Users.SetOnboardingCompleted(ctx, user.ID); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}

	s.log.Info(ctx, "onboarding completed", "user_id", user.ID)
	return nil
}

// --- helpers below ---

// userByEmail maps a missing account to notFound.
func (s *AuthService) userByEmail(ctx context.Context, email string, notFound error) (*models.User, error) {
	user, err := s.repomanager.Repos().Users.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *AuthService) checkPassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userByEmail(ctx, models.NormalizeEmail(email), ErrInvalidCredentials)
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) authenticated(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{User: user, Token: token, RequiresOnboarding: user.NeedsOnboarding()}, nil
}

func (s *AuthService) sendCode(ctx context.Context, p otpstore.Purpose, subject, to, title string) error {
	code, err := s.newOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.otps.Save(ctx, otpstore.Key(p, subject), auth.HashOTP(code), s.otpTTL); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	msg := mailer.Message{
		To:      to,
		Subject: title,
		Body:    fmt.Sprintf("Your hireloop code is %s. It expires in %s.", code, s.otpTTL),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// failBackupCode charges a wrong backup code to the attempt budget of the
// pending sign-in code.
func (s *AuthService) failBackupCode(ctx context.Context, key string) error {
	err := s.otps.Fail(ctx, key, s.otpMaxAttempts)
	switch {
	case errors.Is(err, otpstore.ErrAttemptsExceeded):
		return ErrTooManyAttempts
	case errors.Is(err, otpstore.ErrNotFound):
		return ErrChallengeExpired
	case err == nil, errors.Is(err, otpstore.ErrMismatch):
		return ErrInvalidBackupCode
	default:
		return fmt.Errorf("count backup code attempt: %w", err)
	}
}

func (s *AuthService) consumeCode(ctx context.Context, p otpstore.Purpose, subject, code string) error {
	code = strings.TrimSpace(code)
	if len(code) != auth.OTPLength {
		return ErrInvalidOTP
	}

	err := s.otps.Consume(ctx, otpstore.Key(p, subject), auth.HashOTP(code), s.otpMaxAttempts)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, otpstore.ErrNotFound), errors.Is(err, otpstore.ErrMismatch):
		return ErrInvalidOTP
	case errors.Is(err, otpstore.ErrAttemptsExceeded):
		return ErrTooManyAttempts
	default:
		return fmt.Errorf("consume otp: %w", err)
	}
}
