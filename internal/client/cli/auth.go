package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hireloop/internal/client/flows"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/client/otp"
	"github.com/dmitrijs2005/hireloop/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var (
	errNoRegistration = errors.New("no registration is waiting for a code, run 'register' first")
	errNoChallenge    = errors.New("no sign-in is waiting for a second factor, run 'signin' first")
	errSignedIn       = errors.New("already signed in, run 'signout' first")
	errNotSignedIn    = errors.New("not signed in")
)

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) askSecret(prompt string) (string, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// askCode types the answer into a six-slot code input the way a paste
// would: separators are dropped and extra digits do not fit.
func (a *App) askCode(prompt string) (string, error) {
	s, err := a.ask(prompt)
	if err != nil {
		return "", err
	}
	var in otp.Input
	in.Fill(s)
	return in.Code(), nil
}

// askRole leaves an unknown answer empty so the flow reports it.
func (a *App) askRole() (models.Role, error) {
	s, err := a.ask("Account type (job_seeker or employer)")
	if err != nil {
		return "", err
	}
	r, err := models.ParseRole(s)
	if err != nil {
		return "", nil
	}
	return r, nil
}

// Register collects the sign-up form and asks the store to send a code.
// A registration waiting for its code is reused, so 'change-email' followed
// by 'register' edits the same attempt.
func (a *App) Register(ctx context.Context) error {
	if a.isSignedIn() {
		return errSignedIn
	}
	if a.registration == nil || a.registration.View().State == flows.RegistrationActivated {
		a.registration = flows.NewRegistration(a.deps)
	}
	if v := a.registration.View(); v.State == flows.RegistrationAwaitingOTP {
		return fmt.Errorf("a code was already sent to %s, use 'verify', 'resend' or 'change-email'", v.Email)
	}

	var (
		form flows.RegistrationForm
		err  error
	)
	if form.FullName, err = a.ask("Full name"); err != nil {
		return err
	}
	if form.Email, err = a.ask("Email"); err != nil {
		return err
	}
	if form.Password, err = a.askSecret("Password"); err != nil {
		return err
	}
	if form.ConfirmPassword, err = a.askSecret("Confirm password"); err != nil {
		return err
	}
	if form.Role, err = a.askRole(); err != nil {
		return err
	}

	if err := a.registration.Submit(ctx, form); err != nil {
		return err
	}
	a.println("We sent a 6-digit code to", a.registration.View().Email+". Run 'verify' to activate the account.")
	return nil
}

// Verify submits the emailed registration code.
func (a *App) Verify(ctx context.Context) error {
	if a.registration == nil || a.registration.View().State != flows.RegistrationAwaitingOTP {
		return errNoRegistration
	}
	code, err := a.askCode("Enter the 6-digit code")
	if err != nil {
		return err
	}
	if err := a.registration.VerifyOTP(ctx, code); err != nil {
		return err
	}
	a.secondFactor.Sync()
	a.println("Account activated.")
	return nil
}

// Resend asks for a new code for whichever step is waiting for one: a
// pending second-factor challenge first, then a pending registration.
func (a *App) Resend(ctx context.Context) error {
	if a.challenge != nil && a.challenge.View().State == flows.ChallengeAwaitingCode {
		if err := a.challenge.Resend(ctx); err != nil {
			return err
		}
		a.println(a.challenge.View().Notice)
		return nil
	}
	if a.registration == nil || a.registration.View().State != flows.RegistrationAwaitingOTP {
		return errNoRegistration
	}
	if err := a.registration.ResendOTP(ctx); err != nil {
		return err
	}
	a.println(a.registration.View().Notice)
	return nil
}

// ChangeEmail drops the pending code so the form can be submitted again.
func (a *App) ChangeEmail(ctx context.Context) error {
	if a.registration == nil {
		return errNoRegistration
	}
	if err := a.registration.ChangeEmail(ctx); err != nil {
		if errors.Is(err, flows.ErrWrongState) {
			return errNoRegistration
		}
		return err
	}
	a.println("Run 'register' again with the new email.")
	return nil
}

// SignIn submits credentials. A second-factor challenge is kept for
// 'verify-2fa' and 'backup-code'.
func (a *App) SignIn(ctx context.Context) error {
	if a.isSignedIn() {
		return errSignedIn
	}
	email, err := a.ask("Email")
	if err != nil {
		return err
	}
	password, err := a.askSecret("Password")
	if err != nil {
		return err
	}
	role, err := a.askRole()
	if err != nil {
		return err
	}

	a.challenge = nil
	if err := a.signIn.Submit(ctx, email, password, role); err != nil {
		return err
	}

	switch a.signIn.View().State {
	case flows.SignInAwaitingSecondFactor:
		a.challenge = a.signIn.Challenge()
		a.println("Enter the code sent to your email with 'verify-2fa', or use 'backup-code'.")
	case flows.SignInAwaitingOnboarding:
		a.println("Complete recruiter onboarding, then sign in again.")
	default:
		a.secondFactor.Sync()
		a.println("Signed in.")
	}
	return nil
}

func (a *App) pendingChallenge() (*flows.Challenge, error) {
	if a.challenge == nil || a.challenge.View().State != flows.ChallengeAwaitingCode {
		return nil, errNoChallenge
	}
	return a.challenge, nil
}

func (a *App) finishChallenge(c *flows.Challenge) {
	if c.View().State != flows.ChallengeCompleted {
		return
	}
	a.challenge = nil
	if a.isSignedIn() {
		a.secondFactor.Sync()
		a.println("Signed in.")
	}
}

// VerifySecondFactor answers the sign-in challenge with the emailed code.
func (a *App) VerifySecondFactor(ctx context.Context) error {
	c, err := a.pendingChallenge()
	if err != nil {
		return err
	}
	code, err := a.askCode("Enter the 6-digit code")
	if err != nil {
		return err
	}
	if err := c.Verify(ctx, code); err != nil {
		return err
	}
	a.finishChallenge(c)
	return nil
}

// BackupCode answers the sign-in challenge with a one-time backup code.
func (a *App) BackupCode(ctx context.Context) error {
	c, err := a.pendingChallenge()
	if err != nil {
		return err
	}
	code, err := a.ask("Enter a backup code (XXXX-XXXX)")
	if err != nil {
		return err
	}
	if err := c.VerifyBackupCode(ctx, code); err != nil {
		return err
	}
	a.finishChallenge(c)
	return nil
}

// Forgot sends the user to password recovery for the chosen role.
func (a *App) Forgot(ctx context.Context) error {
	role, err := a.askRole()
	if err != nil {
		return err
	}
	a.signIn.ForgotPassword(ctx, role)
	return nil
}
