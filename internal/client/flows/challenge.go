package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/client/nav"
	"github.com/dmitrijs2005/hireloop/internal/client/otp"
)

type ChallengeState int

const (
	ChallengeAwaitingCode ChallengeState = iota
	ChallengeVerifying
	ChallengeCompleted
	ChallengeCancelled
)

func (s ChallengeState) String() string {
	switch s {
	case ChallengeAwaitingCode:
		return "awaiting_code"
	case ChallengeVerifying:
		return "verifying"
	case ChallengeCompleted:
		return "completed"
	case ChallengeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("challenge_state(%d)", int(s))
	}
}

type ChallengeView struct {
	State   ChallengeState
	Email   string
	Role    models.Role
	Err     error
	Notice  string
	Loading bool
}

// Challenge is the second-factor step of a sign-in. It owns the email and
// role the sign-in was attempted with; no token exists until it completes.
type Challenge struct {
	base
	email  string
	role   models.Role
	state  ChallengeState
	err    error
	notice string
}

func newChallenge(d Deps, email string, role models.Role) *Challenge {
	c := &Challenge{email: email, role: role}
	c.init("challenge", d)
	return c
}

func (c *Challenge) View() ChallengeView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChallengeView{
		State:   c.state,
		Email:   c.email,
		Role:    c.role,
		Err:     c.err,
		Notice:  c.notice,
		Loading: c.inFlight,
	}
}

// must hold c.mu
func (c *Challenge) setState(ctx context.Context, to ChallengeState) {
	c.transition(ctx, c.state, to)
	c.state = to
}

// Verify answers the challenge with the emailed six-digit code.
func (c *Challenge) Verify(ctx context.Context, code string) error {
	if otp.Validate(code) != nil {
		return c.reject(&ValidationError{Field: "otp", Message: msgInvalidOTP})
	}
	return c.verify(ctx, client.SecondFactorProof{Code: code})
}

// VerifyBackupCode answers the challenge with one unused backup code.
func (c *Challenge) VerifyBackupCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return c.reject(&ValidationError{Field: "backupCode", Message: "Please enter a backup code"})
	}
	return c.verify(ctx, client.SecondFactorProof{BackupCode: code})
}

func (c *Challenge) reject(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrInFlight
	}
	if c.state != ChallengeAwaitingCode {
		return ErrWrongState
	}
	c.err = err
	return err
}

func (c *Challenge) verify(ctx context.Context, proof client.SecondFactorProof) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrInFlight
	}
	if c.state != ChallengeAwaitingCode {
		c.mu.Unlock()
		return ErrWrongState
	}
	c.inFlight = true
	c.err, c.notice = nil, ""
	c.setState(ctx, ChallengeVerifying)
	proof.Email, proof.Role = c.email, c.role
	c.mu.Unlock()

	var res client.SignInResult
	err := c.call(ctx, "verify-2fa", func(ctx context.Context) error {
		var err error
		res, err = c.deps.Store.VerifySecondFactor(ctx, proof)
		return err
	})
	if err == nil && res.Kind == client.SignInAuthenticated {
		err = c.establish(ctx, res.Session)
	}

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.err = surface(err, "Verification failed")
		c.setState(ctx, ChallengeAwaitingCode)
		c.mu.Unlock()
		return c.err
	}

	var route nav.Route
	switch res.Kind {
	case client.SignInAuthenticated:
		route = nav.AfterAuthentication(res.Session.Identity.Role, false)
	case client.SignInNeedsOnboarding:
		route = nav.Route{Destination: nav.RecruiterOnboard, Role: c.role}
	default:
		reason := res.Reason
		if reason == "" {
			reason = "Verification failed"
		}
		c.err = &FormError{Message: reason}
		c.setState(ctx, ChallengeAwaitingCode)
		c.mu.Unlock()
		return c.err
	}
	c.setState(ctx, ChallengeCompleted)
	c.mu.Unlock()

	c.navigate(ctx, route)
	return nil
}

// Resend asks for a fresh sign-in code.
func (c *Challenge) Resend(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrInFlight
	}
	if c.state != ChallengeAwaitingCode {
		c.mu.Unlock()
		return ErrWrongState
	}
	c.inFlight = true
	c.err, c.notice = nil, ""
	c.mu.Unlock()

	err := c.call(ctx, "resend-otp", func(ctx context.Context) error {
		return c.deps.Store.ResendOTP(ctx, c.email, client.PurposeLogin)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err != nil {
		c.err = surface(err, "Failed to resend OTP")
		return c.err
	}
	c.notice = "A new code has been sent to " + c.email
	return nil
}

// Cancel abandons the challenge and returns to the auth screen.
func (c *Challenge) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrInFlight
	}
	if c.state != ChallengeAwaitingCode {
		c.mu.Unlock()
		return ErrWrongState
	}
	c.err, c.notice = nil, ""
	c.setState(ctx, ChallengeCancelled)
	role := c.role
	c.mu.Unlock()

	c.navigate(ctx, nav.Route{Destination: nav.Auth, Role: role})
	return nil
}
