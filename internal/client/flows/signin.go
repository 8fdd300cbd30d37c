package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/client/nav"
)

type SignInState int

const (
	SignInFormEntry SignInState = iota
	SignInSubmitting
	SignInAuthenticated
	SignInAwaitingSecondFactor
	SignInAwaitingOnboarding
)

func (s SignInState) String() string {
	switch s {
	case SignInFormEntry:
		return "form_entry"
	case SignInSubmitting:
		return "submitting"
	case SignInAuthenticated:
		return "authenticated"
	case SignInAwaitingSecondFactor:
		return "awaiting_second_factor"
	case SignInAwaitingOnboarding:
		return "awaiting_onboarding"
	default:
		return fmt.Sprintf("signin_state(%d)", int(s))
	}
}

type SignInView struct {
	State   SignInState
	Role    models.Role
	Err     error
	Loading bool
}

type SignIn struct {
	base
	state     SignInState
	role      models.Role
	challenge *Challenge
	err       error
}

func NewSignIn(d Deps) *SignIn {
	s := &SignIn{}
	s.init("signin", d)
	return s
}

func (s *SignIn) View() SignInView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SignInView{State: s.state, Role: s.role, Err: s.err, Loading: s.inFlight}
}

// Challenge returns the outstanding second-factor challenge, or nil when the
// last submit did not end in one.
func (s *SignIn) Challenge() *Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge
}

// must hold s.mu
func (s *SignIn) setState(ctx context.Context, to SignInState) {
	s.transition(ctx, s.state, to)
	s.state = to
}

// Submit sends the credentials and branches on the decoded outcome. Only an
// authenticated outcome produces a session; the challenge outcomes navigate
// without one and are not errors.
func (s *SignIn) Submit(ctx context.Context, email, password string, role models.Role) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrInFlight
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.err = &ValidationError{Field: "email", Message: "Please enter your email and password"}
		s.mu.Unlock()
		return s.err
	}
	if err := requireRole(role); err != nil {
		s.err = err
		s.mu.Unlock()
		return err
	}
	s.inFlight = true
	s.err = nil
	s.challenge = nil
	s.role = role
	s.setState(ctx, SignInSubmitting)
	s.mu.Unlock()

	var res client.SignInResult
	err := s.call(ctx, "sign-in", func(ctx context.Context) error {
		var err error
		res, err = s.deps.Store.SignIn(ctx, email, password, role)
		return err
	})
	if err == nil && res.Kind == client.SignInAuthenticated {
		err = s.establish(ctx, res.Session)
	}

	s.mu.Lock()
	s.inFlight = false
	if err != nil {
		s.err = surface(err, "Sign in failed")
		s.setState(ctx, SignInFormEntry)
		s.mu.Unlock()
		return s.err
	}

	var route nav.Route
	switch res.Kind {
	case client.SignInAuthenticated:
		s.setState(ctx, SignInAuthenticated)
		route = nav.AfterAuthentication(res.Session.Identity.Role, false)

	case client.SignInNeedsSecondFactor:
		s.challenge = newChallenge(s.deps, email, role)
		s.setState(ctx, SignInAwaitingSecondFactor)
		route = nav.Route{Destination: nav.VerifySecondFactor, Role: role}

	case client.SignInNeedsOnboarding:
		if role != models.RoleEmployer {
			s.err = &FormError{Message: "Sign in failed"}
			s.setState(ctx, SignInFormEntry)
			s.mu.Unlock()
			return s.err
		}
		s.setState(ctx, SignInAwaitingOnboarding)
		route = nav.Route{Destination: nav.RecruiterOnboard, Role: role}

	default:
		s.err = &FormError{Message: res.Reason}
		s.setState(ctx, SignInFormEntry)
		s.mu.Unlock()
		return s.err
	}
	s.mu.Unlock()

	s.navigate(ctx, route)
	return nil
}

// ForgotPassword only navigates; recovery lives outside this core.
func (s *SignIn) ForgotPassword(ctx context.Context, role models.Role) {
	s.navigate(ctx, nav.Route{Destination: nav.ForgotPassword, Role: role})
}
