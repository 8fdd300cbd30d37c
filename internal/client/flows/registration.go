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

type RegistrationState int

const (
	RegistrationFormEntry RegistrationState = iota
	RegistrationSubmitting
	RegistrationAwaitingOTP
	RegistrationVerifyingOTP
	RegistrationActivated
)

func (s RegistrationState) String() string {
	switch s {
	case RegistrationFormEntry:
		return "form_entry"
	case RegistrationSubmitting:
		return "submitting"
	case RegistrationAwaitingOTP:
		return "awaiting_otp"
	case RegistrationVerifyingOTP:
		return "verifying_otp"
	case RegistrationActivated:
		return "activated"
	default:
		return fmt.Sprintf("registration_state(%d)", int(s))
	}
}

type RegistrationForm struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            models.Role
}

func (f RegistrationForm) validate() error {
	if strings.TrimSpace(f.FullName) == "" {
		return &ValidationError{Field: "fullName", Message: "Full name is required"}
	}
	if strings.TrimSpace(f.Email) == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if f.Password != f.ConfirmPassword {
		return &ValidationError{Field: "confirmPassword", Message: "Passwords do not match"}
	}
	return requireRole(f.Role)
}

// pendingRegistration lives between a successful register and a
// successful verify-otp.
type pendingRegistration struct {
	email string
	role  models.Role
}

// RegistrationView is a snapshot for rendering.
type RegistrationView struct {
	State   RegistrationState
	Email   string
	Role    models.Role
	Err     error
	Notice  string
	Loading bool
}

type Registration struct {
	base
	state   RegistrationState
	pending *pendingRegistration
	err     error
	notice  string
}

func NewRegistration(d Deps) *Registration {
	r := &Registration{}
	r.init("registration", d)
	return r
}

func (r *Registration) View() RegistrationView {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := RegistrationView{State: r.state, Err: r.err, Notice: r.notice, Loading: r.inFlight}
	if r.pending != nil {
		v.Email = r.pending.email
		v.Role = r.pending.role
	}
	return v
}

// must hold r.mu
func (r *Registration) setState(ctx context.Context, to RegistrationState) {
	r.transition(ctx, r.state, to)
	r.state = to
}

// Submit validates the form locally and, if it passes, asks the store to
// register the account and send a code to the email.
func (r *Registration) Submit(ctx context.Context, form RegistrationForm) error {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return ErrInFlight
	}
	if r.state != RegistrationFormEntry {
		r.mu.Unlock()
		return ErrWrongState
	}
	if err := form.validate(); err != nil {
		r.err = err
		r.mu.Unlock()
		return err
	}
	r.inFlight = true
	r.err, r.notice = nil, ""
	r.setState(ctx, RegistrationSubmitting)
	r.mu.Unlock()

	email := strings.TrimSpace(form.Email)
	err := r.call(ctx, "register", func(ctx context.Context) error {
		return r.deps.Store.Register(ctx, client.RegisterRequest{
			Email:    email,
			Password: form.Password,
			FullName: strings.TrimSpace(form.FullName),
			Role:     form.Role,
		})
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = false
	if err != nil {
		r.err = surface(err, "Registration failed")
		r.setState(ctx, RegistrationFormEntry)
		return r.err
	}
	r.pending = &pendingRegistration{email: email, role: form.Role}
	r.setState(ctx, RegistrationAwaitingOTP)
	return nil
}

// VerifyOTP submits the emailed code. The session is established only when
// the store accepts it.
func (r *Registration) VerifyOTP(ctx context.Context, code string) error {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return ErrInFlight
	}
	if r.state != RegistrationAwaitingOTP || r.pending == nil {
		r.mu.Unlock()
		return ErrWrongState
	}
	if otp.Validate(code) != nil {
		r.err = &ValidationError{Field: "otp", Message: msgInvalidOTP}
		r.mu.Unlock()
		return r.err
	}
	r.inFlight = true
	r.err, r.notice = nil, ""
	r.setState(ctx, RegistrationVerifyingOTP)
	p := *r.pending
	r.mu.Unlock()

	var res *client.VerifyOTPResult
	err := r.call(ctx, "verify-otp", func(ctx context.Context) error {
		var err error
		res, err = r.deps.Store.VerifyOTP(ctx, p.email, code, p.role)
		return err
	})
	if err == nil {
		err = r.establish(ctx, res.Session)
	}

	r.mu.Lock()
	r.inFlight = false
	if err != nil {
		r.err = surface(err, "Verification failed")
		r.setState(ctx, RegistrationAwaitingOTP)
		r.mu.Unlock()
		return r.err
	}
	r.pending = nil
	r.setState(ctx, RegistrationActivated)
	r.mu.Unlock()

	r.navigate(ctx, nav.AfterAuthentication(res.Session.Identity.Role, res.RequiresOnboarding))
	return nil
}

// ResendOTP asks for a fresh code for the pending email.
func (r *Registration) ResendOTP(ctx context.Context) error {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return ErrInFlight
	}
	if r.state != RegistrationAwaitingOTP || r.pending == nil {
		r.mu.Unlock()
		return ErrWrongState
	}
	r.inFlight = true
	r.err, r.notice = nil, ""
	email := r.pending.email
	r.mu.Unlock()

	err := r.call(ctx, "resend-otp", func(ctx context.Context) error {
		return r.deps.Store.ResendOTP(ctx, email, client.PurposeRegistration)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = false
	if err != nil {
		r.err = surface(err, "Failed to resend OTP")
		return r.err
	}
	r.notice = "A new code has been sent to " + email
	return nil
}

// ChangeEmail drops the pending registration and returns to the form.
func (r *Registration) ChangeEmail(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight {
		return ErrInFlight
	}
	if r.state != RegistrationAwaitingOTP {
		return ErrWrongState
	}
	r.pending = nil
	r.err, r.notice = nil, ""
	r.setState(ctx, RegistrationFormEntry)
	return nil
}
