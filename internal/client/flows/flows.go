// Package flows implements the authentication and account-verification
// state machines of the hireloop client.
//
// # Flows
//
//  1. Registration: form, email OTP, activation.
//  2. SignIn: form, then one of authenticated, second-factor challenge
//     (served by Challenge) or employer onboarding.
//  3. SecondFactor: enrollment with shown-once backup codes, and revocation
//     behind an explicit warning.
//  4. Deletion: password entry, final warning, irreversible delete.
//  5. Account: change password, sign out, refresh the identity.
//
// Every flow runs one credential store request at a time. A second submit
// while one is outstanding returns ErrInFlight without touching the network.
// No session exists until every challenge the store asks for is satisfied.
//
// # Errors
//
// Local validation failures are *ValidationError and never reach the
// network. Store rejections and transport failures are *FormError carrying
// the text to show. A rejected session token destroys the session and sends
// the user to the auth screen.
package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/client/nav"
	"github.com/dmitrijs2005/hireloop/internal/client/session"
	"github.com/dmitrijs2005/hireloop/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single credential store request.
const DefaultTimeout = 15 * time.Second

const tracerName = "github.com/dmitrijs2005/hireloop/internal/client/flows"

const (
	msgInvalidOTP     = "Please enter a valid 6-digit OTP"
	msgSessionExpired = "Your session has expired. Please sign in again."
)

var (
	ErrInFlight   = errors.New("a request is already in progress")
	ErrWrongState = errors.New("not allowed in the current state")
)

// ValidationError is a local input failure. Field names the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// FormError is a failure reported back by the credential store, or the
// fallback text when the store could not be reached.
type FormError struct {
	Message string
	Err     error
}

func (e *FormError) Error() string { return e.Message }
func (e *FormError) Unwrap() error { return e.Err }

// Deps are the collaborators every flow needs.
type Deps struct {
	Store     client.CredentialStore
	Session   session.Writer
	Navigator nav.Navigator
	Logger    logging.Logger
	Timeout   time.Duration
}

// base carries what all flows share: the single-request guard, tracing and
// logging. mu also guards the state of the embedding flow.
type base struct {
	name     string
	deps     Deps
	log      logging.Logger
	tracer   trace.Tracer
	mu       sync.Mutex
	inFlight bool
}

func (b *base) init(name string, d Deps) {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}
	b.name = name
	b.deps = d
	b.log = d.Logger.With("flow", name)
	b.tracer = otel.Tracer(tracerName)
}

// Loading reports whether a request is outstanding.
func (b *base) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight
}

// call runs one store request under the flow timeout and a span.
func (b *base) call(ctx context.Context, step string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.deps.Timeout)
	defer cancel()

	ctx, span := b.tracer.Start(ctx, b.name+"."+step)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, step+" failed")
	}
	return err
}

// establish stores s unless ctx was cancelled while the request ran.
func (b *base) establish(ctx context.Context, s models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.deps.Session.Establish(ctx, s)
}

func (b *base) transition(ctx context.Context, from, to fmt.Stringer) {
	if from.String() == to.String() {
		return
	}
	b.log.Info(ctx, "flow transition", "from", from.String(), "to", to.String())
}

func (b *base) navigate(ctx context.Context, r nav.Route) {
	b.log.Debug(ctx, "navigate", "route", r.String())
	b.deps.Navigator.Navigate(ctx, r)
}

// expire handles a rejected session token.
func (b *base) expire(ctx context.Context) {
	role := models.Role("")
	if s, ok := b.deps.Session.Current(); ok {
		role = s.Identity.Role
	}
	if err := b.deps.Session.Destroy(ctx); err != nil {
		b.log.Error(ctx, "failed to destroy session", "error", err)
	}
	b.navigate(ctx, nav.Route{Destination: nav.Auth, Role: role})
}

// surface turns a store failure into the error shown to the user.
func surface(err error, fallback string) *FormError {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return &FormError{Message: apiErr.Message, Err: err}
	case errors.Is(err, client.ErrUnauthorized):
		return &FormError{Message: msgSessionExpired, Err: err}
	default:
		return &FormError{Message: fallback, Err: err}
	}
}

func requireRole(r models.Role) error {
	if !r.Valid() {
		return &ValidationError{Field: "role", Message: "Please choose an account type"}
	}
	return nil
}
