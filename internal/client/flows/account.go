package flows

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/client/nav"
)

const minPasswordLength = 6

type AccountView struct {
	Err     error
	Notice  string
	Loading bool
}

// Account groups the settings actions that are not state machines of their
// own: change password, refresh and sign out.
type Account struct {
	base
	err    error
	notice string
}

func NewAccount(d Deps) *Account {
	a := &Account{}
	a.init("account", d)
	return a
}

func (a *Account) View() AccountView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AccountView{Err: a.err, Notice: a.notice, Loading: a.inFlight}
}

func validatePasswordChange(oldPassword, newPassword, confirm string) error {
	switch {
	case oldPassword == "" || newPassword == "" || confirm == "":
		return &ValidationError{Field: "password", Message: "All fields are required"}
	case newPassword != confirm:
		return &ValidationError{Field: "confirmPassword", Message: "New passwords do not match"}
	case len(newPassword) < minPasswordLength:
		return &ValidationError{Field: "newPassword", Message: "New password must be at least 6 characters"}
	}
	return nil
}

// run performs one authenticated request with the shared guard.
func (a *Account) run(ctx context.Context, step, fallback string, fn func(ctx context.Context) error) error {
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return ErrInFlight
	}
	a.inFlight = true
	a.err, a.notice = nil, ""
	a.mu.Unlock()

	err := a.call(ctx, step, fn)

	a.mu.Lock()
	a.inFlight = false
	if err != nil {
		a.err = surface(err, fallback)
	}
	out := a.err
	a.mu.Unlock()

	if err != nil && errors.Is(err, client.ErrUnauthorized) {
		a.expire(ctx)
	}
	return out
}

func (a *Account) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) error {
	if err := validatePasswordChange(oldPassword, newPassword, confirm); err != nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.inFlight {
			return ErrInFlight
		}
		a.err, a.notice = err, ""
		return err
	}

	err := a.run(ctx, "change-password", "Failed to change password", func(ctx context.Context) error {
		return a.deps.Store.ChangePassword(ctx, oldPassword, newPassword)
	})
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.notice = "Password changed successfully"
	a.mu.Unlock()
	a.log.Info(ctx, "password changed")
	return nil
}

// Refresh re-reads the identity of the current session.
func (a *Account) Refresh(ctx context.Context) error {
	var ident *models.Identity
	err := a.run(ctx, "me", "Failed to load profile", func(ctx context.Context) error {
		var err error
		ident, err = a.deps.Store.Me(ctx)
		return err
	})
	if err != nil || ident == nil {
		return err
	}
	a.deps.Session.UpdateIdentity(func(i *models.Identity) { *i = *ident })
	return nil
}

// SignOut destroys the session and goes to the landing page.
func (a *Account) SignOut(ctx context.Context) error {
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return ErrInFlight
	}
	a.err, a.notice = nil, ""
	a.mu.Unlock()

	if err := a.deps.Session.Destroy(ctx); err != nil {
		a.log.Error(ctx, "failed to clear stored token on sign-out", "error", err)
	}
	a.navigate(ctx, nav.Route{Destination: nav.Landing})
	return nil
}
