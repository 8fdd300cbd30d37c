package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/nav"
)

type DeletionState int

const (
	DeletionIdle DeletionState = iota
	DeletionConfirmEntry
	DeletionFinalWarning
	DeletionDeleting
	DeletionSessionDestroyed
)

func (s DeletionState) String() string {
	switch s {
	case DeletionIdle:
		return "idle"
	case DeletionConfirmEntry:
		return "confirm_entry"
	case DeletionFinalWarning:
		return "final_warning"
	case DeletionDeleting:
		return "deleting"
	case DeletionSessionDestroyed:
		return "session_destroyed"
	default:
		return fmt.Sprintf("deletion_state(%d)", int(s))
	}
}

// DeletionView is a snapshot for rendering. Password is the content of the
// password field; it is empty outside ConfirmEntry and FinalWarning.
type DeletionView struct {
	State    DeletionState
	Password string
	Err      error
	Loading  bool
}

// Deletion removes the account in two steps: the password is entered, then
// an explicit final confirmation sends it with the delete request. The
// password is owned by the flow between the two steps.
type Deletion struct {
	base
	state    DeletionState
	password string
	err      error
}

func NewDeletion(d Deps) *Deletion {
	f := &Deletion{}
	f.init("deletion", d)
	return f
}

func (f *Deletion) View() DeletionView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return DeletionView{State: f.state, Password: f.password, Err: f.err, Loading: f.inFlight}
}

// must hold f.mu
func (f *Deletion) setState(ctx context.Context, to DeletionState) {
	f.transition(ctx, f.state, to)
	f.state = to
}

// must hold f.mu
func (f *Deletion) check(want DeletionState) error {
	if f.inFlight {
		return ErrInFlight
	}
	if f.state != want {
		return ErrWrongState
	}
	return nil
}

func (f *Deletion) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(DeletionIdle); err != nil {
		return err
	}
	f.err = nil
	f.password = ""
	f.setState(ctx, DeletionConfirmEntry)
	return nil
}

// SubmitPassword advances to the final warning. Nothing is sent yet.
func (f *Deletion) SubmitPassword(ctx context.Context, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(DeletionConfirmEntry); err != nil {
		return err
	}
	if password == "" {
		f.err = &ValidationError{Field: "password", Message: "Please enter your password to confirm"}
		return f.err
	}
	f.err = nil
	f.password = password
	f.setState(ctx, DeletionFinalWarning)
	return nil
}

// GoBack returns to password entry keeping what was typed.
func (f *Deletion) GoBack(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(DeletionFinalWarning); err != nil {
		return err
	}
	f.setState(ctx, DeletionConfirmEntry)
	return nil
}

// Cancel closes the dialog and forgets the password.
func (f *Deletion) Cancel(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return ErrInFlight
	}
	if f.state != DeletionConfirmEntry && f.state != DeletionFinalWarning {
		return ErrWrongState
	}
	f.password = ""
	f.err = nil
	f.setState(ctx, DeletionIdle)
	return nil
}

// Confirm deletes the account. On success the session is destroyed and the
// user lands on the landing page. On failure the flow returns to password
// entry with the field emptied.
func (f *Deletion) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if err := f.check(DeletionFinalWarning); err != nil {
		f.mu.Unlock()
		return err
	}
	f.inFlight = true
	f.err = nil
	password := f.password
	f.setState(ctx, DeletionDeleting)
	f.mu.Unlock()

	err := f.call(ctx, "delete-account", func(ctx context.Context) error {
		return f.deps.Store.DeleteAccount(ctx, password)
	})

	if err != nil {
		f.mu.Lock()
		f.inFlight = false
		f.password = ""
		f.err = surface(err, "Failed to delete account")
		out := f.err
		if errors.Is(err, client.ErrUnauthorized) {
			f.setState(ctx, DeletionIdle)
		} else {
			f.setState(ctx, DeletionConfirmEntry)
		}
		f.mu.Unlock()

		if errors.Is(err, client.ErrUnauthorized) {
			f.expire(ctx)
		}
		return out
	}

	if err := f.deps.Session.Destroy(ctx); err != nil {
		f.log.Error(ctx, "failed to destroy session after account deletion", "error", err)
	}

	f.mu.Lock()
	f.inFlight = false
	f.password = ""
	f.setState(ctx, DeletionSessionDestroyed)
	f.mu.Unlock()

	f.navigate(ctx, nav.Route{Destination: nav.Landing})
	return nil
}
