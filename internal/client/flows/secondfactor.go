package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
)

// DisableWarning is shown before the second factor can be turned off.
const DisableWarning = "Disabling two-factor authentication reduces your account security."

type SecondFactorState int

const (
	SecondFactorDisabled SecondFactorState = iota
	SecondFactorInitiating
	SecondFactorAwaitingCode
	SecondFactorConfirming
	SecondFactorEnabled
	SecondFactorConfirmingDisable
	SecondFactorDisabling
)

func (s SecondFactorState) String() string {
	switch s {
	case SecondFactorDisabled:
		return "disabled"
	case SecondFactorInitiating:
		return "initiating"
	case SecondFactorAwaitingCode:
		return "awaiting_code"
	case SecondFactorConfirming:
		return "confirming"
	case SecondFactorEnabled:
		return "enabled"
	case SecondFactorConfirmingDisable:
		return "confirming_disable"
	case SecondFactorDisabling:
		return "disabling"
	default:
		return fmt.Sprintf("second_factor_state(%d)", int(s))
	}
}

type SecondFactorView struct {
	State   SecondFactorState
	Err     error
	Notice  string
	Loading bool
	// Warning is set while disabling awaits confirmation.
	Warning string
	// HasBackupCodes reports whether freshly issued codes wait to be shown.
	HasBackupCodes bool
}

// SecondFactor enrolls and revokes the second factor of the signed-in
// account. Backup codes from a completed enrollment sit in a one-shot buffer
// until DismissBackupCodes or the end of the session that received them;
// they are never persisted or fetched again.
type SecondFactor struct {
	base
	state  SecondFactorState
	codes  []string
	owner  string
	err    error
	notice string
}

// NewSecondFactor starts in Enabled or Disabled according to the current
// identity.
func NewSecondFactor(d Deps) *SecondFactor {
	m := &SecondFactor{}
	m.init("second_factor", d)
	m.state = m.stateFromSession()
	return m
}

func (m *SecondFactor) stateFromSession() SecondFactorState {
	if s, ok := m.deps.Session.Current(); ok && s.Identity.TwoFactorEnabled {
		return SecondFactorEnabled
	}
	return SecondFactorDisabled
}

// Sync re-reads the identity flag while no dialog is open and forgets
// backup codes the current session did not receive.
func (m *SecondFactor) Sync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropForeignCodes()
	if m.inFlight {
		return
	}
	if m.state == SecondFactorDisabled || m.state == SecondFactorEnabled {
		m.state = m.stateFromSession()
	}
}

func (m *SecondFactor) View() SecondFactorView {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropForeignCodes()
	v := SecondFactorView{
		State:          m.state,
		Err:            m.err,
		Notice:         m.notice,
		Loading:        m.inFlight,
		HasBackupCodes: len(m.codes) > 0,
	}
	if m.state == SecondFactorConfirmingDisable || m.state == SecondFactorDisabling {
		v.Warning = DisableWarning
	}
	return v
}

// must hold m.mu
func (m *SecondFactor) setState(ctx context.Context, to SecondFactorState) {
	m.transition(ctx, m.state, to)
	m.state = to
}

// start moves from one of the allowed states into the in-flight state.
func (m *SecondFactor) start(ctx context.Context, to SecondFactorState, from ...SecondFactorState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return ErrInFlight
	}
	allowed := false
	for _, f := range from {
		if m.state == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrWrongState
	}
	m.inFlight = true
	m.err, m.notice = nil, ""
	m.setState(ctx, to)
	return nil
}

// fail records err, puts the manager back in state back and, when the token
// was rejected, ends the session. Must not hold m.mu.
func (m *SecondFactor) fail(ctx context.Context, err error, back SecondFactorState, fallback string) error {
	m.mu.Lock()
	m.inFlight = false
	m.err = surface(err, fallback)
	m.setState(ctx, back)
	out := m.err
	m.mu.Unlock()

	if errors.Is(err, client.ErrUnauthorized) {
		m.expire(ctx)
	}
	return out
}

// Initiate asks the store to send an enrollment code.
func (m *SecondFactor) Initiate(ctx context.Context) error {
	if err := m.start(ctx, SecondFactorInitiating, SecondFactorDisabled); err != nil {
		return err
	}

	err := m.call(ctx, "enable-2fa", m.deps.Store.EnableSecondFactor)
	if err != nil {
		return m.fail(ctx, err, SecondFactorDisabled, "Failed to initiate 2FA setup")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	m.notice = "A verification code has been sent to your email"
	m.setState(ctx, SecondFactorAwaitingCode)
	return nil
}

// Confirm completes enrollment with the emailed code. On success the
// identity flag flips and the issued backup codes wait in the one-shot
// buffer.
func (m *SecondFactor) Confirm(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.inFlight {
			return ErrInFlight
		}
		if m.state != SecondFactorAwaitingCode {
			return ErrWrongState
		}
		m.err = &ValidationError{Field: "otp", Message: "Please enter the verification code"}
		return m.err
	}

	if err := m.start(ctx, SecondFactorConfirming, SecondFactorAwaitingCode); err != nil {
		return err
	}

	var codes []string
	err := m.call(ctx, "verify-2fa-setup", func(ctx context.Context) error {
		var err error
		codes, err = m.deps.Store.VerifySecondFactorSetup(ctx, code)
		return err
	})
	if err != nil {
		return m.fail(ctx, err, SecondFactorAwaitingCode, "Invalid verification code")
	}

	m.deps.Session.UpdateIdentity(func(i *models.Identity) { i.TwoFactorEnabled = true })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	m.dropCodes()
	if s, ok := m.deps.Session.Current(); ok {
		m.codes, m.owner = codes, s.Identity.ID
	}
	m.notice = "Two-factor authentication enabled"
	m.setState(ctx, SecondFactorEnabled)
	return nil
}

// CancelEnrollment closes the enrollment dialog.
func (m *SecondFactor) CancelEnrollment(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return ErrInFlight
	}
	if m.state != SecondFactorAwaitingCode {
		return ErrWrongState
	}
	m.err, m.notice = nil, ""
	m.setState(ctx, SecondFactorDisabled)
	return nil
}

// RequestDisable opens the confirmation step and returns the warning to
// show. DisableSecondFactor is only reachable through here.
func (m *SecondFactor) RequestDisable(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return "", ErrInFlight
	}
	if m.state != SecondFactorEnabled {
		return "", ErrWrongState
	}
	m.err, m.notice = nil, ""
	m.setState(ctx, SecondFactorConfirmingDisable)
	return DisableWarning, nil
}

func (m *SecondFactor) CancelDisable(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return ErrInFlight
	}
	if m.state != SecondFactorConfirmingDisable {
		return ErrWrongState
	}
	m.setState(ctx, SecondFactorEnabled)
	return nil
}

// ConfirmDisable turns the second factor off. Any backup codes still
// waiting to be shown are dropped with it.
func (m *SecondFactor) ConfirmDisable(ctx context.Context) error {
	if err := m.start(ctx, SecondFactorDisabling, SecondFactorConfirmingDisable); err != nil {
		return err
	}

	err := m.call(ctx, "disable-2fa", m.deps.Store.DisableSecondFactor)
	if err != nil {
		return m.fail(ctx, err, SecondFactorEnabled, "Failed to disable 2FA")
	}

	m.deps.Session.UpdateIdentity(func(i *models.Identity) { i.TwoFactorEnabled = false })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	m.dropCodes()
	m.notice = "Two-factor authentication disabled"
	m.setState(ctx, SecondFactorDisabled)
	return nil
}

// BackupCodes returns a copy of the codes waiting to be shown.
func (m *SecondFactor) BackupCodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropForeignCodes()
	return append([]string(nil), m.codes...)
}

// DismissBackupCodes drops the codes for good.
func (m *SecondFactor) DismissBackupCodes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropCodes()
}

// must hold m.mu
func (m *SecondFactor) dropCodes() {
	for i := range m.codes {
		m.codes[i] = ""
	}
	m.codes, m.owner = nil, ""
}

// dropForeignCodes forgets codes once the session that received them is
// gone or belongs to another account. Must hold m.mu.
func (m *SecondFactor) dropForeignCodes() {
	if m.codes == nil {
		return
	}
	if s, ok := m.deps.Session.Current(); !ok || s.Identity.ID != m.owner {
		m.dropCodes()
	}
}
