package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/flows"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
)

const finalDeletionWarning = "This permanently deletes your account and cannot be undone.\n" +
	"Type 'delete' to confirm, 'back' to re-enter the password, anything else to cancel"

func (a *App) requireSession() error {
	if !a.isSignedIn() {
		return errNotSignedIn
	}
	return nil
}

// EnableSecondFactor starts enrollment; the store emails a code.
func (a *App) EnableSecondFactor(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	a.secondFactor.Sync()
	if err := a.secondFactor.Initiate(ctx); err != nil {
		return err
	}
	a.println("A verification code was sent to your email. Run 'confirm-2fa' to finish.")
	return nil
}

// ConfirmSecondFactor completes enrollment and shows the backup codes.
func (a *App) ConfirmSecondFactor(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	code, err := a.askCode("Enter the verification code")
	if err != nil {
		return err
	}
	if err := a.secondFactor.Confirm(ctx, code); err != nil {
		return err
	}
	a.println("Two-factor authentication enabled.")
	a.printBackupCodes()
	a.println("Save these codes now. Run 'codes' to see them again before dismissing them.")
	return nil
}

func (a *App) printBackupCodes() {
	for _, c := range a.secondFactor.BackupCodes() {
		a.println("  " + c)
	}
}

// ShowBackupCodes prints the codes from the last enrollment and offers to
// dismiss them. Dismissed codes cannot be shown again.
func (a *App) ShowBackupCodes(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	a.secondFactor.Sync()
	if !a.secondFactor.View().HasBackupCodes {
		a.println("No new backup codes to show.")
		return nil
	}
	a.printBackupCodes()
	ans, err := a.ask("Have you saved them? (yes/no)")
	if err != nil {
		return err
	}
	if strings.EqualFold(ans, "yes") {
		a.secondFactor.DismissBackupCodes()
		a.println("Backup codes dismissed.")
	}
	return nil
}

// DisableSecondFactor shows the warning and disables only on an explicit yes.
func (a *App) DisableSecondFactor(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	a.secondFactor.Sync()
	warning, err := a.secondFactor.RequestDisable(ctx)
	if err != nil {
		return err
	}
	a.println(warning)

	ans, err := a.ask("Type 'yes' to disable two-factor authentication")
	if err != nil {
		_ = a.secondFactor.CancelDisable(ctx)
		return err
	}
	if !strings.EqualFold(ans, "yes") {
		a.println("Cancelled.")
		return a.secondFactor.CancelDisable(ctx)
	}
	if err := a.secondFactor.ConfirmDisable(ctx); err != nil {
		return err
	}
	a.println("Two-factor authentication disabled.")
	return nil
}

// DeleteAccount walks the two-step deletion: password, then a final
// confirmation. 'back' returns to the password step, where an empty answer
// keeps the password entered before.
func (a *App) DeleteAccount(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	d := flows.NewDeletion(a.deps)
	a.deletion = d
	if err := d.Open(ctx); err != nil {
		return err
	}

	prompt := "Password"
	for {
		password, err := a.askSecret(prompt)
		if err != nil {
			_ = d.Cancel(ctx)
			return err
		}
		if password == "" {
			password = d.View().Password
		}
		if err := d.SubmitPassword(ctx, password); err != nil {
			_ = d.Cancel(ctx)
			return err
		}

		ans, err := a.ask(finalDeletionWarning)
		if err != nil {
			_ = d.Cancel(ctx)
			return err
		}
		switch strings.ToLower(ans) {
		case "delete":
			if err := d.Confirm(ctx); err != nil {
				if d.View().State == flows.DeletionConfirmEntry {
					_ = d.Cancel(ctx)
				}
				return err
			}
			a.challenge = nil
			a.println("Your account has been deleted.")
			return nil
		case "back":
			if err := d.GoBack(ctx); err != nil {
				return err
			}
			prompt = "Password (press Enter to keep the entered password)"
		default:
			a.println("Account deletion cancelled.")
			return d.Cancel(ctx)
		}
	}
}

// ChangePassword asks for the current password and the new one twice.
func (a *App) ChangePassword(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	oldPassword, err := a.askSecret("Current password")
	if err != nil {
		return err
	}
	newPassword, err := a.askSecret("New password")
	if err != nil {
		return err
	}
	confirm, err := a.askSecret("Confirm new password")
	if err != nil {
		return err
	}
	if err := a.account.ChangePassword(ctx, oldPassword, newPassword, confirm); err != nil {
		return err
	}
	a.println(a.account.View().Notice)
	return nil
}

// WhoAmI refreshes the identity and prints it. When the store cannot be
// reached the cached identity is printed instead.
func (a *App) WhoAmI(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.account.Refresh(ctx); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return err
		}
		a.log.Warn(ctx, "identity refresh failed", "err", err)
	}
	s, ok := a.holder.Current()
	if !ok {
		return errNotSignedIn
	}
	id := s.Identity
	a.println("Email:     ", id.Email)
	a.println("Name:      ", id.FullName)
	a.println("Role:      ", id.Role)
	a.println("2FA:       ", onOff(id.TwoFactorEnabled))
	if id.Role == models.RoleEmployer {
		a.println("Onboarding:", doneOrPending(id.OnboardingCompleted))
	}
	return nil
}

// SignOut destroys the local session.
func (a *App) SignOut(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.account.SignOut(ctx); err != nil {
		return err
	}
	a.challenge = nil
	a.secondFactor.Sync()
	a.println("Signed out.")
	return nil
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func doneOrPending(b bool) string {
	if b {
		return "completed"
	}
	return "pending"
}
