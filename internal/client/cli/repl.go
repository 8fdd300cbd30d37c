package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests use a lightweight stub.
type execIface interface {
	isSignedIn() bool
	Register(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	ChangeEmail(ctx context.Context) error
	SignIn(ctx context.Context) error
	VerifySecondFactor(ctx context.Context) error
	BackupCode(ctx context.Context) error
	Forgot(ctx context.Context) error
	EnableSecondFactor(ctx context.Context) error
	ConfirmSecondFactor(ctx context.Context) error
	ShowBackupCodes(ctx context.Context) error
	DisableSecondFactor(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	SignOut(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: register, verify, resend, change-email, signin, verify-2fa, backup-code, forgot, exit"
	helpSignedIn  = "Available commands: whoami, enable-2fa, confirm-2fa, codes, disable-2fa, change-password, delete-account, signout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
// The prompt shows statusFn. Errors returned by a command are printed and
// the loop goes on. It returns on EOF, on "exit" or "quit", or when ctx is
// done.
//
//	Signed out:
//	  register, verify, resend, change-email   create and activate an account
//	  signin, verify-2fa, backup-code, forgot  sign in
//
//	Signed in:
//	  whoami, change-password, signout
//	  enable-2fa, confirm-2fa, codes, disable-2fa
//	  delete-account
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "hireloop %s > ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		var cmdErr error
		switch cmd := parts[0]; cmd {
		case "help":
			if a.isSignedIn() {
				fmt.Fprintln(w, helpSignedIn)
			} else {
				fmt.Fprintln(w, helpSignedOut)
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "verify":
			cmdErr = a.Verify(ctx)
		case "resend":
			cmdErr = a.Resend(ctx)
		case "change-email":
			cmdErr = a.ChangeEmail(ctx)
		case "signin", "login":
			cmdErr = a.SignIn(ctx)
		case "verify-2fa":
			cmdErr = a.VerifySecondFactor(ctx)
		case "backup-code":
			cmdErr = a.BackupCode(ctx)
		case "forgot":
			cmdErr = a.Forgot(ctx)
		case "enable-2fa":
			cmdErr = a.EnableSecondFactor(ctx)
		case "confirm-2fa":
			cmdErr = a.ConfirmSecondFactor(ctx)
		case "codes":
			cmdErr = a.ShowBackupCodes(ctx)
		case "disable-2fa":
			cmdErr = a.DisableSecondFactor(ctx)
		case "delete-account":
			cmdErr = a.DeleteAccount(ctx)
		case "change-password":
			cmdErr = a.ChangePassword(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "signout", "logout":
			cmdErr = a.SignOut(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", cmdErr)
		}
	}
}
