// Package cli provides the interactive hireloop command-line client.
//
// It wires configuration, the SQLite session store, the HTTP credential
// store and the authentication flows behind a small REPL. The App is also
// the navigator: every destination a flow picks is recorded as the current
// screen and shown in the prompt.
//
// On start a stored token is restored (see session.Holder.Restore). The REPL
// is started via App.Run(ctx), which blocks until the user exits.
package cli
