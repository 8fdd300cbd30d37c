// Package sessions persists the bearer token of the active session so a
// restarted CLI can pick it up again. The identity is never stored; it is
// re-read from the credential store.
package sessions

import "context"

// Repository stores at most one token.
//
// Load returns ("", nil) when nothing is stored.
type Repository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
