// Package backupcodes stores the hashed one-time backup codes of a user's
// second factor. Plaintext codes never reach this layer.
package backupcodes

import "context"

type Repository interface {
	// Replace drops every code of userID and stores hashes in their place.
	Replace(ctx context.Context, userID string, hashes []string) error
	// Consume marks hash as used. It reports false when the code is unknown
	// or was used before.
	Consume(ctx context.Context, userID, hash string) (bool, error)
	DeleteAll(ctx context.Context, userID string) error
}
