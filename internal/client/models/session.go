package models

import "errors"

var (
	ErrEmptyToken      = errors.New("session token is empty")
	ErrIncompleteIdent = errors.New("session identity is incomplete")
)

// Session is a bearer token together with the identity it authorizes.
type Session struct {
	Token    string
	Identity Identity
}

// Validate rejects sessions that could only be half-established: a token
// without an identity or an identity without a token.
func (s Session) Validate() error {
	if s.Token == "" {
		return ErrEmptyToken
	}
	if s.Identity.ID == "" || !s.Identity.Role.Valid() {
		return ErrIncompleteIdent
	}
	return nil
}
