package client

import "errors"

var (
	ErrUnavailable  = errors.New("credential store unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a rejection reported by the credential store. Message is the
// server's text, or the operation's fallback when the server sent none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}
