// Package session holds the one active session of the client.
//
// The Holder is the only writer of the session. Flows establish it after
// every challenge is satisfied and destroy it on sign-out, account deletion
// or a rejected token; everything else reads it. Only the bearer token is
// persisted; the identity is re-read from the credential store on Restore.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/dmitrijs2005/hireloop/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// TokenStore persists the bearer token between runs. repositories/sessions
// provides the SQLite implementation; MemoryStore keeps nothing across
// restarts.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Reader is the read side handed to collaborators outside the core.
type Reader interface {
	Current() (models.Session, bool)
	Token() string
}

// Writer is what the flows use to change the session.
type Writer interface {
	Reader
	Establish(ctx context.Context, s models.Session) error
	Destroy(ctx context.Context) error
	UpdateIdentity(fn func(*models.Identity))
}

// IdentityFetcher reads the identity of the token the Holder serves.
type IdentityFetcher interface {
	Me(ctx context.Context) (*models.Identity, error)
}

type Holder struct {
	mu      sync.RWMutex
	cur     *models.Session
	pending string // token being restored, served before an identity exists
	store   TokenStore
	log     logging.Logger
	now     func() time.Time
}

func NewHolder(store TokenStore, log logging.Logger) *Holder {
	if store == nil {
		store = NewMemoryStore()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Holder{store: store, log: log, now: time.Now}
}

func (h *Holder) Current() (models.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.cur == nil {
		return models.Session{}, false
	}
	return *h.cur, true
}

// Token returns the bearer token or "" when there is no session.
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.cur == nil {
		return h.pending
	}
	return h.cur.Token
}

// Establish persists the token of s and then makes s current. Nothing
// changes if s is incomplete or the token cannot be persisted.
func (h *Holder) Establish(ctx context.Context, s models.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Save(ctx, s.Token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	h.cur = &s
	h.pending = ""
	h.log.Info(ctx, "session established", "user_id", s.Identity.ID, "role", s.Identity.Role)
	return nil
}

// Destroy forgets the session. The in-memory copy is dropped even when the
// store fails to clear.
func (h *Holder) Destroy(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	had := h.cur != nil
	h.cur = nil
	h.pending = ""
	if err := h.store.Clear(ctx); err != nil {
		h.log.Error(ctx, "failed to clear stored token", "error", err)
		return fmt.Errorf("clear session: %w", err)
	}
	if had {
		h.log.Info(ctx, "session destroyed")
	}
	return nil
}

// UpdateIdentity applies fn to the current identity. It is a no-op without
// a session.
func (h *Holder) UpdateIdentity(fn func(*models.Identity)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cur == nil {
		return
	}
	next := *h.cur
	fn(&next.Identity)
	h.cur = &next
}

// Restore picks up a stored token. A JWT whose exp has passed is discarded
// without a network call. Otherwise the identity is fetched; a rejected
// token is cleared, and any other failure leaves the token stored for the
// next attempt without establishing a session.
func (h *Holder) Restore(ctx context.Context, fetch IdentityFetcher) error {
	token, err := h.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}
	if token == "" {
		return nil
	}
	if h.expired(token) {
		h.log.Info(ctx, "discarding expired session token")
		return h.store.Clear(ctx)
	}

	h.mu.Lock()
	h.pending = token
	h.mu.Unlock()

	ident, err := fetch.Me(ctx)

	h.mu.Lock()
	h.pending = ""
	h.mu.Unlock()

	switch {
	case errors.Is(err, client.ErrUnauthorized):
		h.log.Info(ctx, "stored session token rejected")
		return h.store.Clear(ctx)
	case err != nil:
		return fmt.Errorf("restore session: %w", err)
	case ident == nil:
		return fmt.Errorf("restore session: %w", client.ErrUnavailable)
	}

	return h.Establish(ctx, models.Session{Token: token, Identity: *ident})
}

// expired reports whether token is a JWT with an exp claim in the past.
// Opaque tokens never expire locally.
func (h *Holder) expired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(h.now())
}
