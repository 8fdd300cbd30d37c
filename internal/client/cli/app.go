package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/hireloop/internal/client/client"
	"github.com/dmitrijs2005/hireloop/internal/client/config"
	"github.com/dmitrijs2005/hireloop/internal/client/flows"
	"github.com/dmitrijs2005/hireloop/internal/client/nav"
	"github.com/dmitrijs2005/hireloop/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/hireloop/internal/client/session"
	"github.com/dmitrijs2005/hireloop/internal/client/storage"
	"github.com/dmitrijs2005/hireloop/internal/logging"
)

// App is the interactive client. It owns the session, the flows and the
// current screen, and it is the navigator the flows report to.
type App struct {
	config  *config.Config
	log     logging.Logger
	store   client.CredentialStore
	holder  *session.Holder
	deps    flows.Deps
	reader  *bufio.Reader
	out     io.Writer
	closeDB func() error

	mu     sync.Mutex
	screen nav.Route

	registration *flows.Registration
	signIn       *flows.SignIn
	challenge    *flows.Challenge
	secondFactor *flows.SecondFactor
	deletion     *flows.Deletion
	account      *flows.Account
}

// NewApp opens the session database and wires the HTTP credential store.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, c.SessionDBPath)
	if err != nil {
		log.Error(ctx, "error initializing session database", "path", c.SessionDBPath, "err", err)
		return nil, err
	}

	holder := session.NewHolder(sessions.NewSQLiteRepository(db), log)
	store := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, holder)

	a := newApp(c, store, holder, log, os.Stdin, os.Stdout)
	a.closeDB = db.Close
	return a, nil
}

func newApp(c *config.Config, store client.CredentialStore, holder *session.Holder, log logging.Logger, in io.Reader, out io.Writer) *App {
	a := &App{
		config:  c,
		log:     log,
		store:   store,
		holder:  holder,
		reader:  bufio.NewReader(in),
		out:     out,
		closeDB: func() error { return nil },
		screen:  nav.Route{Destination: nav.Landing},
	}
	a.deps = flows.Deps{
		Store:     store,
		Session:   holder,
		Navigator: a,
		Logger:    log,
		Timeout:   c.RequestTimeout,
	}
	a.signIn = flows.NewSignIn(a.deps)
	a.secondFactor = flows.NewSecondFactor(a.deps)
	a.account = flows.NewAccount(a.deps)
	return a
}

var _ nav.Navigator = (*App)(nil)

// Navigate records the new screen and tells the user about it.
func (a *App) Navigate(ctx context.Context, r nav.Route) {
	a.mu.Lock()
	a.screen = r
	a.mu.Unlock()
	a.log.Debug(ctx, "navigate", "route", r.String())
	a.println("->", r.String())
}

// Screen is the destination last navigated to.
func (a *App) Screen() nav.Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

// Run restores a stored session, then blocks in the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.closeDB(); err != nil {
			a.log.Warn(ctx, "closing session database", "err", err)
		}
	}()
	a.restore(ctx)
	a.Root(ctx)
}

func (a *App) restore(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	if err := a.holder.Restore(rctx, a.store); err != nil {
		a.log.Warn(ctx, "could not restore session", "err", err)
		return
	}
	if s, ok := a.holder.Current(); ok {
		a.secondFactor.Sync()
		a.Navigate(ctx, nav.AfterAuthentication(s.Identity.Role, s.Identity.NeedsOnboarding()))
	}
}

func (a *App) isSignedIn() bool {
	_, ok := a.holder.Current()
	return ok
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
