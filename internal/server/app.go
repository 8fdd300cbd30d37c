// Package server wires the reference credential store: it picks storage
// backends from config, builds the auth service and runs the HTTP API until
// a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/logging"
	"github.com/dmitrijs2005/hireloop/internal/server/config"
	"github.com/dmitrijs2005/hireloop/internal/server/httpapi"
	"github.com/dmitrijs2005/hireloop/internal/server/mailer"
	"github.com/dmitrijs2005/hireloop/internal/server/otpstore"
	"github.com/dmitrijs2005/hireloop/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hireloop/internal/server/services"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 2 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	otps    otpstore.Store
	rdb     *redis.Client
	service *services.AuthService
}

// NewApp opens the configured backends. Without a DSN accounts live in
// memory; without a Redis address so do codes.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	if c.DatabaseDSN != "" {
		pg, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.repos = pg
		logger.Info(ctx, "database ready")
	} else {
		app.repos = repomanager.NewMemoryRepositoryManager()
		logger.Warn(ctx, "no database configured, accounts are kept in memory")
	}

	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			_ = app.repos.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.rdb = rdb
		app.otps = otpstore.NewRedisStore(rdb)
		logger.Info(ctx, "redis ready")
	} else {
		app.otps = otpstore.NewMemoryStore()
		logger.Warn(ctx, "no redis configured, codes are kept in memory")
	}

	app.service = services.NewAuthService(app.repos, app.otps, mailer.NewLogMailer(logger), c, logger)
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.logger, app.service, app.config.SecretKey)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the backends.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "close repositories", "error", err)
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error(ctx, "close redis", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
