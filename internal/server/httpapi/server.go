// Package httpapi exposes AuthService as the JSON credential store API the
// hireloop client speaks.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/logging"
	"github.com/dmitrijs2005/hireloop/internal/server/models"
	"github.com/dmitrijs2005/hireloop/internal/server/services"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/dmitrijs2005/hireloop/internal/server/httpapi"
	shutdownTimeout = 5 * time.Second
)

// AuthService is the business logic behind the routes.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) error
	VerifyOTP(ctx context.Context, email, code, role string) (*services.AuthResult, error)
	ResendOTP(ctx context.Context, email, purpose string) error
	SignIn(ctx context.Context, email, password, role string) (*services.AuthResult, error)
	VerifySecondFactor(ctx context.Context, in services.SecondFactorInput) (*services.AuthResult, error)
	EnableSecondFactor(ctx context.Context, userID string) error
	ConfirmSecondFactor(ctx context.Context, userID, code string) ([]string, error)
	DisableSecondFactor(ctx context.Context, userID string) error
	DeleteAccount(ctx context.Context, userID, password string) error
	Me(ctx context.Context, userID string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CompleteOnboarding(ctx context.Context, email, password string) error
}

var _ AuthService = (*services.AuthService)(nil)

type HTTPServer struct {
	address   string
	auth      AuthService
	logger    logging.Logger
	jwtSecret []byte
	tracer    trace.Tracer
}

func NewHTTPServer(a string, l logging.Logger, svc AuthService, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		auth:      svc,
		jwtSecret: []byte(secretKey),
		tracer:    otel.Tracer(tracerName),
	}
}

// Router builds the gin engine with middleware and every route mounted.
func (s *HTTPServer) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.tracing(), s.accessLog())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.registerRoutes(r)
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
