package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/tphakala/releasewatch/internal/api/middleware"
	"github.com/tphakala/releasewatch/internal/datastore"
	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/logger"
	"github.com/tphakala/releasewatch/internal/model"
	"github.com/tphakala/releasewatch/internal/observability"
	"github.com/tphakala/releasewatch/internal/observability/metrics"
)

// Runner starts check runs. *checker.Checker satisfies it.
type Runner interface {
	Run(ctx context.Context) (model.CheckSummary, error)
	CheckOne(ctx context.Context, targetID string) (model.CheckResult, error)
	Running() bool
}

// ReviewStore is the persistence behind the review endpoints.
// *datastore.GormStore satisfies it.
type ReviewStore interface {
	ListPendingReview(ctx context.Context, limit int) ([]datastore.VersionRecord, error)
	ApproveVersionRecord(ctx context.Context, id uint) (*datastore.VersionRecord, error)
	EditAndApproveVersionRecord(ctx context.Context, id uint, version string, confidence int) (*datastore.VersionRecord, error)
	RejectVersionRecord(ctx context.Context, id uint) error
	Ping(ctx context.Context) error
}

// Server is the HTTP server. It manages the Echo instance, middleware and routes.
type Server struct {
	echo   *echo.Echo
	config Config

	// Dependencies
	runner  Runner
	reviews ReviewStore
	metrics *observability.Metrics
	log     logger.Logger

	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the structured logger for the server.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// WithMetrics enables /metrics and request metrics.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a server with routes registered but not yet listening.
func New(cfg Config, runner Runner, reviews ReviewStore, opts ...ServerOption) (*Server, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(fmt.Errorf("invalid server configuration: %w", err)).
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if runner == nil || reviews == nil {
		return nil, errors.Newf("api server requires a runner and a review store").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s := &Server{
		config:    cfg,
		runner:    runner,
		reviews:   reviews,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = GetLogger()
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Logger = logger.NewEchoLoggerAdapter(s.log)
	s.echo.HTTPErrorHandler = s.httpErrorHandler

	s.echo.Server.ReadTimeout = cfg.ReadTimeout
	s.echo.Server.WriteTimeout = cfg.WriteTimeout
	s.echo.Server.IdleTimeout = cfg.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", cfg.Address()),
		logger.Bool("trigger_secret_configured", cfg.TriggerSecret != ""),
		logger.Bool("metrics", s.metrics != nil))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.log, s.httpMetrics(), func(c echo.Context) bool {
		return c.Path() == "/metrics"
	}))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders())
}

// setupRoutes registers all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/api/v1/health", s.healthCheck)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	protected := s.echo.Group("/api/v1", mw.NewSharedSecretAuth(mw.SharedSecretConfig{
		Secret:    func() string { return s.config.TriggerSecret },
		OnFailure: s.onAuthFailure,
	}))

	protected.POST("/checks", s.RunChecks)
	protected.POST("/checks/:id", s.CheckTarget)

	protected.GET("/reviews", s.ListReviews)
	protected.POST("/reviews/:id/approve", s.ApproveReview)
	protected.PUT("/reviews/:id", s.EditReview)
	protected.DELETE("/reviews/:id", s.RejectReview)
}

func (s *Server) onAuthFailure(c echo.Context, reason string) {
	if m := s.httpMetrics(); m != nil {
		m.RecordAuthFailure(reason)
	}
	s.log.Warn("authentication failed",
		logger.String("reason", reason),
		logger.String("path", c.Request().URL.Path),
		logger.String("ip", c.RealIP()))
}

func (s *Server) httpMetrics() *metrics.HTTPMetrics {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.HTTP
}

// Start begins serving HTTP requests in a background goroutine and returns
// immediately. Use Shutdown to stop the server.
func (s *Server) Start() {
	go func() {
		if err := s.startBlocking(); err != nil {
			s.log.Error("server error", logger.Error(err))
		}
	}()
}

// startBlocking serves HTTP requests until the server is shut down.
func (s *Server) startBlocking() error {
	addr := s.config.Address()
	s.log.Info("starting HTTP server", logger.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.log.Info("server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
