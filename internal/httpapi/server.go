// Package httpapi provides the REST API for memoryd.
//
// Every route authorizes through the same policy table as the MCP tool
// surface, keyed by shared operation names.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/collections"
	"github.com/kestrelworks/memoryd/internal/documents"
	"github.com/kestrelworks/memoryd/internal/users"
)

// Config holds HTTP server configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration

	// LoginRatePerSecond and LoginBurst bound login attempts per client IP.
	LoginRatePerSecond float64
	LoginBurst         int
}

// Server provides HTTP endpoints for memoryd.
type Server struct {
	echo         *echo.Echo
	config       *Config
	verifier     *auth.Verifier
	policy       *auth.Policy
	userSvc      *users.Service
	collSvc      *collections.Service
	docSvc       *documents.Service
	tokenSvc     *auth.TokenService
	metrics      *httpMetrics
	loginLimiter *loginLimiter
	logger       *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *Config,
	verifier *auth.Verifier,
	policy *auth.Policy,
	userSvc *users.Service,
	collSvc *collections.Service,
	docSvc *documents.Service,
	tokenSvc *auth.TokenService,
	logger *zap.Logger,
) (*Server, error) {
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("policy is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Port: 8750, ShutdownTimeout: 10 * time.Second}
	}
	if cfg.LoginRatePerSecond <= 0 {
		cfg.LoginRatePerSecond = 1
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = 5
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:         e,
		config:       cfg,
		verifier:     verifier,
		policy:       policy,
		userSvc:      userSvc,
		collSvc:      collSvc,
		docSvc:       docSvc,
		tokenSvc:     tokenSvc,
		metrics:      newHTTPMetrics(),
		loginLimiter: newLoginLimiter(cfg.LoginRatePerSecond, cfg.LoginBurst),
		logger:       logger,
	}

	e.Use(s.metrics.middleware)
	e.Use(s.authMiddleware)

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth, s.guard(auth.OpHealth))
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.handler()))

	v1 := s.echo.Group("/api/v1")

	v1.POST("/auth/register", s.handleRegister, s.guard(auth.OpRegister))
	v1.POST("/auth/login", s.handleLogin, s.guard(auth.OpLogin), s.rateLimitLogin)
	v1.POST("/auth/refresh", s.handleRefresh, s.guard(auth.OpRefresh))
	v1.GET("/auth/me", s.handleProfile, s.guard(auth.OpProfile))

	v1.POST("/collections", s.handleCollectionCreate, s.guard(auth.OpCollectionCreate))
	v1.GET("/collections", s.handleCollectionList, s.guard(auth.OpCollectionList))
	v1.PATCH("/collections/:id", s.handleCollectionRename, s.guard(auth.OpCollectionRename))
	v1.DELETE("/collections/:id", s.handleCollectionDelete, s.guard(auth.OpCollectionDelete))

	v1.POST("/collections/:id/documents", s.handleDocumentStore, s.guard(auth.OpDocumentStore))
	v1.POST("/collections/:id/search", s.handleDocumentSearch, s.guard(auth.OpDocumentSearch))
	v1.GET("/collections/:id/documents/:doc", s.handleDocumentGet, s.guard(auth.OpDocumentGet))
	v1.DELETE("/collections/:id/documents/:doc", s.handleDocumentDelete, s.guard(auth.OpDocumentDelete))

	v1.POST("/tokens", s.handleCATCreate, s.guard(auth.OpCATCreate))
	v1.GET("/tokens", s.handleCATList, s.guard(auth.OpCATList))
	v1.POST("/tokens/:id/rotate", s.handleCATRotate, s.guard(auth.OpCATRotate))
	v1.DELETE("/tokens/:id", s.handleCATRevoke, s.guard(auth.OpCATRevoke))

	v1.POST("/pats", s.handlePATCreate, s.guard(auth.OpPATCreate))
	v1.GET("/pats", s.handlePATList, s.guard(auth.OpPATList))
	v1.POST("/pats/:id/rotate", s.handlePATRotate, s.guard(auth.OpPATRotate))
	v1.DELETE("/pats/:id", s.handlePATRevoke, s.guard(auth.OpPATRevoke))

	v1.GET("/admin/users", s.handleAdminListUsers, s.guard(auth.OpAdminListUsers))
	v1.PATCH("/admin/users/:id", s.handleAdminUpdateUser, s.guard(auth.OpAdminUpdateUser))
	v1.DELETE("/admin/users/:id", s.handleAdminDeleteUser, s.guard(auth.OpAdminDeleteUser))
}

// MountMCP mounts the MCP streamable HTTP handler at /mcp. Request headers
// are copied onto the context so the MCP auth middleware can extract
// credentials without seeing the original request.
func (s *Server) MountMCP(handler http.Handler) {
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithHeaders(r.Context(), r.Header)
		handler.ServeHTTP(w, r.WithContext(ctx))
	})
	s.echo.Any("/mcp", echo.WrapHandler(wrapped))
	s.echo.Any("/mcp/*", echo.WrapHandler(wrapped))
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully within the configured timeout. Returns
// http.ErrServerClosed on graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Echo returns the underlying Echo instance for registering additional
// routes in tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
