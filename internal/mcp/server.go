// Package mcp exposes the memory service as MCP tools.
//
// This implementation uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and calls internal services directly. Every tool shares one operation
// name with its REST counterpart, so both surfaces authorize against the
// same policy table.
package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/collections"
	"github.com/kestrelworks/memoryd/internal/documents"
	"github.com/kestrelworks/memoryd/internal/users"
)

// Server is the MCP server that calls internal services directly.
type Server struct {
	mcp        *mcp.Server
	verifier   *auth.Verifier
	policy     *auth.Policy
	userSvc    *users.Service
	collSvc    *collections.Service
	docSvc     *documents.Service
	tokenSvc   *auth.TokenService
	localToken string
	logger     *zap.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "memoryd")
	Name string

	// Version is the server version (default: "1.0.0")
	Version string

	// LocalToken is the credential assumed for every call on the stdio
	// transport, where no headers exist. Empty means stdio calls run
	// anonymously.
	LocalToken string

	// Logger for structured logging
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "memoryd",
		Version: "1.0.0",
		Logger:  zap.NewNop(),
	}
}

// NewServer creates a new MCP server with the given services.
func NewServer(
	cfg *Config,
	verifier *auth.Verifier,
	policy *auth.Policy,
	userSvc *users.Service,
	collSvc *collections.Service,
	docSvc *documents.Service,
	tokenSvc *auth.TokenService,
) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("policy is required")
	}
	if userSvc == nil {
		return nil, fmt.Errorf("user service is required")
	}
	if collSvc == nil {
		return nil, fmt.Errorf("collection service is required")
	}
	if docSvc == nil {
		return nil, fmt.Errorf("document service is required")
	}
	if tokenSvc == nil {
		return nil, fmt.Errorf("token service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:        mcpServer,
		verifier:   verifier,
		policy:     policy,
		userSvc:    userSvc,
		collSvc:    collSvc,
		docSvc:     docSvc,
		tokenSvc:   tokenSvc,
		localToken: cfg.LocalToken,
		logger:     logger,
	}

	mcpServer.AddReceivingMiddleware(s.authMiddleware)

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Run starts the MCP server on the stdio transport. The configured local
// token acts as the credential for every call on this connection.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	if s.localToken != "" {
		ctx = auth.WithCredential(ctx, s.localToken)
	}
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Handler returns the streamable HTTP handler for mounting under the REST
// server. The mounting layer must attach request headers to the context
// with auth.WithHeaders so the middleware can extract credentials.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}
