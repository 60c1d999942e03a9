package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kestrelworks/memoryd/internal/auth"
	"github.com/kestrelworks/memoryd/internal/collections"
	"github.com/kestrelworks/memoryd/internal/config"
	"github.com/kestrelworks/memoryd/internal/documents"
	"github.com/kestrelworks/memoryd/internal/embeddings"
	"github.com/kestrelworks/memoryd/internal/httpapi"
	"github.com/kestrelworks/memoryd/internal/logging"
	"github.com/kestrelworks/memoryd/internal/mcp"
	"github.com/kestrelworks/memoryd/internal/store"
	"github.com/kestrelworks/memoryd/internal/users"
	"github.com/kestrelworks/memoryd/internal/vectorstore"
)

// app holds the wired dependency graph for one process.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *store.Memory
	vectors   vectorstore.Store
	verifier  *auth.Verifier
	policy    *auth.Policy
	userSvc   *users.Service
	collSvc   *collections.Service
	docSvc    *documents.Service
	tokenSvc  *auth.TokenService
	mcpServer *mcp.Server
}

// initApp loads configuration and wires every service.
func initApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embedding.BaseURL,
		Model:   cfg.Embedding.Model,
		APIKey:  cfg.Embedding.APIKey.Value(),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing embedding service: %w", err)
	}
	logger.Info("embedding service initialized",
		zap.String("base_url", cfg.Embedding.BaseURL),
		zap.String("model", cfg.Embedding.Model))

	vectors, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:     cfg.Vector.Path,
		Compress: cfg.Vector.Compress,
	}, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing vector store: %w", err)
	}
	logger.Info("vector store initialized", zap.String("path", cfg.Vector.Path))

	db := store.NewMemory()

	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{
		Secret:     []byte(cfg.Auth.JWTSecret.Value()),
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTTL.Duration(),
		RefreshTTL: cfg.Auth.RefreshTTL.Duration(),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing jwt manager: %w", err)
	}

	verifier := auth.NewVerifier(auth.VerifierConfig{
		AdminKey:   cfg.Auth.AdminKey.Value(),
		StaticKeys: cfg.Auth.StaticKeys,
		HashSalt:   cfg.Auth.TokenSalt.Value(),
	}, jwtManager, db, db.Pats(), db.Cats(), db.Collections(), logger)

	policy := auth.DefaultPolicy()

	tokenSvc := auth.NewTokenService(auth.TokenConfig{
		HashSalt:   cfg.Auth.TokenSalt.Value(),
		DefaultTTL: cfg.Auth.TokenDefaultTTL.Duration(),
		MaxTTL:     cfg.Auth.TokenMaxTTL.Duration(),
	}, db.Cats(), db.Pats(), db.Collections(), logger)

	userSvc := users.NewService(db, jwtManager, logger)
	collSvc := collections.NewService(db.Collections(), db.Cats(), vectors, logger)
	docSvc := documents.NewService(db.Collections(), vectors, logger)

	mcpServer, err := mcp.NewServer(&mcp.Config{
		Name:       "memoryd",
		Version:    version,
		LocalToken: cfg.Auth.LocalToken.Value(),
		Logger:     logger,
	}, verifier, policy, userSvc, collSvc, docSvc, tokenSvc)
	if err != nil {
		return nil, fmt.Errorf("initializing mcp server: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		vectors:   vectors,
		verifier:  verifier,
		policy:    policy,
		userSvc:   userSvc,
		collSvc:   collSvc,
		docSvc:    docSvc,
		tokenSvc:  tokenSvc,
		mcpServer: mcpServer,
	}, nil
}

// httpServer builds the REST server from the wired services.
func (a *app) httpServer() (*httpapi.Server, error) {
	return httpapi.NewServer(&httpapi.Config{
		Port:            a.cfg.Server.Port,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout.Duration(),
	}, a.verifier, a.policy, a.userSvc, a.collSvc, a.docSvc, a.tokenSvc, a.logger)
}

// Close releases process resources.
func (a *app) Close() {
	if a.logger != nil {
		_ = a.logger.Sync() // Best-effort sync
	}
}
