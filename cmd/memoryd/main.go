// Memoryd is a document-memory daemon exposing MCP tools and a REST API
// behind a multi-credential auth engine.
//
// Configuration is loaded from ~/.config/memoryd/config.yaml and MEMORYD_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start the HTTP server (REST + streamable MCP at /mcp)
//	memoryd serve
//
//	# Speak MCP over stdio for a local client
//	memoryd stdio
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "memoryd",
	Short: "Document-memory daemon with MCP and REST surfaces",
	Long: `memoryd stores documents in per-user collections, embeds them for
similarity search, and serves them over MCP tools and a REST API. Both
surfaces authenticate through the same credential engine: JWTs, personal
access tokens, collection access tokens, and an admin key.`,
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (REST API plus streamable MCP at /mcp)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(signalContext())
	},
}

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve MCP over stdio for a local client",
	Long: `Serve MCP on stdin/stdout. The auth.local_token config value acts as
the bearer credential for every call on this connection; leave it unset
to run anonymously with only public tools visible.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStdio(signalContext())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("memoryd\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/memoryd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stdioCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx
}

// runServe starts the HTTP server and blocks until the context is
// cancelled.
func runServe(ctx context.Context) error {
	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	app.logger.Info("starting memoryd",
		zap.Int("port", app.cfg.Server.Port),
		zap.String("version", version))

	srv, err := app.httpServer()
	if err != nil {
		return err
	}
	srv.MountMCP(app.mcpServer.Handler())

	app.logger.Info("server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", app.cfg.Server.Port)),
		zap.String("mcp_prefix", "/mcp"),
		zap.String("metrics_endpoint", "/metrics"))

	if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
		return err
	}
	app.logger.Info("server shutdown complete")
	return nil
}

// runStdio serves MCP on stdin/stdout and blocks until the client
// disconnects or the context is cancelled.
func runStdio(ctx context.Context) error {
	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.mcpServer.Run(ctx)
}
