// mwapi MCP Server - A Model Context Protocol server for the MediaWiki action API
// Exposes list, prop and meta queries with continuation handled server side
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olgasafonova/mwapi/tools"
	"github.com/olgasafonova/mwapi/tracing"
	"github.com/olgasafonova/mwapi/wiki"
)

// recoverPanic logs a panic instead of crashing the process
func recoverPanic(logger *slog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

const (
	ServerName    = "mwapi-mcp-server"
	ServerVersion = wiki.Version
)

func main() {
	// Configure logging to stderr (stdout is used for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("MEDIAWIKI_LOG_LEVEL")),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	defer recoverPanic(logger, "run")

	// Load configuration from environment
	config, err := wiki.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	shutdown, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	if addr := os.Getenv("MEDIAWIKI_METRICS_ADDR"); addr != "" {
		srv := startMetricsServer(addr, logger)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	client := wiki.NewClient(config, logger)
	defer client.Close()

	server := newServer(client, config, logger)

	logger.Info("Starting mwapi MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"wiki_url", config.BaseURL,
	)

	// Run server on stdio transport
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newServer creates the MCP server and registers the tools the configured
// session may use. Write tools need credentials.
func newServer(client *wiki.Client, config *wiki.Config, logger *slog.Logger) *mcp.Server {
	specs := tools.ReadOnlyTools()
	if canWrite(config) {
		specs = tools.AllTools
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: buildInstructions(specs),
	})

	tools.NewHandlerRegistry(client, logger).Register(server, specs)
	return server
}

// canWrite reports whether a login can be attempted with config
func canWrite(config *wiki.Config) bool {
	if config.HasCredentials() {
		return true
	}
	if config.CredentialsFile == "" {
		return false
	}
	_, err := os.Stat(config.CredentialsFile)
	return err == nil
}

func buildInstructions(specs []tools.ToolSpec) string {
	var b strings.Builder
	b.WriteString("mwapi MCP Server gives access to a MediaWiki wiki through its action API.\n")
	b.WriteString("List and prop results are collected across continuation requests up to the requested limit.\n\n")
	b.WriteString("Available tools:\n")
	for _, spec := range specs {
		fmt.Fprintf(&b, "- %s: %s\n", spec.Name, spec.Title)
	}
	b.WriteString(`
Configure via environment variables:
- MEDIAWIKI_URL: Wiki API URL (e.g., https://wiki.example.com/w/api.php)
- MEDIAWIKI_USERNAME: Bot username (for patrol)
- MEDIAWIKI_PASSWORD: Bot password (for patrol)
- MEDIAWIKI_CREDENTIALS_FILE: YAML credentials file (default ~/.mwapi.yaml)`)
	return b.String()
}

// metricsHandler serves Prometheus metrics and a liveness check
func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// startMetricsServer serves metricsHandler on addr in the background
func startMetricsServer(addr string, logger *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		defer recoverPanic(logger, "metrics server")
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	return srv
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
