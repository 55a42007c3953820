package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/mcp"
	"github.com/a3tai/mcp-pdf-regions/internal/storage/sqlite"
	"github.com/a3tai/mcp-pdf-regions/internal/template"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the logger for the configured mode. Logs always go to w, which
// is stderr in production so stdout stays reserved for the protocol in stdio mode.
// In stdio mode only warnings and errors are logged unless debug is enabled.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if cfg.IsStdioMode() && !cfg.IsDebug() && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.IsServerMode() && cfg.IsDebug(),
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore opens the template store at path. The returned function closes the
// underlying database.
func openStore(ctx context.Context, path string, logger *slog.Logger) (template.Service, func() error, error) {
	kv, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open template database: %w", err)
	}
	store, err := template.Open(ctx, kv)
	if err != nil {
		_ = kv.Close()
		return nil, nil, fmt.Errorf("failed to load templates: %w", err)
	}
	logger.Debug("template store opened", "path", path, "templates", store.Len())
	return template.NewLoggingStore(store, logger), kv.Close, nil
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *slog.Logger) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		if err := <-serverErrCh; err != nil {
			return fmt.Errorf("server shutdown with error: %w", err)
		}
	case err := <-serverErrCh:
		if err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

// runStdioMode runs until the client closes stdin; the parent process controls our lifecycle
func runStdioMode(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg.StorePath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close template database", "error", err)
		}
	}()

	server, err := mcp.NewServer(cfg, store, mcp.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger.Debug("starting", "config", cfg.String())
	if cfg.IsServerMode() {
		return runServerMode(ctx, cancel, server, logger)
	}
	return runStdioMode(ctx, server)
}

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(os.Stdout)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Regions\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
