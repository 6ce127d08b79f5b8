// Command recruitgraph serves recruit graph queries for Titan-style board
// game variants over HTTP and MCP.
//
// Usage:
//
//	recruitgraph -config config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/recruitgraph/internal/app"
	"github.com/MrWong99/recruitgraph/internal/config"
	"github.com/MrWong99/recruitgraph/internal/observe"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "recruitgraph: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "recruitgraph: %v\n", err)
		}
		return 1
	}

	var level slog.LevelVar
	level.Set(cfg.Server.LogLevel.SlogLevel())
	slog.SetDefault(newLogger(&level))

	slog.Info("recruitgraph starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	metrics, err := observe.NewMetrics(provider.MeterProvider)
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	application, err := app.New(ctx, cfg,
		app.WithMetrics(metrics),
		app.WithMetricsHandler(provider.MetricsHandler),
		app.WithLevelVar(&level),
		app.WithVersion(version),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	watcher, err := config.NewWatcher(*configPath, func(old, updated *config.Config) {
		if err := application.ApplyConfig(ctx, old, updated); err != nil {
			slog.Error("config reload failed", "err", err)
		}
	})
	if err != nil {
		slog.Warn("config hot reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// stdout carries the MCP stream in stdio mode.
	summary := io.Writer(os.Stdout)
	if cfg.Inspector.MCPTransport == config.MCPStdio {
		summary = os.Stderr
	}
	printStartupSummary(summary, cfg, application.Service().Variant())

	slog.Info("server ready, press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(w io.Writer, cfg *config.Config, active string) {
	fmt.Fprintln(w, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(w, "║      Recruit graph, startup summary   ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════╣")
	printRow(w, "Active variant", active)
	printRow(w, "Variant files", fmt.Sprint(len(cfg.Variants.Files)))
	if cfg.Database.PostgresDSN != "" {
		printRow(w, "Variant store", "postgres")
	} else {
		printRow(w, "Variant store", "memory")
	}
	switch cfg.Inspector.MCPTransport {
	case config.MCPDisabled:
		printRow(w, "MCP", "(disabled)")
	case config.MCPStreamableHTTP:
		printRow(w, "MCP", "http "+cfg.Inspector.MCPPath)
	default:
		printRow(w, "MCP", string(cfg.Inspector.MCPTransport))
	}
	printRow(w, "Listen addr", cfg.Server.ListenAddr)
	fmt.Fprintln(w, "╚═══════════════════════════════════════╝")
}

func printRow(w io.Writer, label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Fprintf(w, "║  %-15s : %-19s ║\n", label, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger builds the text logger on stderr. The level is read from lv on
// every record so config reloads take effect immediately.
func newLogger(lv *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}
