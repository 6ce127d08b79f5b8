// Package app wires the recruit graph subsystems into a running server.
//
// The App struct owns the full lifecycle: New loads the variants, connects
// the optional variant store, builds the inspector service and mounts every
// HTTP surface on one mux; Run serves until the context ends; Shutdown tears
// everything down in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithMetrics). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/recruitgraph/internal/config"
	"github.com/MrWong99/recruitgraph/internal/health"
	"github.com/MrWong99/recruitgraph/internal/inspector"
	"github.com/MrWong99/recruitgraph/internal/observe"
	"github.com/MrWong99/recruitgraph/internal/resilience"
	"github.com/MrWong99/recruitgraph/internal/variant"
	"github.com/MrWong99/recruitgraph/internal/variantstore"
)

// serverShutdownTimeout bounds the graceful HTTP drain in Run.
const serverShutdownTimeout = 10 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	cfg     *config.Config
	version string

	metrics        *observe.Metrics
	metricsHandler http.Handler
	level          *slog.LevelVar

	store    variantstore.Store
	checkers []health.Checker
	svc      *inspector.Service
	mcp      *mcp.Server
	handler  http.Handler

	// mu serialises ApplyConfig.
	mu sync.Mutex

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a variant store instead of creating one from config.
func WithStore(s variantstore.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler sets the handler mounted at /metrics. Defaults to
// promhttp.Handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithLevelVar lets ApplyConfig change the log level of the handler built
// around lv.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together.
//
// New performs all initialisation synchronously: variant loading, store
// connection and import, service construction and route registration.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, version: "dev"}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.metricsHandler == nil {
		a.metricsHandler = promhttp.Handler()
	}
	if a.level != nil {
		a.level.Set(cfg.Server.LogLevel.SlogLevel())
	}

	// ── 1. Variant store ─────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 2. Variants ──────────────────────────────────────────────────────
	active, err := a.loadVariants(ctx, cfg)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: load variants: %w", err)
	}

	// ── 3. Inspector service ─────────────────────────────────────────────
	svc, err := inspector.New(ctx, active,
		inspector.WithMetrics(a.metrics),
		inspector.WithDefaultDistance(cfg.Inspector.DefaultDistance),
		inspector.WithDefaultHex(cfg.Variants.LegionHex),
	)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init inspector: %w", err)
	}
	a.svc = svc

	// ── 4. Routes ────────────────────────────────────────────────────────
	a.initRoutes()

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initStore connects PostgreSQL when a DSN is configured and falls back to
// an in-memory store otherwise.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if a.cfg.Database.PostgresDSN == "" {
		a.store = variantstore.NewMemStore()
		return nil
	}

	pool, err := variantstore.Connect(ctx, a.cfg.Database.PostgresDSN)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	ps := variantstore.NewPostgresStore(pool)
	if err := ps.Migrate(ctx); err != nil {
		return err
	}
	guarded := variantstore.Guard(ps, resilience.Config{Name: "variantstore"})
	a.store = guarded
	a.checkers = append(a.checkers,
		health.PingChecker("database", pool),
		health.Checker{Name: "variantstore_breaker", Check: guarded.Breaker().Check},
	)
	slog.Info("variant store connected", "backend", "postgres")
	return nil
}

// loadVariants reads every configured file, imports them into the store and
// returns the active variant as read back from the store.
func (a *App) loadVariants(ctx context.Context, cfg *config.Config) (*variant.File, error) {
	files, err := variant.LoadAll(ctx, cfg.Variants.Files)
	if err != nil {
		a.metrics.RecordVariantLoad(ctx, "file", observe.StatusOf(err))
		return nil, err
	}
	for range files {
		a.metrics.RecordVariantLoad(ctx, "file", observe.StatusOf(nil))
	}

	n, err := variantstore.ImportFiles(ctx, a.store, files)
	if err != nil {
		return nil, err
	}

	name := cfg.Variants.Active
	if name == "" {
		name = files[0].Variant.Name
	}
	rec, err := a.store.Get(ctx, name)
	a.metrics.RecordVariantLoad(ctx, "store", observe.StatusOf(err))
	if err != nil {
		return nil, fmt.Errorf("active variant %q: %w", name, err)
	}

	slog.Info("variants loaded", "files", len(files), "imported", n, "active", rec.Name)
	return rec.Definition, nil
}

// initRoutes builds the mux and the MCP server.
func (a *App) initRoutes() {
	mux := http.NewServeMux()

	checkers := append([]health.Checker{health.GraphChecker("graph", a.svc.Size)}, a.checkers...)
	health.New(checkers...).Register(mux)
	inspector.NewHandler(a.svc).Register(mux)
	mux.Handle("GET /metrics", a.metricsHandler)

	if a.cfg.Inspector.MCPTransport != config.MCPDisabled {
		a.mcp = inspector.NewMCPServer(a.svc, a.version)
	}
	if a.cfg.Inspector.MCPTransport == config.MCPStreamableHTTP {
		srv := a.mcp
		mux.Handle(a.cfg.Inspector.MCPPath, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return srv
		}, nil))
	}

	a.handler = observe.Middleware(a.metrics)(mux)
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Handler returns the root HTTP handler with all routes mounted.
func (a *App) Handler() http.Handler { return a.handler }

// Service returns the inspector service.
func (a *App) Service() *inspector.Service { return a.svc }

// Store returns the variant store.
func (a *App) Store() variantstore.Store { return a.store }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP on the configured listen address, and MCP over stdio when
// configured, until ctx is cancelled. It returns ctx.Err() after a clean
// stop.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener. Serve closes ln.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if a.cfg.Inspector.MCPTransport == config.MCPStdio {
		g.Go(func() error {
			if err := a.mcp.Run(gctx, &mcp.StdioTransport{}); err != nil && gctx.Err() == nil {
				return fmt.Errorf("app: mcp stdio: %w", err)
			}
			return nil
		})
	}

	slog.Info("app running",
		"addr", ln.Addr().String(),
		"variant", a.svc.Variant(),
		"mcp", string(a.cfg.Inspector.MCPTransport),
	)
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ─── Reload ──────────────────────────────────────────────────────────────────

// ApplyConfig applies a reloaded config. The log level, the variant set and
// the query defaults change live; every other changed key is logged as
// needing a restart and keeps its startup value.
func (a *App) ApplyConfig(ctx context.Context, old, updated *config.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	d := config.Diff(old, updated)
	if d.IsZero() {
		return nil
	}

	var errs []error
	if d.LogLevelChanged && a.level != nil {
		a.level.Set(d.NewLogLevel.SlogLevel())
		slog.Info("log level changed", "level", string(d.NewLogLevel))
	}
	if d.VariantsChanged {
		active, err := a.loadVariants(ctx, updated)
		if err == nil {
			err = a.svc.Rebuild(ctx, active)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("app: reload variants: %w", err))
		}
	}
	if d.QueryDefaultsChanged {
		a.svc.SetDefaults(updated.Inspector.DefaultDistance, updated.Variants.LegionHex)
		slog.Info("query defaults changed",
			"default_distance", updated.Inspector.DefaultDistance,
			"legion_hex", updated.Variants.LegionHex,
		)
	}
	for _, key := range d.RestartRequired {
		slog.Warn("config change requires restart", "key", key)
	}

	return errors.Join(errs...)
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// closeAll releases whatever New acquired before failing.
func (a *App) closeAll() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			slog.Warn("closer error", "err", err)
		}
	}
	a.closers = nil
}
