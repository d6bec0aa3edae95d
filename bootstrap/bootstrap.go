// Package bootstrap wires all dependencies and starts the application.
// An authority serves its store over HTTP; a replica is a client of one.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/confsync/adapters/clock"
	"github.com/artpar/confsync/adapters/hasher"
	confhttp "github.com/artpar/confsync/adapters/http"
	"github.com/artpar/confsync/adapters/idgen"
	"github.com/artpar/confsync/adapters/memory"
	"github.com/artpar/confsync/adapters/metrics"
	"github.com/artpar/confsync/adapters/sqlite"
	"github.com/artpar/confsync/app"
	"github.com/artpar/confsync/config"
	"github.com/artpar/confsync/core/events"
	"github.com/artpar/confsync/core/registry"
	"github.com/artpar/confsync/core/schema"
	"github.com/artpar/confsync/domain/audit"
	"github.com/artpar/confsync/ports"
)

// Options provides optional settings for application initialization.
type Options struct {
	// Version is reported by /version.
	Version string

	// Logger overrides the logger built from the logging config.
	Logger *zerolog.Logger

	// Registry receives the metrics instead of the default registerer.
	Registry *prometheus.Registry

	// Modules adds module providers to the configured directories.
	Modules []registry.Provider
}

// App represents a running authority.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Schema     *schema.Schema
	Store      *app.Store
	Session    *app.Session
	Queue      *app.Queue
	Actors     *memory.Actors
	Bus        *events.Bus
	Audit      ports.AuditLog
	DB         *sqlite.DB
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	holder *config.Holder
	cancel context.CancelFunc
	done   chan struct{}
}

// New loads the config file at path, watches it for changes and builds
// the authority.
func New(path string, opts Options) (*App, error) {
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "json"})
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	holder, err := config.NewHolder(path, logger)
	if err != nil {
		return nil, err
	}

	a, err := NewWithConfig(holder.Get(), opts)
	if err != nil {
		return nil, err
	}
	a.watch(holder)
	return a, nil
}

// NewWithConfig builds the authority from an already loaded config. The
// config is not reloaded.
func NewWithConfig(cfg *config.Config, opts Options) (*App, error) {
	if cfg.IsReplica() {
		return nil, errors.New("config describes a replica; use NewReplica")
	}

	logger := setupLogger(cfg.Logging)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger.Info().Strs("modules", cfg.Modules.Dirs).Msg("initializing confsync authority")

	a := &App{
		Logger: logger,
		Config: cfg,
		done:   make(chan struct{}),
	}

	if cfg.Metrics.Enabled {
		var reg prometheus.Registerer = prometheus.DefaultRegisterer
		if opts.Registry != nil {
			reg = opts.Registry
		}
		a.Metrics = metrics.NewWithRegistry(reg)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	if err := a.initSchema(opts.Modules); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if err := a.initAudit(); err != nil {
		return nil, fmt.Errorf("init audit: %w", err)
	}

	if err := a.initSession(); err != nil {
		a.closeDB()
		return nil, fmt.Errorf("init session: %w", err)
	}

	if err := a.initHTTPServer(opts); err != nil {
		a.closeDB()
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return a, nil
}

func (a *App) initSchema(extra []registry.Provider) error {
	providers := registry.Multi{registry.Dirs(a.Config.Modules.Dirs)}
	providers = append(providers, extra...)

	s, err := registry.Build(context.Background(), providers)
	if err != nil {
		return err
	}
	a.Schema = s

	if a.Metrics != nil {
		a.Metrics.SchemaFields.Set(float64(s.Len()))
	}
	a.Logger.Info().
		Int("modules", len(s.Modules())).
		Int("fields", s.Len()).
		Msg("schema built")
	return nil
}

func (a *App) initAudit() error {
	cfg := a.Config.Audit
	if !cfg.Enabled {
		return nil
	}

	if cfg.Driver == "memory" {
		a.Audit = memory.NewAuditLog()
		a.Logger.Info().Msg("audit log kept in memory")
		return nil
	}

	db, err := sqlite.Open(cfg.DSN)
	if err != nil {
		return err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	a.DB = db
	a.Audit = sqlite.NewAuditStore(db)
	a.Logger.Info().Str("dsn", cfg.DSN).Msg("audit database initialized")
	return nil
}

func (a *App) initSession() error {
	a.Bus = events.NewBus(a.Logger)
	a.Bus.Subscribe(events.FieldChanged, a.logChange)

	a.Store = app.NewStore(a.Schema, a.Bus, a.Logger)
	a.Actors = memory.NewActors(hasher.NewBcrypt(a.Config.Auth.BcryptCost), a.Config.Auth.ActorList())

	// Keep nil interfaces nil when the collectors are disabled.
	var syncMetrics ports.SyncMetrics
	if a.Metrics != nil {
		syncMetrics = a.Metrics
	}

	session, err := app.NewSession(app.SessionDeps{
		Store:    a.Store,
		Auth:     a.Actors,
		Notifier: logNotifier{logger: a.Logger},
		Audit:    a.Audit,
		Metrics:  syncMetrics,
		Bus:      a.Bus,
		Clock:    clock.Real{},
		IDGen:    idgen.TimeOrdered{},
	}, app.SessionConfig{
		Role:          app.RoleAuthority,
		RequiredLevel: a.Config.Auth.RequiredLevel,
	}, a.Logger)
	if err != nil {
		return err
	}
	a.Session = session
	a.Queue = app.NewQueue(a.Config.Queue.Size, syncMetrics, a.Logger)

	a.Logger.Info().
		Int("actors", a.Actors.Len()).
		Int("required_level", a.Config.Auth.RequiredLevel).
		Msg("sync session ready")
	return nil
}

func (a *App) initHTTPServer(opts Options) error {
	handler, err := confhttp.NewSyncHandler(confhttp.SyncHandlerConfig{
		Session: a.Session,
		Queue:   a.Queue,
		Authn:   a.Actors,
		Metrics: a.Metrics,
		Version: opts.Version,
	}, a.Logger)
	if err != nil {
		return err
	}

	routerCfg := confhttp.RouterConfig{
		Metrics:       a.Metrics,
		MetricsPath:   a.Config.Metrics.Path,
		Timeout:       a.Config.Server.RequestTimeout,
		EnableOpenAPI: a.Config.Server.OpenAPI,
	}
	if a.Metrics != nil && opts.Registry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})
	}

	a.HTTPServer = &http.Server{
		Addr:         a.Config.Addr(),
		Handler:      confhttp.NewRouter(handler, a.Logger, routerCfg),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
	return nil
}

// watch installs the reload hooks: the actor table and log level follow
// the file, everything else needs a restart.
func (a *App) watch(holder *config.Holder) {
	a.holder = holder

	holder.OnChange(func(cfg *config.Config) {
		a.Actors.Replace(cfg.Auth.ActorList())
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		a.Logger.Info().Int("actors", a.Actors.Len()).Msg("actor table reloaded")
	})
	if a.Metrics != nil {
		holder.OnReload(func(err error) {
			a.Metrics.ConfigReloaded(err, time.Now())
		})
	}
}

// Reload re-reads the config file. It fails for an app built with
// NewWithConfig.
func (a *App) Reload() error {
	if a.holder == nil {
		return errors.New("app was not loaded from a file")
	}
	return a.holder.Reload()
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.HTTPServer.Handler
}

// Start launches the sync queue, config watchers and audit pruning. It
// does not start the HTTP listener.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Queue.Start(ctx)

	if a.holder != nil {
		if err := a.holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch unavailable")
		}
		a.holder.WatchSignals()
	}

	if pruner, ok := a.Audit.(*sqlite.AuditStore); ok && a.Config.Audit.Retention > 0 {
		go a.pruneLoop(ctx, pruner)
	} else {
		close(a.done)
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	a.Start(context.Background())

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting requests before draining the queue
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.holder != nil {
		a.holder.Stop()
	}

	a.Queue.Stop()

	if a.cancel != nil {
		a.cancel()
		<-a.done
	}

	a.closeDB()

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func (a *App) closeDB() {
	if a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("database close error")
	}
}

func (a *App) pruneLoop(ctx context.Context, store *sqlite.AuditStore) {
	defer close(a.done)

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		cutoff := time.Now().Add(-a.Config.Audit.Retention)
		n, err := store.Prune(ctx, cutoff)
		switch {
		case err != nil && ctx.Err() == nil:
			a.Logger.Error().Err(err).Msg("audit prune failed")
		case n > 0:
			a.Logger.Info().Int64("removed", n).Time("before", cutoff).Msg("pruned audit entries")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// AuditEntries lists recorded operations, newest first. It returns nil
// when auditing is disabled.
func (a *App) AuditEntries(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	if a.Audit == nil {
		return nil, nil
	}
	return a.Audit.List(ctx, f)
}

func (a *App) logChange(ctx context.Context, e events.Event) error {
	a.Logger.Info().
		Str("field", e.Field).
		Str("module", e.Module).
		Str("actor", e.Actor).
		Str("old", e.Old.String()).
		Str("new", e.New.String()).
		Msg("configuration value changed")
	return nil
}

// logNotifier delivers denial notices to the log. Hosts with a user
// channel supply their own ports.Notifier.
type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) Notify(ctx context.Context, actor, message string) error {
	n.logger.Warn().Str("actor", actor).Str("notice", message).Msg("notice for actor")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stdout
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
