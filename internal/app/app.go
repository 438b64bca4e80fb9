// Package app wires the intent server together.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neogan74/intent/internal/audit"
	"github.com/neogan74/intent/internal/config"
	"github.com/neogan74/intent/internal/crime"
	"github.com/neogan74/intent/internal/handlers"
	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/metrics"
	"github.com/neogan74/intent/internal/middleware"
	"github.com/neogan74/intent/internal/persistence"
	"github.com/neogan74/intent/internal/storage"
	"github.com/neogan74/intent/internal/telemetry"
	"github.com/neogan74/intent/internal/theme"
)

const shutdownTimeout = 5 * time.Second

// Builder wires application dependencies.
type Builder struct {
	cfg       *config.Config
	version   string
	logger    logger.Logger
	fiberApp  *fiber.App
	engine    persistence.Engine
	store     *storage.Service
	crimes    *crime.Service
	themes    *theme.Service
	telemetry *telemetry.Provider
	audit     *audit.Recorder
	closers   []func()
}

// NewBuilder creates a new application builder.
func NewBuilder(cfg *config.Config, version string) *Builder {
	return &Builder{cfg: cfg, version: version}
}

// WithLogger makes Build use log instead of one derived from the config.
func (b *Builder) WithLogger(log logger.Logger) *Builder {
	b.logger = log
	return b
}

// Build assembles the application.
func (b *Builder) Build(ctx context.Context) (*App, error) {
	b.initLogger()
	b.recordStartupMetrics()

	if err := b.initTracing(ctx); err != nil {
		return nil, err
	}

	b.initFiber()

	if err := b.initPersistence(); err != nil {
		b.cleanupOnError()
		return nil, err
	}

	if err := b.initAudit(); err != nil {
		b.cleanupOnError()
		return nil, err
	}

	b.initServices()
	b.initHandlers()

	return &App{
		cfg:      b.cfg,
		logger:   b.logger,
		fiberApp: b.fiberApp,
		closers:  b.closers,
	}, nil
}

func (b *Builder) initLogger() {
	if b.logger == nil {
		b.logger = logger.NewFromConfig(b.cfg.Log.Level, b.cfg.Log.Format)
	}
	logger.SetDefault(b.logger)
}

func (b *Builder) recordStartupMetrics() {
	metrics.BuildInfo.WithLabelValues(b.version, runtime.Version()).Set(1)

	b.logger.Info("Starting intent",
		logger.String("version", b.version),
		logger.String("address", b.cfg.Address()),
		logger.String("log_level", b.cfg.Log.Level),
		logger.String("storage_type", b.cfg.Storage.Type),
	)
}

func (b *Builder) initTracing(ctx context.Context) error {
	provider, err := telemetry.Setup(ctx, b.cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	b.telemetry = provider

	if !provider.Enabled() {
		return nil
	}

	b.logger.Info("OpenTelemetry tracing initialized",
		logger.String("endpoint", b.cfg.Tracing.Endpoint),
		logger.String("service_name", b.cfg.Tracing.ServiceName),
	)
	b.addCloser(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Failed to shutdown tracer provider", logger.Error(err))
		}
	})
	return nil
}

func (b *Builder) initFiber() {
	b.fiberApp = fiber.New(fiber.Config{
		AppName:               "intent",
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: true,
	})

	b.fiberApp.Use(recover.New())
	b.fiberApp.Use(middleware.RequestLogging(b.logger))
	if b.cfg.Tracing.Enabled {
		b.fiberApp.Use(middleware.Tracing(b.cfg.Tracing.ServiceName))
	}
	if b.cfg.Metrics.Enabled {
		b.fiberApp.Use(middleware.Metrics(b.cfg.Metrics.Path))
	}
}

func (b *Builder) initPersistence() error {
	engine, err := persistence.NewEngine(persistence.Config{
		Type:       b.cfg.Storage.Type,
		DataDir:    b.cfg.Storage.DataDir,
		SyncWrites: b.cfg.Storage.SyncWrites,
	}, b.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize persistence engine: %w", err)
	}
	b.engine = engine

	b.addCloser(func() {
		if err := engine.Close(); err != nil {
			b.logger.Error("Failed to close persistence engine", logger.Error(err))
		}
	})
	return nil
}

func (b *Builder) initAudit() error {
	rec, err := audit.NewRecorder(audit.Config{
		Enabled:       b.cfg.Audit.Enabled,
		Sink:          b.cfg.Audit.Sink,
		FilePath:      b.cfg.Audit.FilePath,
		BufferSize:    b.cfg.Audit.BufferSize,
		FlushInterval: b.cfg.Audit.FlushInterval,
		DropPolicy:    audit.DropPolicy(b.cfg.Audit.DropPolicy),
	}, b.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize audit trail: %w", err)
	}
	b.audit = rec

	if rec.Enabled() {
		b.addCloser(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := rec.Close(shutdownCtx); err != nil {
				b.logger.Error("Failed to close audit trail", logger.Error(err))
			}
		})
	}
	return nil
}

func (b *Builder) initServices() {
	b.store = storage.New(b.engine, b.logger)
	b.crimes = crime.NewService(b.store, b.logger)
	b.themes = theme.NewService(b.store, b.logger)
}

func (b *Builder) initHandlers() {
	crimeHandler := handlers.NewCrimeHandler(b.crimes)
	themeHandler := handlers.NewThemeHandler(b.themes)
	storageHandler := handlers.NewStorageHandler(b.store)
	backupHandler := handlers.NewBackupHandler(b.engine, b.cfg.Storage.BackupDir)
	healthHandler := handlers.NewHealthHandler(b.crimes, b.store, b.cfg.Storage.Type, b.version)

	audited := func(action, kind string) fiber.Handler {
		return middleware.Audit(b.audit, action, kind)
	}

	b.fiberApp.Get("/crimes", crimeHandler.List)
	b.fiberApp.Get("/crimes/stats", crimeHandler.Stats)
	b.fiberApp.Get("/crimes/:id", crimeHandler.Get)
	b.fiberApp.Post("/crimes", audited(audit.ActionCrimeSave, "crime"), crimeHandler.Create)
	b.fiberApp.Put("/crimes/:id", audited(audit.ActionCrimeSave, "crime"), crimeHandler.Update)
	b.fiberApp.Delete("/crimes/:id", audited(audit.ActionCrimeDelete, "crime"), crimeHandler.Delete)
	b.fiberApp.Delete("/crimes", audited(audit.ActionCrimeClear, "crime"), crimeHandler.Clear)

	b.fiberApp.Get("/theme", themeHandler.Current)
	b.fiberApp.Put("/theme", audited(audit.ActionThemeSelect, "theme"), themeHandler.Select)
	b.fiberApp.Get("/themes", themeHandler.List)

	b.fiberApp.Get("/storage/keys", storageHandler.Keys)
	b.fiberApp.Get("/storage/export", storageHandler.Export)
	b.fiberApp.Post("/storage/import", audited(audit.ActionStorageImport, "storage"), storageHandler.Import)
	b.fiberApp.Delete("/storage/keys", audited(audit.ActionStorageRemove, "storage"), storageHandler.Remove)

	b.fiberApp.Post("/backups", audited(audit.ActionBackupCreate, "backup"), backupHandler.Create)
	b.fiberApp.Get("/backups", backupHandler.List)
	b.fiberApp.Post("/backups/restore", audited(audit.ActionBackupRestore, "backup"), backupHandler.Restore)

	b.fiberApp.Get("/health", healthHandler.Check)
	b.fiberApp.Get("/health/live", healthHandler.Liveness)
	b.fiberApp.Get("/health/ready", healthHandler.Readiness)

	if b.cfg.Metrics.Enabled {
		b.fiberApp.Get(b.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}

func (b *Builder) addCloser(closer func()) {
	b.closers = append(b.closers, closer)
}

func (b *Builder) cleanupOnError() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// App is a configured server ready to run.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	fiberApp *fiber.App
	closers  []func()
}

// Handler exposes the Fiber app, mainly for in-process requests in tests.
func (a *App) Handler() *fiber.App {
	return a.fiberApp
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down and closes every resource in reverse order.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting", logger.String("address", a.cfg.Address()))
		serverErr <- a.fiberApp.Listen(a.cfg.Address())
	}()

	select {
	case err := <-serverErr:
		a.Close()
		if err != nil {
			a.logger.Error("Failed to start server", logger.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")
	if err := a.fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
		a.logger.Error("Server forced to shutdown", logger.Error(err))
	}
	a.Close()

	if err := <-serverErr; err != nil {
		return err
	}

	a.logger.Info("Server exited gracefully")
	return nil
}

// Close releases resources without serving. It is safe to call once after
// Build when Run is never called.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
