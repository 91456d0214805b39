package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"pricecube/internal/config"
	apierrors "pricecube/internal/errors"
	"pricecube/internal/infrastructure"
	customMiddleware "pricecube/internal/middleware"
	"pricecube/internal/operations"
	"pricecube/internal/services"
	"pricecube/internal/storage"
	"pricecube/internal/storage/memory"
	"pricecube/internal/storage/postgres"
	handlers "pricecube/internal/transport/http"
	ws "pricecube/internal/websocket"
	"pricecube/pkg/contracts"
)

// AppName is reported in startup logs.
const AppName = "pricecube"

// Application represents the main application container
type Application struct {
	Config       *config.Config
	Paths        *config.Paths
	Catalog      *config.Catalog
	Logger       *slog.Logger
	Telemetry    *infrastructure.Telemetry
	Store        storage.RunStore
	WebSocketHub *ws.Hub
	Manager      *operations.Manager
	Services     *ServiceContainer
	Router       *chi.Mux
	Server       *http.Server

	pool *postgres.Pool
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Pricing *services.PricingService
	Health  *services.HealthService
}

// NewApplication wires every component from cfg. Telemetry is initialized
// here; the logger is owned by the caller.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.InfoContext(ctx, "application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	catalog, err := config.CatalogFor(cfg.Pricing)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	telemetry, err := infrastructure.InitializeTelemetry(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &Application{
		Config:    cfg,
		Paths:     paths,
		Catalog:   catalog,
		Logger:    logger,
		Telemetry: telemetry,
	}

	if err := app.initializeStorage(ctx); err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, err
	}
	if err := app.initializeServices(); err != nil {
		app.closeStorage()
		_ = telemetry.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	logger.InfoContext(ctx, "application initialized",
		slog.String("storage", cfg.Storage.Driver),
		slog.String("output_dir", paths.OutputDir),
		slog.Int("products", len(catalog.Products)))

	return app, nil
}

func (a *Application) initializeStorage(ctx context.Context) error {
	switch a.Config.Storage.Driver {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, a.Config.Storage.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect storage: %w", err)
		}
		if a.Config.Storage.MigrateOnStart {
			if err := pool.Migrate(ctx); err != nil {
				pool.Close()
				return fmt.Errorf("failed to migrate storage: %w", err)
			}
			a.Logger.InfoContext(ctx, "storage migrated")
		}
		a.pool = pool
		a.Store = postgres.NewRunStore(pool)
	case config.StorageMemory, "":
		a.Store = memory.NewRunStore()
	default:
		return fmt.Errorf("unknown storage driver %q", a.Config.Storage.Driver)
	}
	return nil
}

func (a *Application) closeStorage() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

// initializeServices builds the hub, the pipeline and the services on top.
func (a *Application) initializeServices() error {
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	registry, err := operations.NewPipelineRegistry(operations.StepDependencies{
		Catalog:   a.Catalog,
		Pricing:   a.Config.Pricing,
		OutputDir: a.Paths.OutputDir,
		Store:     a.Store,
		Metrics:   a.Telemetry.Metrics,
		Logger:    a.Logger,
	})
	if err != nil {
		hub.Stop()
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	broadcaster := operations.NewStatusBroadcaster(hub, a.Logger)
	a.Manager = operations.NewManager(registry, broadcaster,
		operations.WithStepTimeout(a.Config.Server.OperationTimeout),
		operations.WithMetrics(a.Telemetry.Metrics),
		operations.WithTracer(a.Telemetry.Tracer),
		operations.WithManagerLogger(a.Logger),
	)

	var pinger services.Pinger
	if a.pool != nil {
		pinger = a.pool
	}

	a.Services = &ServiceContainer{
		Pricing: services.NewPricingService(a.Manager, a.Store, a.Catalog, a.Config.Pricing, a.Logger),
		Health:  services.NewHealthService(a.Config.Storage.Driver, pinger, hub, a.Logger),
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	// Tracing → RequestID → RealIP → Logger → Recoverer
	r.Use(customMiddleware.Tracing(a.Telemetry.Tracer))
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// The websocket stays outside the timeout and logging wrappers.
	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Logger))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(a.Logger, a.Telemetry.Metrics))
		r.Use(apierrors.RecoveryMiddleware(errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Server.AllowedOrigins,
		}))
		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, errorHandler)
	})

	r.Handle("/metrics", a.Telemetry.MetricsHandler)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	validator := customMiddleware.NewValidator(a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			r.Method(http.MethodGet, "/health",
				handlers.NewHealthHandler(a.Services.Health, a.Logger))
			r.Method(http.MethodGet, "/products/clusters",
				handlers.NewClustersHandler(a.Catalog, errorHandler, a.Logger))
			r.Mount("/operations",
				handlers.NewOperationsHandler(a.Manager.Broadcaster(), errorHandler, a.Logger).Routes())
		})

		// Runs execute the whole pipeline inside the request.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.OperationTimeout, a.Logger))
			r.Mount("/runs",
				handlers.NewRunsHandler(a.Services.Pricing, validator, errorHandler, a.Logger).Routes())
		})
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts serving in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if retention := a.Config.Server.OperationRetention; retention > 0 {
		go a.Manager.Broadcaster().RunJanitor(ctx, janitorInterval(retention), retention)
	}

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// janitorInterval sweeps a few times per retention window, at most once a
// minute.
func janitorInterval(retention time.Duration) time.Duration {
	if interval := retention / 4; interval < time.Minute {
		return interval
	}
	return time.Minute
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	a.Close(shutdownCtx)

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Close releases background resources without touching the HTTP server.
func (a *Application) Close(ctx context.Context) {
	if a.Manager != nil {
		a.Manager.Broadcaster().Stop()
	}
	if a.WebSocketHub != nil {
		a.WebSocketHub.Stop()
	}
	a.closeStorage()
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}
}

// Run serves until SIGINT, SIGTERM or a listener failure.
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("received shutdown signal")

	return a.Stop(context.Background())
}
