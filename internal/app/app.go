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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"growthdash/internal/cache"
	"growthdash/internal/charts"
	"growthdash/internal/config"
	"growthdash/internal/dataprocessing"
	apierrors "growthdash/internal/errors"
	"growthdash/internal/infrastructure"
	customMiddleware "growthdash/internal/middleware"
	"growthdash/internal/services"
	handlers "growthdash/internal/transport/http"
	"growthdash/internal/validation"
	"growthdash/pkg/contracts"
)

const AppName = "Companies Growth Dashboard"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Cache         *cache.DatasetCache
	ErrorHandler  *apierrors.ErrorHandler
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
}

// NewApplication loads configuration and logging from the environment and
// builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires the application from an explicit configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.GetFullVersionString()))

	a := &Application{
		Config: cfg,
		Logger: logger,
	}

	if err := a.initializeServices(); err != nil {
		return nil, err
	}

	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()

	return a, nil
}

// initializeServices builds telemetry, the dataset cache and the services on top
func (a *Application) initializeServices() error {
	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(a.Config.Telemetry, contracts.Version), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	cacheLogger := infrastructure.WithComponent(a.Logger, "dataset_cache")
	a.Cache = cache.New(cache.Options{
		TTL:             a.Config.Cache.TTL,
		MaxEntries:      a.Config.Cache.MaxEntries,
		CleanupInterval: a.Config.Cache.CleanupInterval,
		OnEvict: func(id, reason string) {
			// evictions also happen on the sweeper goroutine, outside any request
			ctx := infrastructure.ContextWithTraceID(context.Background())
			infrastructure.RecordCacheEviction(ctx, metrics, reason)
			cacheLogger.DebugContext(ctx, "dataset evicted",
				slog.String("dataset_id", id),
				slog.String("reason", reason))
		},
	})

	validator := validation.New(a.Logger)
	files := validation.NewFileValidator(validator, a.Config.Server.MaxUploadBytes, a.Logger)

	a.Services = &ServiceContainer{
		Dashboard: services.NewDashboardService(
			a.Cache,
			dataprocessing.NewLoader(a.Logger),
			files,
			validator,
			charts.NewRenderer(a.Config.Charts, a.Logger),
			metrics,
			a.Logger,
		),
		Health: services.NewHealthService(contracts.Version, contracts.BuildTime, a.Cache, a.Logger),
	}

	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, false)

	a.Logger.Info("Services initialized",
		slog.Int("cache_max_entries", a.Config.Cache.MaxEntries),
		slog.String("cache_ttl", a.Config.Cache.TTL.String()),
		slog.Int64("max_upload_bytes", a.Config.Server.MaxUploadBytes))
	return nil
}

// setupRouter builds the middleware chain and mounts every route.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → RateLimit → Timeout
func (a *Application) setupRouter() error {
	dashboard, err := handlers.NewDashboardHandler(a.Services.Dashboard, a.Logger, a.ErrorHandler)
	if err != nil {
		return fmt.Errorf("failed to create dashboard handler: %w", err)
	}

	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			infrastructure.WithError(a.Logger, err).Error("Failed to create OpenTelemetry middleware")
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		a.setupAPIRoutes(r)
		dashboard.RegisterRoutes(r, customMiddleware.MaxBodySize(a.Config.Server.MaxUploadBytes))
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	health := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	api := handlers.NewAPIHandler(a.Services.Dashboard, a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", health.Routes())
		r.Get("/version", health.Version)

		r.With(
			customMiddleware.MaxBodySize(a.Config.Server.MaxUploadBytes),
			customMiddleware.ContentTypeValidator("multipart/form-data"),
		).Mount("/datasets", api.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background. A listen failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Server error")
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Cache.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")

	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// ctx may already be cancelled; shutdown gets its own deadline
	return a.Stop(context.Background())
}
