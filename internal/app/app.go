package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"uncertcli/internal/calibration"
	"uncertcli/internal/config"
	"uncertcli/internal/dataprocessing"
	apierrors "uncertcli/internal/errors"
	"uncertcli/internal/exporter"
	"uncertcli/internal/infrastructure"
	customMiddleware "uncertcli/internal/middleware"
	"uncertcli/internal/services"
	handlers "uncertcli/internal/transport/http"
	"uncertcli/internal/validation"
	"uncertcli/pkg/contracts"
)

// Application wires configuration, services and the HTTP server of uncertd
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	UncertaintyService *services.UncertaintyService
	HealthService      *services.HealthService
}

// NewApplication creates the application. A missing or unreadable calibration
// table does not stop startup; the service then reports degraded health and
// rejects uncertainty runs.
func NewApplication(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if providers == nil {
		return nil, errors.New("telemetry providers are required")
	}

	paths := cfg.ResolvedPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() {
	calibrationPath := a.Config.CalibrationPath()

	var resolver *calibration.Resolver
	var table *calibration.Table
	if err := validation.NewFileValidator(a.Logger).ValidateCalibrationFile(calibrationPath); err != nil {
		infrastructure.WithError(a.Logger, err).Error("Calibration table unavailable",
			slog.String("path", calibrationPath))
	} else if loaded, err := calibration.Load(calibrationPath, a.Logger); err != nil {
		infrastructure.WithError(a.Logger, err).Error("Calibration table could not be loaded",
			slog.String("path", calibrationPath))
	} else {
		table = loaded
		resolver = calibration.NewResolver(table, a.Logger)
		a.Logger.Info("Calibration table loaded",
			slog.String("path", calibrationPath),
			slog.Int("rows", table.Len()))
	}

	a.UncertaintyService = services.NewUncertaintyService(resolver, exporter.New(a.Paths), a.Logger).
		WithMetrics(a.Metrics)
	a.HealthService = services.NewHealthService(calibrationPath, table, a.Logger)
}

// processingDefaults maps the analysis section onto per-request defaults
func (a *Application) processingDefaults() dataprocessing.ProcessingOptions {
	opts := dataprocessing.DefaultOptions()
	opts.GroupColumn = a.Config.Analysis.GroupColumn
	opts.Workers = a.Config.Analysis.Workers
	opts.Format.IncludeUnits = a.Config.Analysis.IncludeUnits
	opts.Format.FormatResults = a.Config.Analysis.FormatResults
	opts.Format.FormatValues = a.Config.Analysis.FormatValues
	return opts
}

// setupRouter configures the HTTP router with all routes.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → RateLimit
func (a *Application) setupRouter() {
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Telemetry.Environment == "development")

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(errorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if rl := a.Config.Server.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, errorHandler, a.Logger).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	uncertaintyHandler := handlers.NewUncertaintyHandler(
		a.UncertaintyService,
		a.processingDefaults(),
		customMiddleware.NewValidationMiddleware(a.Logger, errorHandler, a.Config.Server.MaxUploadBytes),
		validation.NewFileValidator(a.Logger),
		errorHandler,
		a.Logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout))
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)
		})

		r.Route("/v1", func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
			r.Use(customMiddleware.Compress(5))
			r.Mount("/uncertainty", uncertaintyHandler.Routes())
		})
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
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
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Server error")
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", a.Server.Addr))
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

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until SIGINT, SIGTERM or a server failure, then shuts down
func (a *Application) Run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}

// performStartupHealthCheck reports problems that degrade the service without
// preventing it from starting
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var errs []error

	if err := validation.NewFileValidator(a.Logger).ValidateOutputDirectory(a.Paths.ReportsDir); err != nil {
		errs = append(errs, fmt.Errorf("reports directory not writable: %w", err))
	}
	if status := a.HealthService.HealthCheck(ctx).Status; status != services.StatusOK {
		errs = append(errs, fmt.Errorf("health status %s", status))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
