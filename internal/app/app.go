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
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/AleksandrZin/google-election/internal/config"
	apierrors "github.com/AleksandrZin/google-election/internal/errors"
	"github.com/AleksandrZin/google-election/internal/infrastructure"
	customMiddleware "github.com/AleksandrZin/google-election/internal/middleware"
	"github.com/AleksandrZin/google-election/internal/services"
	"github.com/AleksandrZin/google-election/internal/stats"
	handlers "github.com/AleksandrZin/google-election/internal/transport/http"
	"github.com/AleksandrZin/google-election/pkg/contracts"
)

// AppName is reported in startup logs
const AppName = "Election Trends Dashboard"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	DataService   *services.DataService
	HealthService *services.HealthService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
}

// NewApplication loads configuration, initializes logging and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component of the dashboard server from cfg
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

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

	if err := app.setupRouter(); err != nil {
		return nil, err
	}
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() {
	engine := stats.NewEngine(a.Logger, a.Metrics)
	a.DataService = services.NewDataService(a.Paths, engine, a.Logger)
	a.HealthService = services.NewHealthService(contracts.Version, contracts.BuildTime, a.DataService, a.Logger)
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() error {
	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	validator := customMiddleware.NewRequestValidator(a.Logger)

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(chimw.RealIP)

	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if rl := a.Config.Security.RateLimit; rl.Enabled && rl.RPS > 0 {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
			r.Use(render.SetContentType(render.ContentTypeJSON))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)

			dataHandler := handlers.NewDataHandler(a.DataService, validator, a.Logger, errorHandler)
			dataHandler.RegisterRoutes(r)
		})
	})

	// Scrapes stay out of the request metrics they report
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	a.Router = r
	return nil
}

// getCORSConfig allows the local dashboard origins
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	if a.Config.Telemetry.Environment == "development" {
		origins = append(origins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match", "X-Request-ID"},
		ExposedHeaders: []string{"ETag", "X-Request-ID"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
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

// Start loads the fused tables and begins serving in the background. A
// missing table set only leaves the server not ready until POST /api/reload
// succeeds. The returned channel yields the error that ended serving.
func (a *Application) Start(ctx context.Context) <-chan error {
	a.Logger.InfoContext(ctx, "Starting "+AppName,
		slog.String("version", contracts.Version),
		slog.String("addr", a.Server.Addr),
		slog.String("geo_table", a.Paths.GeoTable),
		slog.String("timeline_table", a.Paths.TimelineTable))

	if snap, err := a.DataService.Reload(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Fused tables not loaded, run the pipeline and POST /api/reload",
			slog.String("error", err.Error()))
	} else {
		a.Logger.InfoContext(ctx, "Fused tables loaded",
			slog.Int("regions", len(snap.Tables.Geo)),
			slog.Int("timeline_points", len(snap.Tables.Timeline)),
			slog.String("etag", snap.ETag))
	}

	errc := make(chan error, 1)
	go func() {
		err := a.Server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errc <- err
	}()
	return errc
}

// Stop drains in-flight requests, then flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Telemetry flush failed", slog.String("error", err.Error()))
		}
	}
	a.Logger.InfoContext(ctx, "Server stopped")
	return nil
}

// Run serves until SIGINT or SIGTERM, or until the listener fails
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-a.Start(ctx):
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.Logger.Info("Shutdown signal received")
	}
	return a.Stop(context.Background())
}
