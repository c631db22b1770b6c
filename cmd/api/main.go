package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/Medicalqueryreview/internal/adapters/events"
	"github.com/zatekoja/Medicalqueryreview/internal/adapters/snapshot"
	"github.com/zatekoja/Medicalqueryreview/internal/api/handlers"
	"github.com/zatekoja/Medicalqueryreview/internal/api/routes"
	"github.com/zatekoja/Medicalqueryreview/internal/application/services"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/providers"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/clients/drafting"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/clients/openai"
	redisclient "github.com/zatekoja/Medicalqueryreview/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/observability"
	"github.com/zatekoja/Medicalqueryreview/pkg/config"
	"github.com/zatekoja/Medicalqueryreview/pkg/retry"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize metrics")
		return 1
	}

	// Snapshot store
	store, err := snapshot.Open(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Snapshot.Backend).Msg("failed to open snapshot store")
		return 1
	}
	defer store.Close()

	// Registries and lifecycle
	ids := services.NewIDAllocator()
	doctorRegistry := services.NewDoctorRegistry(ids)
	patientRegistry := services.NewPatientRegistry(ids, doctorRegistry)

	integrator := services.NewDraftIntegrator(newDraftProvider(cfg), services.DraftIntegratorConfig{
		Timeout:   cfg.Draft.Timeout,
		Workers:   cfg.Draft.Workers,
		QueueSize: cfg.Draft.QueueSize,
	})
	lifecycle := services.NewQueryLifecycleService(ids, patientRegistry, doctorRegistry, integrator)

	eventBus, closeEvents := newEventBus(cfg)
	defer closeEvents()
	lifecycle.SetEventBus(eventBus)

	persistence := services.NewPersistenceService(ids, patientRegistry, doctorRegistry, lifecycle, store, store.Backend())
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Snapshot.SaveAttempts
	retryCfg.MaxTotalTimeout = 30 * time.Second
	persistence.SetRetryConfig(retryCfg)
	persistence.SetMetrics(metrics)

	restored, err := persistence.LoadAndRestore(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to restore snapshot")
		return 1
	}
	logger.Info().Bool("restored", restored).Str("backend", store.Backend()).Msg("state loaded")

	integrator.Start(lifecycle)
	go persistence.StartPeriodicCheckpoint(ctx, cfg.Snapshot.Interval)

	health := services.NewHealthService(ids, patientRegistry, doctorRegistry, lifecycle, integrator, store)

	router := routes.NewRouter(
		handlers.NewPatientHandler(patientRegistry),
		handlers.NewDoctorHandler(doctorRegistry, patientRegistry, lifecycle),
		handlers.NewQueryHandler(lifecycle, patientRegistry),
		handlers.NewHealthHandler(health),
		handlers.NewSSEHandler(eventBus),
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// SSE streams stay open, so writes are not bounded
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("server shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server failed")
		exitCode = 1
	}

	// Stop periodic checkpoints before the final save
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}
	if err := integrator.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("draft workers did not finish")
	}

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer saveCancel()
	if err := persistence.Save(saveCtx); err != nil {
		logger.Error().Err(err).Msg("final snapshot failed; state since the last checkpoint is lost")
		return 1
	}

	logger.Info().Msg("server stopped")
	return exitCode
}

// newDraftProvider builds the configured drafting backend, or nil when drafting is off
func newDraftProvider(cfg *config.Config) providers.DraftProvider {
	logger := observability.GetLogger()

	switch cfg.Draft.Provider {
	case config.DraftProviderHTTP:
		client, err := drafting.NewClient(&cfg.Draft)
		if err != nil {
			logger.Warn().Err(err).Msg("drafting service unavailable; AI drafts disabled")
			return nil
		}
		return client
	case config.DraftProviderOpenAI:
		client, err := openai.NewClient(&cfg.OpenAI, cfg.Draft.Timeout)
		if err != nil {
			logger.Warn().Err(err).Msg("OpenAI client unavailable; AI drafts disabled")
			return nil
		}
		return client
	default:
		logger.Info().Msg("AI drafts disabled")
		return nil
	}
}

// newEventBus uses Redis pub/sub when events are enabled and Redis answers,
// and an in-process bus otherwise
func newEventBus(cfg *config.Config) (providers.EventBus, func()) {
	logger := observability.GetLogger()

	if cfg.Events.Enabled {
		client, err := redisclient.NewClient(&cfg.Redis)
		if err == nil {
			bus := events.NewRedisEventBus(client)
			logger.Info().Msg("query events published over Redis")
			return bus, func() {
				if err := bus.Close(); err != nil {
					logger.Error().Err(err).Msg("error closing event bus")
				}
				client.Close()
			}
		}
		logger.Warn().Err(err).Msg("Redis unavailable; query events stay in process")
	}

	bus := events.NewMemoryEventBus()
	return bus, func() { bus.Close() }
}
