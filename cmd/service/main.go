package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-compare/internal/circuitbreaker"
	"github.com/kjstillabower/weather-compare/internal/client"
	"github.com/kjstillabower/weather-compare/internal/config"
	httphandler "github.com/kjstillabower/weather-compare/internal/http"
	"github.com/kjstillabower/weather-compare/internal/lifecycle"
	"github.com/kjstillabower/weather-compare/internal/normalize"
	"github.com/kjstillabower/weather-compare/internal/observability"
	"github.com/kjstillabower/weather-compare/internal/render"
	"github.com/kjstillabower/weather-compare/internal/service"
	"github.com/kjstillabower/weather-compare/internal/traffic"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	weatherClient, err := client.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	if cfg.CircuitBreakerEnabled {
		weatherClient.SetCircuitBreaker(newBreaker(cfg, logger))
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	if cfg.ValidateAPIKey {
		validateCtx, validateCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := weatherClient.ValidateAPIKey(validateCtx); err != nil {
			logger.Warn("API key validation failed", zap.Error(err))
		}
		validateCancel()
	}

	if len(cfg.TrackedLocations) > 0 {
		observability.SetTrackedCities(cfg.TrackedLocations)
	}

	router, err := buildRouter(cfg, weatherClient, clockwork.NewRealClock(), logger)
	if err != nil {
		logger.Fatal("templates", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", ":"+cfg.ServerPort),
			zap.String("display_timezone", cfg.DisplayTimezone))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	observability.ShutdownInFlight.Set(float64(inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// newBreaker builds the weather API circuit breaker with metric and log hooks.
func newBreaker(cfg *config.Config, logger *zap.Logger) *circuitbreaker.CircuitBreaker {
	cb := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.CircuitBreakerFailureThreshold,
		SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
		Timeout:          cfg.CircuitBreakerTimeout,
		Component:        "weather_api",
		OnStateChange: func(component string, from, to circuitbreaker.State) {
			observability.RecordCircuitBreakerTransition(component, from.String(), to.String(), int(to))
			logger.Warn("circuit breaker state change",
				zap.String("component", component),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	observability.CircuitBreakerState.WithLabelValues("weather_api").Set(0)
	return cb
}

// buildRouter wires tracker, service, templates and handlers over source.
func buildRouter(cfg *config.Config, source client.WeatherSource, clock clockwork.Clock, logger *zap.Logger) (http.Handler, error) {
	tracker := traffic.NewTracker(clock)
	weatherService := service.NewWeatherService(source, normalize.New(cfg.Location), tracker, clock, logger)

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	handler := httphandler.NewHandler(
		weatherService,
		renderer,
		tracker,
		httphandler.HealthConfig{DegradedWindow: cfg.DegradedWindow, DegradedErrorPct: cfg.DegradedErrorPct},
		logger,
		cfg.LocationMinLength,
		cfg.LocationMaxLength,
	)
	return httphandler.NewRouter(handler, logger, cfg.RequestTimeout), nil
}
