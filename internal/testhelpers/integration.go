//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kjstillabower/weather-compare/internal/circuitbreaker"
	"github.com/kjstillabower/weather-compare/internal/client"
	"github.com/kjstillabower/weather-compare/internal/normalize"
	"github.com/kjstillabower/weather-compare/internal/observability"
	"github.com/kjstillabower/weather-compare/internal/service"
	"github.com/kjstillabower/weather-compare/internal/traffic"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey string
	APIURL string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}
	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	return IntegrationTestConfig{APIKey: apiKey, APIURL: apiURL}
}

// SetupIntegrationClient creates a live client wrapped in a circuit breaker.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.OpenWeatherClient {
	t.Helper()
	c, err := client.NewOpenWeatherClient(cfg.APIKey, cfg.APIURL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}
	c.SetCircuitBreaker(circuitbreaker.New(circuitbreaker.Config{Component: "weather_api_integration"}))
	return c
}

// SetupIntegrationService creates a service backed by the live API, formatting in UTC.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.WeatherService, *traffic.Tracker) {
	t.Helper()
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	clock := clockwork.NewRealClock()
	tracker := traffic.NewTracker(clock)
	svc := service.NewWeatherService(SetupIntegrationClient(t, cfg), normalize.New(time.UTC), tracker, clock, logger)
	return svc, tracker
}
