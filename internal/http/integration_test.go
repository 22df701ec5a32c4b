//go:build integration
// +build integration

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-compare/internal/render"
	testhelpers "github.com/kjstillabower/weather-compare/internal/testhelpers"
)

func setupIntegrationRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := testhelpers.GetIntegrationConfig(t)
	svc, tracker := testhelpers.SetupIntegrationService(t, cfg)
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New() error = %v", err)
	}
	h := NewHandler(svc, renderer, tracker, HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 50}, zap.NewNop(), 1, 100)
	return NewRouter(h, zap.NewNop(), 10*time.Second)
}

// TestIntegration_ResultsPage verifies a real city renders against the live API.
func TestIntegration_ResultsPage(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results?city=London&units=metric", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "°C") {
		t.Error("results page should show a Celsius temperature")
	}
}

func TestIntegration_APICompare(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/compare?city1=Paris&city2=Tokyo&units=imperial", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var cmp struct {
		City1 struct {
			Temperature *float64 `json:"temperature"`
		} `json:"city1"`
		City2 struct {
			Temperature *float64 `json:"temperature"`
		} `json:"city2"`
		UnitsLetter string `json:"unitsLetter"`
	}
	if err := json.NewDecoder(w.Body).Decode(&cmp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmp.City1.Temperature == nil || cmp.City2.Temperature == nil {
		t.Error("live API should supply both temperatures")
	}
	if cmp.UnitsLetter != "F" {
		t.Errorf("unitsLetter = %q, want F", cmp.UnitsLetter)
	}
}

func TestIntegration_UnknownCity(t *testing.T) {
	router := setupIntegrationRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results?city=Qwzxvbnmplk", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
