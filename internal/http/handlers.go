package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-compare/internal/client"
	"github.com/kjstillabower/weather-compare/internal/lifecycle"
	"github.com/kjstillabower/weather-compare/internal/models"
	"github.com/kjstillabower/weather-compare/internal/normalize"
	"github.com/kjstillabower/weather-compare/internal/observability"
	"github.com/kjstillabower/weather-compare/internal/render"
	"github.com/kjstillabower/weather-compare/internal/service"
	"github.com/kjstillabower/weather-compare/internal/traffic"
	"github.com/kjstillabower/weather-compare/internal/validation"
)

// HealthConfig holds the degraded-state thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weather        *service.WeatherService
	renderer       *render.Renderer
	tracker        *traffic.Tracker
	health         HealthConfig
	logger         *zap.Logger
	locationMinLen int
	locationMaxLen int

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. minLen and maxLen bound city names in runes.
func NewHandler(
	weather *service.WeatherService,
	renderer *render.Renderer,
	tracker *traffic.Tracker,
	health HealthConfig,
	logger *zap.Logger,
	minLen, maxLen int,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		weather:        weather,
		renderer:       renderer,
		tracker:        tracker,
		health:         health,
		logger:         logger,
		locationMinLen: minLen,
		locationMaxLen: maxLen,
	}
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, render.PageHome, h.weather.Home())
}

// Results handles GET /results?city=&units=.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city, err := validation.ValidateField("city", q.Get("city"), h.locationMinLen, h.locationMaxLen)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	view, err := h.weather.Current(r.Context(), city, normalize.ResolveUnits(q.Get("units")))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, render.PageResults, models.CurrentPage{Date: h.weather.Now(), Weather: view})
}

// ComparisonResults handles GET /comparison_results?city1=&city2=&units=.
func (h *Handler) ComparisonResults(w http.ResponseWriter, r *http.Request) {
	city1, city2, units, err := h.comparisonParams(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	cmp, err := h.weather.Compare(r.Context(), city1, city2, units)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, render.PageComparison, cmp)
}

// APIWeather handles GET /api/weather?city=&units=.
func (h *Handler) APIWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city, err := validation.ValidateField("city", q.Get("city"), h.locationMinLen, h.locationMaxLen)
	if err != nil {
		h.writeProblem(w, r, err)
		return
	}

	view, err := h.weather.Current(r.Context(), city, normalize.ResolveUnits(q.Get("units")))
	if err != nil {
		h.writeProblem(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// APICompare handles GET /api/compare?city1=&city2=&units=.
func (h *Handler) APICompare(w http.ResponseWriter, r *http.Request) {
	city1, city2, units, err := h.comparisonParams(r)
	if err != nil {
		h.writeProblem(w, r, err)
		return
	}

	cmp, err := h.weather.Compare(r.Context(), city1, city2, units)
	if err != nil {
		h.writeProblem(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (h *Handler) comparisonParams(r *http.Request) (city1, city2, units string, err error) {
	q := r.URL.Query()
	if city1, err = validation.ValidateField("city1", q.Get("city1"), h.locationMinLen, h.locationMaxLen); err != nil {
		return "", "", "", err
	}
	if city2, err = validation.ValidateField("city2", q.Get("city2"), h.locationMinLen, h.locationMaxLen); err != nil {
		return "", "", "", err
	}
	return city1, city2, normalize.ResolveUnits(q.Get("units")), nil
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	degraded := h.tracker != nil && h.health.DegradedWindow > 0 && h.health.DegradedErrorPct > 0 &&
		h.tracker.Degraded(h.health.DegradedWindow, h.health.DegradedErrorPct)
	status := lifecycle.Status(degraded)

	h.healthStatusMu.Lock()
	if prev := h.healthStatusPrev; prev != "" && prev != status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", status))
	}
	h.healthStatusPrev = status
	h.healthStatusMu.Unlock()

	code := http.StatusOK
	if status != lifecycle.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	weatherAPI := "healthy"
	if degraded {
		weatherAPI = "unhealthy"
	}
	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"service":   observability.ServiceName,
		"version":   "dev",
		"checks":    map[string]string{"weatherApi": weatherAPI},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// statusClientClosedRequest is recorded when the caller went away before a response.
const statusClientClosedRequest = 499

// clientGone reports whether the caller canceled the request. Nothing is
// written beyond the status code in that case.
func (h *Handler) clientGone(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(r.Context().Err(), context.Canceled) {
		return false
	}
	observability.LoggerFromContext(r.Context(), h.logger).Debug("client went away",
		zap.Error(err))
	w.WriteHeader(statusClientClosedRequest)
	return true
}

// problem is how a failure is presented to the caller.
type problem struct {
	status  int
	code    string
	title   string
	message string
}

// classify maps validation and fetch errors to a response.
func classify(err error) problem {
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return problem{http.StatusBadRequest, "INVALID_LOCATION", "Invalid city",
			fmt.Sprintf("Please check the %s field: %v.", fe.Field, fe.Err)}
	}

	city := ""
	var fetchErr *client.FetchError
	if errors.As(err, &fetchErr) {
		city = fetchErr.City
	}

	switch {
	case errors.Is(err, client.ErrLocationNotFound):
		return problem{http.StatusNotFound, "LOCATION_NOT_FOUND", "City not found",
			fmt.Sprintf("We could not find weather for %q.", city)}
	case errors.Is(err, client.ErrInvalidAPIKey):
		return problem{http.StatusBadGateway, "UPSTREAM_AUTH", "Weather service unavailable",
			"The weather provider rejected our credentials."}
	case errors.Is(err, client.ErrRateLimited):
		return problem{http.StatusServiceUnavailable, "UPSTREAM_RATE_LIMITED", "Weather service busy",
			"The weather provider is limiting requests. Please try again shortly."}
	case errors.Is(err, client.ErrCircuitOpen):
		return problem{http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Weather service unavailable",
			"The weather provider is failing. Please try again shortly."}
	case errors.Is(err, context.Canceled):
		return problem{statusClientClosedRequest, "REQUEST_CANCELED", "Request canceled",
			fmt.Sprintf("The request for %q was canceled.", city)}
	case errors.Is(err, context.DeadlineExceeded):
		return problem{http.StatusServiceUnavailable, "UPSTREAM_TIMEOUT", "Weather service timed out",
			fmt.Sprintf("Fetching weather for %q took too long.", city)}
	}
	return problem{http.StatusBadGateway, "UPSTREAM_FAILURE", "Weather service error",
		fmt.Sprintf("Unable to fetch weather for %q.", city)}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		observability.LoggerFromContext(r.Context(), h.logger).Error("render failed",
			zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError shows the error page. Upstream failures are logged; bad input is not.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if h.clientGone(w, r, err) {
		return
	}
	p := classify(err)
	if p.status != http.StatusBadRequest && p.status != http.StatusNotFound {
		observability.LoggerFromContext(r.Context(), h.logger).Warn("request failed",
			zap.Int("status", p.status), zap.String("code", p.code), zap.Error(err))
	}
	h.render(w, r, p.status, render.PageError, render.ErrorPage{
		Status:    p.status,
		Title:     p.title,
		Message:   p.message,
		RequestID: observability.CorrelationID(r.Context()),
	})
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem writes the standard JSON error body with code, message and requestId.
func (h *Handler) writeProblem(w http.ResponseWriter, r *http.Request, err error) {
	if h.clientGone(w, r, err) {
		return
	}
	p := classify(err)
	if p.status >= 500 {
		observability.LoggerFromContext(r.Context(), h.logger).Warn("request failed",
			zap.Int("status", p.status), zap.String("code", p.code), zap.Error(err))
	}
	writeJSON(w, p.status, map[string]interface{}{
		"error": map[string]string{
			"code":      p.code,
			"message":   p.message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}
