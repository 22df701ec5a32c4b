package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-compare/internal/observability"
)

// NewRouter registers every route. Pages and API routes that fetch weather
// run under requestTimeout.
func NewRouter(h *Handler, logger *zap.Logger, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/", h.Home).Methods(http.MethodGet)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	fetching := router.NewRoute().Subrouter()
	fetching.Use(TimeoutMiddleware(requestTimeout))
	fetching.HandleFunc("/results", h.Results).Methods(http.MethodGet)
	fetching.HandleFunc("/comparison_results", h.ComparisonResults).Methods(http.MethodGet)
	fetching.HandleFunc("/api/weather", h.APIWeather).Methods(http.MethodGet)
	fetching.HandleFunc("/api/compare", h.APICompare).Methods(http.MethodGet)

	return router
}
