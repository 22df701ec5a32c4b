package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kjstillabower/weather-compare/internal/circuitbreaker"
	"github.com/kjstillabower/weather-compare/internal/models"
	"github.com/kjstillabower/weather-compare/internal/observability"
)

// WeatherSource fetches the raw current-weather record for a city.
type WeatherSource interface {
	Fetch(ctx context.Context, city, units string) (models.RawRecord, error)
	ValidateAPIKey(ctx context.Context) error
}

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
	ErrCircuitOpen      = errors.New("circuit breaker open")
)

// FetchError reports a failed fetch for City. StatusCode is 0 when no
// response was received.
type FetchError struct {
	City       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %q: HTTP %d: %v", e.City, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %q: %v", e.City, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 1 << 20

type OpenWeatherClient struct {
	apiKey  string
	apiURL  string
	timeout time.Duration
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	return &OpenWeatherClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetCircuitBreaker routes every upstream call through cb. Pass nil to disable.
func (c *OpenWeatherClient) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.breaker = cb
}

// Fetch performs a single GET for city. Any failure is returned as *FetchError.
func (c *OpenWeatherClient) Fetch(ctx context.Context, city, units string) (models.RawRecord, error) {
	if c.breaker == nil {
		return c.callAPI(ctx, city, units)
	}

	var record models.RawRecord
	var fetchErr error
	err := c.breaker.Call(ctx, func() error {
		record, fetchErr = c.callAPI(ctx, city, units)
		switch {
		case errors.Is(fetchErr, ErrLocationNotFound):
			// An unknown city is a caller mistake, not an upstream fault.
			return nil
		case ctx.Err() != nil, errors.Is(fetchErr, context.Canceled):
			// The caller gave up before the upstream answered.
			return nil
		}
		return fetchErr
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		observability.WeatherAPICallsTotal.WithLabelValues("circuit_open").Inc()
		return nil, &FetchError{City: city, Err: ErrCircuitOpen}
	}
	return record, fetchErr
}

func (c *OpenWeatherClient) callAPI(ctx context.Context, city, units string) (models.RawRecord, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, city, units)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return nil, &FetchError{City: city, Err: fmt.Errorf("build request: %w", err)}
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.Canceled) {
			return nil, &FetchError{City: city, Err: fmt.Errorf("request canceled: %w", err)}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &FetchError{City: city, Err: fmt.Errorf("request timeout: %w", err)}
		}
		return nil, &FetchError{City: city, Err: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if err := statusError(resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &FetchError{City: city, StatusCode: resp.StatusCode, Err: err}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{City: city, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}

	record, err := decodeRecord(body)
	if err != nil {
		return nil, &FetchError{City: city, StatusCode: resp.StatusCode, Err: err}
	}
	return record, nil
}

// decodeRecord parses body as JSON. A top-level object becomes the record;
// null or any other well-formed value yields an empty record.
func decodeRecord(body []byte) (models.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if obj, ok := doc.(map[string]any); ok {
		return models.RawRecord(obj), nil
	}
	return models.RawRecord{}, nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, city, units string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := baseURL.Query()
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	if units != "" {
		params.Set("units", units)
	}
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

// statusError maps a non-2xx status to its sentinel error.
func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrInvalidAPIKey
	case http.StatusNotFound:
		return ErrLocationNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if code < 200 || code >= 300 {
		return ErrUpstreamFailure
	}
	return nil
}

func extractCorrelationID(ctx context.Context) string {
	if corrID, ok := ctx.Value(observability.CorrelationIDKey).(string); ok {
		return corrID
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// ValidateAPIKey issues a probe request for a well-known city.
func (c *OpenWeatherClient) ValidateAPIKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := c.buildRequest(ctx, "London", "")
	if err != nil {
		return fmt.Errorf("build validation request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: API key is invalid or not activated", ErrInvalidAPIKey)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation failed: HTTP %d", resp.StatusCode)
	}

	return nil
}
