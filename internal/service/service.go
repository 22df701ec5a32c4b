package service

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjstillabower/weather-compare/internal/client"
	"github.com/kjstillabower/weather-compare/internal/models"
	"github.com/kjstillabower/weather-compare/internal/normalize"
	"github.com/kjstillabower/weather-compare/internal/observability"
	"github.com/kjstillabower/weather-compare/internal/traffic"
)

// historyDays is how far back the home page date picker reaches.
const historyDays = 5

// WeatherService fetches raw records from the upstream source and turns them
// into view models. It never caches and never retries.
type WeatherService struct {
	source     client.WeatherSource
	normalizer *normalize.Normalizer
	tracker    *traffic.Tracker
	clock      clockwork.Clock
	logger     *zap.Logger
}

// NewWeatherService wires a service. A nil normalizer formats in UTC, a nil
// clock is the real clock and a nil logger discards output.
func NewWeatherService(source client.WeatherSource, normalizer *normalize.Normalizer, tracker *traffic.Tracker, clock clockwork.Clock, logger *zap.Logger) *WeatherService {
	if normalizer == nil {
		normalizer = normalize.New(time.UTC)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tracker == nil {
		tracker = traffic.NewTracker(clock)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherService{
		source:     source,
		normalizer: normalizer,
		tracker:    tracker,
		clock:      clock,
		logger:     logger,
	}
}

// Now returns the current time in the display location.
func (s *WeatherService) Now() time.Time {
	return s.clock.Now().In(s.normalizer.Zone())
}

// Home returns the landing page context: today and the selectable date range.
func (s *WeatherService) Home() models.HomePage {
	now := s.Now()
	return models.HomePage{
		Date:    now,
		MinDate: now.AddDate(0, 0, -historyDays),
		MaxDate: now,
	}
}

// Current fetches and normalizes one city. Fetch failures are returned as
// *client.FetchError and never normalized into a placeholder view.
func (s *WeatherService) Current(ctx context.Context, city, units string) (models.WeatherView, error) {
	units = normalize.ResolveUnits(units)
	observability.WeatherQueriesTotal.WithLabelValues("current").Inc()

	raw, err := s.fetch(ctx, city, units)
	if err != nil {
		return models.WeatherView{}, err
	}
	return s.normalize(ctx, raw, city, units), nil
}

// Compare fetches both cities in parallel and normalizes each independently.
// If either fetch fails the comparison fails; the error names the city.
func (s *WeatherService) Compare(ctx context.Context, city1, city2, units string) (models.Comparison, error) {
	units = normalize.ResolveUnits(units)
	observability.WeatherQueriesTotal.WithLabelValues("compare").Inc()

	var raw1, raw2 models.RawRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw1, err = s.fetch(gctx, city1, units)
		return err
	})
	g.Go(func() error {
		var err error
		raw2, err = s.fetch(gctx, city2, units)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Comparison{}, err
	}

	return models.Comparison{
		Date:        s.Now(),
		City1:       s.normalize(ctx, raw1, city1, units),
		City2:       s.normalize(ctx, raw2, city2, units),
		Units:       units,
		UnitsLetter: normalize.Letter(units),
	}, nil
}

func (s *WeatherService) fetch(ctx context.Context, city, units string) (models.RawRecord, error) {
	logger := observability.LoggerFromContext(ctx, s.logger)
	start := s.clock.Now()
	observability.RecordCityQuery(city)

	raw, err := s.source.Fetch(ctx, city, units)
	if err != nil {
		var fe *client.FetchError
		if !errors.As(err, &fe) {
			err = &client.FetchError{City: city, Err: err}
		}
		category := client.CategorizeError(err)
		observability.WeatherFetchErrorsTotal.WithLabelValues(string(category)).Inc()
		if countsAgainstHealth(err) {
			s.tracker.RecordError()
		}
		logger.Warn("weather fetch failed",
			zap.String("city", city),
			zap.String("category", string(category)),
			zap.Error(err))
		return nil, err
	}

	s.tracker.RecordSuccess()
	logger.Debug("weather fetched",
		zap.String("city", city),
		zap.String("units", units),
		zap.Duration("duration", s.clock.Since(start)))
	return raw, nil
}

func (s *WeatherService) normalize(ctx context.Context, raw models.RawRecord, city, units string) models.WeatherView {
	view := s.normalizer.Normalize(raw, city, units)
	if missing := normalize.Defaulted(view); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			observability.FieldDefaultsTotal.WithLabelValues(string(f)).Inc()
			names[i] = string(f)
		}
		observability.LoggerFromContext(ctx, s.logger).Debug("fields defaulted",
			zap.String("city", city),
			zap.Strings("fields", names))
	}
	return view
}

// countsAgainstHealth reports whether err reflects upstream trouble rather
// than a bad city or a caller that went away.
func countsAgainstHealth(err error) bool {
	switch {
	case errors.Is(err, client.ErrLocationNotFound):
		return false
	case errors.Is(err, context.Canceled):
		return false
	}
	return true
}
