package weather

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/i474232898/tide-gauge/internal/clock"
	"github.com/i474232898/tide-gauge/internal/metrics"
)

// Service refreshes WeatherState from a Provider and persists it in the store.
type Service struct {
	store    Store
	provider Provider
	location Location
	clock    clock.Clock
	metrics  *metrics.Collector
	log      *zap.SugaredLogger
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, loc Location, clk clock.Clock, m *metrics.Collector, log *zap.SugaredLogger) *Service {
	return &Service{
		store:    store,
		provider: provider,
		location: loc,
		clock:    clk,
		metrics:  m,
		log:      log,
	}
}

// Refresh fetches current conditions and replaces the weather fields as one
// group. On failure the previous values and LastUpdatedAt are kept; only the
// attempt stamp moves.
func (s *Service) Refresh(ctx context.Context) error {
	if s.provider == nil {
		return fmt.Errorf("no weather provider configured")
	}

	start := s.clock.Monotonic()
	r, err := s.provider.Fetch(ctx, s.location)
	s.metrics.RecordFetch(s.provider.Name(), "current", err, s.clock.Monotonic()-start)

	now := s.clock.Now()
	if err != nil {
		s.store.MarkWeatherAttempt(now)
		s.log.Warnw("weather fetch failed; keeping last good reading",
			"provider", s.provider.Name(), "location", s.location.Key(), "error", err)
		return err
	}

	obs := Observation{
		TemperatureF:     r.TemperatureF,
		WindSpeedMph:     r.WindSpeedMph,
		WindDirectionDeg: r.WindDirectionDeg,
		Condition:        Classify(r.WeatherCode),
		ObservedAt:       r.ObservedAt,
	}
	s.store.SetWeather(obs, now)
	s.metrics.SetWeather(obs.TemperatureF, obs.WindSpeedMph)

	s.log.Infow("weather refresh",
		"temp_f", obs.TemperatureF,
		"wind_mph", obs.WindSpeedMph,
		"wind_dir", SectorFor(obs.WindDirectionDeg).String(),
		"condition", obs.Condition.Label(),
		"observed_at", obs.ObservedAt,
	)
	return nil
}

// Current returns a copy of the stored weather state.
func (s *Service) Current() State {
	return s.store.Weather()
}
