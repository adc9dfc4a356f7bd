package weather

import (
	"context"
	"errors"
	"time"
)

// ErrMalformed is returned by providers when a required field is missing.
var ErrMalformed = errors.New("malformed weather payload")

// ProviderReading is a single provider's current-conditions reading.
type ProviderReading struct {
	// ObservedAt is the upstream's observation time; zero when it gave none.
	ObservedAt time.Time

	TemperatureF     float64
	WindSpeedMph     float64
	WindDirectionDeg float64
	WeatherCode      int
}

// Provider abstracts a current-conditions source (e.g. Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderReading, error)
}

// Store is the write side of the state store used by the weather service.
type Store interface {
	// SetWeather replaces every weather field and marks the state valid.
	SetWeather(obs Observation, at time.Time)
	// MarkWeatherAttempt records a refresh attempt at at.
	MarkWeatherAttempt(at time.Time)
	Weather() State
}
