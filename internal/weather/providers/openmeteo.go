package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/tide-gauge/internal/weather"
)

// DefaultOpenMeteoBaseURL is the public Open-Meteo forecast endpoint.
const DefaultOpenMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// JSONFetcher performs one GET and decodes the JSON response into out.
type JSONFetcher interface {
	Name() string
	GetJSON(ctx context.Context, rawURL string, out interface{}) error
}

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	timezone string
	tz       *time.Location
	fetcher  JSONFetcher
}

// NewOpenMeteoProvider creates a provider. timezone is passed through to the
// API so its timestamps are local; an empty baseURL selects the public endpoint.
func NewOpenMeteoProvider(fetcher JSONFetcher, baseURL, timezone string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	if timezone == "" {
		timezone = "UTC"
	}
	tz, err := time.LoadLocation(timezone)
	if err != nil {
		timezone, tz = "UTC", time.UTC
	}
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  baseURL,
		timezone: timezone,
		tz:       tz,
		fetcher:  fetcher,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 3, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 3, 64))
	values.Set("current", "temperature_2m,weathercode,windspeed_10m,winddirection_10m")
	values.Set("temperature_unit", "fahrenheit")
	values.Set("windspeed_unit", "mph")
	values.Set("timezone", p.timezone)

	// Pointers distinguish an absent field from a legitimate zero.
	var payload struct {
		Current *struct {
			Time          string   `json:"time"`
			Temperature   *float64 `json:"temperature_2m"`
			WeatherCode   *int     `json:"weathercode"`
			WindSpeed     *float64 `json:"windspeed_10m"`
			WindDirection *float64 `json:"winddirection_10m"`
		} `json:"current"`
	}

	if err := p.fetcher.GetJSON(ctx, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.ProviderReading{}, err
	}

	cur := payload.Current
	if cur == nil {
		return weather.ProviderReading{}, fmt.Errorf("%w: missing current block", weather.ErrMalformed)
	}
	if cur.Temperature == nil || cur.WeatherCode == nil || cur.WindSpeed == nil || cur.WindDirection == nil {
		return weather.ProviderReading{}, fmt.Errorf("%w: incomplete current block", weather.ErrMalformed)
	}

	// Open-Meteo reports local time without an offset.
	var observedAt time.Time
	if parsed, err := time.ParseInLocation("2006-01-02T15:04", cur.Time, p.tz); err == nil {
		observedAt = parsed.UTC()
	}

	return weather.ProviderReading{
		ObservedAt:       observedAt,
		TemperatureF:     *cur.Temperature,
		WindSpeedMph:     *cur.WindSpeed,
		WindDirectionDeg: *cur.WindDirection,
		WeatherCode:      *cur.WeatherCode,
	}, nil
}
