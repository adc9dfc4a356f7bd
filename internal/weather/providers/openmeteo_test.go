package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/tide-gauge/internal/remote"
	"github.com/i474232898/tide-gauge/internal/weather"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenMeteoProvider {
	t.Helper()
	return newTestProviderIn(t, "UTC", handler)
}

func newTestProviderIn(t *testing.T, timezone string, handler http.HandlerFunc) *OpenMeteoProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fetcher := remote.NewFetcher("openmeteo", &http.Client{Timeout: 2 * time.Second}, remote.BreakerConfig{}, zaptest.NewLogger(t).Sugar())
	return NewOpenMeteoProvider(fetcher, srv.URL, timezone)
}

func TestOpenMeteoFetch_ParsesCurrentBlock(t *testing.T) {
	queries := make(chan url.Values, 1)
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		_, _ = w.Write([]byte(`{"latitude":48.11,"longitude":-122.76,"current":{
			"time":"2024-03-01T08:15","interval":900,
			"temperature_2m":48.6,"weathercode":3,"windspeed_10m":9.4,"winddirection_10m":231}}`))
	})

	r, err := p.Fetch(context.Background(), weather.Location{Latitude: 48.115, Longitude: -122.76})

	require.NoError(t, err)
	assert.Equal(t, 48.6, r.TemperatureF)
	assert.Equal(t, 9.4, r.WindSpeedMph)
	assert.Equal(t, 231.0, r.WindDirectionDeg)
	assert.Equal(t, 3, r.WeatherCode)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC), r.ObservedAt)

	q := <-queries
	assert.Equal(t, "48.115", q.Get("latitude"))
	assert.Equal(t, "-122.760", q.Get("longitude"))
	assert.Equal(t, "fahrenheit", q.Get("temperature_unit"))
	assert.Equal(t, "mph", q.Get("windspeed_unit"))
}

func TestOpenMeteoFetch_ZeroValuesAreNotMissing(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current":{"time":"2024-03-01T08:15","temperature_2m":0,"weathercode":0,"windspeed_10m":0,"winddirection_10m":0}}`))
	})

	r, err := p.Fetch(context.Background(), weather.Location{})

	require.NoError(t, err)
	assert.Equal(t, 0, r.WeatherCode)
}

func TestOpenMeteoFetch_MissingFieldIsMalformed(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":50.1,"windspeed_10m":3}}`))
	})

	_, err := p.Fetch(context.Background(), weather.Location{})
	assert.True(t, errors.Is(err, weather.ErrMalformed))
}

func TestOpenMeteoFetch_MissingCurrentBlock(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":true,"reason":"Latitude must be in range of -90 to 90°."}`))
	})

	_, err := p.Fetch(context.Background(), weather.Location{})
	assert.True(t, errors.Is(err, weather.ErrMalformed))
}

func TestOpenMeteoFetch_UpstreamError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := p.Fetch(context.Background(), weather.Location{})
	assert.True(t, errors.Is(err, remote.ErrStatus))
}

func TestOpenMeteoFetch_ObservedAtUsesRequestedTimezone(t *testing.T) {
	queries := make(chan url.Values, 1)
	p := newTestProviderIn(t, "America/Los_Angeles", func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		_, _ = w.Write([]byte(`{"current":{"time":"2024-07-04T05:00","temperature_2m":58.1,"weathercode":61,"windspeed_10m":11,"winddirection_10m":190}}`))
	})

	r, err := p.Fetch(context.Background(), weather.Location{})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC), r.ObservedAt)
	assert.Equal(t, "America/Los_Angeles", (<-queries).Get("timezone"))
}

func TestOpenMeteoFetch_UnparsableTimeLeavesObservedAtZero(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":50,"weathercode":1,"windspeed_10m":2,"winddirection_10m":90}}`))
	})

	r, err := p.Fetch(context.Background(), weather.Location{})

	require.NoError(t, err)
	assert.True(t, r.ObservedAt.IsZero())
}
