package weather_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/tide-gauge/internal/clock"
	"github.com/i474232898/tide-gauge/internal/store"
	"github.com/i474232898/tide-gauge/internal/weather"
)

type stubProvider struct {
	reading weather.ProviderReading
	err     error
	gotLoc  weather.Location
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	p.gotLoc = loc
	return p.reading, p.err
}

var testLocation = weather.Location{Latitude: 48.115, Longitude: -122.76, Label: "Freeland WA"}

func TestRefresh_SuccessReplacesAllFields(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	st := store.NewMemoryStore(0)
	observed := time.Date(2024, 3, 1, 7, 45, 0, 0, time.UTC)
	prov := &stubProvider{reading: weather.ProviderReading{ObservedAt: observed, TemperatureF: 47.3, WindSpeedMph: 12.1, WindDirectionDeg: 200, WeatherCode: 63}}
	svc := weather.NewService(st, prov, testLocation, clk, nil, zaptest.NewLogger(t).Sugar())

	require.NoError(t, svc.Refresh(context.Background()))

	got := svc.Current()
	assert.True(t, got.Valid)
	assert.Equal(t, 47.3, got.TemperatureF)
	assert.Equal(t, 12.1, got.WindSpeedMph)
	assert.Equal(t, 200.0, got.WindDirectionDeg)
	assert.Equal(t, "Rain", got.Condition.Label())
	assert.Equal(t, weather.SectorS, got.WindSector())
	assert.Equal(t, clk.Now(), got.LastUpdatedAt)
	assert.Equal(t, observed, got.ObservedAt)
	assert.Equal(t, testLocation, prov.gotLoc)
}

func TestRefresh_FailureKeepsPreviousReading(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	st := store.NewMemoryStore(0)
	prov := &stubProvider{reading: weather.ProviderReading{TemperatureF: 60, WindSpeedMph: 3, WindDirectionDeg: 10, WeatherCode: 0}}
	svc := weather.NewService(st, prov, testLocation, clk, nil, zaptest.NewLogger(t).Sugar())
	require.NoError(t, svc.Refresh(context.Background()))
	before := svc.Current()

	clk.Advance(15 * time.Minute)
	prov.err = errors.New("503")
	prov.reading = weather.ProviderReading{TemperatureF: -40}

	require.Error(t, svc.Refresh(context.Background()))

	after := svc.Current()
	assert.Equal(t, before.Observation, after.Observation)
	assert.Equal(t, before.LastUpdatedAt, after.LastUpdatedAt)
	assert.Equal(t, clk.Now(), after.LastAttemptAt)
	assert.True(t, after.Valid)
}

func TestRefresh_FailureBeforeFirstSuccessStaysInvalid(t *testing.T) {
	clk := clock.NewFake(time.Now())
	st := store.NewMemoryStore(0)
	prov := &stubProvider{err: errors.New("dial tcp: no route to host")}
	svc := weather.NewService(st, prov, testLocation, clk, nil, zaptest.NewLogger(t).Sugar())

	require.Error(t, svc.Refresh(context.Background()))

	got := svc.Current()
	assert.False(t, got.Valid)
	assert.True(t, got.LastUpdatedAt.IsZero())
}

func TestRefresh_NoProvider(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(0), nil, testLocation, clock.NewFake(time.Now()), nil, zaptest.NewLogger(t).Sugar())
	assert.Error(t, svc.Refresh(context.Background()))
}
