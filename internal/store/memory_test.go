package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/tide-gauge/internal/tide"
	"github.com/i474232898/tide-gauge/internal/weather"
)

func TestNewMemoryStore_StartsInvalid(t *testing.T) {
	s := NewMemoryStore(8.35)

	snap := s.Snapshot()
	assert.False(t, snap.Tide.Valid)
	assert.False(t, snap.Weather.Valid)
	assert.False(t, snap.Tide.HasNextEvent())
	assert.Equal(t, tide.EventUnknown, snap.Tide.NextEventKind)
}

func TestSetTideLevel_DerivesDelta(t *testing.T) {
	s := NewMemoryStore(8.35)

	s.SetTideLevel(10.5)

	st := s.Tide()
	assert.True(t, st.Valid)
	assert.Equal(t, 10.5, st.CurrentLevelFt)
	assert.Equal(t, 10.5-8.35, st.DeltaFromMeanFt)
}

func TestMarkTideRefreshed_OnlyStampsUpdateOnSuccess(t *testing.T) {
	s := NewMemoryStore(0)
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(6 * time.Minute)

	s.MarkTideRefreshed(t1, true)
	s.MarkTideRefreshed(t2, false)

	st := s.Tide()
	assert.Equal(t, t1, st.LastUpdatedAt)
	assert.Equal(t, t2, st.LastAttemptAt)
}

func TestWeather_FailedAttemptKeepsValues(t *testing.T) {
	s := NewMemoryStore(0)
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := weather.Observation{TemperatureF: 50, WindSpeedMph: 5, WindDirectionDeg: 90, Condition: weather.Classify(3)}

	s.SetWeather(obs, t1)
	s.MarkWeatherAttempt(t1.Add(15 * time.Minute))

	st := s.Weather()
	assert.True(t, st.Valid)
	assert.Equal(t, obs, st.Observation)
	assert.Equal(t, t1, st.LastUpdatedAt)
	assert.Equal(t, t1.Add(15*time.Minute), st.LastAttemptAt)
}

// Readers racing a writer must always see one of the whole groups that was
// written, never a mix.
func TestConcurrentReadersSeeWholeGroups(t *testing.T) {
	s := NewMemoryStore(1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			f := float64(i)
			s.SetTideLevel(f)
			s.SetNextTideEvent(tide.Prediction{Time: base.Add(time.Duration(i) * time.Minute), Kind: tide.EventHigh, LevelFt: f})
		}
	}()

	for i := 0; i < 2000; i++ {
		st := s.Tide()
		require.Equal(t, st.CurrentLevelFt-1, st.DeltaFromMeanFt)
		if st.HasNextEvent() {
			mins := st.NextEventTime.Sub(base).Minutes()
			require.Equal(t, mins, st.NextEventLevelFt)
		}
	}
	wg.Wait()
}
