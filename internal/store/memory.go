package store

import (
	"sync"
	"time"

	"github.com/i474232898/tide-gauge/internal/tide"
	"github.com/i474232898/tide-gauge/internal/weather"
)

// Snapshot is a point-in-time copy of both state records.
type Snapshot struct {
	Tide    tide.State    `json:"tide"`
	Weather weather.State `json:"weather"`
}

// MemoryStore is the single owner of the gauge's tide and weather state.
//
// Each write method replaces one update group under the write lock, so
// readers never observe a group half written. Readers always get copies.
type MemoryStore struct {
	mu sync.RWMutex

	tide    tide.State
	weather weather.State

	meanSeaLevelFt float64
}

// NewMemoryStore creates an empty store. meanSeaLevelFt is the station's MSL
// above datum, used to derive DeltaFromMeanFt.
func NewMemoryStore(meanSeaLevelFt float64) *MemoryStore {
	return &MemoryStore{meanSeaLevelFt: meanSeaLevelFt}
}

// SetTideLevel replaces the level group. The delta is always derived here so
// it can never drift from the level.
func (s *MemoryStore) SetTideLevel(levelFt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tide.CurrentLevelFt = levelFt
	s.tide.DeltaFromMeanFt = levelFt - s.meanSeaLevelFt
	s.tide.Valid = true
}

// SetNextTideEvent replaces the next-event group.
func (s *MemoryStore) SetNextTideEvent(p tide.Prediction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tide.NextEventKind = p.Kind
	s.tide.NextEventLevelFt = p.LevelFt
	s.tide.NextEventTime = p.Time
}

// MarkTideRefreshed stamps the end of a tide cycle. LastUpdatedAt only moves
// when something was updated, so staleness stays visible.
func (s *MemoryStore) MarkTideRefreshed(at time.Time, updated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tide.LastAttemptAt = at
	if updated {
		s.tide.LastUpdatedAt = at
	}
}

// Tide returns a copy of the tide state.
func (s *MemoryStore) Tide() tide.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tide
}

// SetWeather replaces every weather field.
func (s *MemoryStore) SetWeather(obs weather.Observation, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.weather.Observation = obs
	s.weather.LastUpdatedAt = at
	s.weather.LastAttemptAt = at
	s.weather.Valid = true
}

// MarkWeatherAttempt stamps a failed weather cycle.
func (s *MemoryStore) MarkWeatherAttempt(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather.LastAttemptAt = at
}

// Weather returns a copy of the weather state.
func (s *MemoryStore) Weather() weather.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weather
}

// Snapshot returns both records copied under a single read lock.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Tide: s.tide, Weather: s.weather}
}

// MeanSeaLevelFt returns the MSL offset the store derives deltas from.
func (s *MemoryStore) MeanSeaLevelFt() float64 {
	return s.meanSeaLevelFt
}
