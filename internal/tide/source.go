package tide

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoData is returned when the upstream answers without usable samples.
	ErrNoData = errors.New("no tide data")
	// ErrMalformed is returned when a sample cannot be parsed.
	ErrMalformed = errors.New("malformed tide data")
)

// Source provides the two tide queries the gauge needs.
type Source interface {
	// LatestLevel returns the most recent observed water level in feet.
	LatestLevel(ctx context.Context) (float64, error)
	// Predictions returns hi/lo predictions covering [from, to]. Entries that
	// cannot be parsed are dropped; the order of the result is not guaranteed.
	Predictions(ctx context.Context, from, to time.Time) ([]Prediction, error)
}

// Store is the write side of the state store used by the tide service.
type Store interface {
	// SetTideLevel replaces the level group and marks the state valid.
	SetTideLevel(levelFt float64)
	// SetNextTideEvent replaces the next-event group.
	SetNextTideEvent(p Prediction)
	// MarkTideRefreshed records the end of a refresh cycle at at; updated
	// reports whether any group changed.
	MarkTideRefreshed(at time.Time, updated bool)
	Tide() State
}
