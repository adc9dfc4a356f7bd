package tide

import (
	"time"
)

// EventKind classifies a hi/lo prediction.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventHigh
	EventLow
)

func (k EventKind) String() string {
	switch k {
	case EventHigh:
		return "High"
	case EventLow:
		return "Low"
	default:
		return "Unknown"
	}
}

// MarshalText renders the kind by name in JSON.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindFromCode maps NOAA's hi/lo type code. Anything other than "H" or "L"
// is EventUnknown.
func KindFromCode(code string) EventKind {
	switch code {
	case "H":
		return EventHigh
	case "L":
		return EventLow
	default:
		return EventUnknown
	}
}

// Station holds the fixed parameters of the tide station the gauge follows.
type Station struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Datum string `json:"datum"`
	// MeanSeaLevelFt is MSL above the station datum; the needle's zero point.
	MeanSeaLevelFt float64 `json:"meanSeaLevelFt"`
	// RangeFt is the deviation from MSL mapped to full needle deflection.
	RangeFt float64 `json:"rangeFt"`
}

// Prediction is one forecast high or low water.
type Prediction struct {
	Time    time.Time
	Kind    EventKind
	LevelFt float64
}

// State is the gauge's current knowledge of tide conditions.
//
// Level fields and next-event fields are written as two independent groups;
// each group is replaced whole or not at all.
type State struct {
	CurrentLevelFt  float64 `json:"currentLevelFt"`
	DeltaFromMeanFt float64 `json:"deltaFromMeanFt"`

	NextEventKind    EventKind `json:"nextEventKind"`
	NextEventLevelFt float64   `json:"nextEventLevelFt"`
	NextEventTime    time.Time `json:"nextEventTime"` // zero until the first prediction lands

	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastAttemptAt time.Time `json:"lastAttemptAt"`

	// Valid is set by the first successful level fetch and never cleared.
	Valid bool `json:"valid"`
}

// HasNextEvent reports whether a next event has ever been recorded.
func (s State) HasNextEvent() bool {
	return !s.NextEventTime.IsZero()
}
