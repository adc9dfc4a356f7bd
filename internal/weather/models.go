package weather

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Condition is a sky/precipitation category derived from a WMO weather code.
type Condition int

const (
	ConditionUnknown Condition = iota
	ConditionClearSky
	ConditionMainlyClear
	ConditionPartlyCloudy
	ConditionOvercast
	ConditionFog
	ConditionDrizzle
	ConditionRain
	ConditionSnow
	ConditionShowers
	ConditionThunderstorm
)

var conditionLabels = map[Condition]string{
	ConditionUnknown:      "Unknown",
	ConditionClearSky:     "Clear sky",
	ConditionMainlyClear:  "Mainly clear",
	ConditionPartlyCloudy: "Partly cloudy",
	ConditionOvercast:     "Overcast",
	ConditionFog:          "Fog",
	ConditionDrizzle:      "Drizzle",
	ConditionRain:         "Rain",
	ConditionSnow:         "Snow",
	ConditionShowers:      "Showers",
	ConditionThunderstorm: "Thunderstorm",
}

func (c Condition) String() string {
	if l, ok := conditionLabels[c]; ok {
		return l
	}
	return conditionLabels[ConditionUnknown]
}

// wmoConditions lists every code we recognise. Codes not listed classify as
// ConditionUnknown.
var wmoConditions = map[int]Condition{
	0:  ConditionClearSky,
	1:  ConditionMainlyClear,
	2:  ConditionPartlyCloudy,
	3:  ConditionOvercast,
	45: ConditionFog, 48: ConditionFog,
	51: ConditionDrizzle, 53: ConditionDrizzle, 55: ConditionDrizzle,
	61: ConditionRain, 63: ConditionRain, 65: ConditionRain,
	71: ConditionSnow, 73: ConditionSnow, 75: ConditionSnow,
	80: ConditionShowers, 81: ConditionShowers, 82: ConditionShowers,
	95: ConditionThunderstorm,
}

// Classification is a classified weather code. The raw code is kept so an
// unknown code can still be diagnosed.
type Classification struct {
	Condition Condition
	Code      int
}

// Classify maps a WMO weather code to its Classification. It is total.
func Classify(code int) Classification {
	cond, ok := wmoConditions[code]
	if !ok {
		cond = ConditionUnknown
	}
	return Classification{Condition: cond, Code: code}
}

// Label is the display text; unknown codes embed the raw code.
func (c Classification) Label() string {
	if c.Condition == ConditionUnknown {
		return fmt.Sprintf("Unknown (%d)", c.Code)
	}
	return c.Condition.String()
}

func (c Classification) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code  int    `json:"code"`
		Label string `json:"label"`
	}{Code: c.Code, Label: c.Label()})
}

// Sector is one of the eight compass points.
type Sector int

const (
	SectorN Sector = iota
	SectorNE
	SectorE
	SectorSE
	SectorS
	SectorSW
	SectorW
	SectorNW
)

var sectorNames = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func (s Sector) String() string {
	if s < SectorN || s > SectorNW {
		return "?"
	}
	return sectorNames[s]
}

// SectorFor maps a direction in degrees to its compass sector. Each sector
// spans 45 degrees centered on its heading, so N covers [337.5, 22.5).
func SectorFor(deg float64) Sector {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return SectorN
	}
	idx := int(math.Floor((deg+22.5)/45)) % 8
	if idx < 0 {
		idx += 8
	}
	return Sector(idx)
}

// Location is the point weather is requested for.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
}

// Key returns a canonical string key for this location.
func (l Location) Key() string {
	return fmt.Sprintf("%.3f,%.3f", l.Latitude, l.Longitude)
}

// Observation is the group of weather fields replaced on each successful fetch.
type Observation struct {
	TemperatureF     float64        `json:"temperatureF"`
	WindSpeedMph     float64        `json:"windSpeedMph"`
	WindDirectionDeg float64        `json:"windDirectionDeg"`
	Condition        Classification `json:"condition"`
	ObservedAt       time.Time      `json:"observedAt"`
}

// State is the gauge's current knowledge of weather conditions.
type State struct {
	Observation

	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastAttemptAt time.Time `json:"lastAttemptAt"`

	// Valid is set by the first successful fetch and never cleared.
	Valid bool `json:"valid"`
}

// WindSector is the compass sector of the current wind direction.
func (s State) WindSector() Sector {
	return SectorFor(s.WindDirectionDeg)
}
