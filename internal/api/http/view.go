package httpapi

import (
	"fmt"
	"time"

	"github.com/i474232898/tide-gauge/internal/common"
	"github.com/i474232898/tide-gauge/internal/store"
	"github.com/i474232898/tide-gauge/internal/tide"
	"github.com/i474232898/tide-gauge/internal/weather"
)

// TideBarPercent positions the tide bar: 50 at mean sea level, 0 and 100 at
// the ends of the display range.
func TideBarPercent(deltaFt, rangeFt float64) float64 {
	if rangeFt <= 0 {
		return 50
	}
	return common.Clamp(50+deltaFt/rangeFt*50, 0, 100)
}

// statusView is what the HTML page and the JSON snapshot are rendered from.
type statusView struct {
	Station  tide.Station     `json:"station"`
	Location weather.Location `json:"location"`

	Tide    tide.State    `json:"tide"`
	Weather weather.State `json:"weather"`
	Derived derivedView   `json:"derived"`

	ClockSynced bool      `json:"clockSynced"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type derivedView struct {
	TideBarPercent float64 `json:"tideBarPercent"`
	NeedleCode     uint8   `json:"needleCode"`
	WindSector     string  `json:"windSector"`
	ConditionLabel string  `json:"conditionLabel"`
	NextEvent      string  `json:"nextEvent"`
}

func newStatusView(snap store.Snapshot, station tide.Station, loc weather.Location, code uint8, synced bool, now time.Time) statusView {
	return statusView{
		Station:  station,
		Location: loc,
		Tide:     snap.Tide,
		Weather:  snap.Weather,
		Derived: derivedView{
			TideBarPercent: TideBarPercent(snap.Tide.DeltaFromMeanFt, station.RangeFt),
			NeedleCode:     code,
			WindSector:     snap.Weather.WindSector().String(),
			ConditionLabel: snap.Weather.Condition.Label(),
			NextEvent:      nextEventText(snap.Tide),
		},
		ClockSynced: synced,
		GeneratedAt: now,
	}
}

func nextEventText(st tide.State) string {
	if !st.HasNextEvent() {
		return common.Placeholder
	}
	return fmt.Sprintf("%s %.2f ft at %s", st.NextEventKind, st.NextEventLevelFt, common.EventTimeString(st.NextEventTime))
}

// pageData adds display strings on top of statusView for the template.
type pageData struct {
	statusView

	TideUpdated    string
	WeatherUpdated string
	Now            string
	DeltaSign      string
}

func newPageData(v statusView, loc *time.Location) pageData {
	sign := ""
	if v.Tide.DeltaFromMeanFt >= 0 {
		sign = "+"
	}
	return pageData{
		statusView:     v,
		TideUpdated:    common.ClockString(v.Tide.LastUpdatedAt, loc),
		WeatherUpdated: common.ClockString(v.Weather.LastUpdatedAt, loc),
		Now:            common.ClockString(v.GeneratedAt, loc),
		DeltaSign:      sign,
	}
}
