package common

import (
	"math"
	"time"
)

// Placeholder is shown for values that have never been fetched.
const Placeholder = "--"

// NOAADate formats t as the yyyyMMdd date parameter NOAA expects, in UTC.
func NOAADate(t time.Time) string {
	return t.UTC().Format("20060102")
}

// ClockString renders t as HH:MM:SS in loc, or the placeholder for a zero time.
func ClockString(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return Placeholder
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04:05")
}

// EventTimeString renders a tide event time as "HH:MM UTC".
func EventTimeString(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.UTC().Format("15:04") + " UTC"
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
