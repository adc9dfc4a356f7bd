package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNOAADate_UsesUTC(t *testing.T) {
	pst := time.FixedZone("PST", -8*3600)
	// 20:00 PST on Jan 31 is already Feb 1 in UTC.
	ts := time.Date(2024, 1, 31, 20, 0, 0, 0, pst)

	assert.Equal(t, "20240201", NOAADate(ts))
}

func TestClockString(t *testing.T) {
	ts := time.Date(2024, 6, 1, 17, 4, 5, 0, time.UTC)

	assert.Equal(t, "17:04:05", ClockString(ts, nil))
	assert.Equal(t, "10:04:05", ClockString(ts, time.FixedZone("PDT", -7*3600)))
	assert.Equal(t, Placeholder, ClockString(time.Time{}, time.UTC))
}

func TestEventTimeString(t *testing.T) {
	assert.Equal(t, "03:42 UTC", EventTimeString(time.Date(2024, 6, 1, 3, 42, 0, 0, time.UTC)))
	assert.Equal(t, Placeholder, EventTimeString(time.Time{}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(3, -1, 1))
	assert.Equal(t, -1.0, Clamp(-3, -1, 1))
	assert.Equal(t, 0.5, Clamp(0.5, -1, 1))
}
