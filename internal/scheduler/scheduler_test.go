package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/i474232898/tide-gauge/internal/clock"
	"github.com/i474232898/tide-gauge/internal/metrics"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) action(name string, err error) Action {
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.calls = append(l.calls, name)
		l.mu.Unlock()
		return err
	}
}

func (l *callLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.calls
	l.calls = nil
	return out
}

func newTestScheduler(t *testing.T, clk clock.Clock, m *metrics.Collector, timers ...Timer) *Scheduler {
	t.Helper()
	// An hour-long period keeps the background job out of the way; tests
	// drive Dispatch directly.
	s := New(clk, time.Hour, m, zaptest.NewLogger(t).Sugar(), timers...)
	t.Cleanup(s.Stop)
	return s
}

func TestStart_RunsEveryTimerOnceInOrder(t *testing.T) {
	clk := clock.NewFake(time.Now())
	var l callLog
	s := newTestScheduler(t, clk, nil,
		Timer{Name: "tide", Interval: 6 * time.Minute, Action: l.action("tide", nil)},
		Timer{Name: "weather", Interval: 15 * time.Minute, Action: l.action("weather", nil)},
		Timer{Name: "needle", Interval: 5 * time.Second, Action: l.action("needle", nil)},
	)

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, []string{"tide", "weather", "needle"}, l.take())
}

func TestDispatch_FiresOnlyWhenIntervalElapsed(t *testing.T) {
	clk := clock.NewFake(time.Now())
	var l callLog
	s := newTestScheduler(t, clk, nil,
		Timer{Name: "tide", Interval: 6 * time.Minute, Action: l.action("tide", nil)},
		Timer{Name: "weather", Interval: 15 * time.Minute, Action: l.action("weather", nil)},
		Timer{Name: "needle", Interval: 5 * time.Second, Action: l.action("needle", nil)},
	)
	require.NoError(t, s.Start(context.Background()))
	l.take()

	clk.Advance(4 * time.Second)
	s.Dispatch()
	assert.Empty(t, l.take())

	clk.Advance(time.Second)
	s.Dispatch()
	assert.Equal(t, []string{"needle"}, l.take())

	// Five seconds after the needle fired, not five seconds after boot.
	clk.Advance(4 * time.Second)
	s.Dispatch()
	assert.Empty(t, l.take())

	clk.Advance(6 * time.Minute)
	s.Dispatch()
	assert.Equal(t, []string{"tide", "needle"}, l.take())

	clk.Advance(9 * time.Minute)
	s.Dispatch()
	assert.Equal(t, []string{"tide", "weather", "needle"}, l.take())
}

func TestDispatch_FailuresDoNotBlockOtherTimers(t *testing.T) {
	clk := clock.NewFake(time.Now())
	m := metrics.NewCollector("test")
	var l callLog
	boom := func(ctx context.Context) error { panic("nil map") }
	s := newTestScheduler(t, clk, m,
		Timer{Name: "tide", Interval: time.Minute, Action: l.action("tide", errors.New("upstream down"))},
		Timer{Name: "weather", Interval: time.Minute, Action: boom},
		Timer{Name: "needle", Interval: time.Minute, Action: l.action("needle", nil)},
	)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"tide", "needle"}, l.take())

	clk.Advance(time.Minute)
	s.Dispatch()
	assert.Equal(t, []string{"tide", "needle"}, l.take())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TimerRunsTotal.WithLabelValues("tide", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TimerRunsTotal.WithLabelValues("weather", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TimerRunsTotal.WithLabelValues("needle", "ok")))
}

func TestDispatch_FailedRunStillMovesLastFire(t *testing.T) {
	clk := clock.NewFake(time.Now())
	var l callLog
	s := newTestScheduler(t, clk, nil,
		Timer{Name: "tide", Interval: 6 * time.Minute, Action: l.action("tide", errors.New("timeout"))},
	)
	require.NoError(t, s.Start(context.Background()))
	l.take()

	clk.Advance(time.Minute)
	s.Dispatch()

	assert.Empty(t, l.take())
}

func TestStart_PassesContextToActions(t *testing.T) {
	clk := clock.NewFake(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type key struct{}
	ctx = context.WithValue(ctx, key{}, "gauge")
	var got interface{}
	s := newTestScheduler(t, clk, nil, Timer{Name: "tide", Interval: time.Minute, Action: func(c context.Context) error {
		got = c.Value(key{})
		return nil
	}})

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, "gauge", got)
}

func TestStop_ReleasesContextWatcher(t *testing.T) {
	s := newTestScheduler(t, clock.NewFake(time.Now()), nil)
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	s.Stop()

	select {
	case <-s.watching:
	case <-time.After(time.Second):
		t.Fatal("watcher still running after Stop")
	}
}

func TestStart_CancelStopsScheduler(t *testing.T) {
	s := newTestScheduler(t, clock.NewFake(time.Now()), nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()

	select {
	case <-s.watching:
	case <-time.After(time.Second):
		t.Fatal("watcher still running after cancel")
	}
	assert.False(t, s.cron.IsRunning())
}
