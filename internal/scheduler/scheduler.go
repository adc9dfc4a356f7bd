package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/tide-gauge/internal/clock"
	"github.com/i474232898/tide-gauge/internal/metrics"
)

// DefaultDispatchPeriod is how often timers are checked.
const DefaultDispatchPeriod = time.Second

// Action is the work a timer performs. Its error is logged, never retried
// early.
type Action func(ctx context.Context) error

// Timer fires Action at most once per Interval, measured on the monotonic
// clock from the moment it last fired.
type Timer struct {
	Name     string
	Interval time.Duration
	Action   Action

	lastFire time.Duration
}

// Scheduler runs the tide, weather and needle timers one at a time.
type Scheduler struct {
	mu     sync.Mutex
	timers []*Timer
	ctx    context.Context

	cron   *gocron.Scheduler
	period time.Duration
	clock  clock.Clock

	metrics *metrics.Collector
	log     *zap.SugaredLogger

	stopOnce sync.Once
	stopped  chan struct{}
	// watching is closed once the ctx watcher started by Start has exited.
	watching chan struct{}
}

// New creates a Scheduler. Timers are checked in the order given.
func New(clk clock.Clock, period time.Duration, m *metrics.Collector, log *zap.SugaredLogger, timers ...Timer) *Scheduler {
	if period <= 0 {
		period = DefaultDispatchPeriod
	}
	s := &Scheduler{
		cron:    gocron.NewScheduler(time.UTC),
		period:  period,
		clock:   clk,
		metrics: m,
		log:     log,
		ctx:     context.Background(),

		stopped:  make(chan struct{}),
		watching: make(chan struct{}),
	}
	for i := range timers {
		t := timers[i]
		s.timers = append(s.timers, &t)
	}
	return s
}

// Start runs every timer once, in order, then checks them every dispatch
// period until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	for _, t := range s.timers {
		t.lastFire = s.clock.Monotonic()
		s.run(ctx, t)
	}
	s.mu.Unlock()

	_, err := s.cron.Every(s.period).WaitForSchedule().SingletonMode().Do(s.Dispatch)
	if err != nil {
		return fmt.Errorf("schedule dispatch: %w", err)
	}
	s.cron.StartAsync()
	s.log.Infow("scheduler started", "dispatch_period", s.period.String(), "timers", len(s.timers))

	go func() {
		defer close(s.watching)
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.stopped:
		}
	}()
	return nil
}

// Dispatch fires every timer whose interval has elapsed. Each action runs
// to completion before the next timer is checked.
func (s *Scheduler) Dispatch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.timers {
		now := s.clock.Monotonic()
		if now-t.lastFire < t.Interval {
			continue
		}
		t.lastFire = now
		s.run(s.ctx, t)
	}
}

// Stop stops future dispatches. A dispatch in progress finishes.
// Only the first call does anything; concurrent callers wait for it.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopped)
		if s.cron.IsRunning() {
			s.cron.Stop()
			s.log.Infow("scheduler stopped")
		}
	})
}

func (s *Scheduler) run(ctx context.Context, t *Timer) {
	runID := uuid.NewString()
	start := s.clock.Monotonic()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return t.Action(ctx)
	}()

	s.metrics.RecordTimerRun(t.Name, err)
	took := s.clock.Monotonic() - start
	if err != nil {
		s.log.Warnw("timer run failed", "timer", t.Name, "run_id", runID, "took", took.String(), "error", err)
		return
	}
	s.log.Debugw("timer run", "timer", t.Name, "run_id", runID, "took", took.String())
}
