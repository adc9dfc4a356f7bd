package needle

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/tide-gauge/internal/metrics"
	"github.com/i474232898/tide-gauge/internal/tide"
)

// Output is a channel the needle code is written to. Implementations log
// their own failures; a write never blocks the caller for long.
type Output interface {
	Name() string
	Write(code uint8)
}

// TideReader returns a copy of the current tide state.
type TideReader interface {
	Tide() tide.State
}

// SweepConfig shapes the boot sweep.
type SweepConfig struct {
	Step      int
	StepDelay time.Duration
	HoldLeft  time.Duration
	HoldRight time.Duration
}

// DefaultSweep is a full-scale sweep taking roughly two seconds.
var DefaultSweep = SweepConfig{
	Step:      3,
	StepDelay: 12 * time.Millisecond,
	HoldLeft:  200 * time.Millisecond,
	HoldRight: 150 * time.Millisecond,
}

// Actuator owns the output channel. All writes go through it.
type Actuator struct {
	mu   sync.Mutex
	out  Output
	code uint8

	tides   TideReader
	rangeFt float64
	sweep   SweepConfig

	metrics *metrics.Collector
	log     *zap.SugaredLogger
}

// NewActuator creates an actuator. The needle is not moved until the first
// Write, Refresh or Sweep; Code reports center until then.
func NewActuator(out Output, tides TideReader, rangeFt float64, sweep SweepConfig, m *metrics.Collector, log *zap.SugaredLogger) *Actuator {
	if sweep.Step <= 0 {
		sweep.Step = DefaultSweep.Step
	}
	return &Actuator{
		out:     out,
		code:    CodeCenter,
		tides:   tides,
		rangeFt: rangeFt,
		sweep:   sweep,
		metrics: m,
		log:     log,
	}
}

// Write sets the output to code.
func (a *Actuator) Write(code uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.out.Write(code)
	a.code = code
	a.metrics.SetNeedle(code)
}

// Code returns the last code written.
func (a *Actuator) Code() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.code
}

// Refresh moves the needle to the current tide delta. Until the tide state is
// valid the needle stays where it is.
func (a *Actuator) Refresh() {
	st := a.tides.Tide()
	if !st.Valid {
		a.log.Debugw("needle refresh skipped", "reason", "tide not yet fetched")
		return
	}
	code := MapToOutputCode(st.DeltaFromMeanFt, a.rangeFt)
	a.Write(code)
	a.log.Debugw("needle refresh", "delta_ft", st.DeltaFromMeanFt, "code", code)
}

// Center writes the center code.
func (a *Actuator) Center() {
	a.Write(CodeCenter)
}

// Sweep snaps the needle to full negative, steps it to full positive, then
// back to center. It stops early if ctx is cancelled, leaving the needle
// centered.
func (a *Actuator) Sweep(ctx context.Context) error {
	a.log.Infow("needle sweep", "output", a.out.Name(), "step", a.sweep.Step)

	a.Write(CodeMin)
	if err := sleep(ctx, a.sweep.HoldLeft); err != nil {
		a.Center()
		return err
	}

	// The last upward step lands on CodeMax even when Step does not divide it.
	for i := int(CodeMin) + a.sweep.Step; ; i += a.sweep.Step {
		if i > int(CodeMax) {
			i = int(CodeMax)
		}
		a.Write(uint8(i))
		if err := sleep(ctx, a.sweep.StepDelay); err != nil {
			a.Center()
			return err
		}
		if i == int(CodeMax) {
			break
		}
	}
	if err := sleep(ctx, a.sweep.HoldRight); err != nil {
		a.Center()
		return err
	}

	for i := int(CodeMax) - a.sweep.Step; i > int(CodeCenter); i -= a.sweep.Step {
		a.Write(uint8(i))
		if err := sleep(ctx, a.sweep.StepDelay); err != nil {
			a.Center()
			return err
		}
	}
	a.Center()
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
