package tide

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/tide-gauge/internal/clock"
	"github.com/i474232898/tide-gauge/internal/metrics"
)

// PredictionWindow is how far ahead hi/lo predictions are requested.
const PredictionWindow = 48 * time.Hour

// Service refreshes TideState from a Source.
type Service struct {
	source   Source
	store    Store
	clock    clock.Clock
	metrics  *metrics.Collector
	log      *zap.SugaredLogger
	upstream string
}

// NewService creates a new Service. upstream names the source in metrics.
func NewService(source Source, store Store, clk clock.Clock, m *metrics.Collector, log *zap.SugaredLogger, upstream string) *Service {
	return &Service{
		source:   source,
		store:    store,
		clock:    clk,
		metrics:  m,
		log:      log,
		upstream: upstream,
	}
}

// Refresh runs one tide fetch cycle.
//
// The level group and the next-event group succeed or fail independently; a
// failed group keeps its previous values. The returned error joins whatever
// went wrong and is informational only.
func (s *Service) Refresh(ctx context.Context) error {
	if !s.clock.Synced() {
		s.log.Warnw("wall clock not synchronised; prediction window and next-event search are unreliable")
	}

	var errs []error
	levelUpdated, eventUpdated := false, false

	start := s.clock.Monotonic()
	level, err := s.source.LatestLevel(ctx)
	s.metrics.RecordFetch(s.upstream, "level", err, s.clock.Monotonic()-start)
	if err != nil {
		s.log.Warnw("tide level fetch failed; keeping previous level", "error", err)
		errs = append(errs, fmt.Errorf("level: %w", err))
	} else {
		s.store.SetTideLevel(level)
		levelUpdated = true
	}

	issuedAt := s.clock.Now()
	start = s.clock.Monotonic()
	preds, err := s.source.Predictions(ctx, issuedAt, issuedAt.Add(PredictionWindow))
	s.metrics.RecordFetch(s.upstream, "predictions", err, s.clock.Monotonic()-start)
	switch {
	case err != nil:
		s.log.Warnw("tide prediction fetch failed; keeping previous next event", "error", err)
		errs = append(errs, fmt.Errorf("predictions: %w", err))
	default:
		next, ok := NextEvent(preds, issuedAt)
		if !ok {
			s.log.Infow("no upcoming tide event in predictions", "predictions", len(preds), "issued_at", issuedAt)
			break
		}
		s.store.SetNextTideEvent(next)
		eventUpdated = true
	}

	s.store.MarkTideRefreshed(s.clock.Now(), levelUpdated || eventUpdated)

	st := s.store.Tide()
	if levelUpdated {
		s.metrics.SetTide(st.CurrentLevelFt, st.DeltaFromMeanFt)
	}
	s.log.Infow("tide refresh",
		"level_ft", st.CurrentLevelFt,
		"delta_msl_ft", st.DeltaFromMeanFt,
		"next_kind", st.NextEventKind.String(),
		"next_level_ft", st.NextEventLevelFt,
		"next_time", st.NextEventTime,
		"valid", st.Valid,
	)

	return errors.Join(errs...)
}
