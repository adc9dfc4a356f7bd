package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/tide-gauge/internal/api/http"
	"github.com/i474232898/tide-gauge/internal/clock"
	"github.com/i474232898/tide-gauge/internal/config"
	"github.com/i474232898/tide-gauge/internal/metrics"
	"github.com/i474232898/tide-gauge/internal/needle"
	"github.com/i474232898/tide-gauge/internal/remote"
	"github.com/i474232898/tide-gauge/internal/scheduler"
	"github.com/i474232898/tide-gauge/internal/store"
	"github.com/i474232898/tide-gauge/internal/tide"
	"github.com/i474232898/tide-gauge/internal/weather"
	"github.com/i474232898/tide-gauge/internal/weather/providers"
)

const shutdownTimeout = 10 * time.Second

// App is the wired gauge: data services, needle, scheduler and status server.
type App struct {
	cfg   *config.AppConfig
	log   *zap.SugaredLogger
	clock clock.Clock

	metrics *metrics.Collector
	store   *store.MemoryStore

	tide     *tide.Service
	weather  *weather.Service
	actuator *needle.Actuator
	sched    *scheduler.Scheduler
	server   *fiber.App

	closeOutput func()
	shutdown    chan struct{}
}

// New wires every component from cfg. The output channel is opened here, so
// an MQTT output connects before New returns.
func New(ctx context.Context, cfg *config.AppConfig, log *zap.SugaredLogger) (*App, error) {
	return newApp(ctx, cfg, log, clock.NewSystem())
}

func newApp(ctx context.Context, cfg *config.AppConfig, log *zap.SugaredLogger, clk clock.Clock) (*App, error) {
	a := &App{
		cfg:      cfg,
		log:      log,
		clock:    clk,
		metrics:  metrics.NewCollector("tidegauge"),
		store:    store.NewMemoryStore(cfg.Station.MeanSeaLevelFt),
		shutdown: make(chan struct{}, 1),
	}

	station := tide.Station{
		ID:             cfg.Station.ID,
		Name:           cfg.Station.Name,
		Datum:          cfg.Station.Datum,
		MeanSeaLevelFt: cfg.Station.MeanSeaLevelFt,
		RangeFt:        cfg.Station.RangeFt,
	}
	location := weather.Location{
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
		Label:     cfg.Station.Name,
	}

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	breaker := remote.BreakerConfig{
		MaxFailures: cfg.Upstream.BreakerFailures,
		OpenTimeout: cfg.Upstream.BreakerTimeout,
	}
	levelFetcher := remote.NewFetcher("noaa-level", httpClient, breaker, log)
	predFetcher := remote.NewFetcher("noaa-predictions", httpClient, breaker, log)
	meteoFetcher := remote.NewFetcher("openmeteo", httpClient, breaker, log)

	noaa := tide.NewNOAAClient(levelFetcher, predFetcher, cfg.Upstream.NOAABaseURL, station, log)
	a.tide = tide.NewService(noaa, a.store, clk, a.metrics, log, "noaa")

	meteo := providers.NewOpenMeteoProvider(meteoFetcher, cfg.Upstream.OpenMeteoBaseURL, cfg.Display.Timezone)
	a.weather = weather.NewService(a.store, meteo, location, clk, a.metrics, log)

	out, closeOutput, err := needle.Open(ctx, needle.OutputConfig{
		Kind:    cfg.Output.Kind,
		IIOPath: cfg.Output.IIOPath,
		MQTT: needle.MQTTConfig{
			Broker:         cfg.Output.MQTT.Broker,
			ClientID:       cfg.Output.MQTT.ClientID,
			Username:       cfg.Output.MQTT.Username,
			Password:       cfg.Output.MQTT.Password,
			Topic:          cfg.Output.MQTT.Topic,
			QoS:            cfg.Output.MQTT.QoS,
			ConnectRetries: cfg.Output.MQTT.ConnectRetries,
		},
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open needle output: %w", err)
	}
	a.closeOutput = closeOutput
	a.actuator = needle.NewActuator(out, a.store, cfg.Station.RangeFt, needle.SweepConfig{
		Step:      cfg.Sweep.Step,
		StepDelay: cfg.Sweep.StepDelay,
		HoldLeft:  cfg.Sweep.HoldLeft,
		HoldRight: cfg.Sweep.HoldRight,
	}, a.metrics, log)

	a.sched = scheduler.New(clk, cfg.Intervals.Dispatch, a.metrics, log,
		scheduler.Timer{Name: "tide", Interval: cfg.Intervals.Tide, Action: a.tide.Refresh},
		scheduler.Timer{Name: "weather", Interval: cfg.Intervals.Weather, Action: a.weather.Refresh},
		scheduler.Timer{Name: "needle", Interval: cfg.Intervals.Needle, Action: a.refreshNeedle},
	)

	a.server = httpapi.NewServer(httpapi.Deps{
		Store:      a.store,
		Needle:     a.actuator,
		Clock:      clk,
		Breakers:   []httpapi.Breaker{levelFetcher, predFetcher, meteoFetcher},
		Metrics:    a.metrics,
		Resetter:   &commandResetter{command: cfg.Reset.Command, timeout: cfg.Reset.Timeout, log: log},
		Shutdown:   a.requestShutdown,
		ResetGrace: time.Second,
		Station:    station,
		Location:   location,
		DisplayLoc: cfg.DisplayLocation(),
		Log:        log,
	})

	return a, nil
}

func (a *App) refreshNeedle(ctx context.Context) error {
	a.actuator.Refresh()
	return nil
}

func (a *App) requestShutdown() {
	select {
	case a.shutdown <- struct{}{}:
	default:
	}
}

// Run boots the gauge and blocks until ctx is done, a reset asks for a
// restart, or the server fails.
//
// Boot order: center the needle, wait for the wall clock, sweep, start the
// status server, then run the first fetches and hand over to the scheduler.
func (a *App) Run(ctx context.Context) error {
	a.actuator.Center()

	if !clock.WaitForSync(ctx, a.clock, a.cfg.Clock.SyncAttempts, a.cfg.Clock.SyncInterval) {
		a.log.Warnw("wall clock not synchronised; continuing in degraded mode")
	}

	if err := a.actuator.Sweep(ctx); err != nil {
		return nil
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Infow("status server listening", "addr", a.cfg.Addr())
		if err := a.server.Listen(a.cfg.Addr()); err != nil {
			serverErr <- err
		}
	}()

	if err := a.sched.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Infow("shutting down", "reason", ctx.Err())
	case <-a.shutdown:
		a.log.Infow("shutting down", "reason", "reset")
	case err := <-serverErr:
		runErr = fmt.Errorf("status server: %w", err)
	}

	a.sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.ShutdownWithContext(shutdownCtx); err != nil {
		a.log.Errorw("error during shutdown", "error", err)
	}
	return runErr
}

// Sweep runs only the needle sweep.
func (a *App) Sweep(ctx context.Context) error {
	return a.actuator.Sweep(ctx)
}

// Once runs one tide refresh, one weather refresh and one needle update,
// then returns the resulting snapshot. Fetch errors are reported but the
// snapshot is still returned.
func (a *App) Once(ctx context.Context) (store.Snapshot, error) {
	err := errors.Join(a.tide.Refresh(ctx), a.weather.Refresh(ctx))
	a.actuator.Refresh()
	return a.store.Snapshot(), err
}

// NeedleCode is the last code written to the output.
func (a *App) NeedleCode() uint8 {
	return a.actuator.Code()
}

// Close releases the output channel.
func (a *App) Close() {
	a.closeOutput()
}
