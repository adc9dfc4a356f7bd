package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector provides application metrics collection.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// Upstream fetches
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Derived state
	TideLevelFt  prometheus.Gauge
	TideDeltaFt  prometheus.Gauge
	TemperatureF prometheus.Gauge
	WindSpeedMph prometheus.Gauge
	NeedleCode   prometheus.Gauge

	// Scheduler
	TimerRunsTotal *prometheus.CounterVec
}

// NewCollector creates a collector on its own registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_fetch_total",
				Help:      "Upstream fetches by upstream, query group and outcome",
			},
			[]string{"upstream", "group", "outcome"},
		),

		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_fetch_duration_seconds",
				Help:      "Upstream fetch duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"upstream", "group"},
		),

		TideLevelFt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tide_level_feet",
			Help:      "Latest observed water level above the station datum",
		}),

		TideDeltaFt: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tide_delta_from_mean_feet",
			Help:      "Latest water level relative to mean sea level",
		}),

		TemperatureF: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_temperature_fahrenheit",
			Help:      "Latest air temperature",
		}),

		WindSpeedMph: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_wind_speed_mph",
			Help:      "Latest wind speed",
		}),

		NeedleCode: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "needle_output_code",
			Help:      "Last 8-bit code written to the needle output",
		}),

		TimerRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_timer_runs_total",
				Help:      "Scheduler timer firings by timer and outcome",
			},
			[]string{"timer", "outcome"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordFetch counts one upstream query and observes its duration.
func (c *Collector) RecordFetch(upstream, group string, err error, d time.Duration) {
	if c == nil {
		return
	}
	c.FetchTotal.WithLabelValues(upstream, group, outcome(err)).Inc()
	c.FetchDuration.WithLabelValues(upstream, group).Observe(d.Seconds())
}

// RecordTimerRun counts one scheduler firing.
func (c *Collector) RecordTimerRun(timer string, err error) {
	if c == nil {
		return
	}
	c.TimerRunsTotal.WithLabelValues(timer, outcome(err)).Inc()
}

// SetTide records the latest tide level group.
func (c *Collector) SetTide(levelFt, deltaFt float64) {
	if c == nil {
		return
	}
	c.TideLevelFt.Set(levelFt)
	c.TideDeltaFt.Set(deltaFt)
}

// SetWeather records the latest weather reading.
func (c *Collector) SetWeather(tempF, windMph float64) {
	if c == nil {
		return
	}
	c.TemperatureF.Set(tempF)
	c.WindSpeedMph.Set(windMph)
}

// SetNeedle records the last code written to the output.
func (c *Collector) SetNeedle(code uint8) {
	if c == nil {
		return
	}
	c.NeedleCode.Set(float64(code))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
