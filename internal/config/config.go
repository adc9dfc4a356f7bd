package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TIDEGAUGE_HTTP_PORT.
const EnvPrefix = "TIDEGAUGE"

var validate = validator.New()

type AppConfig struct {
	Station   StationConfig  `mapstructure:"station"`
	Location  LocationConfig `mapstructure:"location"`
	Intervals IntervalConfig `mapstructure:"intervals"`
	HTTP      HTTPConfig     `mapstructure:"http"`
	Upstream  UpstreamConfig `mapstructure:"upstream"`
	Output    OutputConfig   `mapstructure:"output"`
	Sweep     SweepConfig    `mapstructure:"sweep"`
	Clock     ClockConfig    `mapstructure:"clock"`
	Reset     ResetConfig    `mapstructure:"reset"`
	Display   DisplayConfig  `mapstructure:"display"`
	Log       LogConfig      `mapstructure:"log"`
}

// StationConfig holds the NOAA station constants. They are fixed for the
// life of the process.
type StationConfig struct {
	ID             string  `mapstructure:"id" validate:"required,numeric"`
	Name           string  `mapstructure:"name" validate:"required"`
	Datum          string  `mapstructure:"datum" validate:"required"`
	MeanSeaLevelFt float64 `mapstructure:"mean_sea_level_ft"`
	RangeFt        float64 `mapstructure:"range_ft" validate:"gt=0"`
}

type LocationConfig struct {
	Latitude  float64 `mapstructure:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `mapstructure:"longitude" validate:"gte=-180,lte=180"`
}

// IntervalConfig holds the three independent poll intervals.
type IntervalConfig struct {
	Tide     time.Duration `mapstructure:"tide" validate:"gt=0"`
	Weather  time.Duration `mapstructure:"weather" validate:"gt=0"`
	Needle   time.Duration `mapstructure:"needle" validate:"gt=0"`
	Dispatch time.Duration `mapstructure:"dispatch" validate:"gt=0"`
}

type HTTPConfig struct {
	Port    int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type UpstreamConfig struct {
	NOAABaseURL      string        `mapstructure:"noaa_base_url" validate:"required,url"`
	OpenMeteoBaseURL string        `mapstructure:"openmeteo_base_url" validate:"required,url"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures" validate:"gte=1"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout" validate:"gt=0"`
}

type OutputConfig struct {
	Kind    string     `mapstructure:"kind" validate:"oneof=log iio mqtt"`
	IIOPath string     `mapstructure:"iio_path" validate:"required_if=Kind iio"`
	MQTT    MQTTConfig `mapstructure:"mqtt"`
}

type MQTTConfig struct {
	Broker         string `mapstructure:"broker"`
	ClientID       string `mapstructure:"client_id"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	Topic          string `mapstructure:"topic"`
	QoS            byte   `mapstructure:"qos" validate:"lte=2"`
	ConnectRetries int    `mapstructure:"connect_retries" validate:"gte=1"`
}

type SweepConfig struct {
	Step      int           `mapstructure:"step" validate:"gte=1,lte=255"`
	StepDelay time.Duration `mapstructure:"step_delay" validate:"gte=0"`
	HoldLeft  time.Duration `mapstructure:"hold_left" validate:"gte=0"`
	HoldRight time.Duration `mapstructure:"hold_right" validate:"gte=0"`
}

// ClockConfig bounds the wait for wall-clock synchronisation at boot.
type ClockConfig struct {
	SyncAttempts int           `mapstructure:"sync_attempts" validate:"gte=0"`
	SyncInterval time.Duration `mapstructure:"sync_interval" validate:"gte=0"`
}

type ResetConfig struct {
	// Command is run through sh -c by the reset route. Empty means the
	// route only restarts the service.
	Command string        `mapstructure:"command"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type DisplayConfig struct {
	Timezone string `mapstructure:"timezone" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// SetDefaults registers every key with its compiled-in default. Keys must
// be known to viper for env overrides to apply on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("station.id", "9444900")
	v.SetDefault("station.name", "Port Townsend, WA")
	v.SetDefault("station.datum", "MLLW")
	v.SetDefault("station.mean_sea_level_ft", 8.35)
	v.SetDefault("station.range_ft", 8.0)

	v.SetDefault("location.latitude", 48.115)
	v.SetDefault("location.longitude", -122.760)

	v.SetDefault("intervals.tide", "6m")
	v.SetDefault("intervals.weather", "15m")
	v.SetDefault("intervals.needle", "5s")
	v.SetDefault("intervals.dispatch", "1s")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.timeout", "10s")

	v.SetDefault("upstream.noaa_base_url", "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter")
	v.SetDefault("upstream.openmeteo_base_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("upstream.breaker_failures", 5)
	v.SetDefault("upstream.breaker_timeout", "1m")

	v.SetDefault("output.kind", "log")
	v.SetDefault("output.iio_path", "")
	v.SetDefault("output.mqtt.broker", "")
	v.SetDefault("output.mqtt.client_id", "tide-gauge")
	v.SetDefault("output.mqtt.username", "")
	v.SetDefault("output.mqtt.password", "")
	v.SetDefault("output.mqtt.topic", "tide-gauge/needle")
	v.SetDefault("output.mqtt.qos", 1)
	v.SetDefault("output.mqtt.connect_retries", 5)

	v.SetDefault("sweep.step", 3)
	v.SetDefault("sweep.step_delay", "12ms")
	v.SetDefault("sweep.hold_left", "200ms")
	v.SetDefault("sweep.hold_right", "150ms")

	v.SetDefault("clock.sync_attempts", 20)
	v.SetDefault("clock.sync_interval", "500ms")

	v.SetDefault("reset.command", "")
	v.SetDefault("reset.timeout", "30s")

	v.SetDefault("display.timezone", "America/Los_Angeles")

	v.SetDefault("log.level", "info")
}

// NewViper returns a viper instance with defaults and TIDEGAUGE_* env
// overrides. configFile is optional.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load reads .env (if present), the optional config file and the
// environment, then validates the result.
func Load(configFile string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper unmarshals and validates v.
func FromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags plus the rules tags cannot express.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Output.Kind == "mqtt" && (c.Output.MQTT.Broker == "" || c.Output.MQTT.Topic == "") {
		return fmt.Errorf("invalid config: output.mqtt.broker and output.mqtt.topic are required for mqtt output")
	}
	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		return fmt.Errorf("invalid config: display.timezone: %w", err)
	}
	return nil
}

// DisplayLocation returns the timezone used for rendered clock strings.
func (c *AppConfig) DisplayLocation() *time.Location {
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr is the status server listen address.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
