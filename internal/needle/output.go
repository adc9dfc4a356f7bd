package needle

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// Output kinds accepted by Open.
const (
	KindLog  = "log"
	KindIIO  = "iio"
	KindMQTT = "mqtt"
)

// OutputConfig selects and configures the output channel.
type OutputConfig struct {
	Kind    string
	IIOPath string
	MQTT    MQTTConfig
}

// Open builds the configured output. The returned close func is never nil.
func Open(ctx context.Context, cfg OutputConfig, log *zap.SugaredLogger) (Output, func(), error) {
	switch cfg.Kind {
	case "", KindLog:
		return NewLogOutput(log), func() {}, nil
	case KindIIO:
		out, err := NewIIOOutput(cfg.IIOPath, log)
		if err != nil {
			return nil, func() {}, err
		}
		return out, func() {}, nil
	case KindMQTT:
		out, err := NewMQTTOutput(ctx, cfg.MQTT, log)
		if err != nil {
			return nil, func() {}, err
		}
		return out, out.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown output kind %q", cfg.Kind)
	}
}

// LogOutput has no hardware behind it; codes only go to the log.
type LogOutput struct {
	log *zap.SugaredLogger
}

func NewLogOutput(log *zap.SugaredLogger) *LogOutput {
	return &LogOutput{log: log}
}

func (o *LogOutput) Name() string { return KindLog }

func (o *LogOutput) Write(code uint8) {
	o.log.Debugw("needle output", "code", code)
}

// IIOOutput drives a DAC through the Linux industrial I/O sysfs interface,
// e.g. /sys/bus/iio/devices/iio:device0/out_voltage0_raw.
type IIOOutput struct {
	path string
	log  *zap.SugaredLogger
}

// NewIIOOutput checks that path exists and is writable.
func NewIIOOutput(path string, log *zap.SugaredLogger) (*IIOOutput, error) {
	if path == "" {
		return nil, fmt.Errorf("iio output: no device path configured")
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("iio output: %w", err)
	}
	_ = f.Close()
	return &IIOOutput{path: path, log: log}, nil
}

func (o *IIOOutput) Name() string { return KindIIO }

func (o *IIOOutput) Write(code uint8) {
	// sysfs attributes take a single write of the decimal value.
	f, err := os.OpenFile(o.path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		o.log.Errorw("iio write failed", "path", o.path, "error", err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(int(code)) + "\n"); err != nil {
		o.log.Errorw("iio write failed", "path", o.path, "error", err)
	}
}
