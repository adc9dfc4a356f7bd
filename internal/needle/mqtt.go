package needle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTConfig describes the broker the needle code is published to.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte

	ConnectRetries int
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// MQTTOutput publishes each code as a retained message, so a microcontroller
// driving the DAC picks up the last position when it reconnects.
type MQTTOutput struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewMQTTOutput connects to the broker, retrying with exponential backoff.
func NewMQTTOutput(ctx context.Context, cfg MQTTConfig, log *zap.SugaredLogger) (*MQTTOutput, error) {
	if cfg.Broker == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt output: broker and topic are required")
	}
	if cfg.ConnectRetries <= 0 {
		cfg.ConnectRetries = 5
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 2 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.ConnectTimeout)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		token := client.Connect()
		if !token.WaitTimeout(cfg.ConnectTimeout) {
			log.Warnw("mqtt connect timed out", "broker", cfg.Broker)
			return fmt.Errorf("connect to %s timed out", cfg.Broker)
		}
		if err := token.Error(); err != nil {
			log.Warnw("mqtt connect failed", "broker", cfg.Broker, "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(cfg.ConnectRetries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("mqtt output: could not connect after retries: %w", err)
	}

	log.Infow("mqtt output connected", "broker", cfg.Broker, "topic", cfg.Topic)
	return &MQTTOutput{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: cfg.PublishTimeout,
		log:     log,
	}, nil
}

func (o *MQTTOutput) Name() string { return KindMQTT }

func (o *MQTTOutput) Write(code uint8) {
	token := o.client.Publish(o.topic, o.qos, true, strconv.Itoa(int(code)))
	if !token.WaitTimeout(o.timeout) {
		o.log.Warnw("mqtt publish timed out", "topic", o.topic, "code", code)
		return
	}
	if err := token.Error(); err != nil {
		o.log.Errorw("mqtt publish failed", "topic", o.topic, "error", err)
	}
}

// Close disconnects from the broker.
func (o *MQTTOutput) Close() {
	if o.client.IsConnected() {
		o.client.Disconnect(250)
		o.log.Infow("mqtt output disconnected")
	}
}
