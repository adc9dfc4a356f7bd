package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxBodyBytes bounds how much of an upstream response we will decode.
const maxBodyBytes = 1 << 20

var (
	ErrStatus      = errors.New("unexpected status code")
	ErrMalformed   = errors.New("malformed payload")
	ErrCircuitOpen = errors.New("circuit breaker open")
	errNoClient    = errors.New("http client not configured")
)

// BreakerConfig controls when an upstream is considered down.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before a probe is let
	// through. Keep it below the shortest poll interval so every scheduled
	// cycle still reaches the upstream once.
	OpenTimeout time.Duration
}

// Fetcher performs one request/response cycle against a JSON upstream.
// It never retries; the caller's schedule is the retry policy.
type Fetcher struct {
	name    string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

// NewFetcher creates a Fetcher sharing client for its requests.
func NewFetcher(name string, client *http.Client, cfg BreakerConfig, log *zap.SugaredLogger) *Fetcher {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}

	f := &Fetcher{name: name, client: client, log: log}
	f.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("upstream breaker state change", "upstream", name, "from", from.String(), "to", to.String())
		},
	})
	return f
}

// Name returns the upstream name used for logs and metrics.
func (f *Fetcher) Name() string { return f.name }

// State returns the breaker state ("closed", "half-open" or "open").
func (f *Fetcher) State() string { return f.circuit.State().String() }

// GetJSON issues a GET for rawURL and decodes the body into out.
// Non-2xx responses, transport errors and undecodable bodies all fail.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, out interface{}) error {
	if f.client == nil {
		return errNoClient
	}

	_, err := f.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// Drain a little so the connection can be reused.
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
		}

		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, nil
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %v", f.name, ErrCircuitOpen, err)
	}
	return fmt.Errorf("%s: %w", f.name, err)
}
