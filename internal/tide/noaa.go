package tide

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/tide-gauge/internal/common"
)

// DefaultNOAABaseURL is the CO-OPS data API endpoint.
const DefaultNOAABaseURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"

// noaaTimeLayout is the format of "t" fields when time_zone=gmt.
const noaaTimeLayout = "2006-01-02 15:04"

// JSONFetcher performs one GET and decodes the JSON response into out.
type JSONFetcher interface {
	Name() string
	GetJSON(ctx context.Context, rawURL string, out interface{}) error
}

// NOAAClient implements Source against the NOAA CO-OPS datagetter API.
// The level and prediction queries go through separate fetchers so that one
// product's breaker never blocks the other.
type NOAAClient struct {
	level       JSONFetcher
	predictions JSONFetcher
	baseURL     string
	station     Station
	log         *zap.SugaredLogger
}

// NewNOAAClient creates a client for station. An empty baseURL selects the
// public endpoint.
func NewNOAAClient(level, predictions JSONFetcher, baseURL string, station Station, log *zap.SugaredLogger) *NOAAClient {
	if baseURL == "" {
		baseURL = DefaultNOAABaseURL
	}
	return &NOAAClient{
		level:       level,
		predictions: predictions,
		baseURL:     baseURL,
		station:     station,
		log:         log,
	}
}

type noaaError struct {
	Message string `json:"message"`
}

type noaaSample struct {
	T string `json:"t"`
	V string `json:"v"`
}

type noaaPrediction struct {
	T    string `json:"t"`
	V    string `json:"v"`
	Type string `json:"type"`
}

// LatestLevel requests the last hour of 6-minute observations and returns the
// newest one.
func (c *NOAAClient) LatestLevel(ctx context.Context) (float64, error) {
	values := c.commonParams("water_level")
	values.Set("range", "1")

	var payload struct {
		Data  []noaaSample `json:"data"`
		Error *noaaError   `json:"error"`
	}
	if err := c.level.GetJSON(ctx, c.baseURL+"?"+values.Encode(), &payload); err != nil {
		return 0, err
	}
	if payload.Error != nil {
		return 0, fmt.Errorf("%w: %s", ErrNoData, payload.Error.Message)
	}
	if len(payload.Data) == 0 {
		return 0, ErrNoData
	}

	latest := payload.Data[len(payload.Data)-1]
	v, err := parseFeet(latest.V)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// Predictions requests hi/lo predictions for the UTC dates spanning [from, to].
func (c *NOAAClient) Predictions(ctx context.Context, from, to time.Time) ([]Prediction, error) {
	values := c.commonParams("predictions")
	values.Set("interval", "hilo")
	values.Set("begin_date", common.NOAADate(from))
	values.Set("end_date", common.NOAADate(to))

	var payload struct {
		Predictions []noaaPrediction `json:"predictions"`
		Error       *noaaError       `json:"error"`
	}
	if err := c.predictions.GetJSON(ctx, c.baseURL+"?"+values.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, payload.Error.Message)
	}

	preds, skipped := parsePredictions(payload.Predictions)
	if skipped > 0 {
		c.log.Warnw("skipped malformed tide predictions", "station", c.station.ID, "skipped", skipped)
	}
	return preds, nil
}

func (c *NOAAClient) commonParams(product string) url.Values {
	values := url.Values{}
	values.Set("station", c.station.ID)
	values.Set("product", product)
	values.Set("datum", c.station.Datum)
	values.Set("time_zone", "gmt")
	values.Set("units", "english")
	values.Set("format", "json")
	values.Set("application", "tide-gauge")
	return values
}

// parsePredictions converts raw entries, dropping any whose time or level
// cannot be parsed.
func parsePredictions(raw []noaaPrediction) (preds []Prediction, skipped int) {
	preds = make([]Prediction, 0, len(raw))
	for _, r := range raw {
		ts, err := time.ParseInLocation(noaaTimeLayout, strings.TrimSpace(r.T), time.UTC)
		if err != nil {
			skipped++
			continue
		}
		v, err := parseFeet(r.V)
		if err != nil {
			skipped++
			continue
		}
		preds = append(preds, Prediction{
			Time:    ts,
			Kind:    KindFromCode(strings.TrimSpace(r.Type)),
			LevelFt: v,
		})
	}
	return preds, skipped
}

func parseFeet(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return v, nil
}
