// Package openmeteo fetches forecast and recent observed weather from the
// Open-Meteo API. Requests pin imperial units and the pipeline timezone; a
// failed call is reported once and never retried.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/observability"
)

// Provider is the name recorded on errors and metrics.
const Provider = "open-meteo"

const (
	forecastDays = 16
	observedDays = 3
)

// Variable sets requested from the provider.
var (
	ForecastHourlyVars = []string{
		"temperature_2m",
		"snowfall",
		"precipitation",
		"wind_speed_10m",
		"wind_direction_10m",
		"cloud_cover",
		"freezing_level_height",
	}
	ForecastDailyVars = []string{
		"temperature_2m_max",
		"temperature_2m_min",
		"snowfall_sum",
		"precipitation_sum",
		"precipitation_probability_max",
		"wind_speed_10m_max",
		"wind_direction_10m_dominant",
	}
	ObservedHourlyVars = []string{"snowfall"}
)

// Client calls the Open-Meteo forecast endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a client bounded by timeout per request.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// FetchForecast returns the 16-day hourly and daily forecast for a point.
func (c *Client) FetchForecast(ctx context.Context, lat, lng, elevationFt float64) (*domain.RawForecastResponse, error) {
	params := c.baseParams(lat, lng, elevationFt)
	params.Set("hourly", strings.Join(ForecastHourlyVars, ","))
	params.Set("daily", strings.Join(ForecastDailyVars, ","))
	params.Set("forecast_days", strconv.Itoa(forecastDays))

	var out domain.RawForecastResponse
	if err := c.get(ctx, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchObserved returns the last three days of hourly observed snowfall.
func (c *Client) FetchObserved(ctx context.Context, lat, lng, elevationFt float64) (*domain.RawObservedResponse, error) {
	params := c.baseParams(lat, lng, elevationFt)
	params.Set("hourly", strings.Join(ObservedHourlyVars, ","))
	params.Set("past_days", strconv.Itoa(observedDays))
	params.Set("forecast_days", "0")

	var out domain.RawObservedResponse
	if err := c.get(ctx, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchObservedSnowfall fetches observed samples and folds them into rolling
// 24/48/72h sums ending now. A nil result with a nil error means the provider
// returned no samples.
func (c *Client) FetchObservedSnowfall(ctx context.Context, lat, lng, elevationFt float64) (*domain.ObservedSnowfall, error) {
	raw, err := c.FetchObserved(ctx, lat, lng, elevationFt)
	if err != nil {
		return nil, err
	}
	times, err := domain.ParseObservedTimes(raw)
	if err != nil {
		return nil, &domain.ExternalAPIError{Provider: Provider, Message: "malformed observed response", Err: err}
	}
	return domain.AccumulateObservedSnowfall(domain.Now(), times, raw.Hourly.Snowfall), nil
}

func (c *Client) baseParams(lat, lng, elevationFt float64) url.Values {
	return url.Values{
		"latitude":           {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":          {strconv.FormatFloat(lng, 'f', 4, 64)},
		"elevation":          {strconv.Itoa(domain.FeetToMeters(elevationFt))},
		"timezone":           {domain.PipelineTimezone},
		"temperature_unit":   {"fahrenheit"},
		"wind_speed_unit":    {"mph"},
		"precipitation_unit": {"inch"},
	}
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ExternalDuration.WithLabelValues(Provider).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ExternalRequests.WithLabelValues(Provider, "error").Inc()
		return &domain.ExternalAPIError{Provider: Provider, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ExternalRequests.WithLabelValues(Provider, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("weather API error",
			"provider", Provider,
			"status_code", resp.StatusCode,
			"latitude", params.Get("latitude"),
			"longitude", params.Get("longitude"),
		)
		return &domain.ExternalAPIError{
			Provider:   Provider,
			StatusCode: resp.StatusCode,
			Message:    providerReason(body, resp.Status),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.ExternalRequests.WithLabelValues(Provider, "error").Inc()
		return &domain.ExternalAPIError{Provider: Provider, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	c.metrics.ExternalRequests.WithLabelValues(Provider, "success").Inc()
	return nil
}

// providerReason extracts Open-Meteo's {"error":true,"reason":"..."} message,
// falling back to the HTTP status text.
func providerReason(body []byte, status string) string {
	var e struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &e) == nil && e.Reason != "" {
		return e.Reason
	}
	return status
}
