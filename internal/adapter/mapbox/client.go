package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/observability"
	"github.com/sony/gobreaker"
)

// Provider is the name recorded on errors.
const Provider = "mapbox"

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	// Consecutive transport or 5xx failures before the breaker opens.
	tripAfter = 5
)

// Client implements domain.Geocoder using the Mapbox Geocoding API. Calls go
// through a circuit breaker so a failing upstream does not hold request
// handlers for the full timeout on every lookup.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		breaker: newBreaker(logger),
		logger:  logger,
		metrics: metrics,
	}
}

func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        Provider,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// ForwardGeocode converts a free-text place ("Boulder, CO") to coordinates.
// No match returns a zero result and a nil error.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place,locality,postcode"},
		"country":      {"us"},
	}

	result, err := c.doRequest(ctx, u+"?"+params.Encode())
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.GeocodeRequests.WithLabelValues("open").Inc()
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	case !result.Found():
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &domain.ExternalAPIError{Provider: Provider, Message: "request failed", Err: err}
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, &domain.ExternalAPIError{Provider: Provider, StatusCode: resp.StatusCode, Message: string(body)}
		}
		return resp, nil
	})
	c.metrics.ExternalDuration.WithLabelValues(Provider).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ExternalRequests.WithLabelValues(Provider, "error").Inc()
		return domain.GeocodingResult{}, err
	}

	resp := out.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ExternalRequests.WithLabelValues(Provider, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeocodingResult{}, &domain.ExternalAPIError{Provider: Provider, StatusCode: resp.StatusCode, Message: string(body)}
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		c.metrics.ExternalRequests.WithLabelValues(Provider, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}
	c.metrics.ExternalRequests.WithLabelValues(Provider, "success").Inc()

	if len(mapboxResp.Features) == 0 {
		return domain.GeocodingResult{}, nil
	}

	f := mapboxResp.Features[0]
	result := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		result.Lng = f.Center[0]
		result.Lat = f.Center[1]
	}
	return result, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lng, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
