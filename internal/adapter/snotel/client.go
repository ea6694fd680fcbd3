// Package snotel reads daily snowpack observations (snow water equivalent and
// snow depth) from the NRCS AWDB REST service.
package snotel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/observability"
)

// Provider is the name recorded on errors, metrics and stored readings.
const Provider = "snotel"

const (
	elementSWE   = "WTEQ"
	elementDepth = "SNWD"
	dateLayout   = "2006-01-02"
)

// Client calls the AWDB data endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a SNOTEL client bounded by timeout per request.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchDaily returns one reading per day in [begin, end] for the station,
// ordered by date. Days with neither element reported are omitted.
func (c *Client) FetchDaily(ctx context.Context, triplet string, begin, end time.Time) ([]domain.SnowpackReading, error) {
	params := url.Values{
		"stationTriplets": {triplet},
		"elements":        {elementSWE + "," + elementDepth},
		"duration":        {"DAILY"},
		"beginDate":       {begin.Format(dateLayout)},
		"endDate":         {end.Format(dateLayout)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ExternalDuration.WithLabelValues(Provider).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ExternalRequests.WithLabelValues(Provider, "error").Inc()
		return nil, &domain.ExternalAPIError{Provider: Provider, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ExternalRequests.WithLabelValues(Provider, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.ExternalAPIError{Provider: Provider, StatusCode: resp.StatusCode, Message: string(body)}
	}

	var stations []stationData
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		c.metrics.ExternalRequests.WithLabelValues(Provider, "error").Inc()
		return nil, &domain.ExternalAPIError{Provider: Provider, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	c.metrics.ExternalRequests.WithLabelValues(Provider, "success").Inc()

	readings, err := toReadings(triplet, stations)
	if err != nil {
		return nil, &domain.ExternalAPIError{Provider: Provider, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	c.logger.Debug("snotel readings fetched", "station", triplet, "count", len(readings))
	return readings, nil
}

// toReadings merges the per-element series into one reading per date.
func toReadings(triplet string, stations []stationData) ([]domain.SnowpackReading, error) {
	byDate := map[string]*domain.SnowpackReading{}
	for _, st := range stations {
		if st.StationTriplet != triplet {
			continue
		}
		for _, series := range st.Data {
			for _, v := range series.Values {
				if v.Value == nil {
					continue
				}
				r, ok := byDate[v.Date]
				if !ok {
					d, err := time.ParseInLocation(dateLayout, v.Date, domain.PipelineLocation)
					if err != nil {
						return nil, fmt.Errorf("parse date %q: %w", v.Date, err)
					}
					r = &domain.SnowpackReading{StationTriplet: triplet, Date: d, Source: Provider}
					byDate[v.Date] = r
				}
				val := *v.Value
				switch series.StationElement.ElementCode {
				case elementSWE:
					r.SWEIn = &val
				case elementDepth:
					r.SnowDepthIn = &val
				}
			}
		}
	}

	out := make([]domain.SnowpackReading, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// AWDB response types.

type stationData struct {
	StationTriplet string        `json:"stationTriplet"`
	Data           []elementData `json:"data"`
}

type elementData struct {
	StationElement struct {
		ElementCode string `json:"elementCode"`
	} `json:"stationElement"`
	Values []dailyValue `json:"values"`
}

type dailyValue struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}
