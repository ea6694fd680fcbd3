package snotel

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const awdbBody = `[
  {
    "stationTriplet": "335:CO:SNTL",
    "data": [
      {
        "stationElement": {"elementCode": "WTEQ"},
        "values": [
          {"date": "2025-01-10", "value": 9.8},
          {"date": "2025-01-11", "value": 10.1}
        ]
      },
      {
        "stationElement": {"elementCode": "SNWD"},
        "values": [
          {"date": "2025-01-10", "value": 41},
          {"date": "2025-01-11", "value": null}
        ]
      }
    ]
  }
]`

func newTestClient(url string) *Client {
	return NewClient(url, 2*time.Second, slog.Default(), observability.NewMetricsForTesting())
}

func TestFetchDaily(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(awdbBody)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	begin := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	readings, err := c.FetchDaily(context.Background(), "335:CO:SNTL", begin, begin.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, []string{"335:CO:SNTL"}, gotQuery["stationTriplets"])
	assert.Equal(t, []string{"WTEQ,SNWD"}, gotQuery["elements"])
	assert.Equal(t, []string{"DAILY"}, gotQuery["duration"])
	assert.Equal(t, []string{"2025-01-10"}, gotQuery["beginDate"])
	assert.Equal(t, []string{"2025-01-11"}, gotQuery["endDate"])

	require.Len(t, readings, 2)
	first := readings[0]
	assert.Equal(t, "2025-01-10", first.Date.Format("2006-01-02"))
	assert.Equal(t, Provider, first.Source)
	require.NotNil(t, first.SWEIn)
	assert.InDelta(t, 9.8, *first.SWEIn, 0.0001)
	require.NotNil(t, first.SnowDepthIn)
	assert.InDelta(t, 41.0, *first.SnowDepthIn, 0.0001)

	second := readings[1]
	require.NotNil(t, second.SWEIn)
	assert.Nil(t, second.SnowDepthIn, "null value stays absent")
}

func TestFetchDaily_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "station not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchDaily(context.Background(), "1:XX:SNTL", time.Now(), time.Now())

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, Provider, apiErr.Provider)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "station not found")
}

func TestFetchDaily_OtherStationsIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(awdbBody)) //nolint:errcheck
	}))
	defer srv.Close()

	readings, err := newTestClient(srv.URL).FetchDaily(context.Background(), "999:UT:SNTL", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestFetchDaily_BadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"stationTriplet":"335:CO:SNTL","data":[{"stationElement":{"elementCode":"WTEQ"},"values":[{"date":"01/10/2025","value":1}]}]}]`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchDaily(context.Background(), "335:CO:SNTL", time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")
}
