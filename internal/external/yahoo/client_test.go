package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/cruzer/pkg/config"
	"github.com/wonny/cruzer/pkg/httputil"
	"github.com/wonny/cruzer/pkg/logger"
)

// 2024-07-01..03 09:00 WIB; the middle row is a suspension with nulls
const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"currency": "IDR", "symbol": "BBCA.JK", "gmtoffset": 25200},
      "timestamp": [1719799200, 1719885600, 1719972000],
      "indicators": {"quote": [{
        "open":   [9800, null, 9900],
        "high":   [9900, null, 10000],
        "low":    [9750, null, 9850],
        "close":  [9850, null, 9975],
        "volume": [1200000, null, 1500000]
      }]}
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewNop()
	hc := httputil.New(log, time.Second).DisableRetry()
	return NewClient(hc, log, config.YahooConfig{BaseURL: server.URL, SymbolSuffix: ".JK", Range: "1y"})
}

func TestFetchBars(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/BBCA.JK", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		_, _ = w.Write([]byte(chartJSON))
	})

	bars, err := client.FetchBars(context.Background(), "bbca")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), bars[1].Date)
	assert.Equal(t, 9975.0, bars[1].Close)
	assert.Equal(t, 1500000.0, bars[1].Volume)
}

func TestFetchBarsWithRange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5y", r.URL.Query().Get("range"))
		_, _ = w.Write([]byte(chartJSON))
	})

	_, err := client.WithRange("5y").FetchBars(context.Background(), "BBCA")
	require.NoError(t, err)
	assert.Equal(t, "1y", client.rng, "WithRange must not mutate the original")
}

func TestFetchBarsNoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})
	_, err := client.FetchBars(context.Background(), "XXXX")
	assert.True(t, errors.Is(err, ErrNoData))

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, http.StatusNotFound)
	})
	_, err = client.FetchBars(context.Background(), "XXXX")
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestFetchBarsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid range"}}}`))
	})
	_, err := client.FetchBars(context.Background(), "BBCA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid range")
	assert.False(t, errors.Is(err, ErrNoData))
}

func TestTicker(t *testing.T) {
	c := NewClient(httputil.New(logger.NewNop(), time.Second), logger.NewNop(), config.YahooConfig{SymbolSuffix: ".JK"})
	assert.Equal(t, "BBCA.JK", c.Ticker(" bbca "))
	assert.Equal(t, "^JKSE", c.Ticker("^JKSE"))
	assert.Equal(t, "BBCA.JK", c.Ticker("BBCA.JK"))
}
