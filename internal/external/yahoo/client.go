// Package yahoo fetches daily OHLCV bars from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/pkg/config"
	"github.com/wonny/cruzer/pkg/httputil"
	"github.com/wonny/cruzer/pkg/logger"
)

// ErrNoData is returned when the chart has no usable bars
var ErrNoData = errors.New("yahoo: no data returned")

// IDX trades in WIB; used when the response carries no gmtoffset
var jakarta = time.FixedZone("WIB", 7*60*60)

// Client handles communication with the Yahoo chart API
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	suffix     string
	rng        string
}

// NewClient creates a new Yahoo client using the daily range from cfg
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.YahooConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	rng := cfg.Range
	if rng == "" {
		rng = "1y"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("source", "yahoo"),
		baseURL:    baseURL,
		suffix:     cfg.SymbolSuffix,
		rng:        rng,
	}
}

// WithRange returns a copy of the client fetching a different chart range
func (c *Client) WithRange(rng string) *Client {
	cp := *c
	cp.rng = rng
	return &cp
}

// Ticker maps an exchange code (BBCA) to the Yahoo ticker (BBCA.JK).
// Indices (^JKSE) and already-suffixed tickers pass through.
func (c *Client) Ticker(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if c.suffix == "" || strings.HasPrefix(symbol, "^") || strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + c.suffix
}

// chartResponse is the response structure from the chart API
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency  string `json:"currency"`
				Symbol    string `json:"symbol"`
				GMTOffset *int   `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchBars implements contracts.BarSource
func (c *Client) FetchBars(ctx context.Context, symbol string) (contracts.Bars, error) {
	ticker := c.Ticker(symbol)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.baseURL, url.PathEscape(ticker), url.QueryEscape(c.rng))

	var chart chartResponse
	if err := c.httpClient.GetJSON(ctx, u, &chart); err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) && se.StatusCode == 404 {
			return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
		}
		return nil, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}

	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}

	bars, err := decode(chart)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"range":  c.rng,
		"bars":   len(bars),
	}).Debug("Fetched daily bars")

	return bars, nil
}

// decode turns the column arrays into bars; rows with any missing OHLCV
// value (holidays, suspensions) are dropped.
func decode(chart chartResponse) (contracts.Bars, error) {
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, ErrNoData
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, ErrNoData
	}
	quote := result.Indicators.Quote[0]

	loc := jakarta
	if result.Meta.GMTOffset != nil {
		loc = time.FixedZone("exchange", *result.Meta.GMTOffset)
	}

	raw := make([]contracts.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, ok1 := at(quote.Open, i)
		h, ok2 := at(quote.High, i)
		l, ok3 := at(quote.Low, i)
		cl, ok4 := at(quote.Close, i)
		v, ok5 := at(quote.Volume, i)
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			continue
		}
		y, m, d := time.Unix(ts, 0).In(loc).Date()
		raw = append(raw, contracts.Bar{
			Date:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: v,
		})
	}

	bars := contracts.CleanBars(raw)
	if bars.Len() == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}

func at(col []*float64, i int) (float64, bool) {
	if i >= len(col) || col[i] == nil {
		return 0, false
	}
	return *col[i], true
}
