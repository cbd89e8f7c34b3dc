package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cruzer/internal/api/handlers"
	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/data"
	"github.com/wonny/cruzer/internal/engine"
	"github.com/wonny/cruzer/internal/external/yahoo"
	"github.com/wonny/cruzer/internal/selection"
	"github.com/wonny/cruzer/pkg/logger"
)

type fakeEngine struct {
	gotSymbols []string
}

func (f *fakeEngine) Strategies() []contracts.StrategyID {
	return []contracts.StrategyID{contracts.StrategyBreakout, contracts.StrategyDaySwing, contracts.StrategyWeekSwing}
}

func (f *fakeEngine) Run(_ context.Context, symbols []string, strategy string) (*contracts.ScreeningRun, error) {
	if strategy == "scalping" {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownStrategy, strategy)
	}
	f.gotSymbols = symbols
	return &contracts.ScreeningRun{
		Strategy:  contracts.StrategyID(strategy),
		Requested: len(symbols),
		Succeeded: 1,
		Setups: []contracts.StockSetup{{
			Symbol: "BBCA", Strategy: contracts.StrategyID(strategy), Score: 85,
			LastPrice: 1000, EntryLow: 980, EntryHigh: 1000, Stop: 950,
			Targets: []int64{1050, 1100, 1150},
		}},
	}, nil
}

func (f *fakeEngine) Analyze(_ context.Context, symbol string) (*contracts.AnalysisResult, error) {
	switch symbol {
	case "NONE":
		return nil, fmt.Errorf("NONE.JK: %w", yahoo.ErrNoData)
	case "IPOX":
		return nil, fmt.Errorf("IPOX: %w", engine.ErrInsufficientHistory)
	}
	return &contracts.AnalysisResult{Symbol: symbol, LastPrice: 1000, Support: 950, Resistance: 1100}, nil
}

type runStore struct {
	runs map[contracts.StrategyID]*contracts.ScreeningRun
}

func (s *runStore) SaveRun(_ context.Context, run *contracts.ScreeningRun) (int64, error) {
	s.runs[run.Strategy] = run
	return 1, nil
}

func (s *runStore) LatestRun(_ context.Context, strategy contracts.StrategyID) (*contracts.ScreeningRun, error) {
	run, ok := s.runs[strategy]
	if !ok {
		return nil, fmt.Errorf("latest %s: %w", strategy, data.ErrNotFound)
	}
	return run, nil
}

func newTestRouter(t *testing.T) (http.Handler, *fakeEngine) {
	t.Helper()
	log := logger.NewNop()
	eng := &fakeEngine{}
	store := &runStore{runs: map[contracts.StrategyID]*contracts.ScreeningRun{
		contracts.StrategyWeekSwing: {ID: 7, Strategy: contracts.StrategyWeekSwing},
	}}
	universe := func(context.Context) ([]string, error) { return []string{"BBCA", "TLKM"}, nil }

	return NewRouter(Handlers{
		Screen:  handlers.NewScreenHandler(eng, store, universe, selection.DefaultConfig(), log),
		Analyze: handlers.NewAnalyzeHandler(eng, nil, log),
		Data:    handlers.NewDataHandler(nil, nil, universe, 2, log),
	}, log), eng
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStrategies(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/api/strategies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Strategies []string `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"breakout", "swing_trade_day", "swing_trade_week"}, body.Strategies)
}

func TestScreen(t *testing.T) {
	h, eng := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/screen/breakout", `{"symbols":["bbca"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"bbca"}, eng.gotSymbols)

	var resp handlers.ScreenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Run)
	assert.Equal(t, contracts.StrategyBreakout, resp.Run.Strategy)
	require.NotNil(t, resp.Selection)
	assert.Len(t, append(resp.Selection.CanEntry, resp.Selection.Watchlist...), 1)
}

func TestScreenUsesUniverseAndFilters(t *testing.T) {
	h, eng := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/screen/swing_trade_week?min_score=90", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"BBCA", "TLKM"}, eng.gotSymbols)

	var resp handlers.ScreenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Selection.CanEntry)
	assert.Empty(t, resp.Selection.Watchlist)
	assert.Equal(t, 1, resp.Selection.Filtered["score"])
}

func TestScreenErrors(t *testing.T) {
	h, _ := newTestRouter(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/screen/scalping", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/screen/breakout?min_gain=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/screen/breakout", "{").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/screen/breakout", "").Code)
}

func TestLatestRun(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/runs/latest?strategy=swing_trade_week", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":7`)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/runs/latest", "").Code)
}

func TestAnalyze(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/analyze/bbca", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res contracts.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "BBCA", res.Symbol)
	assert.Equal(t, int64(950), res.Support)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/analyze/NONE", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodGet, "/api/analyze/IPOX", "").Code)
}

func TestDataEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/data/universe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/data/collect", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/data/quality", "").Code)
}
