package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/data"
	"github.com/wonny/cruzer/internal/engine"
	"github.com/wonny/cruzer/internal/selection"
	"github.com/wonny/cruzer/pkg/logger"
)

// Screener is the engine surface used by the API
type Screener interface {
	Strategies() []contracts.StrategyID
	Run(ctx context.Context, symbols []string, strategy string) (*contracts.ScreeningRun, error)
}

// ScreenHandler handles screening endpoints
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreenHandler struct {
	screener Screener
	runs     contracts.RunRepository // nil = no history
	universe UniverseFunc
	defaults selection.Config
	logger   *logger.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(screener Screener, runs contracts.RunRepository, universe UniverseFunc, defaults selection.Config, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		screener: screener,
		runs:     runs,
		universe: universe,
		defaults: defaults,
		logger:   log,
	}
}

// ScreenRequest is the optional POST body
type ScreenRequest struct {
	Symbols []string `json:"symbols"`
}

// ScreenResponse carries the raw run and the entry/watchlist split
type ScreenResponse struct {
	Run       *contracts.ScreeningRun `json:"run"`
	Selection *selection.Result       `json:"selection"`
}

// GetStrategies lists the registered strategies
// GET /api/strategies
func (h *ScreenHandler) GetStrategies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": h.screener.Strategies(),
	})
}

// Screen runs one strategy over the posted symbols or the configured universe
// POST /api/screen/{strategy}?min_score=60&min_gain=2&min_price=&max_price=
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	strategy := mux.Vars(r)["strategy"]

	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := h.selectionConfig(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		if h.universe == nil {
			respondError(w, http.StatusBadRequest, "No symbols given and no universe configured")
			return
		}
		symbols, err = h.universe(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Failed to resolve universe")
			respondError(w, http.StatusInternalServerError, "Failed to resolve universe")
			return
		}
	}

	run, err := h.screener.Run(ctx, symbols, strategy)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownStrategy) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.WithError(err).WithStrategy(strategy).Error("Screening failed")
		respondError(w, http.StatusInternalServerError, "Screening failed")
		return
	}

	sel := selection.NewSelector(cfg, h.logger).Select(run)
	respondJSON(w, http.StatusOK, ScreenResponse{Run: run, Selection: sel})
}

// GetLatestRun returns the most recent stored run of a strategy
// GET /api/runs/latest?strategy=breakout
func (h *ScreenHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Run history is not configured")
		return
	}

	strategy := r.URL.Query().Get("strategy")
	if strategy == "" {
		strategy = string(contracts.StrategyBreakout)
	}

	run, err := h.runs.LatestRun(r.Context(), contracts.StrategyID(strategy))
	if err != nil {
		if data.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "No run recorded for "+strategy)
			return
		}
		h.logger.WithError(err).WithStrategy(strategy).Error("Failed to load latest run")
		respondError(w, http.StatusInternalServerError, "Failed to load latest run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (h *ScreenHandler) selectionConfig(r *http.Request) (selection.Config, error) {
	cfg := h.defaults

	minScore, err := queryFloat(r, "min_score", float64(cfg.MinScore))
	if err != nil {
		return cfg, errors.New("invalid min_score")
	}
	cfg.MinScore = int(minScore)

	if cfg.MinGainPct, err = queryFloat(r, "min_gain", cfg.MinGainPct); err != nil {
		return cfg, errors.New("invalid min_gain")
	}
	if cfg.MinPrice, err = queryFloat(r, "min_price", cfg.MinPrice); err != nil {
		return cfg, errors.New("invalid min_price")
	}
	if cfg.MaxPrice, err = queryFloat(r, "max_price", cfg.MaxPrice); err != nil {
		return cfg, errors.New("invalid max_price")
	}
	return cfg, nil
}
