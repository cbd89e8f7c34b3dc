package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/engine"
	"github.com/wonny/cruzer/internal/external/yahoo"
	"github.com/wonny/cruzer/pkg/logger"
	"github.com/wonny/cruzer/pkg/redis"
)

// Analyzer is the engine surface used for single-symbol analysis
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (*contracts.AnalysisResult, error)
}

// AnalyzeHandler serves support/resistance and cycle analysis
type AnalyzeHandler struct {
	analyzer Analyzer
	cache    *redis.Cache // nil = no caching
	logger   *logger.Logger
	now      func() time.Time
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(analyzer Analyzer, cache *redis.Cache, log *logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer: analyzer,
		cache:    cache,
		logger:   log,
		now:      time.Now,
	}
}

// GetAnalysis returns the analysis for one symbol, cached per trading day
// GET /api/analyze/{symbol}
func (h *AnalyzeHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
	key := redis.AnalysisKey(symbol, h.now())

	if h.cache != nil {
		var cached contracts.AnalysisResult
		hit, err := h.cache.Get(ctx, key, &cached)
		if err != nil {
			h.logger.WithError(err).WithSymbol(symbol).Warn("Analysis cache read failed")
		}
		if hit {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	result, err := h.analyzer.Analyze(ctx, symbol)
	switch {
	case err == nil:
	case errors.Is(err, yahoo.ErrNoData):
		respondError(w, http.StatusNotFound, "No data for "+symbol)
		return
	case errors.Is(err, engine.ErrInsufficientHistory):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		h.logger.WithError(err).WithSymbol(symbol).Error("Analysis failed")
		respondError(w, http.StatusBadGateway, "Analysis failed")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, result, redis.TTLShort); err != nil {
			h.logger.WithError(err).WithSymbol(symbol).Warn("Analysis cache write failed")
		}
	}
	respondJSON(w, http.StatusOK, result)
}
