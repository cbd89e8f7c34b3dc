package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wonny/cruzer/internal/collector"
	"github.com/wonny/cruzer/internal/quality"
	"github.com/wonny/cruzer/pkg/logger"
)

// DataHandler handles bar collection endpoints
// ⭐ SSOT: 데이터 수집 API 핸들러는 이 구조체에서만
type DataHandler struct {
	collector *collector.Collector // nil = no bar store
	gate      *quality.Gate
	universe  UniverseFunc
	workers   int
	logger    *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(col *collector.Collector, gate *quality.Gate, universe UniverseFunc, workers int, log *logger.Logger) *DataHandler {
	return &DataHandler{
		collector: col,
		gate:      gate,
		universe:  universe,
		workers:   workers,
		logger:    log,
	}
}

// CollectRequest represents a collection request
type CollectRequest struct {
	Symbols []string `json:"symbols"`
}

// CollectResponse represents a collection response
type CollectResponse struct {
	Status  string `json:"status"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
	Bars    int    `json:"bars"`
}

// GetQuality checks the stored bars of the universe
// GET /api/data/quality
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil || h.universe == nil {
		respondError(w, http.StatusServiceUnavailable, "Bar store is not configured")
		return
	}

	symbols, err := h.universe(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve universe")
		respondError(w, http.StatusInternalServerError, "Failed to resolve universe")
		return
	}

	snap, err := h.gate.Check(r.Context(), symbols)
	if err != nil {
		h.logger.WithError(err).Error("Quality check failed")
		respondError(w, http.StatusInternalServerError, "Quality check failed")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GetUniverse returns the configured universe
// GET /api/data/universe
func (h *DataHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	if h.universe == nil {
		respondError(w, http.StatusServiceUnavailable, "No universe configured")
		return
	}
	symbols, err := h.universe(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve universe")
		respondError(w, http.StatusInternalServerError, "Failed to resolve universe")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(symbols),
		"symbols": symbols,
	})
}

// Collect fetches and stores daily bars
// POST /api/data/collect
func (h *DataHandler) Collect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.collector == nil {
		respondError(w, http.StatusServiceUnavailable, "Bar store is not configured")
		return
	}

	var req CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		if h.universe == nil {
			respondError(w, http.StatusBadRequest, "No symbols given and no universe configured")
			return
		}
		var err error
		if symbols, err = h.universe(ctx); err != nil {
			h.logger.WithError(err).Error("Failed to resolve universe")
			respondError(w, http.StatusInternalServerError, "Failed to resolve universe")
			return
		}
	}

	h.logger.WithField("symbols", len(symbols)).Info("Data collection triggered")

	summary := h.collector.CollectBars(ctx, symbols, collector.Config{Workers: h.workers})
	status := "success"
	if summary.Failed > 0 {
		status = "partial"
	}
	respondJSON(w, http.StatusOK, CollectResponse{
		Status:  status,
		Success: summary.Success,
		Failed:  summary.Failed,
		Bars:    summary.Bars,
	})
}
