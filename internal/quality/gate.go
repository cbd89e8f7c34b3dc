// Package quality checks that stored daily bars are complete enough to screen.
package quality

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/data"
)

// Coverage keys
const (
	CoverageStored    = "stored"
	CoverageFresh     = "fresh"
	CoverageHistory   = "history"
	CoverageIntegrity = "integrity"
)

// Config holds quality gate thresholds (fractions of the universe)
type Config struct {
	MinStoredCoverage    float64 `yaml:"min_stored_coverage"`    // 1.0
	MinFreshCoverage     float64 `yaml:"min_fresh_coverage"`     // 0.95
	MinHistoryCoverage   float64 `yaml:"min_history_coverage"`   // 0.90
	MinIntegrityCoverage float64 `yaml:"min_integrity_coverage"` // 1.0
	MinHistoryBars       int     `yaml:"min_history_bars"`       // 60, the longest screener lookback
	Lookback             time.Duration
}

// DefaultConfig returns the thresholds used by the collection job
func DefaultConfig() Config {
	return Config{
		MinStoredCoverage:    1.0,
		MinFreshCoverage:     0.95,
		MinHistoryCoverage:   0.90,
		MinIntegrityCoverage: 1.0,
		MinHistoryBars:       60,
		Lookback:             400 * 24 * time.Hour,
	}
}

// Snapshot is the result of one gate check
type Snapshot struct {
	Date         time.Time          `json:"date"` // expected latest trade date
	TotalSymbols int                `json:"total_symbols"`
	ValidSymbols int                `json:"valid_symbols"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
	Missing      []string           `json:"missing,omitempty"`
	Stale        []string           `json:"stale,omitempty"`
	Short        []string           `json:"short,omitempty"`
	Broken       []string           `json:"broken,omitempty"`
}

// Gate validates stored bars for a universe
type Gate struct {
	repo   contracts.BarRepository
	config Config
	now    func() time.Time
}

// NewGate creates a new quality gate
func NewGate(repo contracts.BarRepository, config Config) *Gate {
	return &Gate{repo: repo, config: config, now: time.Now}
}

// Check validates the stored bars of every symbol
// ⭐ SSOT: 수집 → 스크리닝 품질 검증
func (g *Gate) Check(ctx context.Context, symbols []string) (*Snapshot, error) {
	now := g.now()
	snap := &Snapshot{
		Date:         data.ExpectedLatest(now),
		TotalSymbols: len(symbols),
		Coverage:     make(map[string]float64),
	}
	if len(symbols) == 0 {
		return snap, nil
	}

	var stored, fresh, history, intact int
	from := now.Add(-g.config.Lookback)

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		latest, err := g.repo.LatestDate(ctx, symbol)
		if data.IsNotFound(err) {
			snap.Missing = append(snap.Missing, symbol)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("latest date %s: %w", symbol, err)
		}
		stored++

		isFresh := !latest.Before(snap.Date)
		if isFresh {
			fresh++
		} else {
			snap.Stale = append(snap.Stale, symbol)
		}

		bars, err := g.repo.LoadBars(ctx, symbol, from)
		if err != nil {
			return nil, fmt.Errorf("load bars %s: %w", symbol, err)
		}

		isLong := bars.Len() >= g.config.MinHistoryBars
		if isLong {
			history++
		} else {
			snap.Short = append(snap.Short, symbol)
		}

		isIntact := Consistent(bars)
		if isIntact {
			intact++
		} else {
			snap.Broken = append(snap.Broken, symbol)
		}

		if isFresh && isLong && isIntact {
			snap.ValidSymbols++
		}
	}

	total := float64(len(symbols))
	snap.Coverage[CoverageStored] = float64(stored) / total
	snap.Coverage[CoverageFresh] = float64(fresh) / total
	snap.Coverage[CoverageHistory] = float64(history) / total
	snap.Coverage[CoverageIntegrity] = float64(intact) / total

	snap.QualityScore = calculateScore(snap.Coverage)
	snap.Passed = g.passed(snap.Coverage)

	sort.Strings(snap.Missing)
	sort.Strings(snap.Stale)
	sort.Strings(snap.Short)
	sort.Strings(snap.Broken)
	return snap, nil
}

func (g *Gate) passed(cov map[string]float64) bool {
	return cov[CoverageStored] >= g.config.MinStoredCoverage &&
		cov[CoverageFresh] >= g.config.MinFreshCoverage &&
		cov[CoverageHistory] >= g.config.MinHistoryCoverage &&
		cov[CoverageIntegrity] >= g.config.MinIntegrityCoverage
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		CoverageStored:    0.30,
		CoverageFresh:     0.30,
		CoverageHistory:   0.25,
		CoverageIntegrity: 0.15,
	}

	score := 0.0
	for key, weight := range weights {
		score += coverage[key] * weight
	}
	return score
}

// Consistent reports whether every bar has a positive low, a high at or above
// open and close, a low at or below them, and a non-negative volume
func Consistent(bars contracts.Bars) bool {
	for _, b := range bars {
		if b.Low <= 0 || b.Volume < 0 {
			return false
		}
		if b.High < b.Low || b.High < b.Open || b.High < b.Close {
			return false
		}
		if b.Low > b.Open || b.Low > b.Close {
			return false
		}
	}
	return true
}
