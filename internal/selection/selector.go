// Package selection applies post-hoc filters to a screening run and splits
// the survivors into actionable entries and a watchlist.
package selection

import (
	"sort"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/pkg/logger"
)

// Position is where the last price sits relative to the entry zone
type Position string

const (
	PositionInside Position = "INSIDE"
	PositionBelow  Position = "BELOW"
	PositionAbove  Position = "ABOVE"
)

const (
	nearResistancePct = 4.0 // breakout: at most 4% under entry high
	nearEntryPct      = 1.0 // day swing: at most 1% over entry high
	minTrendPoints    = 20  // breakout CAN ENTRY
	minVolumePoints   = 10
)

// Config defines hard cut conditions applied to every setup
type Config struct {
	MinScore   int
	MinGainPct float64 // (target[1]-last)/last*100
	MinPrice   float64 // 0 = no bound
	MaxPrice   float64 // 0 = no bound
}

// DefaultConfig mirrors the dashboard defaults
func DefaultConfig() Config {
	return Config{MinScore: 60, MinGainPct: 2}
}

// Candidate is a setup that passed the filters
type Candidate struct {
	Setup    contracts.StockSetup `json:"setup"`
	GainPct  float64              `json:"gain_pct"`
	Position Position             `json:"position"`
	Signal   Signal               `json:"signal"`
	Context  string               `json:"context"`
}

// Result is the CAN ENTRY / WATCHLIST split of one run
type Result struct {
	Strategy  contracts.StrategyID `json:"strategy"`
	CanEntry  []Candidate          `json:"can_entry"`
	Watchlist []Candidate          `json:"watchlist"`
	Filtered  map[string]int       `json:"filtered"` // filter name -> count
}

// Selector implements the entry/watchlist classification
// ⭐ SSOT: CAN ENTRY 판정 로직은 여기서만
type Selector struct {
	config Config
	logger *logger.Logger
}

// NewSelector creates a new selector
func NewSelector(config Config, logger *logger.Logger) *Selector {
	return &Selector{
		config: config,
		logger: logger,
	}
}

// Select filters the run setups and classifies the survivors
func (s *Selector) Select(run *contracts.ScreeningRun) *Result {
	res := &Result{
		Strategy:  run.Strategy,
		CanEntry:  []Candidate{},
		Watchlist: []Candidate{},
		Filtered:  make(map[string]int),
	}

	for _, setup := range run.Setups {
		if reason := s.checkConditions(&setup); reason != "" {
			res.Filtered[reason]++
			continue
		}

		c := Candidate{
			Setup:    setup,
			GainPct:  setup.ExpectedGainPct(),
			Position: PricePosition(setup.LastPrice, setup.EntryLow, setup.EntryHigh),
			Signal:   SignalFor(&setup),
			Context:  ContextFor(&setup),
		}
		if s.canEntry(run.Strategy, c) {
			res.CanEntry = append(res.CanEntry, c)
		} else {
			res.Watchlist = append(res.Watchlist, c)
		}
	}

	sortCandidates(res.CanEntry)
	sortCandidates(res.Watchlist)

	s.logger.WithFields(map[string]interface{}{
		"strategy":  run.Strategy,
		"input":     len(run.Setups),
		"can_entry": len(res.CanEntry),
		"watchlist": len(res.Watchlist),
		"filters":   res.Filtered,
	}).Info("Selection completed")

	return res
}

// checkConditions returns the failing filter name, or "" when the setup passes
func (s *Selector) checkConditions(setup *contracts.StockSetup) string {
	price := float64(setup.LastPrice)
	if s.config.MinPrice > 0 && price < s.config.MinPrice {
		return "min_price"
	}
	if s.config.MaxPrice > 0 && price > s.config.MaxPrice {
		return "max_price"
	}
	if setup.Score < s.config.MinScore {
		return "score"
	}
	if setup.ExpectedGainPct() < s.config.MinGainPct {
		return "gain"
	}
	return ""
}

func (s *Selector) canEntry(strategy contracts.StrategyID, c Candidate) bool {
	setup := c.Setup
	if setup.Score < s.config.MinScore {
		return false
	}

	switch strategy {
	case contracts.StrategyBreakout:
		trend, _ := setup.ScoreBreakdown.Get("Trend")
		volume, _ := setup.ScoreBreakdown.Get("Volume")
		return trend >= minTrendPoints &&
			volume >= minVolumePoints &&
			nearResistance(setup.LastPrice, setup.EntryHigh)

	case contracts.StrategyDaySwing:
		return c.GainPct >= s.config.MinGainPct &&
			(c.Position == PositionInside || nearEntry(setup.LastPrice, setup.EntryHigh))

	default:
		return c.Position == PositionInside && c.GainPct >= s.config.MinGainPct
	}
}

// PricePosition labels last against [low, high], inclusive
func PricePosition(last, low, high int64) Position {
	switch {
	case last >= low && last <= high:
		return PositionInside
	case last < low:
		return PositionBelow
	default:
		return PositionAbove
	}
}

func nearResistance(last, resistance int64) bool {
	if resistance <= 0 {
		return false
	}
	pct := float64(resistance-last) / float64(resistance) * 100
	return pct >= 0 && pct <= nearResistancePct
}

func nearEntry(last, entryHigh int64) bool {
	if entryHigh <= 0 {
		return false
	}
	pct := float64(last-entryHigh) / float64(entryHigh) * 100
	return pct >= 0 && pct <= nearEntryPct
}

// sortCandidates orders by score desc, then last price desc
func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Setup.Score != cs[j].Setup.Score {
			return cs[i].Setup.Score > cs[j].Setup.Score
		}
		return cs[i].Setup.LastPrice > cs[j].Setup.LastPrice
	})
}
