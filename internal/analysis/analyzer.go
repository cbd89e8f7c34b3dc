// Package analysis classifies trend and support structure of a symbol and
// projects its swing-low cycle.
package analysis

import (
	"math"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/indicator"
	"github.com/wonny/cruzer/internal/tick"
)

const strongGapPct = 2.0

var insights = map[contracts.TrendKind]string{
	contracts.TrendBullishStrong: "Trend bullish kuat. Buy on pullback sangat ideal.",
	contracts.TrendBullishWeak:   "Trend bullish tapi melemah. Entry bertahap & disiplin risk.",
	contracts.TrendBearishStrong: "Trend bearish kuat. Hindari entry buy.",
	contracts.TrendBearishWeak:   "Trend bearish mulai melemah. Tunggu reversal valid.",
	contracts.TrendSideways:      "Market sideways / transisi. Perlu konfirmasi tambahan.",
}

// Analyzer builds the support/resistance view and attaches a cycle projection
// ⭐ SSOT: 지지/저항 + 사이클 분석
type Analyzer struct {
	projector *CycleProjector
}

// NewAnalyzer creates an analyzer; a nil projector skips cycle projection
func NewAnalyzer(projector *CycleProjector) *Analyzer {
	return &Analyzer{projector: projector}
}

// MinBars is the history needed for MA50
func (a *Analyzer) MinBars() int { return 50 }

// ClassifyTrend labels the MA20/MA50 structure relative to price
func ClassifyTrend(price, ma20, ma50 float64) (contracts.TrendKind, float64) {
	gap := math.Abs(ma20-ma50) / ma50 * 100
	strong := gap >= strongGapPct

	switch {
	case ma20 > ma50 && price > ma20:
		if strong {
			return contracts.TrendBullishStrong, gap
		}
		return contracts.TrendBullishWeak, gap
	case ma20 < ma50 && price < ma20:
		if strong {
			return contracts.TrendBearishStrong, gap
		}
		return contracts.TrendBearishWeak, gap
	default:
		return contracts.TrendSideways, gap
	}
}

// Analyze returns (nil, false) when fewer than MinBars bars are available
func (a *Analyzer) Analyze(symbol string, bars contracts.Bars) (*contracts.AnalysisResult, bool) {
	if bars.Len() < a.MinBars() {
		return nil, false
	}
	closes := bars.Closes()

	ma20, ok20 := indicator.RollingMean(closes, 20).Last()
	ma50, ok50 := indicator.RollingMean(closes, 50).Last()
	if !ok20 || !ok50 || ma50 == 0 {
		return nil, false
	}

	window := indicator.Tail(closes, majorWindow)
	support := tick.RoundToTick(indicator.Min(window))
	resistance := tick.RoundToTick(indicator.Max(window))
	last := tick.RoundToTick(closes[len(closes)-1])
	if last <= 0 {
		return nil, false
	}

	trend, gap := ClassifyTrend(float64(last), ma20, ma50)

	result := &contracts.AnalysisResult{
		Symbol:     symbol,
		Trend:      trend,
		TrendLabel: trend.Label(),
		MA20:       ma20,
		MA50:       ma50,
		GapPct:     indicator.Round(gap, 2),
		LastPrice:  last,
		Support:    support,
		Resistance: resistance,
		EntryZone: contracts.PriceRange{
			Low:  tick.RoundToTick(float64(support) * 1.01),
			High: tick.RoundToTick(float64(support) * 1.03),
		},
		RiskPct: indicator.Round(float64(last-support)/float64(last)*100, 2),
		Insight: insights[trend],
	}

	tiers := supportTiers(bars, support)
	for _, lv := range tiers {
		p := lv.Price
		switch lv.Tier {
		case contracts.TierMicro:
			result.MicroSupport = &p
		case contracts.TierMinor:
			result.MinorSupport = &p
		}
	}
	result.Supports = RankSupports(last, tiers)
	result.EntryNear, result.EntryDeep = entryLadder(result.Supports)

	if a.projector != nil {
		result.Cycle = a.projector.Project(bars)
	}
	return result, true
}
