// Package screener scores daily bar series against the three IDX trading
// strategies and prices the resulting setups on the tick grid.
package screener

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/indicator"
	"github.com/wonny/cruzer/internal/tick"
)

// Screener evaluates one symbol. A false return means "no setup": either not
// enough history or the score/filters rejected it. Analyze never panics on
// short input.
// ⭐ SSOT: 전략 스크리너 인터페이스
type Screener interface {
	ID() contracts.StrategyID
	MinBars() int
	Analyze(symbol string, bars contracts.Bars) (*contracts.StockSetup, bool)
}

// Registry maps strategy ids to screeners
type Registry struct {
	screeners map[contracts.StrategyID]Screener
}

// NewRegistry registers the given screeners; later ids replace earlier ones
func NewRegistry(screeners ...Screener) *Registry {
	r := &Registry{screeners: make(map[contracts.StrategyID]Screener, len(screeners))}
	for _, s := range screeners {
		r.screeners[s.ID()] = s
	}
	return r
}

// DefaultRegistry holds breakout, swing_trade_day and swing_trade_week
func DefaultRegistry() *Registry {
	return NewRegistry(NewBreakout(), NewDayMomentum(), NewWeekSwing())
}

// Get returns the screener for id
func (r *Registry) Get(id contracts.StrategyID) (Screener, bool) {
	s, ok := r.screeners[id]
	return s, ok
}

// Lookup resolves a raw id or alias
func (r *Registry) Lookup(raw string) (Screener, error) {
	id, ok := contracts.ParseStrategyID(raw)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", raw)
	}
	s, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("strategy %q not registered", id)
	}
	return s, nil
}

// IDs returns the registered ids sorted
func (r *Registry) IDs() []contracts.StrategyID {
	ids := make([]contracts.StrategyID, 0, len(r.screeners))
	for id := range r.screeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

const (
	emaFastPeriod = 20
	emaSlowPeriod = 50
	rsiPeriod     = 14
	volumeWindow  = 20
)

// snapshot holds the last-bar readings shared by all strategies
type snapshot struct {
	close      float64
	low        float64
	ema20      float64
	ema20Prev  float64
	rsi        float64
	volume     float64
	prevVolume float64
	volumeMA   float64
}

// emaDistancePct is how far close sits above EMA20, in percent
func (s snapshot) emaDistancePct() float64 {
	return (s.close - s.ema20) / s.ema20 * 100
}

func takeSnapshot(bars contracts.Bars) (snapshot, bool) {
	if bars.Len() < 2 {
		return snapshot{}, false
	}
	closes := bars.Closes()
	volumes := bars.Volumes()

	ema20 := indicator.EMA(closes, emaFastPeriod)
	rsi := indicator.RSI(closes, rsiPeriod)
	volMA := indicator.RollingMean(volumes, volumeWindow)

	snap := snapshot{
		close:      bars.Last().Close,
		low:        bars.Last().Low,
		volume:     volumes[len(volumes)-1],
		prevVolume: volumes[len(volumes)-2],
	}

	var ok1, ok2, ok3, ok4 bool
	snap.ema20, ok1 = ema20.Last()
	snap.ema20Prev, ok2 = ema20.FromEnd(1)
	snap.rsi, ok3 = rsi.Last()
	snap.volumeMA, ok4 = volMA.Last()
	if !(ok1 && ok2 && ok3 && ok4) || snap.ema20 == 0 {
		return snapshot{}, false
	}
	return snap, true
}

// labels are the display strings attached to a setup
type labels struct {
	setup          string
	trend          string
	recommendation string
}

// levels are the tick-rounded prices of a setup before validation
type levels struct {
	last      int64
	entryLow  int64
	entryHigh int64
	targets   []int64
	stop      int64
}

// riskReward is reward-to-risk in percent, one decimal. Risk is floored at
// one rupiah so a stop at or above the last price never divides by zero.
func riskReward(last, stop, target int64) float64 {
	risk := math.Max(float64(last-stop), 1)
	return indicator.Round(float64(target-last)/risk*100, 1)
}

// targetsFrom rounds close×(1+pct) up and keeps the list strictly increasing
func targetsFrom(close float64, pcts ...float64) []int64 {
	out := make([]int64, len(pcts))
	for i, p := range pcts {
		out[i] = tick.RoundUp(close * (1 + p/100))
		if i > 0 && out[i] <= out[i-1] {
			out[i] = tick.Next(out[i-1])
		}
	}
	return out
}

// finish assembles a setup and drops it when the prices break an ordering
// invariant (e.g. a stop derived from EMA50 above the entry zone).
func finish(symbol string, id contracts.StrategyID, breakdown contracts.ScoreBreakdown, lv levels, lb labels) (*contracts.StockSetup, bool) {
	setup := &contracts.StockSetup{
		Symbol:              symbol,
		Strategy:            id,
		LastPrice:           lv.last,
		Score:               breakdown.Total(),
		ScoreBreakdown:      breakdown,
		EntryLow:            lv.entryLow,
		EntryHigh:           lv.entryHigh,
		Targets:             lv.targets,
		Stop:                lv.stop,
		RiskReward:          riskReward(lv.last, lv.stop, lv.targets[1]),
		TrendLabel:          lb.trend,
		SetupLabel:          lb.setup,
		RecommendationLabel: lb.recommendation,
	}
	if err := setup.Validate(); err != nil {
		return nil, false
	}
	return setup, true
}
