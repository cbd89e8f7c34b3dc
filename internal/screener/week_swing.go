package screener

import (
	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/indicator"
	"github.com/wonny/cruzer/internal/tick"
)

// WeekSwing holds for one to two weeks, entering on pullbacks to EMA20
type WeekSwing struct {
	MinScore int
}

// NewWeekSwing returns the swing_trade_week screener
func NewWeekSwing() *WeekSwing {
	return &WeekSwing{MinScore: 60}
}

func (w *WeekSwing) ID() contracts.StrategyID { return contracts.StrategyWeekSwing }
func (w *WeekSwing) MinBars() int             { return 60 }

func (w *WeekSwing) Analyze(symbol string, bars contracts.Bars) (*contracts.StockSetup, bool) {
	if bars.Len() < w.MinBars() {
		return nil, false
	}
	snap, ok := takeSnapshot(bars)
	if !ok {
		return nil, false
	}
	ema50, ok := indicator.EMA(bars.Closes(), emaSlowPeriod).Last()
	if !ok {
		return nil, false
	}

	trendPts := 0
	if snap.ema20 > ema50 {
		trendPts += 20
	}
	if snap.close > snap.ema20 {
		trendPts += 20
	}

	rsiPts := 0
	switch {
	case snap.rsi >= 55 && snap.rsi <= 70:
		rsiPts = 30
	case snap.rsi >= 50 && snap.rsi < 55:
		rsiPts = 15
	case snap.rsi > 70 && snap.rsi <= 75:
		rsiPts = 10
	}

	volumePts := 0
	if snap.volume > snap.volumeMA {
		volumePts = 20
	}

	breakdown := contracts.NewScoreBreakdown(
		contracts.ScoreItem{Name: "Trend", Points: trendPts},
		contracts.ScoreItem{Name: "RSI", Points: rsiPts},
		contracts.ScoreItem{Name: "Volume", Points: volumePts},
	)
	if breakdown.Total() < w.MinScore {
		return nil, false
	}

	lv := levels{
		last:      tick.RoundDown(snap.close),
		entryLow:  tick.RoundDown(snap.ema20 * 0.98),
		entryHigh: tick.RoundUp(snap.ema20 * 1.02),
		targets:   targetsFrom(snap.close, 4, 8, 12),
		stop:      tick.RoundDown(ema50 * 0.98),
	}

	return finish(symbol, w.ID(), breakdown, lv, labels{
		setup:          "Swing Setup (1–2 Weeks)",
		trend:          "Bullish (EMA20 > EMA50)",
		recommendation: "Buy on Pullback / Hold",
	})
}
