package screener

import (
	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/tick"
)

// DayMomentum buys intraday strength in the morning and sells the same
// afternoon, without chasing extended prices.
type DayMomentum struct {
	MinScore       int
	MaxEMADistance float64 // percent above EMA20
}

// NewDayMomentum returns the swing_trade_day screener
func NewDayMomentum() *DayMomentum {
	return &DayMomentum{MinScore: 45, MaxEMADistance: 5}
}

func (d *DayMomentum) ID() contracts.StrategyID { return contracts.StrategyDaySwing }
func (d *DayMomentum) MinBars() int             { return 25 }

func (d *DayMomentum) Analyze(symbol string, bars contracts.Bars) (*contracts.StockSetup, bool) {
	if bars.Len() < d.MinBars() {
		return nil, false
	}
	snap, ok := takeSnapshot(bars)
	if !ok {
		return nil, false
	}

	trendPts := 0
	if snap.close >= snap.ema20 && snap.ema20 >= snap.ema20Prev && snap.emaDistancePct() <= d.MaxEMADistance {
		trendPts = 40
	}

	rsiPts := 0
	switch {
	case snap.rsi >= 55 && snap.rsi <= 75:
		rsiPts = 30
	case snap.rsi >= 50 && snap.rsi < 55:
		rsiPts = 20
	case snap.rsi > 75 && snap.rsi <= 80:
		rsiPts = 15
	}

	volumePts := 0
	switch {
	case snap.volume >= snap.volumeMA && snap.volume >= snap.prevVolume:
		volumePts = 30
	case snap.volume >= snap.volumeMA*0.7:
		volumePts = 20
	}

	breakdown := contracts.NewScoreBreakdown(
		contracts.ScoreItem{Name: "Trend", Points: trendPts},
		contracts.ScoreItem{Name: "RSI", Points: rsiPts},
		contracts.ScoreItem{Name: "Volume", Points: volumePts},
	)
	if breakdown.Total() < d.MinScore {
		return nil, false
	}

	lv := levels{
		last:      tick.RoundDown(snap.close),
		entryLow:  tick.RoundDown(snap.close * 0.997),
		entryHigh: tick.RoundUp(snap.close * 1.003),
		targets:   targetsFrom(snap.close, 1, 2, 3),
		stop:      tick.RoundDown(snap.low * 0.99),
	}

	return finish(symbol, d.ID(), breakdown, lv, labels{
		setup:          "Swing Trade Day",
		trend:          "Intraday Uptrend",
		recommendation: "Buy on Intraday Strength",
	})
}
