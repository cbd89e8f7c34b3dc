package screener

import (
	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/indicator"
	"github.com/wonny/cruzer/internal/tick"
)

// Breakout looks for an afternoon entry at or just under the 10-day high
// ("beli sore, jual pagi").
type Breakout struct {
	MinScore         int
	MaxRSI           float64 // reject at or above
	ResistanceWindow int
}

// NewBreakout returns the breakout screener with its default thresholds
func NewBreakout() *Breakout {
	return &Breakout{MinScore: 60, MaxRSI: 70, ResistanceWindow: 10}
}

func (b *Breakout) ID() contracts.StrategyID { return contracts.StrategyBreakout }
func (b *Breakout) MinBars() int             { return 25 }

// Analyze scores proximity to resistance, EMA20 slope, volume and RSI
func (b *Breakout) Analyze(symbol string, bars contracts.Bars) (*contracts.StockSetup, bool) {
	if bars.Len() < b.MinBars() {
		return nil, false
	}
	snap, ok := takeSnapshot(bars)
	if !ok {
		return nil, false
	}

	// resistance excludes today
	highs := bars.Highs()
	resistance := indicator.Max(highs[len(highs)-1-b.ResistanceWindow : len(highs)-1])
	dist := snap.emaDistancePct()

	breakoutPts := 0
	switch {
	case snap.close >= resistance*0.998 && dist <= 4:
		breakoutPts = 40
	case snap.close >= resistance*0.985 && dist <= 3:
		breakoutPts = 25
	}

	trendPts := 0
	if snap.ema20 >= snap.ema20Prev {
		trendPts = 20
	}

	volumePts := 0
	switch {
	case snap.volume > snap.volumeMA && snap.volume > snap.prevVolume:
		volumePts = 25
	case snap.volume > snap.volumeMA*0.8:
		volumePts = 15
	}

	rsiPts := 0
	switch {
	case snap.rsi >= 55:
		rsiPts = 15
	case snap.rsi >= 50:
		rsiPts = 8
	}

	breakdown := contracts.NewScoreBreakdown(
		contracts.ScoreItem{Name: "Breakout", Points: breakoutPts},
		contracts.ScoreItem{Name: "Trend", Points: trendPts},
		contracts.ScoreItem{Name: "Volume", Points: volumePts},
		contracts.ScoreItem{Name: "RSI", Points: rsiPts},
	)
	if snap.rsi >= b.MaxRSI || breakdown.Total() < b.MinScore {
		return nil, false
	}

	lv := levels{
		last:      tick.RoundDown(snap.close),
		entryLow:  tick.RoundDown(snap.close * 0.997),
		entryHigh: tick.RoundUp(snap.close * 1.005),
		targets:   targetsFrom(snap.close, 2, 4, 6),
		stop:      tick.RoundDown(min(resistance, snap.low) * 0.985),
	}

	return finish(symbol, b.ID(), breakdown, lv, labels{
		setup:          "Breakout (Beli Sore)",
		trend:          "Bullish / Near Breakout",
		recommendation: "Buy Breakout / Anticipate",
	})
}
