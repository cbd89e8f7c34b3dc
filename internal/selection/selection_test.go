package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/pkg/logger"
)

func setup(symbol string, score int, last, low, high int64, targets ...int64) contracts.StockSetup {
	return contracts.StockSetup{
		Symbol:    symbol,
		Score:     score,
		LastPrice: last,
		EntryLow:  low,
		EntryHigh: high,
		Targets:   targets,
		ScoreBreakdown: contracts.NewScoreBreakdown(
			contracts.ScoreItem{Name: "Trend", Points: 25},
			contracts.ScoreItem{Name: "Volume", Points: 15},
		),
	}
}

func newSelector(cfg Config) *Selector {
	return NewSelector(cfg, logger.NewNop())
}

func TestPricePosition(t *testing.T) {
	assert.Equal(t, PositionInside, PricePosition(1000, 1000, 1050))
	assert.Equal(t, PositionInside, PricePosition(1050, 1000, 1050))
	assert.Equal(t, PositionBelow, PricePosition(995, 1000, 1050))
	assert.Equal(t, PositionAbove, PricePosition(1055, 1000, 1050))
}

func TestSelectFilters(t *testing.T) {
	run := &contracts.ScreeningRun{
		Strategy: contracts.StrategyWeekSwing,
		Setups: []contracts.StockSetup{
			setup("LOWS", 55, 1000, 990, 1010, 1050, 1100, 1150),  // score
			setup("FLAT", 80, 1000, 990, 1010, 1005, 1010, 1150),  // gain 1%
			setup("PRCY", 80, 9000, 8900, 9100, 9500, 9800, 9900), // price
			setup("GOOD", 80, 1000, 990, 1010, 1050, 1100, 1150),
		},
	}
	res := newSelector(Config{MinScore: 60, MinGainPct: 2, MaxPrice: 5000}).Select(run)

	assert.Equal(t, map[string]int{"score": 1, "gain": 1, "max_price": 1}, res.Filtered)
	require.Len(t, res.CanEntry, 1)
	assert.Equal(t, "GOOD", res.CanEntry[0].Setup.Symbol)
	assert.InDelta(t, 10.0, res.CanEntry[0].GainPct, 1e-9)
	assert.Equal(t, PositionInside, res.CanEntry[0].Position)
	assert.Empty(t, res.Watchlist)
}

func TestSelectWeekSwingOutsideZoneIsWatchlist(t *testing.T) {
	run := &contracts.ScreeningRun{
		Strategy: contracts.StrategyWeekSwing,
		Setups:   []contracts.StockSetup{setup("ABVE", 80, 1100, 990, 1010, 1150, 1200, 1250)},
	}
	res := newSelector(DefaultConfig()).Select(run)
	assert.Empty(t, res.CanEntry)
	require.Len(t, res.Watchlist, 1)
	assert.Equal(t, PositionAbove, res.Watchlist[0].Position)
}

func TestSelectBreakoutNeedsNearResistance(t *testing.T) {
	run := &contracts.ScreeningRun{
		Strategy: contracts.StrategyBreakout,
		Setups: []contracts.StockSetup{
			setup("NEAR", 80, 1000, 1000, 1030, 1100, 1150, 1200), // 2.9% under
			setup("FARR", 80, 1000, 1000, 1100, 1100, 1150, 1200), // 9.1% under
		},
	}
	res := newSelector(DefaultConfig()).Select(run)
	require.Len(t, res.CanEntry, 1)
	assert.Equal(t, "NEAR", res.CanEntry[0].Setup.Symbol)
	require.Len(t, res.Watchlist, 1)
	assert.Equal(t, "FARR", res.Watchlist[0].Setup.Symbol)
}

func TestSelectBreakoutWeakVolumeIsWatchlist(t *testing.T) {
	s := setup("WEAK", 80, 1000, 1000, 1030, 1100, 1150, 1200)
	s.ScoreBreakdown = contracts.NewScoreBreakdown(
		contracts.ScoreItem{Name: "Trend", Points: 25},
		contracts.ScoreItem{Name: "Volume", Points: 0},
	)
	res := newSelector(DefaultConfig()).Select(&contracts.ScreeningRun{
		Strategy: contracts.StrategyBreakout,
		Setups:   []contracts.StockSetup{s},
	})
	assert.Empty(t, res.CanEntry)
	assert.Len(t, res.Watchlist, 1)
}

func TestSelectDaySwingAllowsSlightlyAboveEntry(t *testing.T) {
	run := &contracts.ScreeningRun{
		Strategy: contracts.StrategyDaySwing,
		Setups: []contracts.StockSetup{
			setup("EDGE", 70, 1005, 990, 1000, 1050, 1100, 1150), // 0.5% above
			setup("RUNR", 70, 1030, 990, 1000, 1080, 1100, 1150), // 3% above
		},
	}
	res := newSelector(DefaultConfig()).Select(run)
	require.Len(t, res.CanEntry, 1)
	assert.Equal(t, "EDGE", res.CanEntry[0].Setup.Symbol)
	require.Len(t, res.Watchlist, 1)
	assert.Equal(t, "RUNR", res.Watchlist[0].Setup.Symbol)
}

func TestSelectSortsByScoreThenPrice(t *testing.T) {
	run := &contracts.ScreeningRun{
		Strategy: contracts.StrategyWeekSwing,
		Setups: []contracts.StockSetup{
			setup("AAAA", 70, 1000, 990, 1010, 1050, 1100, 1150),
			setup("BBBB", 90, 500, 490, 510, 530, 550, 570),
			setup("CCCC", 70, 2000, 1990, 2010, 2100, 2200, 2300),
		},
	}
	res := newSelector(DefaultConfig()).Select(run)
	var got []string
	for _, c := range res.CanEntry {
		got = append(got, c.Setup.Symbol)
	}
	assert.Equal(t, []string{"BBBB", "CCCC", "AAAA"}, got)
}

func TestDeriveSignal(t *testing.T) {
	tests := []struct {
		name              string
		score, trend, rsi float64
		rangeEntry        bool
		want              Signal
	}{
		{"extended", 90, 60, 70, true, SignalHold},
		{"breakout", 80, 60, 55, false, SignalBuyBreakout},
		{"pullback", 75, 40, 30, true, SignalBuyPullback},
		{"weak", 60, 20, 50, true, SignalWait},
		{"fallback", 75, 20, 50, true, SignalBuyPullback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveSignal(tt.score, tt.trend, tt.rsi, tt.rangeEntry))
		})
	}
}

func TestDeriveContext(t *testing.T) {
	assert.Equal(t, "Strong Uptrend", DeriveContext(50, 60))
	assert.Equal(t, "Bullish Continuation", DeriveContext(80, 30))
	assert.Equal(t, "Bullish Pullback Zone", DeriveContext(70, 40))
	assert.Equal(t, "Range Consolidation", DeriveContext(50, 10))
}
