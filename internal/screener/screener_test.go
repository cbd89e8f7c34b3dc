package screener

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/cruzer/internal/contracts"
)

// zigzag alternates +6 / -4 from 1000 so the trend is up, the last bar
// (odd count) closes at a fresh high and RSI14 settles around 58-62.
// High equals close, low is 1% under, volume spikes to 1.5x on the last bar.
func zigzag(n int) contracts.Bars {
	bars := make(contracts.Bars, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := 1000.0
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%2 == 1 {
				c += 6
			} else {
				c -= 4
			}
		}
		vol := 1000.0
		if i == n-1 {
			vol = 1500
		}
		bars[i] = contracts.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c * 0.99, Close: c, Volume: vol}
	}
	return bars
}

func linear(n int, start, step float64) contracts.Bars {
	bars := make(contracts.Bars, n)
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = contracts.Bar{Date: d.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000}
	}
	return bars
}

func points(t *testing.T, s *contracts.StockSetup, name string) int {
	t.Helper()
	p, ok := s.ScoreBreakdown.Get(name)
	require.True(t, ok, "breakdown has %s", name)
	return p
}

func TestBreakoutSetup(t *testing.T) {
	setup, ok := NewBreakout().Analyze("BBCA", zigzag(30))
	require.True(t, ok)

	assert.Equal(t, 40, points(t, setup, "Breakout"))
	assert.Equal(t, 20, points(t, setup, "Trend"))
	assert.Equal(t, 25, points(t, setup, "Volume"))
	// RSI ≈ 62.3 falls in the ≥55 tier
	assert.Equal(t, 15, points(t, setup, "RSI"))
	assert.Equal(t, 100, setup.Score)

	assert.Equal(t, int64(1030), setup.LastPrice)
	assert.Equal(t, int64(1030), setup.EntryLow)
	assert.Equal(t, int64(1040), setup.EntryHigh)
	assert.Equal(t, []int64{1055, 1080, 1100}, setup.Targets)
	assert.Equal(t, int64(1005), setup.Stop)
	assert.Equal(t, 200.0, setup.RiskReward)
	assert.Equal(t, contracts.StrategyBreakout, setup.Strategy)
	assert.Equal(t, "Breakout (Beli Sore)", setup.SetupLabel)
	assert.NoError(t, setup.Validate())
}

func TestBreakoutRejectsOverboughtRSI(t *testing.T) {
	// monotonic rise: RSI = 100
	_, ok := NewBreakout().Analyze("X", linear(40, 1000, 5))
	assert.False(t, ok)
}

func TestBreakoutRejectsLowScore(t *testing.T) {
	_, ok := NewBreakout().Analyze("X", linear(40, 2000, -5))
	assert.False(t, ok)
}

func TestDayMomentumSetup(t *testing.T) {
	setup, ok := NewDayMomentum().Analyze("TLKM", zigzag(30))
	require.True(t, ok)

	assert.Equal(t, 40, points(t, setup, "Trend"))
	assert.Equal(t, 30, points(t, setup, "RSI"))
	assert.Equal(t, 30, points(t, setup, "Volume"))
	assert.Equal(t, 100, setup.Score)

	assert.Equal(t, int64(1030), setup.LastPrice)
	assert.Equal(t, int64(1030), setup.EntryLow)
	assert.Equal(t, int64(1040), setup.EntryHigh)
	assert.Equal(t, []int64{1045, 1055, 1070}, setup.Targets)
	assert.Equal(t, int64(1010), setup.Stop)
	assert.Equal(t, 125.0, setup.RiskReward)
	assert.Equal(t, contracts.StrategyDaySwing, setup.Strategy)
}

func TestDayMomentumRejectsDowntrend(t *testing.T) {
	_, ok := NewDayMomentum().Analyze("X", linear(40, 2000, -5))
	assert.False(t, ok)
}

func TestWeekSwingSetup(t *testing.T) {
	setup, ok := NewWeekSwing().Analyze("BBRI", zigzag(60))
	require.True(t, ok)

	assert.Equal(t, []contracts.ScoreItem{
		{Name: "Trend", Points: 40},
		{Name: "RSI", Points: 30},
		{Name: "Volume", Points: 20},
	}, setup.ScoreBreakdown.Items())
	assert.Equal(t, 90, setup.Score)

	assert.Equal(t, int64(1060), setup.LastPrice)
	assert.Equal(t, int64(1030), setup.EntryLow)
	assert.Equal(t, int64(1075), setup.EntryHigh)
	assert.Equal(t, []int64{1110, 1150, 1195}, setup.Targets)
	assert.Equal(t, int64(1015), setup.Stop)
	assert.Equal(t, 200.0, setup.RiskReward)
}

func TestWeekSwingNeedsSixtyBars(t *testing.T) {
	// fewer than 60 bars: no setup
	_, ok := NewWeekSwing().Analyze("X", zigzag(59))
	assert.False(t, ok)
}

func TestShortHistoryNeverPanics(t *testing.T) {
	for _, s := range []Screener{NewBreakout(), NewDayMomentum(), NewWeekSwing()} {
		for n := 0; n < s.MinBars(); n++ {
			assert.NotPanics(t, func() {
				_, ok := s.Analyze("X", zigzag(n))
				assert.False(t, ok)
			})
		}
	}
}

func TestFinishDropsBrokenOrdering(t *testing.T) {
	breakdown := contracts.NewScoreBreakdown(contracts.ScoreItem{Name: "Trend", Points: 60})
	lv := levels{last: 1000, entryLow: 980, entryHigh: 1020, targets: []int64{1040, 1080, 1120}, stop: 990}

	_, ok := finish("X", contracts.StrategyWeekSwing, breakdown, lv, labels{})
	assert.False(t, ok, "stop above entry low")

	lv.stop = 950
	setup, ok := finish("X", contracts.StrategyWeekSwing, breakdown, lv, labels{})
	require.True(t, ok)
	assert.Equal(t, 60, setup.Score)
	assert.Equal(t, 160.0, setup.RiskReward)
}

func TestTargetsStrictlyIncreasing(t *testing.T) {
	// at 50 the 1% and 2% moves both round up to 51
	got := targetsFrom(50, 1, 2, 3)
	assert.Equal(t, []int64{51, 52, 53}, got)
}

func TestRiskRewardFloor(t *testing.T) {
	assert.Equal(t, 4000.0, riskReward(1000, 1000, 1040))
	assert.Equal(t, 50.0, riskReward(1000, 960, 1020))
}

func TestRandomWalkInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	reg := DefaultRegistry()

	for trial := 0; trial < 300; trial++ {
		n := 20 + rng.Intn(120)
		bars := make(contracts.Bars, n)
		c := 100 + rng.Float64()*8000
		d := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
		for i := range bars {
			c *= 1 + (rng.Float64()-0.47)*0.04
			bars[i] = contracts.Bar{
				Date: d.AddDate(0, 0, i), Open: c,
				High: c * (1 + rng.Float64()*0.02), Low: c * (1 - rng.Float64()*0.02),
				Close: c, Volume: 1e5 * (0.5 + rng.Float64()),
			}
		}

		for _, id := range reg.IDs() {
			s, _ := reg.Get(id)
			setup, ok := s.Analyze("R", bars)
			if !ok {
				continue
			}
			require.NoError(t, setup.Validate(), "trial %d %s", trial, id)
			assert.Equal(t, setup.ScoreBreakdown.Total(), setup.Score)
			assert.Len(t, setup.Targets, 3)
		}
	}
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []contracts.StrategyID{"breakout", "swing_trade_day", "swing_trade_week"}, reg.IDs())

	s, err := reg.Lookup("week")
	require.NoError(t, err)
	assert.Equal(t, 60, s.MinBars())

	_, err = reg.Lookup("scalping")
	assert.Error(t, err)

	_, err = NewRegistry(NewBreakout()).Lookup("day")
	assert.Error(t, err)
}
