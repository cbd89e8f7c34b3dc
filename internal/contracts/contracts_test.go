package contracts

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestCleanBars(t *testing.T) {
	raw := []Bar{
		{Date: day(3), Open: 10, High: 11, Low: 9, Close: 10, Volume: 100},
		{Date: day(1), Open: 10, High: 11, Low: 9, Close: 10, Volume: 100},
		{Date: day(2), Open: 10, High: math.NaN(), Low: 9, Close: 10, Volume: 100},
		{Date: time.Time{}, Open: 10, High: 11, Low: 9, Close: 10, Volume: 100},
		{Date: day(4), Open: 10, High: 11, Low: 9, Close: 0, Volume: 100},
		{Date: day(3).Add(9 * time.Hour), Open: 10, High: 12, Low: 9, Close: 11, Volume: 200},
	}

	bars := CleanBars(raw)
	require.Len(t, bars, 2)
	assert.Equal(t, day(1), bars[0].Date)
	assert.Equal(t, 11.0, bars[1].Close, "later duplicate wins")
	assert.Equal(t, []float64{10, 11}, bars.Closes())
	assert.Equal(t, []float64{11, 12}, bars.Highs())
	assert.Equal(t, 11.0, bars.Last().Close)
	assert.Len(t, bars.Tail(1), 1)
	assert.Len(t, bars.Tail(10), 2)

	// input untouched
	assert.Equal(t, day(3), raw[0].Date)
}

func TestParseStrategyID(t *testing.T) {
	tests := []struct {
		in   string
		want StrategyID
		ok   bool
	}{
		{"breakout", StrategyBreakout, true},
		{"BSJP", StrategyBreakout, true},
		{" day ", StrategyDaySwing, true},
		{"swing_trade_week", StrategyWeekSwing, true},
		{"scalp", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseStrategyID(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestScoreBreakdownJSONKeepsOrder(t *testing.T) {
	b := NewScoreBreakdown(
		ScoreItem{Name: "Trend", Points: 40},
		ScoreItem{Name: "RSI", Points: 30},
		ScoreItem{Name: "Volume", Points: 0},
	)
	assert.Equal(t, 70, b.Total())

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"Trend":40,"RSI":30,"Volume":0}`, string(data))

	var back ScoreBreakdown
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, b.Items(), back.Items())

	rsi, ok := back.Get("RSI")
	assert.True(t, ok)
	assert.Equal(t, 30, rsi)
}

func TestScoreBreakdownIsolated(t *testing.T) {
	items := []ScoreItem{{Name: "Trend", Points: 20}}
	b := NewScoreBreakdown(items...)
	items[0].Points = 99
	got := b.Items()
	got[0].Points = 77

	p, _ := b.Get("Trend")
	assert.Equal(t, 20, p)
}

func validSetup() StockSetup {
	return StockSetup{
		Symbol:         "BBCA",
		LastPrice:      1000,
		Score:          60,
		ScoreBreakdown: NewScoreBreakdown(ScoreItem{"Trend", 40}, ScoreItem{"RSI", 20}),
		EntryLow:       995,
		EntryHigh:      1005,
		Targets:        []int64{1020, 1040, 1060},
		Stop:           980,
	}
}

func TestStockSetupValidate(t *testing.T) {
	s := validSetup()
	require.NoError(t, s.Validate())
	assert.InDelta(t, 4.0, s.ExpectedGainPct(), 1e-9)

	tests := []struct {
		name   string
		mutate func(*StockSetup)
	}{
		{"score mismatch", func(s *StockSetup) { s.Score = 61 }},
		{"entry inverted", func(s *StockSetup) { s.EntryLow = 1010 }},
		{"stop above entry", func(s *StockSetup) { s.Stop = 995 }},
		{"targets flat", func(s *StockSetup) { s.Targets = []int64{1020, 1020, 1060} }},
		{"off grid", func(s *StockSetup) { s.EntryHigh = 1003 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSetup()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestTrendLabels(t *testing.T) {
	assert.Equal(t, "Bullish (Strong)", TrendBullishStrong.Label())
	assert.Equal(t, "Bearish (Weak)", TrendBearishWeak.Label())
	assert.Equal(t, "Sideways / Transition", TrendSideways.Label())
}

func TestRunTop(t *testing.T) {
	run := &ScreeningRun{Setups: make([]StockSetup, 5)}
	assert.Len(t, run.Top(3), 3)
	assert.Len(t, run.Top(0), 5)
	assert.Len(t, run.Top(9), 5)
}
