package quality

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/data"
)

type memRepo map[string]contracts.Bars

func (m memRepo) SaveBars(_ context.Context, symbol string, bars contracts.Bars) (int, error) {
	m[symbol] = bars
	return len(bars), nil
}

func (m memRepo) LoadBars(_ context.Context, symbol string, from time.Time) (contracts.Bars, error) {
	var out contracts.Bars
	for _, b := range m[symbol] {
		if !b.Date.Before(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memRepo) LatestDate(_ context.Context, symbol string) (time.Time, error) {
	bars := m[symbol]
	if len(bars) == 0 {
		return time.Time{}, fmt.Errorf("%s: %w", symbol, data.ErrNotFound)
	}
	return bars.Last().Date, nil
}

// daily bars ending on last, one per calendar day
func series(last time.Time, n int) contracts.Bars {
	bars := make(contracts.Bars, n)
	for i := range bars {
		bars[i] = contracts.Bar{
			Date: last.AddDate(0, 0, i-n+1),
			Open: 100, High: 105, Low: 95, Close: 102, Volume: 1000,
		}
	}
	return bars
}

// Wednesday 2024-07-03 18:00 WIB, after the close
var now = time.Date(2024, 7, 3, 11, 0, 0, 0, time.UTC)

func newGate(repo memRepo) *Gate {
	g := NewGate(repo, DefaultConfig())
	g.now = func() time.Time { return now }
	return g
}

func TestCheckAllValid(t *testing.T) {
	today := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)
	repo := memRepo{"BBCA": series(today, 80), "TLKM": series(today, 80)}

	snap, err := newGate(repo).Check(context.Background(), []string{"BBCA", "TLKM"})
	require.NoError(t, err)

	assert.Equal(t, today, snap.Date)
	assert.Equal(t, 2, snap.ValidSymbols)
	assert.True(t, snap.Passed)
	assert.InDelta(t, 1.0, snap.QualityScore, 1e-9)
	assert.Empty(t, snap.Missing)
}

func TestCheckFindsProblems(t *testing.T) {
	today := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)
	broken := series(today, 80)
	broken[10].High = 90 // below low

	repo := memRepo{
		"BBCA": series(today, 80),
		"BBRI": series(today.AddDate(0, 0, -2), 80),
		"GOTO": series(today, 20),
		"ASII": broken,
	}

	snap, err := newGate(repo).Check(context.Background(), []string{"BBCA", "BBRI", "GOTO", "ASII", "TLKM"})
	require.NoError(t, err)

	assert.Equal(t, []string{"TLKM"}, snap.Missing)
	assert.Equal(t, []string{"BBRI"}, snap.Stale)
	assert.Equal(t, []string{"GOTO"}, snap.Short)
	assert.Equal(t, []string{"ASII"}, snap.Broken)
	assert.Equal(t, 1, snap.ValidSymbols)
	assert.InDelta(t, 0.8, snap.Coverage[CoverageStored], 1e-9)
	assert.InDelta(t, 0.6, snap.Coverage[CoverageFresh], 1e-9)
	assert.False(t, snap.Passed)
}

func TestCheckEmptyUniverse(t *testing.T) {
	snap, err := newGate(memRepo{}).Check(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, snap.TotalSymbols)
	assert.False(t, snap.Passed)
}

func TestCalculateScore(t *testing.T) {
	score := calculateScore(map[string]float64{
		CoverageStored:    1.0,
		CoverageFresh:     0.5,
		CoverageHistory:   1.0,
		CoverageIntegrity: 0.0,
	})
	assert.InDelta(t, 0.30+0.15+0.25, score, 1e-9)
}

func TestConsistent(t *testing.T) {
	ok := contracts.Bars{{Open: 100, High: 110, Low: 95, Close: 105, Volume: 0}}
	assert.True(t, Consistent(ok))

	cases := []contracts.Bar{
		{Open: 100, High: 99, Low: 95, Close: 98, Volume: 1},   // high below open
		{Open: 100, High: 110, Low: 101, Close: 105, Volume: 1}, // low above open
		{Open: 100, High: 110, Low: 0, Close: 105, Volume: 1},   // zero low
		{Open: 100, High: 110, Low: 95, Close: 105, Volume: -1}, // negative volume
	}
	for i, b := range cases {
		assert.False(t, Consistent(contracts.Bars{b}), "case %d", i)
	}
}
