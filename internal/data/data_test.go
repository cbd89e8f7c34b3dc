package data

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/pkg/config"
	"github.com/wonny/cruzer/pkg/database"
	"github.com/wonny/cruzer/pkg/logger"
	"github.com/wonny/cruzer/pkg/redis"
)

func barsUntil(last time.Time, n int) contracts.Bars {
	bars := make(contracts.Bars, n)
	for i := range bars {
		c := 1000 + float64(i)
		bars[i] = contracts.Bar{Date: last.AddDate(0, 0, i-n+1), Open: c, High: c + 5, Low: c - 5, Close: c, Volume: 100}
	}
	return bars
}

type memRepo struct {
	mu      sync.Mutex
	bars    map[string]contracts.Bars
	loadErr error
	saves   int
}

func (m *memRepo) SaveBars(_ context.Context, symbol string, bars contracts.Bars) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.bars[symbol] = bars
	return len(bars), nil
}

func (m *memRepo) LoadBars(_ context.Context, symbol string, _ time.Time) (contracts.Bars, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bars[symbol], m.loadErr
}

func (m *memRepo) LatestDate(_ context.Context, symbol string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bars[symbol]
	if len(b) == 0 {
		return time.Time{}, ErrNotFound
	}
	return b.Last().Date, nil
}

type countingSource struct {
	calls int
	bars  contracts.Bars
	err   error
}

func (c *countingSource) FetchBars(context.Context, string) (contracts.Bars, error) {
	c.calls++
	return c.bars, c.err
}

// Wednesday 2024-07-03 18:00 WIB
var afterClose = time.Date(2024, 7, 3, 11, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpectedLatest(t *testing.T) {
	assert.Equal(t, day(2024, 7, 3), ExpectedLatest(afterClose))
	// Wednesday 10:00 WIB
	assert.Equal(t, day(2024, 7, 2), ExpectedLatest(time.Date(2024, 7, 3, 3, 0, 0, 0, time.UTC)))
	// Monday 09:00 WIB -> Friday
	assert.Equal(t, day(2024, 7, 5), ExpectedLatest(time.Date(2024, 7, 8, 2, 0, 0, 0, time.UTC)))
	// Sunday
	assert.Equal(t, day(2024, 7, 5), ExpectedLatest(time.Date(2024, 7, 7, 12, 0, 0, 0, time.UTC)))
}

func newStoreSource(repo *memRepo, remote contracts.BarSource) *StoreSource {
	s := NewStoreSource(repo, remote, logger.NewNop())
	s.now = func() time.Time { return afterClose }
	return s
}

func TestStoreSourceServesFreshBars(t *testing.T) {
	repo := &memRepo{bars: map[string]contracts.Bars{"BBCA": barsUntil(day(2024, 7, 3), 80)}}
	remote := &countingSource{}

	bars, err := newStoreSource(repo, remote).FetchBars(context.Background(), "bbca")
	require.NoError(t, err)
	assert.Len(t, bars, 80)
	assert.Zero(t, remote.calls)
}

func TestStoreSourceRefreshesStaleBars(t *testing.T) {
	repo := &memRepo{bars: map[string]contracts.Bars{"BBCA": barsUntil(day(2024, 7, 2), 80)}}
	remote := &countingSource{bars: barsUntil(day(2024, 7, 3), 81)}

	bars, err := newStoreSource(repo, remote).FetchBars(context.Background(), "BBCA")
	require.NoError(t, err)
	assert.Len(t, bars, 81)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, 1, repo.saves)
	assert.Len(t, repo.bars["BBCA"], 81)
}

func TestStoreSourceFallsBackToStaleOnRemoteError(t *testing.T) {
	repo := &memRepo{bars: map[string]contracts.Bars{"BBCA": barsUntil(day(2024, 7, 1), 80)}}
	remote := &countingSource{err: errors.New("timeout")}

	bars, err := newStoreSource(repo, remote).FetchBars(context.Background(), "BBCA")
	require.NoError(t, err)
	assert.Len(t, bars, 80)

	// too little stored history: the remote error surfaces
	repo.bars["TLKM"] = barsUntil(day(2024, 7, 1), 10)
	_, err = newStoreSource(repo, remote).FetchBars(context.Background(), "TLKM")
	assert.EqualError(t, err, "timeout")
}

func TestStoreSourceIgnoresRepositoryErrors(t *testing.T) {
	repo := &memRepo{bars: map[string]contracts.Bars{}, loadErr: errors.New("db down")}
	remote := &countingSource{bars: barsUntil(day(2024, 7, 3), 70)}

	bars, err := newStoreSource(repo, remote).FetchBars(context.Background(), "BBCA")
	require.NoError(t, err)
	assert.Len(t, bars, 70)
}

func TestCachedSourceWithoutRedis(t *testing.T) {
	client, err := redis.New(context.Background(), &config.Config{})
	require.NoError(t, err)

	remote := &countingSource{bars: barsUntil(day(2024, 7, 3), 5)}
	src := NewCachedSource(remote, redis.NewCache(client, "test"), "1y", logger.NewNop())

	for i := 0; i < 2; i++ {
		bars, err := src.FetchBars(context.Background(), "BBCA")
		require.NoError(t, err)
		assert.Len(t, bars, 5)
	}
	assert.Equal(t, 2, remote.calls, "disabled cache never hits")
}

func TestRepositoriesIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	bars := NewBarRepository(db.Pool)
	symbol := "ZZTEST"
	n, err := bars.SaveBars(ctx, symbol, barsUntil(day(2024, 7, 3), 3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	loaded, err := bars.LoadBars(ctx, symbol, day(2024, 7, 2))
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 1002.0, loaded[1].Close)

	latest, err := bars.LatestDate(ctx, symbol)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 7, 3), latest)

	_, err = bars.LatestDate(ctx, "NOPE_NONE")
	assert.True(t, IsNotFound(err))

	runs := NewRunRepository(db.Pool)
	run := &contracts.ScreeningRun{
		Strategy:   contracts.StrategyWeekSwing,
		StartedAt:  time.Now().Add(-time.Second),
		FinishedAt: time.Now(),
		Requested:  2, Succeeded: 1, Failed: 1,
		Setups:   []contracts.StockSetup{{Symbol: symbol, Strategy: contracts.StrategyWeekSwing, Score: 70}},
		Failures: []contracts.SymbolFailure{{Symbol: "BAD", Stage: "fetch", Error: "no data"}},
	}
	id, err := runs.SaveRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)

	got, err := runs.LatestRun(ctx, contracts.StrategyWeekSwing)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	require.Len(t, got.Setups, 1)
	assert.Equal(t, symbol, got.Setups[0].Symbol)
	assert.Equal(t, run.Failures, got.Failures)
}
