package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/pkg/logger"
	"github.com/wonny/cruzer/pkg/redis"
)

// CachedSource memoizes a bar source in redis. Cache faults never fail a
// fetch; they are logged and the wrapped source is used.
type CachedSource struct {
	next   contracts.BarSource
	cache  *redis.Cache
	rng    string
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSource caches bars of the given chart range for redis.TTLDaily
func NewCachedSource(next contracts.BarSource, cache *redis.Cache, rng string, log *logger.Logger) *CachedSource {
	return &CachedSource{
		next:   next,
		cache:  cache,
		rng:    rng,
		ttl:    redis.TTLDaily,
		logger: log.WithField("source", "cache"),
	}
}

// FetchBars implements contracts.BarSource
func (s *CachedSource) FetchBars(ctx context.Context, symbol string) (contracts.Bars, error) {
	key := redis.BarsKey(symbol, s.rng)

	var cached contracts.Bars
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithSymbol(symbol).WithError(err).Warn("Bar cache read failed")
	}
	if hit && len(cached) > 0 {
		return cached, nil
	}

	bars, err := s.next.FetchBars(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, bars, s.ttl); err != nil {
		s.logger.WithSymbol(symbol).WithError(err).Warn("Bar cache write failed")
	}
	return bars, nil
}

// IDX closes at 16:00 WIB; bars are complete shortly after
var (
	wib          = time.FixedZone("WIB", 7*60*60)
	closeHourWIB = 17
)

// StoreSource reads bars from the repository first and falls back to the
// remote source when the stored series is short or stale. Remote bars are
// written back.
// ⭐ SSOT: DB 우선 일봉 조회
type StoreSource struct {
	repo     contracts.BarRepository
	remote   contracts.BarSource
	lookback time.Duration
	minBars  int
	now      func() time.Time
	logger   *logger.Logger
}

// NewStoreSource keeps about one year of history, enough for every strategy
func NewStoreSource(repo contracts.BarRepository, remote contracts.BarSource, log *logger.Logger) *StoreSource {
	return &StoreSource{
		repo:     repo,
		remote:   remote,
		lookback: 400 * 24 * time.Hour,
		minBars:  60,
		now:      time.Now,
		logger:   log.WithField("source", "store"),
	}
}

// FetchBars implements contracts.BarSource
func (s *StoreSource) FetchBars(ctx context.Context, symbol string) (contracts.Bars, error) {
	symbol = strings.ToUpper(symbol)
	now := s.now()

	stored, err := s.repo.LoadBars(ctx, symbol, now.Add(-s.lookback))
	switch {
	case err != nil:
		s.logger.WithSymbol(symbol).WithError(err).Warn("Failed to load stored bars")
	case s.fresh(stored, now):
		return stored, nil
	default:
		s.logger.WithSymbol(symbol).WithField("stored", describe(stored)).Debug("Stored bars stale, fetching remote")
	}

	bars, err := s.remote.FetchBars(ctx, symbol)
	if err != nil {
		if len(stored) >= s.minBars {
			s.logger.WithSymbol(symbol).WithField("stored", describe(stored)).WithError(err).Warn("Remote fetch failed, serving stale bars")
			return stored, nil
		}
		return nil, err
	}

	if n, err := s.repo.SaveBars(ctx, symbol, bars); err != nil {
		s.logger.WithSymbol(symbol).WithField("saved", n).WithError(err).Warn("Failed to store bars")
	}
	return bars, nil
}

func (s *StoreSource) fresh(bars contracts.Bars, now time.Time) bool {
	if len(bars) < s.minBars {
		return false
	}
	return !bars.Last().Date.Before(ExpectedLatest(now))
}

// ExpectedLatest is the trade date the newest complete bar should carry:
// today after the close, otherwise the previous weekday. Exchange holidays
// are not known here and only cause an extra remote fetch.
func ExpectedLatest(now time.Time) time.Time {
	t := now.In(wib)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if t.Hour() < closeHourWIB {
		day = day.AddDate(0, 0, -1)
	}
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// IsNotFound reports whether err means no stored rows
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func describe(bars contracts.Bars) string {
	if len(bars) == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d bars to %s", len(bars), bars.Last().Date.Format("2006-01-02"))
}
