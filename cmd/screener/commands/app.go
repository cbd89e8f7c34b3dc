package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/cruzer/internal/analysis"
	"github.com/wonny/cruzer/internal/collector"
	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/data"
	"github.com/wonny/cruzer/internal/engine"
	"github.com/wonny/cruzer/internal/external/yahoo"
	"github.com/wonny/cruzer/internal/quality"
	"github.com/wonny/cruzer/internal/recorder"
	"github.com/wonny/cruzer/internal/screener"
	"github.com/wonny/cruzer/internal/selection"
	"github.com/wonny/cruzer/internal/universe"
	"github.com/wonny/cruzer/pkg/config"
	"github.com/wonny/cruzer/pkg/database"
	"github.com/wonny/cruzer/pkg/httputil"
	"github.com/wonny/cruzer/pkg/logger"
	"github.com/wonny/cruzer/pkg/redis"
)

const cachePrefix = "cruzer"

// app holds the wired components shared by every command
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB // nil without DATABASE_URL
	redis  *redis.Client
	cache  *redis.Cache
	yahoo  *yahoo.Client
	engine *engine.Engine

	recorder  recorder.Recorder
	collector *collector.Collector // nil without DATABASE_URL
	gate      *quality.Gate        // nil without DATABASE_URL
}

// newApp loads config and wires sources, storage and the engine.
// Redis and PostgreSQL are optional; screening only needs Yahoo.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	// 1. Redis (cache + shared rate limit)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		a.redis = redis.NewFromRedis(nil)
	}
	a.cache = redis.NewCache(a.redis, cachePrefix)

	// 2. Yahoo chart client
	httpClient := httputil.New(log, cfg.Yahoo.Timeout)
	if a.redis.Enabled() {
		httpClient = httpClient.WithRateLimiter(
			redis.NewRateLimiter(a.redis, cachePrefix),
			redis.YahooRateLimit(cfg.Screener.RateLimit),
		)
	}
	a.yahoo = yahoo.NewClient(httpClient, log, cfg.Yahoo)

	var source contracts.BarSource = data.NewCachedSource(a.yahoo, a.cache, cfg.Yahoo.Range, log)
	analysisSource := data.NewCachedSource(a.yahoo.WithRange(cfg.Yahoo.AnalyzeRange), a.cache, cfg.Yahoo.AnalyzeRange, log)

	// 3. Storage
	a.recorder = recorder.NewNoopRecorder()
	switch {
	case cfg.Database.Enabled():
		a.db, err = database.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := a.db.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		bars := data.NewBarRepository(a.db.Pool)
		a.collector = collector.NewCollector(source, bars, log)
		a.gate = quality.NewGate(bars, quality.DefaultConfig())
		source = data.NewStoreSource(bars, source, log)
		a.recorder = recorder.Repository{RunRepository: data.NewRunRepository(a.db.Pool)}
		log.Info("Using PostgreSQL for bars and run history")

	case cfg.SQLitePath != "":
		rec, err := recorder.NewSQLiteRecorder(cfg.SQLitePath, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open run history: %w", err)
		}
		a.recorder = rec
	}

	// 4. Engine
	a.engine = engine.New(
		source,
		screener.DefaultRegistry(),
		analysis.NewAnalyzer(analysis.NewCycleProjector(nil)),
		engine.Config{
			Workers:      cfg.Screener.Workers,
			FetchTimeout: cfg.Screener.FetchTimeout,
			RateLimit:    cfg.Screener.RateLimit,
		},
		log,
	).WithAnalysisSource(analysisSource)
	a.engine.AddListener(a.recorder)

	return a, nil
}

// universe resolves the configured universe; override wins when non-empty
func (a *app) universe(override []string, file string) ([]string, error) {
	ucfg := a.cfg.Universe
	if file != "" {
		ucfg = config.UniverseConfig{File: file}
	}
	if len(override) > 0 {
		ucfg = config.UniverseConfig{Symbols: override}
	}

	u, err := universe.Resolve(ucfg)
	if err != nil {
		return nil, err
	}
	a.log.WithFields(map[string]interface{}{
		"source":  u.Source,
		"symbols": u.Len(),
	}).Debug("Universe resolved")
	return u.Symbols, nil
}

// universeFunc adapts the configured universe for jobs and handlers
func (a *app) universeFunc() func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		return a.universe(nil, "")
	}
}

func (a *app) selectionConfig() selection.Config {
	return selection.Config{
		MinScore:   a.cfg.Screener.MinScore,
		MinGainPct: a.cfg.Screener.MinGainPct,
	}
}

// Close releases storage and cache connections
func (a *app) Close() {
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close run history")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, context.Canceled) {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
