// Package engine runs a strategy screener over a symbol universe with a
// bounded worker pool and isolates every per-symbol failure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/cruzer/internal/analysis"
	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/screener"
	"github.com/wonny/cruzer/pkg/logger"
)

var (
	// ErrUnknownStrategy is the only error Run returns before screening starts
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrInsufficientHistory means the symbol has too few bars to analyze
	ErrInsufficientHistory = errors.New("insufficient history")
)

// Config holds engine settings
type Config struct {
	Workers      int
	FetchTimeout time.Duration // per symbol, 0 = none
	RateLimit    int           // fetches per second, 0 = unlimited
}

// DefaultConfig returns conservative settings for the Yahoo chart API
func DefaultConfig() Config {
	return Config{Workers: 4, FetchTimeout: 20 * time.Second, RateLimit: 5}
}

// RunListener is notified after every finished run (websocket hub, recorders)
type RunListener interface {
	OnRun(ctx context.Context, run *contracts.ScreeningRun) error
}

// Engine orchestrates screening runs
// ⭐ SSOT: 종목별 장애 격리 + 점수 정렬은 여기서만
type Engine struct {
	source         contracts.BarSource
	analysisSource contracts.BarSource
	registry       *screener.Registry
	analyzer       *analysis.Analyzer
	cfg            Config
	limiter        *rate.Limiter
	listeners      []RunListener
	logger         *logger.Logger
	now            func() time.Time
}

// New creates an engine. The same source serves analysis unless
// WithAnalysisSource is used.
func New(source contracts.BarSource, registry *screener.Registry, analyzer *analysis.Analyzer, cfg Config, log *logger.Logger) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	e := &Engine{
		source:         source,
		analysisSource: source,
		registry:       registry,
		analyzer:       analyzer,
		cfg:            cfg,
		logger:         log.WithField("module", "engine"),
		now:            time.Now,
	}
	if cfg.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}
	return e
}

// WithAnalysisSource uses a longer-history source for Analyze
func (e *Engine) WithAnalysisSource(src contracts.BarSource) *Engine {
	e.analysisSource = src
	return e
}

// AddListener registers a run listener
func (e *Engine) AddListener(l RunListener) {
	e.listeners = append(e.listeners, l)
}

// Strategies lists the registered strategy ids
func (e *Engine) Strategies() []contracts.StrategyID {
	return e.registry.IDs()
}

type job struct {
	index  int
	symbol string
}

type outcome struct {
	index   int
	setup   *contracts.StockSetup
	failure *contracts.SymbolFailure
	skipped bool // context cancelled before the symbol was processed
}

// Run screens symbols with the named strategy. Symbols that fail to fetch or
// compute are recorded in Failures and skipped. Setups are ordered by score
// descending; equal scores keep input order. Cancelling ctx stops feeding
// new symbols and returns what finished, with Cancelled set.
func (e *Engine) Run(ctx context.Context, symbols []string, strategy string) (*contracts.ScreeningRun, error) {
	s, err := e.registry.Lookup(strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}

	symbols = NormalizeSymbols(symbols)
	log := e.logger.WithStrategy(string(s.ID()))
	run := &contracts.ScreeningRun{
		Strategy:  s.ID(),
		StartedAt: e.now(),
		Requested: len(symbols),
		Setups:    []contracts.StockSetup{},
	}

	log.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"workers": e.cfg.Workers,
	}).Info("Screening started")

	jobCh := make(chan job)
	resultCh := make(chan outcome, len(symbols))

	var wg sync.WaitGroup
	for w := 0; w < e.cfg.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobCh {
				resultCh <- e.screenOne(ctx, log.WithField("worker", workerID), s, j)
			}
		}(w)
	}

	go func() {
		defer close(jobCh)
		for i, sym := range symbols {
			select {
			case <-ctx.Done():
				return
			case jobCh <- job{index: i, symbol: sym}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	outcomes := make([]outcome, 0, len(symbols))
	for o := range resultCh {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })

	processed := 0
	for _, o := range outcomes {
		switch {
		case o.skipped:
			continue
		case o.failure != nil:
			run.Failed++
			run.Failures = append(run.Failures, *o.failure)
		case o.setup != nil:
			run.Succeeded++
			run.Setups = append(run.Setups, *o.setup)
		default:
			run.NoSetup++
		}
		processed++
	}
	SortSetups(run.Setups)

	run.Cancelled = processed < len(symbols)
	run.FinishedAt = e.now()

	log.WithFields(map[string]interface{}{
		"setups":    run.Succeeded,
		"no_setup":  run.NoSetup,
		"failed":    run.Failed,
		"cancelled": run.Cancelled,
	}).WithDuration(run.Duration()).Info("Screening completed")

	e.notify(ctx, run)
	return run, nil
}

// screenOne never panics: fetch and compute faults become failures
func (e *Engine) screenOne(ctx context.Context, log *logger.Logger, s screener.Screener, j job) (out outcome) {
	out.index = j.index
	stage := "fetch"
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			log.WithSymbol(j.symbol).WithError(err).Error("Symbol screening panicked")
			out = outcome{index: j.index, failure: &contracts.SymbolFailure{Symbol: j.symbol, Stage: stage, Error: err.Error()}}
		}
	}()

	if ctx.Err() != nil {
		out.skipped = true
		return out
	}

	bars, err := e.fetch(ctx, e.source, j.symbol)
	if err != nil {
		if ctx.Err() != nil {
			out.skipped = true
			return out
		}
		log.WithSymbol(j.symbol).WithError(err).Warn("Failed to fetch bars")
		out.failure = &contracts.SymbolFailure{Symbol: j.symbol, Stage: stage, Error: err.Error()}
		return out
	}

	stage = "compute"
	setup, ok := s.Analyze(j.symbol, bars)
	if !ok {
		log.WithSymbol(j.symbol).WithField("bars", bars.Len()).Debug("No setup")
		return out
	}
	log.WithSymbol(j.symbol).WithField("score", setup.Score).Debug("Setup found")
	out.setup = setup
	return out
}

func (e *Engine) fetch(ctx context.Context, src contracts.BarSource, symbol string) (contracts.Bars, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	if e.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}

	bars, err := src.FetchBars(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	return contracts.CleanBars(bars), nil
}

// Analyze builds the support/resistance and cycle view for one symbol
func (e *Engine) Analyze(ctx context.Context, symbol string) (*contracts.AnalysisResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	bars, err := e.fetch(ctx, e.analysisSource, symbol)
	if err != nil {
		return nil, err
	}

	result, ok := e.analyzer.Analyze(symbol, bars)
	if !ok {
		return nil, fmt.Errorf("%s: %w (%d bars, need %d)", symbol, ErrInsufficientHistory, bars.Len(), e.analyzer.MinBars())
	}
	return result, nil
}

func (e *Engine) notify(ctx context.Context, run *contracts.ScreeningRun) {
	for _, l := range e.listeners {
		if err := l.OnRun(ctx, run); err != nil {
			e.logger.WithError(err).WithStrategy(string(run.Strategy)).Warn("Run listener failed")
		}
	}
}

// SortSetups orders by score descending, keeping the current order for ties
func SortSetups(setups []contracts.StockSetup) {
	sort.SliceStable(setups, func(i, j int) bool { return setups[i].Score > setups[j].Score })
}

// NormalizeSymbols upper-cases, trims and de-duplicates, keeping first order
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
