// Package collector bulk-loads daily bars from the remote source into the
// bar repository.
package collector

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/pkg/logger"
)

// Collector orchestrates bar collection
// ⭐ SSOT: 일봉 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	source contracts.BarSource
	repo   contracts.BarRepository
	logger *logger.Logger
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
}

// NewCollector creates a new Collector instance
func NewCollector(source contracts.BarSource, repo contracts.BarRepository, log *logger.Logger) *Collector {
	return &Collector{
		source: source,
		repo:   repo,
		logger: log.WithField("module", "collector"),
	}
}

// FetchResult represents the result of one symbol
type FetchResult struct {
	Symbol   string
	BarCount int
	Latest   time.Time
	Error    error
}

// Summary aggregates a collection pass
type Summary struct {
	Results []FetchResult
	Success int
	Failed  int
	Bars    int
}

// CollectBars fetches and stores bars for every symbol
func (c *Collector) CollectBars(ctx context.Context, symbols []string, cfg Config) *Summary {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol_count": len(symbols),
		"workers":      cfg.Workers,
	}).Info("Starting bar collection")

	resultCh := make(chan FetchResult, len(symbols))
	symbolCh := make(chan string, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.barWorker(ctx, workerID, symbolCh, resultCh)
		}(i)
	}

	for _, s := range symbols {
		symbolCh <- s
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	summary := &Summary{Results: make([]FetchResult, 0, len(symbols))}
	for result := range resultCh {
		summary.Results = append(summary.Results, result)
		if result.Error != nil {
			summary.Failed++
		} else {
			summary.Success++
			summary.Bars += result.BarCount
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": summary.Success,
		"failed":  summary.Failed,
		"bars":    summary.Bars,
	}).Info("Bar collection completed")

	return summary
}

// barWorker processes bar fetching for symbols
func (c *Collector) barWorker(ctx context.Context, workerID int, symbolCh <-chan string, resultCh chan<- FetchResult) {
	for symbol := range symbolCh {
		select {
		case <-ctx.Done():
			resultCh <- FetchResult{Symbol: symbol, Error: ctx.Err()}
			continue
		default:
		}

		bars, err := c.source.FetchBars(ctx, symbol)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": symbol,
			}).Error("Failed to fetch bars")
			resultCh <- FetchResult{Symbol: symbol, Error: err}
			continue
		}

		bars = contracts.CleanBars(bars)
		n, err := c.repo.SaveBars(ctx, symbol, bars)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": symbol,
			}).Error("Failed to save bars")
			resultCh <- FetchResult{Symbol: symbol, BarCount: n, Error: err}
			continue
		}

		result := FetchResult{Symbol: symbol, BarCount: n}
		if len(bars) > 0 {
			result.Latest = bars.Last().Date
		}

		c.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"symbol": symbol,
			"count":  n,
		}).Debug("Collected bars")

		resultCh <- result
	}
}
