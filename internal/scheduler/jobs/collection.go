package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/cruzer/internal/collector"
	"github.com/wonny/cruzer/internal/quality"
	"github.com/wonny/cruzer/pkg/logger"
)

// CollectionJob stores the day's bars for the universe
// ⭐ SSOT: 데이터 수집 스케줄은 이 Job에서만
type CollectionJob struct {
	collector *collector.Collector
	universe  UniverseFunc
	gate      *quality.Gate // optional
	workers   int
	schedule  string
	logger    *logger.Logger
}

// NewCollectionJob creates a new collection job
func NewCollectionJob(col *collector.Collector, universe UniverseFunc, workers int, schedule string, log *logger.Logger) *CollectionJob {
	return &CollectionJob{
		collector: col,
		universe:  universe,
		workers:   workers,
		schedule:  schedule,
		logger:    log.WithField("job", "collection"),
	}
}

// WithQualityGate checks the stored bars after every collection
func (j *CollectionJob) WithQualityGate(g *quality.Gate) *CollectionJob {
	j.gate = g
	return j
}

// Name returns the job name
func (j *CollectionJob) Name() string {
	return "collection"
}

// Schedule returns the cron schedule (with seconds)
func (j *CollectionJob) Schedule() string {
	return j.schedule
}

// Run collects bars; it fails only when every symbol failed
func (j *CollectionJob) Run(ctx context.Context) error {
	symbols, err := j.universe(ctx)
	if err != nil {
		return fmt.Errorf("resolve universe: %w", err)
	}

	summary := j.collector.CollectBars(ctx, symbols, collector.Config{Workers: j.workers})
	if err := ctx.Err(); err != nil {
		return err
	}
	if summary.Success == 0 && summary.Failed > 0 {
		return fmt.Errorf("collection failed for all %d symbols", summary.Failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"success": summary.Success,
		"failed":  summary.Failed,
		"bars":    summary.Bars,
	}).Info("Scheduled collection completed")

	if j.gate == nil {
		return nil
	}
	snap, err := j.gate.Check(ctx, symbols)
	if err != nil {
		return fmt.Errorf("quality check: %w", err)
	}
	log := j.logger.WithFields(map[string]interface{}{
		"date":    snap.Date.Format("2006-01-02"),
		"score":   snap.QualityScore,
		"valid":   snap.ValidSymbols,
		"missing": snap.Missing,
		"stale":   snap.Stale,
	})
	if snap.Passed {
		log.Info("Bar quality gate passed")
	} else {
		log.Warn("Bar quality gate failed")
	}
	return nil
}
