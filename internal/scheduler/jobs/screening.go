package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/pkg/logger"
)

// Runner runs one screening pass (implemented by engine.Engine)
type Runner interface {
	Run(ctx context.Context, symbols []string, strategy string) (*contracts.ScreeningRun, error)
}

// UniverseFunc returns the symbols to process
type UniverseFunc func(ctx context.Context) ([]string, error)

// ScreeningJob screens the universe with every configured strategy after
// the close. Runs are persisted by the engine's listeners.
// ⭐ SSOT: 일일 스크리닝 스케줄은 이 Job에서만
type ScreeningJob struct {
	runner     Runner
	universe   UniverseFunc
	strategies []string
	schedule   string
	logger     *logger.Logger
}

// NewScreeningJob creates a new screening job
func NewScreeningJob(runner Runner, universe UniverseFunc, strategies []string, schedule string, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		runner:     runner,
		universe:   universe,
		strategies: strategies,
		schedule:   schedule,
		logger:     log.WithField("job", "screening"),
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "screening"
}

// Schedule returns the cron schedule (with seconds)
func (j *ScreeningJob) Schedule() string {
	return j.schedule
}

// Run executes every strategy in order; one strategy failing does not stop
// the others, but the job reports the first error.
func (j *ScreeningJob) Run(ctx context.Context) error {
	symbols, err := j.universe(ctx)
	if err != nil {
		return fmt.Errorf("resolve universe: %w", err)
	}

	var firstErr error
	for _, strategy := range j.strategies {
		run, err := j.runner.Run(ctx, symbols, strategy)
		if err != nil {
			j.logger.WithStrategy(strategy).WithError(err).Error("Scheduled screening failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("screen %s: %w", strategy, err)
			}
			continue
		}
		if run.Cancelled {
			return ctx.Err()
		}

		top := make([]string, 0, 5)
		for _, s := range run.Top(5) {
			top = append(top, s.Symbol)
		}
		j.logger.WithStrategy(strategy).WithFields(map[string]interface{}{
			"setups": run.Succeeded,
			"failed": run.Failed,
			"top":    top,
		}).Info("Scheduled screening completed")
	}
	return firstErr
}
