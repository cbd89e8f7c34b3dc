// Package recorder keeps screening run history for local and CLI use.
package recorder

import (
	"context"

	"github.com/wonny/cruzer/internal/contracts"
)

// Recorder persists screening runs and can be attached to the engine as a
// run listener.
type Recorder interface {
	contracts.RunRepository
	OnRun(ctx context.Context, run *contracts.ScreeningRun) error
	Close() error
}

// NoopRecorder is used when neither SQLite nor PostgreSQL is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) SaveRun(context.Context, *contracts.ScreeningRun) (int64, error) {
	return 0, nil
}

func (n *NoopRecorder) LatestRun(_ context.Context, strategy contracts.StrategyID) (*contracts.ScreeningRun, error) {
	return nil, notFound(strategy)
}

func (n *NoopRecorder) OnRun(context.Context, *contracts.ScreeningRun) error { return nil }
func (n *NoopRecorder) Close() error                                         { return nil }

// Repository adapts any RunRepository (e.g. PostgreSQL) into a Recorder
type Repository struct {
	contracts.RunRepository
}

// OnRun saves the finished run
func (r Repository) OnRun(ctx context.Context, run *contracts.ScreeningRun) error {
	_, err := r.SaveRun(ctx, run)
	return err
}

func (r Repository) Close() error { return nil }
