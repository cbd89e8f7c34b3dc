package contracts

import (
	"context"
	"time"
)

// BarSource supplies daily bars for a symbol
// ⭐ SSOT: 엔진이 사용하는 일봉 공급 인터페이스
type BarSource interface {
	FetchBars(ctx context.Context, symbol string) (Bars, error)
}

// BarSourceFunc adapts a function to BarSource
type BarSourceFunc func(ctx context.Context, symbol string) (Bars, error)

func (f BarSourceFunc) FetchBars(ctx context.Context, symbol string) (Bars, error) {
	return f(ctx, symbol)
}

// BarRepository persists daily bars
type BarRepository interface {
	SaveBars(ctx context.Context, symbol string, bars Bars) (int, error)
	LoadBars(ctx context.Context, symbol string, from time.Time) (Bars, error)
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
}

// RunRepository persists screening runs
type RunRepository interface {
	SaveRun(ctx context.Context, run *ScreeningRun) (int64, error)
	LatestRun(ctx context.Context, strategy StrategyID) (*ScreeningRun, error)
}
