// Package data persists daily bars and screening runs in PostgreSQL and
// provides the cached, store-first bar sources the engine reads from.
package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/cruzer/internal/contracts"
)

// ErrNotFound is returned when a symbol or run has no stored rows
var ErrNotFound = errors.New("not found")

// BarRepository implements contracts.BarRepository
// ⭐ SSOT: 일봉 저장소는 여기서만
type BarRepository struct {
	pool *pgxpool.Pool
}

// NewBarRepository creates a new bar repository
func NewBarRepository(pool *pgxpool.Pool) *BarRepository {
	return &BarRepository{pool: pool}
}

// SaveBars upserts the bars in one batch and returns the number written
func (r *BarRepository) SaveBars(ctx context.Context, symbol string, bars contracts.Bars) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	symbol = strings.ToUpper(symbol)

	query := `
		INSERT INTO market.daily_bars (symbol, trade_date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query,
			symbol, b.Date,
			decimal.NewFromFloat(b.Open), decimal.NewFromFloat(b.High),
			decimal.NewFromFloat(b.Low), decimal.NewFromFloat(b.Close),
			int64(b.Volume),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range bars {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert bar %s %s: %w", symbol, bars[i].Date.Format("2006-01-02"), err)
		}
	}
	return len(bars), nil
}

// LoadBars returns bars on or after from, date ascending
func (r *BarRepository) LoadBars(ctx context.Context, symbol string, from time.Time) (contracts.Bars, error) {
	query := `
		SELECT trade_date, open, high, low, close, volume
		FROM market.daily_bars
		WHERE symbol = $1 AND trade_date >= $2
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, strings.ToUpper(symbol), from)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars contracts.Bars
	for rows.Next() {
		var (
			date       time.Time
			o, h, l, c decimal.Decimal
			volume     int64
		)
		if err := rows.Scan(&date, &o, &h, &l, &c, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, contracts.Bar{
			Date:   date.UTC(),
			Open:   o.InexactFloat64(),
			High:   h.InexactFloat64(),
			Low:    l.InexactFloat64(),
			Close:  c.InexactFloat64(),
			Volume: float64(volume),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}
	return bars, nil
}

// LatestDate returns the most recent stored trade date
func (r *BarRepository) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(trade_date) FROM market.daily_bars WHERE symbol = $1`,
		strings.ToUpper(symbol),
	).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest date: %w", err)
	}
	if latest == nil {
		return time.Time{}, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return latest.UTC(), nil
}
