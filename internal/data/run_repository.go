package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/cruzer/internal/contracts"
)

// RunRepository implements contracts.RunRepository on PostgreSQL
// ⭐ SSOT: 스크리닝 실행 이력 저장은 여기서만
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveRun stores the run and its ranked setups in one transaction
func (r *RunRepository) SaveRun(ctx context.Context, run *contracts.ScreeningRun) (int64, error) {
	failures, err := json.Marshal(nonNilFailures(run.Failures))
	if err != nil {
		return 0, fmt.Errorf("marshal failures: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO market.screening_runs (
			strategy, started_at, finished_at,
			requested, succeeded, failed, no_setup, cancelled, failures
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		string(run.Strategy), run.StartedAt, run.FinishedAt,
		run.Requested, run.Succeeded, run.Failed, run.NoSetup, run.Cancelled, failures,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	if len(run.Setups) > 0 {
		batch := &pgx.Batch{}
		for i := range run.Setups {
			payload, err := json.Marshal(&run.Setups[i])
			if err != nil {
				return 0, fmt.Errorf("marshal setup %s: %w", run.Setups[i].Symbol, err)
			}
			batch.Queue(`
				INSERT INTO market.screening_setups (run_id, rank, symbol, payload)
				VALUES ($1, $2, $3, $4)
			`, id, i+1, run.Setups[i].Symbol, payload)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("failed to insert setups: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	run.ID = id
	return id, nil
}

// LatestRun returns the most recent run of a strategy with its setups in rank order
func (r *RunRepository) LatestRun(ctx context.Context, strategy contracts.StrategyID) (*contracts.ScreeningRun, error) {
	run := &contracts.ScreeningRun{Strategy: strategy}
	var failures []byte

	err := r.pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at, requested, succeeded, failed, no_setup, cancelled, failures
		FROM market.screening_runs
		WHERE strategy = $1
		ORDER BY finished_at DESC, id DESC
		LIMIT 1
	`, string(strategy)).Scan(
		&run.ID, &run.StartedAt, &run.FinishedAt,
		&run.Requested, &run.Succeeded, &run.Failed, &run.NoSetup, &run.Cancelled, &failures,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", strategy, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	if err := json.Unmarshal(failures, &run.Failures); err != nil {
		return nil, fmt.Errorf("unmarshal failures: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT payload FROM market.screening_setups
		WHERE run_id = $1
		ORDER BY rank ASC
	`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query setups: %w", err)
	}
	defer rows.Close()

	run.Setups = []contracts.StockSetup{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan setup: %w", err)
		}
		var s contracts.StockSetup
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("unmarshal setup: %w", err)
		}
		run.Setups = append(run.Setups, s)
	}
	return run, rows.Err()
}

func nonNilFailures(f []contracts.SymbolFailure) []contracts.SymbolFailure {
	if f == nil {
		return []contracts.SymbolFailure{}
	}
	return f
}
