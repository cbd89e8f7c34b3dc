package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wonny/cruzer/internal/contracts"
	"github.com/wonny/cruzer/internal/data"
	"github.com/wonny/cruzer/pkg/logger"
)

// SQLiteRecorder persists screening runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while a scheduled run writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: log.WithField("module", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.WithField("path", dbPath).Info("SQLite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screening_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			strategy    TEXT    NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			requested   INTEGER NOT NULL,
			succeeded   INTEGER NOT NULL,
			failed      INTEGER NOT NULL,
			no_setup    INTEGER NOT NULL,
			cancelled   INTEGER NOT NULL DEFAULT 0,
			failures    TEXT    NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_strategy ON screening_runs(strategy, finished_at)`,

		`CREATE TABLE IF NOT EXISTS screening_setups (
			run_id  INTEGER NOT NULL REFERENCES screening_runs(id) ON DELETE CASCADE,
			rank    INTEGER NOT NULL,
			symbol  TEXT    NOT NULL,
			score   INTEGER NOT NULL,
			payload TEXT    NOT NULL,
			PRIMARY KEY (run_id, rank)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// SaveRun implements contracts.RunRepository
func (r *SQLiteRecorder) SaveRun(ctx context.Context, run *contracts.ScreeningRun) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	failures := run.Failures
	if failures == nil {
		failures = []contracts.SymbolFailure{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return 0, fmt.Errorf("marshal failures: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO screening_runs
		(strategy, started_at, finished_at, requested, succeeded, failed, no_setup, cancelled, failures)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		string(run.Strategy), run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.Requested, run.Succeeded, run.Failed, run.NoSetup, run.Cancelled, string(failuresJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for i := range run.Setups {
		s := &run.Setups[i]
		payload, err := json.Marshal(s)
		if err != nil {
			return 0, fmt.Errorf("marshal setup %s: %w", s.Symbol, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO screening_setups
			(run_id, rank, symbol, score, payload) VALUES (?,?,?,?,?)`,
			id, i+1, s.Symbol, s.Score, string(payload),
		); err != nil {
			return 0, fmt.Errorf("insert setup %s: %w", s.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	run.ID = id
	return id, nil
}

// LatestRun implements contracts.RunRepository
func (r *SQLiteRecorder) LatestRun(ctx context.Context, strategy contracts.StrategyID) (*contracts.ScreeningRun, error) {
	run := &contracts.ScreeningRun{Strategy: strategy, Setups: []contracts.StockSetup{}}
	var (
		started, finished int64
		failures          string
	)

	err := r.db.QueryRowContext(ctx, `SELECT
		id, started_at, finished_at, requested, succeeded, failed, no_setup, cancelled, failures
		FROM screening_runs WHERE strategy = ?
		ORDER BY finished_at DESC, id DESC LIMIT 1`, string(strategy),
	).Scan(&run.ID, &started, &finished, &run.Requested, &run.Succeeded, &run.Failed,
		&run.NoSetup, &run.Cancelled, &failures)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(strategy)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started).UTC()
	run.FinishedAt = time.UnixMilli(finished).UTC()
	if err := json.Unmarshal([]byte(failures), &run.Failures); err != nil {
		return nil, fmt.Errorf("unmarshal failures: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM screening_setups WHERE run_id = ? ORDER BY rank`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query setups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan setup: %w", err)
		}
		var s contracts.StockSetup
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("unmarshal setup: %w", err)
		}
		run.Setups = append(run.Setups, s)
	}
	return run, rows.Err()
}

// OnRun records every finished run
func (r *SQLiteRecorder) OnRun(ctx context.Context, run *contracts.ScreeningRun) error {
	id, err := r.SaveRun(ctx, run)
	if err != nil {
		return err
	}
	r.logger.WithStrategy(string(run.Strategy)).WithField("run_id", id).Debug("Run recorded")
	return nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("Closing SQLite recorder")
	return r.db.Close()
}

func notFound(strategy contracts.StrategyID) error {
	return fmt.Errorf("run %s: %w", strategy, data.ErrNotFound)
}
