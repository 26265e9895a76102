package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists forecast runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so reports can read while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			ticker      TEXT NOT NULL,
			records     INTEGER,
			samples     INTEGER,
			mse         REAL,
			rmse        REAL,
			r2          REAL,
			status      TEXT NOT NULL,
			error_kind  TEXT,
			error_msg   TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON forecast_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker ON forecast_runs(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *ForecastRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := run.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO forecast_runs
		(run_id, timestamp, ticker, records, samples, mse, rmse, r2,
		 status, error_kind, error_msg, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, ts.Unix(), run.Ticker, run.Records, run.Samples,
		run.MSE, run.RMSE, run.R2,
		run.Status, run.ErrorKind, run.ErrorMsg, run.Duration.Milliseconds(),
	)
	return err
}

const selectRuns = `SELECT run_id, timestamp, ticker, records, samples,
	mse, rmse, r2, status, error_kind, error_msg, duration_ms
	FROM forecast_runs`

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]ForecastRun, error) {
	return r.queryRuns(selectRuns+` ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
}

// RunsSince returns the runs recorded at or after since, oldest first.
func (r *SQLiteRecorder) RunsSince(since time.Time) ([]ForecastRun, error) {
	return r.queryRuns(selectRuns+` WHERE timestamp >= ? ORDER BY timestamp, id`, since.Unix())
}

func (r *SQLiteRecorder) queryRuns(query string, args ...any) ([]ForecastRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []ForecastRun
	for rows.Next() {
		var (
			run       ForecastRun
			ts, durMS int64
		)
		if err := rows.Scan(&run.RunID, &ts, &run.Ticker, &run.Records, &run.Samples,
			&run.MSE, &run.RMSE, &run.R2, &run.Status, &run.ErrorKind, &run.ErrorMsg, &durMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Timestamp = time.Unix(ts, 0)
		run.Duration = time.Duration(durMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
