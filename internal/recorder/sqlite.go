package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists screening runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc readers don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			weeks          INTEGER NOT NULL,
			min_return_pct REAL NOT NULL,
			universe_size  INTEGER,
			fetched        INTEGER,
			failed         INTEGER,
			matches        INTEGER,
			duration_ms    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS run_results (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     INTEGER NOT NULL REFERENCES runs(id),
			ticker     TEXT NOT NULL,
			change_pct REAL,
			last_close REAL,
			ref_close  REAL,
			last_date  TEXT,
			ref_date   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON run_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_ticker ON run_results(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts the run header and its matched rows in one transaction.
func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs
		(timestamp, weeks, min_return_pct, universe_size, fetched, failed, matches, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Params.Weeks, rec.Params.MinReturnPct,
		rec.UniverseSize, rec.Fetched, rec.Failed, len(rec.Rows),
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_results
		(run_id, ticker, change_pct, last_close, ref_close, last_date, ref_date)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer stmt.Close()

	for _, row := range rec.Rows {
		if _, err := stmt.Exec(runID, row.Ticker, row.ChangePct,
			row.LastClose, row.RefClose,
			row.LastDate.Format("2006-01-02"), row.RefDate.Format("2006-01-02"),
		); err != nil {
			return fmt.Errorf("insert result %s: %w", row.Ticker, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
