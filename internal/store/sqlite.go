package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"noren-desk/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS watchlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		list_name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		segment TEXT NOT NULL DEFAULT 'NSE',
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(list_name, symbol)
	);

	CREATE TABLE IF NOT EXISTS scan_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ran_at DATETIME NOT NULL,
		watchlist TEXT NOT NULL,
		conditions TEXT NOT NULL,
		scanned INTEGER NOT NULL,
		matched INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		results TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_watchlists_list ON watchlists(list_name);
	CREATE INDEX IF NOT EXISTS idx_scan_runs_ran_at ON scan_runs(ran_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// AddToWatchlist adds a symbol to a named watchlist. Re-adding an
// existing symbol is a no-op.
func (s *SQLiteStore) AddToWatchlist(ctx context.Context, listName, symbol, segment string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO watchlists (list_name, symbol, segment) VALUES (?, ?, ?)`,
		listName, symbol, segment)
	return err
}

// RemoveFromWatchlist removes a symbol from a named watchlist.
func (s *SQLiteStore) RemoveFromWatchlist(ctx context.Context, listName, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM watchlists WHERE list_name = ? AND symbol = ?`,
		listName, symbol)
	return err
}

// GetWatchlist returns the entries of a named watchlist in insertion
// order.
func (s *SQLiteStore) GetWatchlist(ctx context.Context, listName string) ([]WatchlistEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, segment, added_at FROM watchlists WHERE list_name = ? ORDER BY id`,
		listName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []WatchlistEntry
	for rows.Next() {
		var e WatchlistEntry
		if err := rows.Scan(&e.Symbol, &e.Segment, &e.AddedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListWatchlists returns the distinct watchlist names.
func (s *SQLiteStore) ListWatchlists(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT list_name FROM watchlists ORDER BY list_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LogScanRun persists a scan run with its results as JSON.
func (s *SQLiteStore) LogScanRun(ctx context.Context, run *ScanRun) error {
	resultsJSON, err := json.Marshal(run.Results)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_runs (ran_at, watchlist, conditions, scanned, matched, skipped, results)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RanAt, run.Watchlist, run.Conditions, run.Scanned, run.Matched, run.Skipped, string(resultsJSON))
	if err != nil {
		return err
	}

	run.ID, _ = res.LastInsertId()
	return nil
}

// GetScanRuns returns the most recent scan runs, newest first.
func (s *SQLiteStore) GetScanRuns(ctx context.Context, limit int) ([]ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ran_at, watchlist, conditions, scanned, matched, skipped, results
		 FROM scan_runs ORDER BY ran_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var run ScanRun
		var ranAt time.Time
		var resultsJSON sql.NullString
		if err := rows.Scan(&run.ID, &ranAt, &run.Watchlist, &run.Conditions,
			&run.Scanned, &run.Matched, &run.Skipped, &resultsJSON); err != nil {
			return nil, err
		}
		run.RanAt = ranAt
		if resultsJSON.Valid && resultsJSON.String != "" {
			var results []models.ScanResult
			if err := json.Unmarshal([]byte(resultsJSON.String), &results); err == nil {
				run.Results = results
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements DataStore.
var _ DataStore = (*SQLiteStore)(nil)
