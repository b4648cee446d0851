// Package store provides local persistence for watchlists and scan
// history.
package store

import (
	"context"
	"time"

	"noren-desk/internal/models"
)

// DataStore defines the local persistence operations.
type DataStore interface {
	// Watchlists
	AddToWatchlist(ctx context.Context, listName, symbol, segment string) error
	RemoveFromWatchlist(ctx context.Context, listName, symbol string) error
	GetWatchlist(ctx context.Context, listName string) ([]WatchlistEntry, error)
	ListWatchlists(ctx context.Context) ([]string, error)

	// Scan history
	LogScanRun(ctx context.Context, run *ScanRun) error
	GetScanRuns(ctx context.Context, limit int) ([]ScanRun, error)

	// Lifecycle
	Close() error
}

// WatchlistEntry is one symbol in a named watchlist.
type WatchlistEntry struct {
	Symbol  string
	Segment string
	AddedAt time.Time
}

// ScanRun records one scan execution for later review.
type ScanRun struct {
	ID         int64
	RanAt      time.Time
	Watchlist  string
	Conditions string
	Scanned    int
	Matched    int
	Skipped    int
	Results    []models.ScanResult
}
