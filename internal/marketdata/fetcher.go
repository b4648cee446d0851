// Package marketdata fetches historical bars and normalizes them into
// clean time-ascending sequences.
package marketdata

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"noren-desk/internal/broker"
	"noren-desk/internal/models"
)

// Timeframes supported by the historical feed.
const (
	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

// Accepted layouts for the feed's Dateandtime column. The feed has
// drifted between revisions; all observed forms are tried in order.
var timestampLayouts = []string{
	"02-01-2006 15:04:05",
	"02-01-2006",
	"020120061504",
}

// Fetcher retrieves and normalizes historical bars. The clock is
// injectable so future-bar exclusion is testable.
type Fetcher struct {
	broker broker.Broker
	logger zerolog.Logger
	now    func() time.Time
}

// NewFetcher creates a fetcher backed by the given broker.
func NewFetcher(b broker.Broker, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		broker: b,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the clock. Used by tests.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// Fetch performs one historical request and normalizes the rows:
// unparsable timestamps are dropped, future-dated bars are dropped,
// numeric fields coerce with NaN for unparsable values, duplicates by
// timestamp collapse to the first occurrence, and the result is sorted
// ascending. Upstream failures propagate as *UpstreamError for the
// caller to decide (scanner skips, chart surfaces).
func (f *Fetcher) Fetch(ctx context.Context, segment models.Segment, token, timeframe string, from, to time.Time) ([]models.Bar, error) {
	raw, err := f.broker.Historical(ctx, segment, token, timeframe, from, to)
	if err != nil {
		return nil, err
	}

	return Normalize(raw, timeframe, f.now()), nil
}

// Normalize applies the bar-sequence invariants to raw feed rows.
func Normalize(raw []broker.RawBar, timeframe string, now time.Time) []models.Bar {
	bars := make([]models.Bar, 0, len(raw))
	seen := make(map[int64]bool, len(raw))

	for _, r := range raw {
		ts, ok := parseTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		ts = TruncateTimestamp(ts, timeframe)
		if ts.After(now) {
			continue
		}
		key := ts.Unix()
		if seen[key] {
			continue
		}
		seen[key] = true

		bars = append(bars, models.Bar{
			Timestamp:    ts,
			Open:         coerce(r.Open),
			High:         coerce(r.High),
			Low:          coerce(r.Low),
			Close:        coerce(r.Close),
			Volume:       coerce(r.Volume),
			OpenInterest: coerce(r.OpenInterest),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	return bars
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// TruncateTimestamp truncates a bar timestamp to its period start:
// midnight for day, Monday for week, the 1st for month.
func TruncateTimestamp(ts time.Time, timeframe string) time.Time {
	y, m, d := ts.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, ts.Location())

	switch timeframe {
	case TimeframeWeek:
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week starting the prior Monday
		}
		return day.AddDate(0, 0, -(weekday - 1))
	case TimeframeMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, ts.Location())
	default:
		return day
	}
}

// coerce parses a numeric field, producing NaN for unparsable values so
// missing data propagates downstream instead of failing the fetch.
func coerce(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Closes extracts the close series from a bar sequence.
func Closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
