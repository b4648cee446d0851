package marketdata

import (
	"math"
	"testing"
	"time"

	"noren-desk/internal/broker"
)

var testNow = time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC)

func rawBar(ts, close string) broker.RawBar {
	return broker.RawBar{
		Timestamp: ts,
		Open:      "100", High: "105", Low: "95", Close: close,
		Volume: "10000",
	}
}

func TestNormalizeDropsUnparsableTimestamps(t *testing.T) {
	raw := []broker.RawBar{
		rawBar("25-08-2026", "101"),
		rawBar("not-a-date", "102"),
		rawBar("", "103"),
		rawBar("26-08-2026", "104"),
	}

	bars := Normalize(raw, TimeframeDay, testNow)
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}
}

func TestNormalizeDropsFutureBars(t *testing.T) {
	raw := []broker.RawBar{
		rawBar("27-08-2026", "101"),
		rawBar("30-08-2026", "999"), // after testNow
	}

	bars := Normalize(raw, TimeframeDay, testNow)
	if len(bars) != 1 {
		t.Fatalf("bars = %d, want 1", len(bars))
	}
	if bars[0].Close != 101 {
		t.Errorf("kept the wrong bar: close = %v", bars[0].Close)
	}
}

func TestNormalizeDeduplicatesKeepFirst(t *testing.T) {
	raw := []broker.RawBar{
		rawBar("25-08-2026", "101"),
		rawBar("25-08-2026 00:00:00", "999"), // same day after truncation
	}

	bars := Normalize(raw, TimeframeDay, testNow)
	if len(bars) != 1 {
		t.Fatalf("bars = %d, want 1", len(bars))
	}
	if bars[0].Close != 101 {
		t.Errorf("close = %v, want the first occurrence 101", bars[0].Close)
	}
}

func TestNormalizeSortsAscending(t *testing.T) {
	raw := []broker.RawBar{
		rawBar("27-08-2026", "103"),
		rawBar("25-08-2026", "101"),
		rawBar("26-08-2026", "102"),
	}

	bars := Normalize(raw, TimeframeDay, testNow)
	if len(bars) != 3 {
		t.Fatalf("bars = %d, want 3", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Timestamp.Before(bars[i].Timestamp) {
			t.Errorf("bars out of order at %d: %v >= %v", i, bars[i-1].Timestamp, bars[i].Timestamp)
		}
	}
	if bars[0].Close != 101 || bars[2].Close != 103 {
		t.Errorf("order = %v..%v, want 101..103", bars[0].Close, bars[2].Close)
	}
}

func TestNormalizeCoercesBadNumericsToNaN(t *testing.T) {
	raw := []broker.RawBar{
		{Timestamp: "25-08-2026", Open: "100", High: "bad", Low: "", Close: "101", Volume: "x"},
	}

	bars := Normalize(raw, TimeframeDay, testNow)
	if len(bars) != 1 {
		t.Fatalf("bars = %d, want 1 (bad numerics never drop the bar)", len(bars))
	}
	b := bars[0]
	if !math.IsNaN(b.High) || !math.IsNaN(b.Low) || !math.IsNaN(b.Volume) {
		t.Errorf("unparsable fields must coerce to NaN: %+v", b)
	}
	if b.Open != 100 || b.Close != 101 {
		t.Errorf("parsable fields must survive: %+v", b)
	}
}

func TestNormalizeAcceptsWireTimestamp(t *testing.T) {
	// Compact DDMMYYYYHHmm form used by the wire protocol.
	raw := []broker.RawBar{rawBar("250820261030", "101")}

	bars := Normalize(raw, TimeframeDay, testNow)
	if len(bars) != 1 {
		t.Fatalf("bars = %d, want 1", len(bars))
	}
	want := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	if !bars[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v (truncated to midnight)", bars[0].Timestamp, want)
	}
}

func TestTruncateTimestamp(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	wed := time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC)
	sun := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		ts        time.Time
		timeframe string
		want      time.Time
	}{
		{"day truncates to midnight", wed, TimeframeDay, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)},
		{"week truncates to Monday", wed, TimeframeWeek, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		{"Sunday belongs to the prior Monday", sun, TimeframeWeek, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		{"month truncates to the 1st", wed, TimeframeMonth, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateTimestamp(tt.ts, tt.timeframe)
			if !got.Equal(tt.want) {
				t.Errorf("TruncateTimestamp = %v, want %v", got, tt.want)
			}
		})
	}
}
