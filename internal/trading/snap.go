// Package trading derives tick-aligned bracket orders and guards
// against duplicate submissions.
package trading

import "math"

// SnapToTick rounds a price to the nearest multiple of tickSize
// (half-up at the midpoint), then to 2 decimal places. Snapping is
// idempotent: snapping an already-snapped price returns it unchanged.
func SnapToTick(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return round2(price)
	}
	snapped := math.Floor(price/tickSize+0.5) * tickSize
	return round2(snapped)
}

func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
