package indicators

import (
	"fmt"
	"math"

	apperrors "noren-desk/internal/errors"
	"noren-desk/internal/models"
)

// Distribution detector thresholds over the trailing window.
const (
	reversalVolumeFactor = 1.5  // high-volume reversal / heavy-volume down
	churnVolumeFactor    = 1.8  // churning
	churnBodyFraction    = 0.15 // close-open change vs bar range
	lowerQuarter         = 0.25
	heavyDownChangePct   = -3.0
)

// DistributionSignals inspects the trailing `lookback` bars for
// distribution and reversal behavior. The warnings slice is the primary
// output; the counters back it up. Returns ErrInsufficientData when
// lookback exceeds the available bars.
func DistributionSignals(bars []models.Bar, lookback int) (*models.DistributionReport, error) {
	if lookback < 2 {
		return nil, ErrInvalidPeriod
	}
	if lookback > len(bars) {
		return nil, apperrors.ErrInsufficientData
	}

	window := bars[len(bars)-lookback:]
	report := &models.DistributionReport{Lookback: lookback}

	avgVolume := windowAvgVolume(window)

	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1], window[i]
		if !prev.HasClose() || !cur.HasClose() {
			continue
		}

		if cur.Close > prev.Close {
			report.UpDays++
		} else if cur.Close < prev.Close {
			report.DownDays++
		}

		if prev.Close > 0 {
			gain := (cur.Close - prev.Close) / prev.Close * 100
			if gain > report.MaxDayGainPct {
				report.MaxDayGainPct = gain
			}
		}

		if spread := cur.Range(); !math.IsNaN(spread) && spread > report.MaxSpread {
			report.MaxSpread = spread
		}

		// Exhaustion gap: opens above the prior high, then trades back
		// down into the prior bar's range intraday.
		if cur.Open > prev.High && cur.Low <= prev.High {
			report.ExhaustionGap = true
		}

		// High-volume reversal: heavy volume, a higher high, but the
		// close sits in the lower quarter of the bar's own range.
		if avgVolume > 0 && cur.Volume > reversalVolumeFactor*avgVolume &&
			cur.High > prev.High && cur.Range() > 0 &&
			cur.Close <= cur.Low+lowerQuarter*cur.Range() {
			report.VolumeReversal = true
		}
	}

	if total := report.UpDays + report.DownDays; total > 0 {
		report.UpDayPercent = float64(report.UpDays) / float64(total) * 100
	}

	// Final-bar checks.
	final := window[len(window)-1]
	if avgVolume > 0 && final.HasClose() {
		if final.Volume > churnVolumeFactor*avgVolume && final.Range() > 0 &&
			math.Abs(final.Close-final.Open) < churnBodyFraction*final.Range() {
			report.Churning = true
		}

		if len(window) >= 2 {
			prior := window[len(window)-2]
			if prior.HasClose() && prior.Close > 0 {
				changePct := (final.Close - prior.Close) / prior.Close * 100
				if final.Volume > reversalVolumeFactor*avgVolume && changePct < heavyDownChangePct {
					report.HeavyVolumeDown = true
				}
			}
		}
	}

	if report.ExhaustionGap {
		report.Warnings = append(report.Warnings,
			"Exhaustion gap: a bar gapped above the prior high and fell back into the prior range")
	}
	if report.VolumeReversal {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"High-volume reversal: volume above %.1fx average with a higher high but a weak close", reversalVolumeFactor))
	}
	if report.Churning {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"Churning: final bar volume above %.1fx average with little price progress", churnVolumeFactor))
	}
	if report.HeavyVolumeDown {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"Heavy-volume down day: final bar volume above %.1fx average with a drop beyond %.0f%%",
			reversalVolumeFactor, -heavyDownChangePct))
	}

	return report, nil
}

func windowAvgVolume(window []models.Bar) float64 {
	var total float64
	var n int
	for _, b := range window {
		if math.IsNaN(b.Volume) {
			continue
		}
		total += b.Volume
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
