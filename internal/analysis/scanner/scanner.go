// Package scanner applies threshold and condition rules across a
// watchlist of instruments.
package scanner

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"noren-desk/internal/analysis/indicators"
	"noren-desk/internal/logging"
	"noren-desk/internal/models"
)

// RSIDirection selects which side of the RSI threshold passes.
type RSIDirection string

const (
	RSIAbove RSIDirection = "Above"
	RSIBelow RSIDirection = "Below"
)

// EMARelation is the mutually-exclusive EMA relationship condition.
type EMARelation string

const (
	RelationNone          EMARelation = ""
	PriceAboveEMA20       EMARelation = "price_above_ema20"
	PriceBelowEMA20       EMARelation = "price_below_ema20"
	EMA20AboveEMA50       EMARelation = "ema20_above_ema50"
	EMA20BelowEMA50       EMARelation = "ema20_below_ema50"
)

// Conditions are the scan rules. Each is independently toggleable; an
// instrument must pass ALL enabled conditions. The EMA-ratio pair is
// the base filter: when enabled, both ratios are required.
type Conditions struct {
	EMARatiosEnabled bool
	EMA20LTPRatio    float64
	EMA50EMA20Ratio  float64

	RSIEnabled   bool
	RSIThreshold float64
	RSIDirection RSIDirection
	RSIPeriod    int

	Relation EMARelation
}

// DefaultConditions returns the base filter with the given thresholds.
func DefaultConditions(ema20LTP, ema50EMA20 float64, rsiPeriod int) Conditions {
	return Conditions{
		EMARatiosEnabled: true,
		EMA20LTPRatio:    ema20LTP,
		EMA50EMA20Ratio:  ema50EMA20,
		RSIPeriod:        rsiPeriod,
	}
}

// BarProvider supplies bars for one instrument. Wired to the marketdata
// fetcher in production, faked in tests.
type BarProvider func(ctx context.Context, inst models.Instrument) ([]models.Bar, error)

// Report is the full outcome of a scan run: matches in input order plus
// a skip record per excluded instrument, so partial failures stay
// inspectable.
type Report struct {
	Results []models.ScanResult
	Skips   []models.ScanSkip
	Scanned int
}

// Scanner runs condition scans over a watchlist. Instruments are
// processed sequentially on the calling goroutine, one blocking fetch
// each, so results always arrive in input order.
type Scanner struct {
	provider BarProvider
	index    models.Instrument
	logger   zerolog.Logger
}

// New creates a scanner. index is the benchmark instrument used for the
// relative-strength column.
func New(provider BarProvider, index models.Instrument, logger zerolog.Logger) *Scanner {
	return &Scanner{
		provider: provider,
		index:    index,
		logger:   logger,
	}
}

// Scan evaluates every instrument against the enabled conditions.
// Fetch failures skip the instrument, never the run. The benchmark
// index is skipped when it appears in the list.
func (s *Scanner) Scan(ctx context.Context, instrumentList []models.Instrument, cond Conditions) (*Report, error) {
	start := time.Now()
	report := &Report{}

	// One index fetch for the whole run. Relative strength is display
	// only, so a failed index fetch just leaves the column empty.
	var indexBars []models.Bar
	if s.index.Token != "" {
		bars, err := s.provider(ctx, s.index)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", s.index.Symbol).Msg("Index fetch failed, relative strength unavailable")
		} else {
			indexBars = bars
		}
	}

	for _, inst := range instrumentList {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if s.isIndex(inst) {
			report.Skips = append(report.Skips, models.ScanSkip{Symbol: inst.Symbol, Reason: "benchmark index"})
			continue
		}
		report.Scanned++

		result, skipReason := s.scanInstrument(ctx, inst, cond, indexBars)
		if skipReason != "" {
			report.Skips = append(report.Skips, models.ScanSkip{Symbol: inst.Symbol, Reason: skipReason})
			continue
		}
		if result != nil {
			report.Results = append(report.Results, *result)
		}
	}

	logging.LogScan(s.logger, report.Scanned, len(report.Results), len(report.Skips), time.Since(start))
	return report, nil
}

func (s *Scanner) isIndex(inst models.Instrument) bool {
	return inst.Segment == s.index.Segment &&
		strings.EqualFold(inst.Symbol, s.index.Symbol)
}

// scanInstrument returns (result, "") on a match, (nil, "") on a
// no-match, and (nil, reason) on a skip.
func (s *Scanner) scanInstrument(ctx context.Context, inst models.Instrument, cond Conditions, indexBars []models.Bar) (*models.ScanResult, string) {
	bars, err := s.provider(ctx, inst)
	if err != nil {
		return nil, err.Error()
	}

	closes := closesOf(bars)
	if len(closes) < 2 {
		return nil, "insufficient data"
	}

	ltp := closes[len(closes)-1]
	if math.IsNaN(ltp) || ltp <= 0 {
		return nil, "no usable last price"
	}

	ema20Series, err := indicators.EMA(closes, 20)
	if err != nil {
		return nil, err.Error()
	}
	ema50Series, err := indicators.EMA(closes, 50)
	if err != nil {
		return nil, err.Error()
	}
	ema20 := indicators.Last(ema20Series)
	ema50 := indicators.Last(ema50Series)

	rsiPeriod := cond.RSIPeriod
	if rsiPeriod <= 0 {
		rsiPeriod = 14
	}
	rsiSeries, err := indicators.RSI(closes, rsiPeriod)
	if err != nil {
		return nil, err.Error()
	}
	rsi := indicators.Last(rsiSeries)

	var matched []string

	if cond.EMARatiosEnabled {
		if ema20/ltp <= cond.EMA20LTPRatio || ema50/ema20 <= cond.EMA50EMA20Ratio {
			return nil, ""
		}
		matched = append(matched,
			fmt.Sprintf("20EMA/LTP > %.2f", cond.EMA20LTPRatio),
			fmt.Sprintf("50EMA/20EMA > %.2f", cond.EMA50EMA20Ratio))
	}

	if cond.RSIEnabled {
		if math.IsNaN(rsi) {
			return nil, "insufficient data for RSI"
		}
		switch cond.RSIDirection {
		case RSIBelow:
			if rsi >= cond.RSIThreshold {
				return nil, ""
			}
			matched = append(matched, fmt.Sprintf("RSI < %.0f", cond.RSIThreshold))
		default:
			if rsi <= cond.RSIThreshold {
				return nil, ""
			}
			matched = append(matched, fmt.Sprintf("RSI > %.0f", cond.RSIThreshold))
		}
	}

	if label, ok := checkRelation(cond.Relation, ltp, ema20, ema50); cond.Relation != RelationNone {
		if !ok {
			return nil, ""
		}
		matched = append(matched, label)
	}

	result := &models.ScanResult{
		Symbol:            inst.Symbol,
		Company:           inst.Company,
		LastPrice:         ltp,
		EMA20:             ema20,
		EMA50:             ema50,
		RSI14:             rsi,
		MatchedConditions: matched,
	}

	// Relative strength is attached for display only; it never excludes
	// a result.
	if len(indexBars) > 0 {
		if rs, err := indicators.RelativeStrength(bars, indexBars); err == nil {
			result.RSScore = rs.Score
			result.RSFlag = rs.Flag
		}
	}

	return result, ""
}

func checkRelation(rel EMARelation, ltp, ema20, ema50 float64) (string, bool) {
	switch rel {
	case PriceAboveEMA20:
		return "Price > 20EMA", ltp > ema20
	case PriceBelowEMA20:
		return "Price < 20EMA", ltp < ema20
	case EMA20AboveEMA50:
		return "20EMA > 50EMA", ema20 > ema50
	case EMA20BelowEMA50:
		return "20EMA < 50EMA", ema20 < ema50
	}
	return "", true
}

func closesOf(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
