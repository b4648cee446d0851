// Package indicators provides the technical indicator calculations used
// by charts and the scanner.
package indicators

import (
	"errors"
	"math"
)

// ErrInvalidPeriod is returned when the period is invalid.
var ErrInvalidPeriod = errors.New("invalid period")

// rsiEpsilon replaces a zero average loss so a monotonic series
// saturates toward 100 instead of dividing by zero.
const rsiEpsilon = 1e-10

// EMA calculates an exponential moving average with smoothing factor
// α = 2/(period+1), seeded with the series' own first value. There is
// no SMA warm-up: downstream ratio thresholds are tuned against the
// recursive-from-first-value form.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) == 0 {
		return nil, nil
	}

	alpha := 2.0 / float64(period+1)
	result := make([]float64, len(values))
	result[0] = values[0]

	for i := 1; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			result[i] = result[i-1]
			continue
		}
		result[i] = alpha*values[i] + (1-alpha)*result[i-1]
	}

	return result, nil
}

// RSI calculates the Relative Strength Index over a simple rolling mean
// of gains and losses. This is deliberately not Wilder's smoothed
// average: scan thresholds were tuned against the rolling-mean form.
// The first `period` values are NaN.
func RSI(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}

	result := make([]float64, len(values))
	for i := range result {
		result[i] = math.NaN()
	}
	if len(values) <= period {
		return result, nil
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := period; i < len(values); i++ {
		avgGain := mean(gains[i-period+1 : i+1])
		avgLoss := mean(losses[i-period+1 : i+1])
		if avgLoss == 0 {
			avgLoss = rsiEpsilon
		}
		rs := avgGain / avgLoss
		result[i] = 100 - 100/(1+rs)
	}

	return result, nil
}

// MACDResult holds the MACD line and its signal line.
type MACDResult struct {
	MACD   []float64
	Signal []float64
}

// MACD calculates EMA(fast) − EMA(slow) with an EMA(signalPeriod)
// signal line of the difference.
func MACD(values []float64, fast, slow, signalPeriod int) (*MACDResult, error) {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 {
		return nil, ErrInvalidPeriod
	}

	fastEMA, err := EMA(values, fast)
	if err != nil {
		return nil, err
	}
	slowEMA, err := EMA(values, slow)
	if err != nil {
		return nil, err
	}

	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signal, err := EMA(macdLine, signalPeriod)
	if err != nil {
		return nil, err
	}

	return &MACDResult{MACD: macdLine, Signal: signal}, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// last returns the final value of a series, or NaN for an empty one.
func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// Last exposes the final value of an indicator series.
func Last(values []float64) float64 {
	return last(values)
}
