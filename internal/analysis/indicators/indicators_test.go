package indicators

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEMA(t *testing.T) {
	t.Run("seeds with the first value", func(t *testing.T) {
		values := []float64{100, 102, 104}
		result, err := EMA(values, 3)
		if err != nil {
			t.Fatalf("EMA: %v", err)
		}
		if result[0] != 100 {
			t.Errorf("result[0] = %v, want the first input value 100", result[0])
		}
		// α = 2/(3+1) = 0.5
		if math.Abs(result[1]-101) > 1e-9 {
			t.Errorf("result[1] = %v, want 101", result[1])
		}
		if math.Abs(result[2]-102.5) > 1e-9 {
			t.Errorf("result[2] = %v, want 102.5", result[2])
		}
	})

	t.Run("NaN input carries the previous value forward", func(t *testing.T) {
		values := []float64{100, math.NaN(), 100}
		result, err := EMA(values, 3)
		if err != nil {
			t.Fatalf("EMA: %v", err)
		}
		if result[1] != 100 {
			t.Errorf("result[1] = %v, want carried 100", result[1])
		}
		if math.IsNaN(result[2]) {
			t.Error("NaN must not poison the rest of the series")
		}
	})

	t.Run("invalid period", func(t *testing.T) {
		if _, err := EMA([]float64{1}, 0); err != ErrInvalidPeriod {
			t.Errorf("err = %v, want ErrInvalidPeriod", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		result, err := EMA(nil, 5)
		if err != nil || result != nil {
			t.Errorf("EMA(nil) = %v, %v; want nil, nil", result, err)
		}
	})
}

func TestEMAConstantSeries(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("EMA of a constant series is that constant", prop.ForAll(
		func(v float64, n int) bool {
			values := make([]float64, n)
			for i := range values {
				values[i] = v
			}
			result, err := EMA(values, 10)
			if err != nil {
				return false
			}
			for _, r := range result {
				if math.Abs(r-v) > 1e-6*math.Abs(v)+1e-9 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(1, 100000),
		gen.IntRange(1, 200),
	))

	properties.Property("EMA stays within the series min/max", prop.ForAll(
		func(raw []float64) bool {
			if len(raw) == 0 {
				return true
			}
			result, err := EMA(raw, 14)
			if err != nil {
				return false
			}
			lo, hi := raw[0], raw[0]
			for _, v := range raw {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			for _, r := range result {
				if r < lo-1e-9 || r > hi+1e-9 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(1, 10000)),
	))

	properties.TestingRun(t)
}

func TestRSI(t *testing.T) {
	t.Run("first period values are NaN", func(t *testing.T) {
		values := []float64{100, 101, 102, 103, 104, 105}
		result, err := RSI(values, 3)
		if err != nil {
			t.Fatalf("RSI: %v", err)
		}
		for i := 0; i < 3; i++ {
			if !math.IsNaN(result[i]) {
				t.Errorf("result[%d] = %v, want NaN warm-up", i, result[i])
			}
		}
		for i := 3; i < len(result); i++ {
			if math.IsNaN(result[i]) {
				t.Errorf("result[%d] is NaN past the warm-up", i)
			}
		}
	})

	t.Run("monotonic rise saturates toward 100", func(t *testing.T) {
		values := make([]float64, 30)
		for i := range values {
			values[i] = 100 + float64(i)
		}
		result, err := RSI(values, 14)
		if err != nil {
			t.Fatalf("RSI: %v", err)
		}
		final := result[len(result)-1]
		if final < 99.9 {
			t.Errorf("RSI of a pure uptrend = %v, want near 100", final)
		}
	})

	t.Run("monotonic fall stays near 0", func(t *testing.T) {
		values := make([]float64, 30)
		for i := range values {
			values[i] = 200 - float64(i)
		}
		result, err := RSI(values, 14)
		if err != nil {
			t.Fatalf("RSI: %v", err)
		}
		final := result[len(result)-1]
		if final > 0.1 {
			t.Errorf("RSI of a pure downtrend = %v, want near 0", final)
		}
	})

	t.Run("too short a series is all NaN", func(t *testing.T) {
		result, err := RSI([]float64{100, 101, 102}, 14)
		if err != nil {
			t.Fatalf("RSI: %v", err)
		}
		for i, v := range result {
			if !math.IsNaN(v) {
				t.Errorf("result[%d] = %v, want NaN", i, v)
			}
		}
	})

	t.Run("invalid period", func(t *testing.T) {
		if _, err := RSI([]float64{1, 2}, 0); err != ErrInvalidPeriod {
			t.Errorf("err = %v, want ErrInvalidPeriod", err)
		}
	})
}

func TestRSIBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(raw []float64) bool {
			result, err := RSI(raw, 14)
			if err != nil {
				return false
			}
			for _, v := range result {
				if math.IsNaN(v) {
					continue
				}
				if v < 0 || v > 100 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(1, 10000)),
	))

	properties.TestingRun(t)
}

func TestMACD(t *testing.T) {
	t.Run("standard 12/26/9", func(t *testing.T) {
		values := make([]float64, 60)
		for i := range values {
			values[i] = 100 + float64(i)*0.5
		}
		result, err := MACD(values, 12, 26, 9)
		if err != nil {
			t.Fatalf("MACD: %v", err)
		}
		if len(result.MACD) != len(values) || len(result.Signal) != len(values) {
			t.Fatalf("series lengths = %d/%d, want %d", len(result.MACD), len(result.Signal), len(values))
		}
		// In a steady uptrend the fast EMA runs above the slow one.
		if Last(result.MACD) <= 0 {
			t.Errorf("MACD in an uptrend = %v, want positive", Last(result.MACD))
		}
	})

	t.Run("flat series gives a zero MACD line", func(t *testing.T) {
		values := make([]float64, 40)
		for i := range values {
			values[i] = 500
		}
		result, err := MACD(values, 12, 26, 9)
		if err != nil {
			t.Fatalf("MACD: %v", err)
		}
		if math.Abs(Last(result.MACD)) > 1e-9 {
			t.Errorf("MACD of a flat series = %v, want 0", Last(result.MACD))
		}
	})

	t.Run("invalid period", func(t *testing.T) {
		if _, err := MACD([]float64{1, 2}, 0, 26, 9); err != ErrInvalidPeriod {
			t.Errorf("err = %v, want ErrInvalidPeriod", err)
		}
	})
}

func TestLast(t *testing.T) {
	if got := Last([]float64{1, 2, 3}); got != 3 {
		t.Errorf("Last = %v, want 3", got)
	}
	if got := Last(nil); !math.IsNaN(got) {
		t.Errorf("Last(nil) = %v, want NaN", got)
	}
}
