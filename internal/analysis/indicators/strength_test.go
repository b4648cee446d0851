package indicators

import (
	"math"
	"testing"
	"time"

	apperrors "noren-desk/internal/errors"
	"noren-desk/internal/models"
)

func dailyBars(start time.Time, closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

func TestRelativeStrength(t *testing.T) {
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	t.Run("outperforming stock", func(t *testing.T) {
		stock := dailyBars(start, []float64{100, 105, 110}) // +10%
		index := dailyBars(start, []float64{200, 205, 210}) // +5%
		rs, err := RelativeStrength(stock, index)
		if err != nil {
			t.Fatalf("RelativeStrength: %v", err)
		}
		want := 1.10 / 1.05
		if math.Abs(rs.Score-want) > 1e-9 {
			t.Errorf("score = %v, want %v", rs.Score, want)
		}
		if rs.Flag != models.RSOutperform {
			t.Errorf("flag = %v, want Outperform", rs.Flag)
		}
		if rs.OverlapDays != 3 {
			t.Errorf("overlap = %d, want 3", rs.OverlapDays)
		}
	})

	t.Run("underperforming stock", func(t *testing.T) {
		stock := dailyBars(start, []float64{100, 101, 102}) // +2%
		index := dailyBars(start, []float64{200, 210, 220}) // +10%
		rs, err := RelativeStrength(stock, index)
		if err != nil {
			t.Fatalf("RelativeStrength: %v", err)
		}
		if rs.Flag != models.RSUnderperform {
			t.Errorf("flag = %v, want Underperform", rs.Flag)
		}
		if rs.Score >= 1 {
			t.Errorf("score = %v, want below 1", rs.Score)
		}
	})

	t.Run("misaligned dates inner-join on the overlap", func(t *testing.T) {
		stock := dailyBars(start, []float64{100, 102, 104, 106})
		// Index is missing the middle two days.
		index := []models.Bar{
			{Timestamp: start, Close: 200},
			{Timestamp: start.AddDate(0, 0, 3), Close: 210},
		}
		rs, err := RelativeStrength(stock, index)
		if err != nil {
			t.Fatalf("RelativeStrength: %v", err)
		}
		if rs.OverlapDays != 2 {
			t.Errorf("overlap = %d, want 2", rs.OverlapDays)
		}
		// Stock 100→106, index 200→210 over the joined days.
		want := (106.0 / 100.0) / (210.0 / 200.0)
		if math.Abs(rs.Score-want) > 1e-9 {
			t.Errorf("score = %v, want %v", rs.Score, want)
		}
	})

	t.Run("no overlap", func(t *testing.T) {
		stock := dailyBars(start, []float64{100, 101})
		index := dailyBars(start.AddDate(0, 1, 0), []float64{200, 201})
		if _, err := RelativeStrength(stock, index); !apperrors.Is(err, apperrors.ErrInsufficientData) {
			t.Errorf("err = %v, want ErrInsufficientData", err)
		}
	})

	t.Run("single overlapping day", func(t *testing.T) {
		stock := dailyBars(start, []float64{100})
		index := dailyBars(start, []float64{200})
		if _, err := RelativeStrength(stock, index); !apperrors.Is(err, apperrors.ErrInsufficientData) {
			t.Errorf("err = %v, want ErrInsufficientData", err)
		}
	})

	t.Run("NaN closes are skipped", func(t *testing.T) {
		stock := dailyBars(start, []float64{100, 105, 110})
		stock[1].Close = math.NaN()
		index := dailyBars(start, []float64{200, 205, 210})
		rs, err := RelativeStrength(stock, index)
		if err != nil {
			t.Fatalf("RelativeStrength: %v", err)
		}
		if rs.OverlapDays != 2 {
			t.Errorf("overlap = %d, want 2 after dropping the NaN close", rs.OverlapDays)
		}
	})
}
