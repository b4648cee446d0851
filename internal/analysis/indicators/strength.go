package indicators

import (
	"time"

	apperrors "noren-desk/internal/errors"
	"noren-desk/internal/models"
)

// StrengthResult is the relative-strength ratio of an instrument
// against a benchmark index over their overlapping window.
type StrengthResult struct {
	Score        float64
	Flag         models.RSFlag
	OverlapDays  int
	WindowStart  time.Time
	WindowEnd    time.Time
}

// RelativeStrength inner-joins the two bar sequences on date and
// computes (stock return) ÷ (index return) over the overlap. A score
// above 1 flags "Outperform". Fewer than 2 overlapping dates or a zero
// index return yields ErrInsufficientData.
func RelativeStrength(stockBars, indexBars []models.Bar) (*StrengthResult, error) {
	indexByDate := make(map[int64]float64, len(indexBars))
	for _, b := range indexBars {
		if b.HasClose() {
			indexByDate[dateKey(b.Timestamp)] = b.Close
		}
	}

	var (
		stockCloses []float64
		indexCloses []float64
		first, end  time.Time
	)
	for _, b := range stockBars {
		if !b.HasClose() {
			continue
		}
		idx, ok := indexByDate[dateKey(b.Timestamp)]
		if !ok {
			continue
		}
		if len(stockCloses) == 0 {
			first = b.Timestamp
		}
		end = b.Timestamp
		stockCloses = append(stockCloses, b.Close)
		indexCloses = append(indexCloses, idx)
	}

	if len(stockCloses) < 2 {
		return nil, apperrors.ErrInsufficientData
	}

	stockReturn := stockCloses[len(stockCloses)-1] / stockCloses[0]
	indexReturn := indexCloses[len(indexCloses)-1] / indexCloses[0]
	if indexReturn == 0 {
		return nil, apperrors.ErrInsufficientData
	}

	score := stockReturn / indexReturn
	flag := models.RSUnderperform
	if score > 1 {
		flag = models.RSOutperform
	}

	return &StrengthResult{
		Score:       score,
		Flag:        flag,
		OverlapDays: len(stockCloses),
		WindowStart: first,
		WindowEnd:   end,
	}, nil
}

func dateKey(ts time.Time) int64 {
	y, m, d := ts.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}
