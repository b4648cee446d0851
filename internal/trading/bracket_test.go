package trading

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "noren-desk/internal/errors"
	"noren-desk/internal/models"
)

func baseParams() BracketParams {
	return BracketParams{
		Symbol:     "RELIANCE",
		Segment:    models.NSE,
		EntryPrice: 2850,
		Quantity:   10,
		TickSize:   0.05,
		SLPct:      2,
		T1Pct:      4,
		T2Pct:      8,
		Product:    models.ProductDelivery,
	}
}

func TestBuildBracketLegPrices(t *testing.T) {
	b, err := BuildBracket(baseParams())
	if err != nil {
		t.Fatalf("BuildBracket: %v", err)
	}

	if b.SL == nil || b.T1 == nil || b.T2 == nil {
		t.Fatalf("expected all three legs, got SL=%v T1=%v T2=%v", b.SL, b.T1, b.T2)
	}

	// SL trigger 2% below 2850 = 2793, limit a further 0.2% of entry below.
	if got := b.SL.TriggerPrice; math.Abs(got-2793.00) > 1e-9 {
		t.Errorf("SL trigger = %v, want 2793.00", got)
	}
	if got := b.SL.Price; math.Abs(got-2787.30) > 1e-9 {
		t.Errorf("SL limit = %v, want 2787.30", got)
	}
	if b.SL.Price >= b.SL.TriggerPrice {
		t.Errorf("SL limit %v must sit below trigger %v", b.SL.Price, b.SL.TriggerPrice)
	}
	if b.SL.PriceType != models.PriceTypeSLLimit {
		t.Errorf("SL price type = %v, want SL-LIMIT", b.SL.PriceType)
	}

	if got := b.T1.Price; math.Abs(got-2964.00) > 1e-9 {
		t.Errorf("T1 price = %v, want 2964.00", got)
	}
	if got := b.T2.Price; math.Abs(got-3078.00) > 1e-9 {
		t.Errorf("T2 price = %v, want 3078.00", got)
	}

	for _, leg := range b.Legs() {
		if leg.Intent.Side != models.OrderSideSell {
			t.Errorf("%s side = %v, want SELL", leg.Name, leg.Intent.Side)
		}
	}
}

func TestBuildBracketQuantitySplit(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantT1   int
		wantT2   int
	}{
		{"even split", 10, 5, 5},
		{"odd quantity remainder to T2", 7, 3, 4},
		{"single share all to T2", 1, 0, 1},
		{"three shares", 3, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			p.Quantity = tt.quantity
			b, err := BuildBracket(p)
			if err != nil {
				t.Fatalf("BuildBracket: %v", err)
			}

			if b.SL.Quantity != tt.quantity {
				t.Errorf("SL qty = %d, want full %d", b.SL.Quantity, tt.quantity)
			}

			t1Qty := 0
			if b.T1 != nil {
				t1Qty = b.T1.Quantity
			}
			t2Qty := 0
			if b.T2 != nil {
				t2Qty = b.T2.Quantity
			}
			if t1Qty != tt.wantT1 || t2Qty != tt.wantT2 {
				t.Errorf("split = %d/%d, want %d/%d", t1Qty, t2Qty, tt.wantT1, tt.wantT2)
			}
		})
	}
}

func TestBuildBracketValidation(t *testing.T) {
	t.Run("zero entry price", func(t *testing.T) {
		p := baseParams()
		p.EntryPrice = 0
		_, err := BuildBracket(p)
		var ve *apperrors.ValidationError
		if !apperrors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if ve.Field != "entry_price" {
			t.Errorf("field = %q, want entry_price", ve.Field)
		}
	})

	t.Run("zero quantity", func(t *testing.T) {
		p := baseParams()
		p.Quantity = 0
		if _, err := BuildBracket(p); err == nil {
			t.Fatal("expected error for zero quantity")
		}
	})

	t.Run("leg quantity exceeds position", func(t *testing.T) {
		p := baseParams()
		p.T1Qty = 11
		if _, err := BuildBracket(p); err == nil {
			t.Fatal("expected error for oversized T1 quantity")
		}
	})
}

func TestBuildBracketSLMarket(t *testing.T) {
	p := baseParams()
	p.SLMarket = true
	b, err := BuildBracket(p)
	if err != nil {
		t.Fatalf("BuildBracket: %v", err)
	}
	if b.SL.PriceType != models.PriceTypeSLMarket {
		t.Errorf("price type = %v, want SL-MARKET", b.SL.PriceType)
	}
	if b.SL.Price != 0 {
		t.Errorf("SL-MARKET price = %v, want 0", b.SL.Price)
	}
	if math.Abs(b.SL.TriggerPrice-2793.00) > 1e-9 {
		t.Errorf("trigger = %v, want 2793.00", b.SL.TriggerPrice)
	}
}

func TestBuildBracketOnlyRequestedLegs(t *testing.T) {
	p := baseParams()
	p.T1Pct = 0
	p.T2Pct = 0
	b, err := BuildBracket(p)
	if err != nil {
		t.Fatalf("BuildBracket: %v", err)
	}
	if b.T1 != nil || b.T2 != nil {
		t.Error("expected no target legs when percentages are zero")
	}
	if len(b.Legs()) != 1 {
		t.Errorf("legs = %d, want 1", len(b.Legs()))
	}
}

func TestBuildBracketProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("SL limit < SL trigger < entry", prop.ForAll(
		func(entry float64, slPct float64) bool {
			b, err := BuildBracket(BracketParams{
				Symbol: "X", Segment: models.NSE,
				EntryPrice: entry, Quantity: 10, TickSize: 0.05,
				SLPct: slPct,
			})
			if err != nil {
				return false
			}
			return b.SL.Price < b.SL.TriggerPrice && b.SL.TriggerPrice < entry
		},
		gen.Float64Range(100, 50000),
		gen.Float64Range(1, 20),
	))

	properties.Property("entry < T1 < T2 when T1% < T2%", prop.ForAll(
		func(entry float64, t1Pct float64) bool {
			t2Pct := t1Pct * 2
			b, err := BuildBracket(BracketParams{
				Symbol: "X", Segment: models.NSE,
				EntryPrice: entry, Quantity: 10, TickSize: 0.05,
				T1Pct: t1Pct, T2Pct: t2Pct,
			})
			if err != nil {
				return false
			}
			return entry < b.T1.Price && b.T1.Price < b.T2.Price
		},
		gen.Float64Range(100, 50000),
		gen.Float64Range(1, 20),
	))

	properties.Property("target quantities sum to the position", prop.ForAll(
		func(qty int) bool {
			b, err := BuildBracket(BracketParams{
				Symbol: "X", Segment: models.NSE,
				EntryPrice: 1000, Quantity: qty, TickSize: 0.05,
				SLPct: 2, T1Pct: 4, T2Pct: 8,
			})
			if err != nil {
				return false
			}
			total := 0
			if b.T1 != nil {
				total += b.T1.Quantity
			}
			if b.T2 != nil {
				total += b.T2.Quantity
			}
			return total == qty && b.SL.Quantity == qty
		},
		gen.IntRange(1, 10000),
	))

	properties.TestingRun(t)
}
