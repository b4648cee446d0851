package trading

import (
	"testing"

	"noren-desk/internal/models"
)

func workingSell(price float64, qty int, status models.OrderStatus) models.WorkingOrder {
	return models.WorkingOrder{
		OrderID:   "26082900001",
		Symbol:    "RELIANCE",
		Segment:   models.NSE,
		Side:      models.OrderSideSell,
		PriceType: models.PriceTypeLimit,
		Quantity:  qty,
		Price:     price,
		Status:    status,
	}
}

func sellIntent(price float64, qty int) *models.OrderIntent {
	return &models.OrderIntent{
		Symbol:    "RELIANCE",
		Segment:   models.NSE,
		Side:      models.OrderSideSell,
		Quantity:  qty,
		Price:     price,
		PriceType: models.PriceTypeLimit,
	}
}

func TestFindDuplicate(t *testing.T) {
	tests := []struct {
		name    string
		intent  *models.OrderIntent
		orders  []models.WorkingOrder
		wantDup bool
	}{
		{
			name:    "exact match on open order",
			intent:  sellIntent(100.00, 10),
			orders:  []models.WorkingOrder{workingSell(100.00, 10, models.StatusOpen)},
			wantDup: true,
		},
		{
			name:    "price within tolerance",
			intent:  sellIntent(100.004, 10),
			orders:  []models.WorkingOrder{workingSell(100.00, 10, models.StatusOpen)},
			wantDup: true,
		},
		{
			name:    "price outside tolerance",
			intent:  sellIntent(101.00, 10),
			orders:  []models.WorkingOrder{workingSell(100.00, 10, models.StatusOpen)},
			wantDup: false,
		},
		{
			name:    "partially filled still counts",
			intent:  sellIntent(100.00, 10),
			orders:  []models.WorkingOrder{workingSell(100.00, 10, models.StatusPartiallyFilled)},
			wantDup: true,
		},
		{
			name:    "filled order does not count",
			intent:  sellIntent(100.00, 10),
			orders:  []models.WorkingOrder{workingSell(100.00, 10, models.StatusFilled)},
			wantDup: false,
		},
		{
			name:    "cancelled order does not count",
			intent:  sellIntent(100.00, 10),
			orders:  []models.WorkingOrder{workingSell(100.00, 10, models.StatusCancelled)},
			wantDup: false,
		},
		{
			name:    "different quantity",
			intent:  sellIntent(100.00, 11),
			orders:  []models.WorkingOrder{workingSell(100.00, 10, models.StatusOpen)},
			wantDup: false,
		},
		{
			name:   "different side",
			intent: &models.OrderIntent{Symbol: "RELIANCE", Segment: models.NSE, Side: models.OrderSideBuy, Quantity: 10, Price: 100.00, PriceType: models.PriceTypeLimit},
			orders: []models.WorkingOrder{workingSell(100.00, 10, models.StatusOpen)},
		},
		{
			name:   "different price type",
			intent: &models.OrderIntent{Symbol: "RELIANCE", Segment: models.NSE, Side: models.OrderSideSell, Quantity: 10, Price: 100.00, PriceType: models.PriceTypeSLLimit},
			orders: []models.WorkingOrder{workingSell(100.00, 10, models.StatusOpen)},
		},
		{
			name:   "different symbol",
			intent: &models.OrderIntent{Symbol: "SBIN", Segment: models.NSE, Side: models.OrderSideSell, Quantity: 10, Price: 100.00, PriceType: models.PriceTypeLimit},
			orders: []models.WorkingOrder{workingSell(100.00, 10, models.StatusOpen)},
		},
		{
			name:    "empty order book",
			intent:  sellIntent(100.00, 10),
			orders:  nil,
			wantDup: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup, found := FindDuplicate(tt.intent, tt.orders, 0.01)
			if found != tt.wantDup {
				t.Errorf("found = %v, want %v", found, tt.wantDup)
			}
			if found && dup.OrderID == "" {
				t.Error("duplicate match must carry the existing order ID")
			}
		})
	}
}

func TestFindDuplicateDefaultTolerance(t *testing.T) {
	intent := sellIntent(100.005, 10)
	orders := []models.WorkingOrder{workingSell(100.00, 10, models.StatusOpen)}
	if _, found := FindDuplicate(intent, orders, 0); !found {
		t.Error("zero tolerance must fall back to the default, matching within 0.01")
	}
}
