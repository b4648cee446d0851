package trading

import (
	"math"

	"noren-desk/internal/models"
)

// DefaultDuplicatePriceTolerance is the price distance within which a
// working order counts as the same order. Preserved as a configurable
// constant.
const DefaultDuplicatePriceTolerance = 0.01

// FindDuplicate returns the first working order that makes submitting
// the intent redundant: status OPEN or PARTIALLY_FILLED, same symbol,
// segment, side and price type, price within tolerance and the same
// integer quantity. This is a best-effort idempotence guard against
// duplicate clicks, not a transactional guarantee; the gateway offers
// no conditional-create primitive, so the read-then-submit race is an
// accepted limitation.
func FindDuplicate(intent *models.OrderIntent, workingOrders []models.WorkingOrder, tolerance float64) (models.WorkingOrder, bool) {
	if tolerance <= 0 {
		tolerance = DefaultDuplicatePriceTolerance
	}

	for _, wo := range workingOrders {
		if !wo.Status.IsWorking() {
			continue
		}
		if wo.Symbol != intent.Symbol || wo.Segment != intent.Segment {
			continue
		}
		if wo.Side != intent.Side || wo.PriceType != intent.PriceType {
			continue
		}
		if wo.Quantity != intent.Quantity {
			continue
		}
		if math.Abs(wo.Price-intent.Price) > tolerance {
			continue
		}
		return wo, true
	}

	return models.WorkingOrder{}, false
}
