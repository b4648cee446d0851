package trading

import (
	apperrors "noren-desk/internal/errors"
	"noren-desk/internal/models"
)

// DefaultSLLimitOffsetPct is the extra percent below the SL trigger
// applied to the stop-limit price, giving the limit order room to fill
// below the trigger. Preserved as a configurable constant.
const DefaultSLLimitOffsetPct = 0.2

// BracketParams are the inputs to bracket construction. Percentages are
// relative to the entry price; quantities of zero take the defaults
// (half to T1, remainder to T2, full quantity on the SL leg).
type BracketParams struct {
	Symbol     string
	Segment    models.Segment
	EntryPrice float64
	Quantity   int
	TickSize   float64

	SLPct float64
	T1Pct float64
	T2Pct float64

	SLQty int
	T1Qty int
	T2Qty int

	// SLMarket switches the stop leg to SL-MARKET: the submitted price
	// is forced to 0 and only the trigger matters.
	SLMarket bool

	SLLimitOffsetPct float64
	Product          models.ProductType
	Remarks          string
	AMO              bool
}

// Bracket is the constructed three-leg protective set for a long
// position: one stop-loss and two target sell legs.
type Bracket struct {
	SL *models.OrderIntent
	T1 *models.OrderIntent
	T2 *models.OrderIntent
}

// Legs returns the non-nil legs with their labels, in submission order.
func (b *Bracket) Legs() []NamedLeg {
	var legs []NamedLeg
	if b.SL != nil {
		legs = append(legs, NamedLeg{Name: "SL", Intent: b.SL})
	}
	if b.T1 != nil {
		legs = append(legs, NamedLeg{Name: "T1", Intent: b.T1})
	}
	if b.T2 != nil {
		legs = append(legs, NamedLeg{Name: "T2", Intent: b.T2})
	}
	return legs
}

// NamedLeg pairs a bracket leg with its label.
type NamedLeg struct {
	Name   string
	Intent *models.OrderIntent
}

// BuildBracket derives tick-aligned SL and target orders from
// percentage inputs. The entry price must be known at build time: a
// zero entry (a holding with no recorded average price whose manual
// entry was left blank) is a validation error, not a silent zero-priced
// order.
func BuildBracket(p BracketParams) (*Bracket, error) {
	if p.EntryPrice <= 0 {
		return nil, apperrors.NewValidationError("entry_price", p.EntryPrice, "entry price is required")
	}
	if p.Quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity", p.Quantity, "must be positive")
	}
	if p.SLQty > p.Quantity {
		return nil, apperrors.NewValidationError("sl_qty", p.SLQty, "exceeds position quantity")
	}
	if p.T1Qty > p.Quantity {
		return nil, apperrors.NewValidationError("t1_qty", p.T1Qty, "exceeds position quantity")
	}
	if p.T2Qty > p.Quantity {
		return nil, apperrors.NewValidationError("t2_qty", p.T2Qty, "exceeds position quantity")
	}

	tick := p.TickSize
	if tick <= 0 {
		tick = models.DefaultTickSize
	}
	offset := p.SLLimitOffsetPct
	if offset <= 0 {
		offset = DefaultSLLimitOffsetPct
	}

	slQty := p.SLQty
	if slQty == 0 {
		slQty = p.Quantity
	}
	t1Qty := p.T1Qty
	if t1Qty == 0 {
		t1Qty = p.Quantity / 2
	}
	t2Qty := p.T2Qty
	if t2Qty == 0 {
		t2Qty = p.Quantity - t1Qty
	}

	b := &Bracket{}

	if p.SLPct > 0 {
		trigger := SnapToTick(p.EntryPrice*(1-p.SLPct/100), tick)
		price := SnapToTick(p.EntryPrice*(1-(p.SLPct+offset)/100), tick)
		priceType := models.PriceTypeSLLimit
		if p.SLMarket {
			priceType = models.PriceTypeSLMarket
			price = 0
		}
		b.SL = &models.OrderIntent{
			Symbol:       p.Symbol,
			Segment:      p.Segment,
			Side:         models.OrderSideSell,
			Quantity:     slQty,
			Price:        price,
			PriceType:    priceType,
			Product:      p.Product,
			TriggerPrice: trigger,
			Remarks:      p.Remarks,
			AMO:          p.AMO,
		}
	}

	if p.T1Pct > 0 && t1Qty > 0 {
		b.T1 = &models.OrderIntent{
			Symbol:    p.Symbol,
			Segment:   p.Segment,
			Side:      models.OrderSideSell,
			Quantity:  t1Qty,
			Price:     SnapToTick(p.EntryPrice*(1+p.T1Pct/100), tick),
			PriceType: models.PriceTypeLimit,
			Product:   p.Product,
			Remarks:   p.Remarks,
			AMO:       p.AMO,
		}
	}

	if p.T2Pct > 0 && t2Qty > 0 {
		b.T2 = &models.OrderIntent{
			Symbol:    p.Symbol,
			Segment:   p.Segment,
			Side:      models.OrderSideSell,
			Quantity:  t2Qty,
			Price:     SnapToTick(p.EntryPrice*(1+p.T2Pct/100), tick),
			PriceType: models.PriceTypeLimit,
			Product:   p.Product,
			Remarks:   p.Remarks,
			AMO:       p.AMO,
		}
	}

	return b, nil
}
