// Package models provides domain models for the trading desk.
package models

import (
	"math"
	"strings"
	"time"
)

// Segment represents an exchange segment.
type Segment string

const (
	NSE Segment = "NSE"
	BSE Segment = "BSE"
	NFO Segment = "NFO" // NSE F&O
	BFO Segment = "BFO" // BSE F&O
	CDS Segment = "CDS" // Currency
	MCX Segment = "MCX" // Commodity
)

// ParseSegment normalizes a segment string. Matching is case-insensitive
// after trimming; unknown values return false.
func ParseSegment(s string) (Segment, bool) {
	switch Segment(strings.ToUpper(strings.TrimSpace(s))) {
	case NSE:
		return NSE, true
	case BSE:
		return BSE, true
	case NFO:
		return NFO, true
	case BFO:
		return BFO, true
	case CDS:
		return CDS, true
	case MCX:
		return MCX, true
	}
	return "", false
}

// Defaults applied when the scripmaster row leaves them blank.
const (
	DefaultTickSize       = 0.05
	DefaultPricePrecision = 2
)

// Instrument represents a tradeable instrument from the scripmaster.
// Instruments are loaded once at startup and never mutated.
type Instrument struct {
	Segment        Segment
	Token          string
	Symbol         string
	Series         string
	TickSize       float64
	PricePrecision int
	Company        string
}

// Bar represents OHLCV data for one period. Unparsable numeric fields
// are carried as NaN rather than dropping the bar.
type Bar struct {
	Timestamp    time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	OpenInterest float64
}

// Range returns the high-low spread of the bar.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// HasClose reports whether the bar carries a usable close price.
func (b Bar) HasClose() bool {
	return !math.IsNaN(b.Close)
}

// Quote represents a market quote.
type Quote struct {
	Symbol        string
	Segment       Segment
	LTP           float64
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        int64
	ChangePercent float64
	Timestamp     time.Time
}

// Holding represents a delivery holding. Quantity is delivered plus T1.
type Holding struct {
	Symbol       string
	Segment      Segment
	DPQty        int
	T1Qty        int
	AvgBuyPrice  float64
	LTP          float64
	Product      string
}

// Quantity returns the total sellable quantity (DP + T1).
func (h Holding) Quantity() int {
	return h.DPQty + h.T1Qty
}

// Position represents an open position with net quantity.
type Position struct {
	Symbol       string
	Segment      Segment
	Product      string
	NetQty       int
	AvgPrice     float64
	LTP          float64
	PnL          float64
}

// Limits represents account cash/margin limits.
type Limits struct {
	Cash             float64
	Payin            float64
	MarginUsed       float64
	Collateral       float64
}

// Trade represents an executed trade from the trade book.
type Trade struct {
	OrderID  string
	Symbol   string
	Segment  Segment
	Side     OrderSide
	Quantity int
	Price    float64
	Product  string
	TradedAt time.Time
}
