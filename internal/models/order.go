package models

import (
	"strings"
	"time"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// PriceType represents the pricing mode of an order.
type PriceType string

const (
	PriceTypeMarket   PriceType = "MARKET"
	PriceTypeLimit    PriceType = "LIMIT"
	PriceTypeSLLimit  PriceType = "SL-LIMIT"
	PriceTypeSLMarket PriceType = "SL-MARKET"
)

// ProductType represents the product type of an order.
type ProductType string

const (
	ProductIntraday ProductType = "I" // MIS
	ProductDelivery ProductType = "C" // CNC
	ProductNormal   ProductType = "M" // NRML
)

// OrderStatus is the normalized status of a working order.
type OrderStatus string

const (
	StatusOpen            OrderStatus = "OPEN"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
	StatusUnknown         OrderStatus = "UNKNOWN"
)

// NormalizeOrderStatus maps broker status strings onto the closed status
// set. Matching is case-insensitive and ignores interior spaces and
// underscores, so "Partially Filled", "PARTIALLY_FILLED" and "open" all
// normalize.
func NormalizeOrderStatus(raw string) OrderStatus {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
	switch s {
	case "OPEN", "TRIGGERPENDING", "PENDING":
		return StatusOpen
	case "PARTIALLYFILLED", "PARTIALFILL":
		return StatusPartiallyFilled
	case "COMPLETE", "FILLED", "EXECUTED":
		return StatusFilled
	case "CANCELED", "CANCELLED":
		return StatusCancelled
	case "REJECTED", "REJECT":
		return StatusRejected
	}
	return StatusUnknown
}

// IsWorking reports whether the status represents an order still resting
// on the book.
func (s OrderStatus) IsWorking() bool {
	return s == StatusOpen || s == StatusPartiallyFilled
}

// OrderIntent is a fresh order to submit. It is constructed per
// submission, sent once, and discarded.
type OrderIntent struct {
	Symbol       string
	Segment      Segment
	Side         OrderSide
	Quantity     int
	Price        float64
	PriceType    PriceType
	Product      ProductType
	TriggerPrice float64
	Remarks      string
	AMO          bool
}

// WorkingOrder is a read-only order book snapshot entry used for
// duplicate detection and display.
type WorkingOrder struct {
	OrderID   string
	Symbol    string
	Segment   Segment
	Side      OrderSide
	PriceType PriceType
	Product   ProductType
	Quantity  int
	Price     float64
	Trigger   float64
	Status    OrderStatus
	PlacedAt  time.Time
}

// GTTOrder represents a good-till-triggered conditional order.
type GTTOrder struct {
	AlertID      string
	Symbol       string
	Segment      Segment
	Side         OrderSide
	Condition    string // LTP_ABOVE, LTP_BELOW
	AlertPrice   float64
	Quantity     int
	Price        float64
	PriceType    PriceType
	Product      ProductType
	Remarks      string
}

// OCOOrder represents a one-cancels-other pair: a target leg and a
// stoploss leg around an existing position.
type OCOOrder struct {
	Symbol         string
	Segment        Segment
	Side           OrderSide
	Quantity       int
	TargetPrice    float64
	StoplossPrice  float64
	Product        ProductType
	Remarks        string
}
