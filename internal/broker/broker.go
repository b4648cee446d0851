// Package broker provides the broker gateway interface and the
// Noren-style HTTP client implementation.
package broker

import (
	"context"
	"time"

	"noren-desk/internal/models"
	"noren-desk/internal/session"
)

// Broker defines the operations of the broker order gateway. Every call
// is a single blocking HTTP round-trip; nothing is retried automatically.
type Broker interface {
	// Authentication
	Login(ctx context.Context) (*session.Session, error)
	Logout(ctx context.Context) error

	// Account reads. Snapshots are fetched fresh on each call.
	Holdings(ctx context.Context) ([]models.Holding, error)
	Positions(ctx context.Context) ([]models.Position, error)
	OrderBook(ctx context.Context) ([]models.WorkingOrder, error)
	TradeBook(ctx context.Context) ([]models.Trade, error)
	Limits(ctx context.Context) (*models.Limits, error)
	Quote(ctx context.Context, segment models.Segment, token string) (*models.Quote, error)

	// Orders
	PlaceOrder(ctx context.Context, intent *models.OrderIntent) (*OrderResult, error)
	ModifyOrder(ctx context.Context, orderID string, intent *models.OrderIntent) error
	CancelOrder(ctx context.Context, orderID string) error
	SquareOff(ctx context.Context, pos models.Position) (*OrderResult, error)

	// Conditional orders
	PlaceGTT(ctx context.Context, gtt *models.GTTOrder) (*GTTResult, error)
	ModifyGTT(ctx context.Context, alertID string, gtt *models.GTTOrder) error
	CancelGTT(ctx context.Context, alertID string) error
	ListGTT(ctx context.Context) ([]models.GTTOrder, error)
	PlaceOCO(ctx context.Context, oco *models.OCOOrder) (*GTTResult, error)

	// Margin
	MarginCalc(ctx context.Context, intent *models.OrderIntent) (*MarginEstimate, error)

	// Historical bars. Rows come back raw; normalization happens in the
	// marketdata fetcher.
	Historical(ctx context.Context, segment models.Segment, token, timeframe string, from, to time.Time) ([]RawBar, error)
}

// OrderResult represents the result of an order placement.
type OrderResult struct {
	OrderID string
	Status  string
	Message string
}

// GTTResult represents the result of a conditional order placement.
type GTTResult struct {
	AlertID string
	Status  string
	Message string
}

// MarginEstimate represents a margin calculation for an order.
type MarginEstimate struct {
	Required  float64
	Available float64
	Shortfall float64
}

// RawBar is one unparsed row from the historical CSV feed:
// [Dateandtime, Open, High, Low, Close, Volume, OpenInterest], no header.
type RawBar struct {
	Timestamp    string
	Open         string
	High         string
	Low          string
	Close        string
	Volume       string
	OpenInterest string
}
