package trading

import (
	"context"

	"github.com/rs/zerolog"

	"noren-desk/internal/broker"
	"noren-desk/internal/models"
)

// LegResult reports the outcome of one bracket leg. Legs are
// independent: one leg's rejection never blocks or rolls back the
// others.
type LegResult struct {
	Leg     string
	OrderID string
	Skipped bool
	Reason  string
	Err     error
}

// Submitter places bracket legs against the gateway with duplicate
// suppression.
type Submitter struct {
	broker    broker.Broker
	tolerance float64
	logger    zerolog.Logger
}

// NewSubmitter creates a submitter. tolerance <= 0 takes the default.
func NewSubmitter(b broker.Broker, tolerance float64, logger zerolog.Logger) *Submitter {
	if tolerance <= 0 {
		tolerance = DefaultDuplicatePriceTolerance
	}
	return &Submitter{
		broker:    b,
		tolerance: tolerance,
		logger:    logger,
	}
}

// SubmitBracket checks each leg against a fresh working-order snapshot
// and submits the non-duplicates sequentially. Every leg gets its own
// result; errors are carried per leg and never propagated as a run
// failure.
func (s *Submitter) SubmitBracket(ctx context.Context, b *Bracket) []LegResult {
	// Fresh snapshot immediately before submission.
	workingOrders, err := s.broker.OrderBook(ctx)
	if err != nil {
		// Without a snapshot the duplicate check cannot run; submit
		// nothing rather than risk doubled orders.
		var results []LegResult
		for _, leg := range b.Legs() {
			results = append(results, LegResult{Leg: leg.Name, Err: err})
		}
		return results
	}

	return s.submitLegs(ctx, b, workingOrders)
}

// SubmitBracketWith runs the same per-leg flow against a caller-supplied
// order snapshot.
func (s *Submitter) SubmitBracketWith(ctx context.Context, b *Bracket, workingOrders []models.WorkingOrder) []LegResult {
	return s.submitLegs(ctx, b, workingOrders)
}

func (s *Submitter) submitLegs(ctx context.Context, b *Bracket, workingOrders []models.WorkingOrder) []LegResult {
	var results []LegResult

	for _, leg := range b.Legs() {
		if dup, found := FindDuplicate(leg.Intent, workingOrders, s.tolerance); found {
			s.logger.Info().
				Str("leg", leg.Name).
				Str("symbol", leg.Intent.Symbol).
				Str("existing_order", dup.OrderID).
				Msg("Leg suppressed, equivalent working order exists")
			results = append(results, LegResult{
				Leg:     leg.Name,
				Skipped: true,
				Reason:  "equivalent working order " + dup.OrderID,
			})
			continue
		}

		res, err := s.broker.PlaceOrder(ctx, leg.Intent)
		if err != nil {
			s.logger.Warn().Err(err).Str("leg", leg.Name).Str("symbol", leg.Intent.Symbol).Msg("Leg rejected")
			results = append(results, LegResult{Leg: leg.Name, Err: err})
			continue
		}

		results = append(results, LegResult{Leg: leg.Name, OrderID: res.OrderID})
	}

	return results
}
