package trading

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"noren-desk/internal/broker"
	"noren-desk/internal/models"
)

// fakeBroker implements the order-book and placement calls used by the
// submitter; the embedded interface panics on anything else.
type fakeBroker struct {
	broker.Broker

	orderBook    []models.WorkingOrder
	orderBookErr error

	placed    []*models.OrderIntent
	rejectOn  map[string]error // keyed by price type
	nextOrder int
}

func (f *fakeBroker) OrderBook(ctx context.Context) ([]models.WorkingOrder, error) {
	if f.orderBookErr != nil {
		return nil, f.orderBookErr
	}
	return f.orderBook, nil
}

func (f *fakeBroker) PlaceOrder(ctx context.Context, intent *models.OrderIntent) (*broker.OrderResult, error) {
	if err := f.rejectOn[string(intent.PriceType)]; err != nil {
		return nil, err
	}
	f.placed = append(f.placed, intent)
	f.nextOrder++
	return &broker.OrderResult{OrderID: fmt.Sprintf("ORD%03d", f.nextOrder), Status: "Ok"}, nil
}

func testBracket(t *testing.T) *Bracket {
	t.Helper()
	b, err := BuildBracket(baseParams())
	if err != nil {
		t.Fatalf("BuildBracket: %v", err)
	}
	return b
}

func TestSubmitBracketAllLegs(t *testing.T) {
	fb := &fakeBroker{}
	s := NewSubmitter(fb, 0.01, zerolog.Nop())

	results := s.SubmitBracket(context.Background(), testBracket(t))

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Err != nil || r.Skipped {
			t.Errorf("%s: unexpected err=%v skipped=%v", r.Leg, r.Err, r.Skipped)
		}
		if r.OrderID == "" {
			t.Errorf("%s: missing order ID", r.Leg)
		}
	}
	if len(fb.placed) != 3 {
		t.Errorf("placed = %d orders, want 3", len(fb.placed))
	}
}

func TestSubmitBracketRejectionIsIndependent(t *testing.T) {
	fb := &fakeBroker{
		rejectOn: map[string]error{
			string(models.PriceTypeSLLimit): errors.New("insufficient margin"),
		},
	}
	s := NewSubmitter(fb, 0.01, zerolog.Nop())

	results := s.SubmitBracket(context.Background(), testBracket(t))

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	byLeg := map[string]LegResult{}
	for _, r := range results {
		byLeg[r.Leg] = r
	}
	if byLeg["SL"].Err == nil {
		t.Error("SL leg should carry the rejection")
	}
	if byLeg["T1"].Err != nil || byLeg["T2"].Err != nil {
		t.Error("target legs must not be blocked by the SL rejection")
	}
	if len(fb.placed) != 2 {
		t.Errorf("placed = %d orders, want 2", len(fb.placed))
	}
}

func TestSubmitBracketSuppressesDuplicateLeg(t *testing.T) {
	b := testBracket(t)
	fb := &fakeBroker{
		orderBook: []models.WorkingOrder{{
			OrderID:   "EXIST1",
			Symbol:    b.T1.Symbol,
			Segment:   b.T1.Segment,
			Side:      b.T1.Side,
			PriceType: b.T1.PriceType,
			Quantity:  b.T1.Quantity,
			Price:     b.T1.Price,
			Status:    models.StatusOpen,
		}},
	}
	s := NewSubmitter(fb, 0.01, zerolog.Nop())

	results := s.SubmitBracket(context.Background(), b)

	byLeg := map[string]LegResult{}
	for _, r := range results {
		byLeg[r.Leg] = r
	}
	if !byLeg["T1"].Skipped {
		t.Error("T1 should be suppressed by the equivalent working order")
	}
	if byLeg["T1"].Reason == "" {
		t.Error("suppression must name the existing order")
	}
	if byLeg["SL"].Skipped || byLeg["T2"].Skipped {
		t.Error("other legs must still submit")
	}
	if len(fb.placed) != 2 {
		t.Errorf("placed = %d orders, want 2", len(fb.placed))
	}
}

func TestSubmitBracketSnapshotFailureSubmitsNothing(t *testing.T) {
	fb := &fakeBroker{orderBookErr: errors.New("gateway timeout")}
	s := NewSubmitter(fb, 0.01, zerolog.Nop())

	results := s.SubmitBracket(context.Background(), testBracket(t))

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Err == nil {
			t.Errorf("%s: expected the snapshot error", r.Leg)
		}
	}
	if len(fb.placed) != 0 {
		t.Errorf("placed = %d orders, want 0 when the snapshot fails", len(fb.placed))
	}
}
