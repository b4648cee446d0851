package models

import "testing"

func TestNormalizeOrderStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want OrderStatus
	}{
		{"OPEN", StatusOpen},
		{"open", StatusOpen},
		{"Open", StatusOpen},
		{"TRIGGER_PENDING", StatusOpen},
		{"Trigger Pending", StatusOpen},
		{"PENDING", StatusOpen},
		{"PARTIALLY FILLED", StatusPartiallyFilled},
		{"PARTIALLY_FILLED", StatusPartiallyFilled},
		{"partially-filled", StatusPartiallyFilled},
		{"PARTIAL FILL", StatusPartiallyFilled},
		{"COMPLETE", StatusFilled},
		{"FILLED", StatusFilled},
		{"Executed", StatusFilled},
		{"CANCELED", StatusCancelled},
		{"CANCELLED", StatusCancelled},
		{"REJECTED", StatusRejected},
		{"reject", StatusRejected},
		{"", StatusUnknown},
		{"SOMETHING ELSE", StatusUnknown},
		{"  open  ", StatusOpen},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeOrderStatus(tt.raw); got != tt.want {
				t.Errorf("NormalizeOrderStatus(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestOrderStatusIsWorking(t *testing.T) {
	working := []OrderStatus{StatusOpen, StatusPartiallyFilled}
	for _, s := range working {
		if !s.IsWorking() {
			t.Errorf("%v should be working", s)
		}
	}
	done := []OrderStatus{StatusFilled, StatusCancelled, StatusRejected, StatusUnknown}
	for _, s := range done {
		if s.IsWorking() {
			t.Errorf("%v should not be working", s)
		}
	}
}

func TestParseSegment(t *testing.T) {
	tests := []struct {
		in     string
		want   Segment
		wantOK bool
	}{
		{"NSE", NSE, true},
		{"nse", NSE, true},
		{" bse ", BSE, true},
		{"NFO", NFO, true},
		{"MCX", MCX, true},
		{"XXX", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSegment(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseSegment(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestHoldingQuantity(t *testing.T) {
	h := Holding{DPQty: 10, T1Qty: 5}
	if got := h.Quantity(); got != 15 {
		t.Errorf("Quantity = %d, want 15", got)
	}
}
