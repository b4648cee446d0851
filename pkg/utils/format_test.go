package utils

import (
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatIndianCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{100000, "₹1,00,000.00"},
		{1234567.89, "₹12,34,567.89"},
		{10000000, "₹1,00,00,000.00"},
		{-2500.50, "-₹2,500.50"},
	}

	for _, tt := range tests {
		if got := FormatIndianCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatIndianCurrency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatIndianCurrencyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	indianPattern := regexp.MustCompile(`^(\d{1,2},)*\d{1,3}$`)

	properties.Property("grouping follows the Indian numbering system", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatIndianCurrency(amount)

			if amount >= 0 && !strings.HasPrefix(formatted, "₹") {
				return false
			}
			if amount < 0 && !strings.HasPrefix(formatted, "-₹") {
				return false
			}

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				return false
			}

			numPart := strings.TrimPrefix(parts[0], "-")
			numPart = strings.TrimPrefix(numPart, "₹")
			return indianPattern.MatchString(numPart)
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.TestingRun(t)
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{2.5, "+2.50%"},
		{-1.25, "-1.25%"},
		{0, "0.00%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.value); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatPnL(t *testing.T) {
	if got := FormatPnL(1500); got != "+₹1,500.00" {
		t.Errorf("gain = %q", got)
	}
	if got := FormatPnL(-1500); got != "-₹1,500.00" {
		t.Errorf("loss = %q", got)
	}
	if got := FormatPnL(0); got != "₹0.00" {
		t.Errorf("flat = %q", got)
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(2850.456); got != "2850.46" {
		t.Errorf("FormatPrice = %q", got)
	}
	if got := FormatPrice(math.NaN()); got != "-" {
		t.Errorf("NaN price = %q, want dash", got)
	}
}

func TestFormatQuantity(t *testing.T) {
	if got := FormatQuantity(1234567); got != "12,34,567" {
		t.Errorf("FormatQuantity = %q", got)
	}
	if got := FormatQuantity(500); got != "500" {
		t.Errorf("FormatQuantity = %q", got)
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{50000, "₹50,000.00"},
		{250000, "2.50 L"},
		{15000000, "1.50 Cr"},
		{-20000000, "-2.00 Cr"},
	}
	for _, tt := range tests {
		if got := FormatCompact(tt.amount); got != tt.want {
			t.Errorf("FormatCompact(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
