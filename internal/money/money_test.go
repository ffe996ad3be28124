package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"0":      "₱0.00",
		"40":     "₱40.00",
		"1234.5": "₱1234.50",
		"99.999": "₱100.00",
		"0.005":  "₱0.01",
	}
	for in, want := range cases {
		if got := Format(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Format(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatNegative(t *testing.T) {
	if got := FormatNegative(FromInt(100)); got != "-₱100.00" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := FormatNegative(FromInt(-5)); got != "-₱5.00" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestFloat(t *testing.T) {
	if got := Float(decimal.RequireFromString("12.345")); got != 12.35 {
		t.Fatalf("unexpected: %v", got)
	}
}
