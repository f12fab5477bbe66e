package finance

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToDecimal_Defaults(t *testing.T) {
	def := d(t, "1.23")
	cases := []struct {
		name string
		in   interface{}
	}{
		{"nil", nil},
		{"empty string", ""},
		{"none token", "None"},
		{"null token", "NULL"},
		{"lowercase null", "null"},
		{"garbage", "abc"},
		{"invalid NullDecimal", decimal.NullDecimal{}},
		{"nil pointer", (*decimal.Decimal)(nil)},
	}
	for _, tc := range cases {
		if got := ToDecimal(tc.in, def); !got.Equal(def) {
			t.Fatalf("%s: expected default %s, got %s", tc.name, def, got)
		}
	}
}

func TestToDecimal_Values(t *testing.T) {
	cases := []struct {
		name     string
		in       interface{}
		expected string
	}{
		{"string", "12.34", "12.34"},
		{"padded string", "  7.50 ", "7.5"},
		{"float64", float64(2.5), "2.5"},
		{"int", 4, "4"},
		{"int64", int64(-3), "-3"},
		{"decimal", d(t, "9.99"), "9.99"},
		{"valid NullDecimal", nd(t, "0.10"), "0.1"},
	}
	for _, tc := range cases {
		got := ToDecimal(tc.in, Zero)
		if got.String() != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestToMoney_NullIsZero(t *testing.T) {
	if got := ToMoney(decimal.NullDecimal{}); got.StringFixed(2) != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
	if got := ToMoney(nd(t, "5.55")); got.StringFixed(2) != "5.55" {
		t.Fatalf("expected 5.55, got %s", got)
	}
}

func TestRoundMoney_HalfAwayFromZero(t *testing.T) {
	cases := []struct{ in, expected string }{
		{"2.344", "2.34"},
		{"2.345", "2.35"},
		{"2.346", "2.35"},
		{"-2.345", "-2.35"},
		{"0.005", "0.01"},
	}
	for _, tc := range cases {
		if got := RoundMoney(d(t, tc.in)).StringFixed(2); got != tc.expected {
			t.Fatalf("RoundMoney(%s) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}
