package reconcile

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToDecimal(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{name: "nil", in: nil},
		{name: "float", in: 5050.0, want: "5050", ok: true},
		{name: "int", in: 2000, want: "2000", ok: true},
		{name: "json number", in: json.Number("12.5"), want: "12.5", ok: true},
		{name: "plain string", in: "1000", want: "1000", ok: true},
		{name: "grouped", in: "5,050.00", want: "5050", ok: true},
		{name: "currency code", in: "USD 5,050", want: "5050", ok: true},
		{name: "symbol negative spaced", in: "$ -1 234.50", want: "-1234.5", ok: true},
		{name: "blank", in: "   "},
		{name: "letters only", in: "abc"},
		{name: "double dot", in: "1.2.3"},
		{name: "trailing unit", in: "2000 cartons", want: "2000", ok: true},
		{name: "trailing currency", in: "5,050.00 USD", want: "5050", ok: true},
		{name: "leading dot", in: "$.5", want: "0.5", ok: true},
		{name: "date", in: "2024-01-05"},
		{name: "two quantities", in: "2000 cartons / 40 pallets"},
		{name: "space joined runs", in: "2000 40"},
		{name: "trailing minus", in: "500-"},
		{name: "european grouping", in: "1.000,50"},
		{name: "huge exponent", in: json.Number("1e200000000")},
		{name: "tiny exponent", in: json.Number("1e-200000000")},
		{name: "huge exponent string", in: "1e200000000"},
		{name: "too many digits", in: "123456789012345678901234567890123456789012345"},
		{name: "large exponent in range", in: json.Number("1e25"), want: "10000000000000000000000000", ok: true},
		{name: "huge float", in: 1e300},
		{name: "nan", in: math.NaN()},
		{name: "bool", in: true},
		{name: "map", in: map[string]any{"v": 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDecimal(tc.in)
			if got.Valid != tc.ok {
				t.Fatalf("valid=%v, want %v", got.Valid, tc.ok)
			}
			if !tc.ok {
				return
			}
			if !got.Value.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("got %s, want %s", got.Value, tc.want)
			}
		})
	}
}

func TestToText(t *testing.T) {
	cases := []struct {
		in   any
		want string
		ok   bool
	}{
		{in: " INV-001 ", want: "INV-001", ok: true},
		{in: "", ok: false},
		{in: "  ", ok: false},
		{in: json.Number("20240105"), want: "20240105", ok: true},
		{in: 12.5, want: "12.5", ok: true},
		{in: 7, want: "7", ok: true},
		{in: nil, ok: false},
		{in: []any{"x"}, ok: false},
	}
	for _, tc := range cases {
		got := ToText(tc.in)
		if got.Valid != tc.ok || got.Value != tc.want {
			t.Fatalf("ToText(%#v) = %#v, want %q ok=%v", tc.in, got, tc.want, tc.ok)
		}
	}
}
