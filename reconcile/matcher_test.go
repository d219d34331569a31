package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) Optional[decimal.Decimal] {
	return Some(decimal.RequireFromString(s))
}

func verdictFor(t *testing.T, verdicts []FieldVerdict, f Field) FieldVerdict {
	t.Helper()
	for _, v := range verdicts {
		if v.Field == f {
			return v
		}
	}
	t.Fatalf("no verdict for %s in %#v", f, verdicts)
	return FieldVerdict{}
}

func TestMatchAmountTolerance(t *testing.T) {
	order := OrderValues{TotalAmount: dec("1000")}
	cases := []struct {
		extracted string
		want      Outcome
	}{
		{"981", Matched},
		{"990.5", Matched},
		{"1000", Matched},
		{"1019", Matched},
		{"980", Mismatched},
		{"1020", Mismatched},
		{"950", Mismatched},
	}
	for _, tc := range cases {
		verdicts := Match(order, ExtractedFieldSet{TotalAmount: dec(tc.extracted)}, DefaultThresholds())
		v := verdictFor(t, verdicts, FieldTotalAmount)
		if v.Match != tc.want {
			t.Fatalf("amount %s: got %s, want %s", tc.extracted, v.Match, tc.want)
		}
	}
}

func TestMatchQuantityTolerance(t *testing.T) {
	order := OrderValues{TotalQuantity: dec("1000")}
	cases := []struct {
		extracted string
		want      Outcome
		delta     string
	}{
		{"960", Matched, "4"},
		{"800", Mismatched, "20"},
		{"1050", Mismatched, "5"},
	}
	for _, tc := range cases {
		v := verdictFor(t, Match(order, ExtractedFieldSet{TotalQuantity: dec(tc.extracted)}, DefaultThresholds()), FieldTotalQuantity)
		if v.Match != tc.want {
			t.Fatalf("quantity %s: got %s, want %s", tc.extracted, v.Match, tc.want)
		}
		if !v.DeltaPercent.Valid || !v.DeltaPercent.Decimal.Equal(decimal.RequireFromString(tc.delta)) {
			t.Fatalf("quantity %s: delta %v, want %s", tc.extracted, v.DeltaPercent, tc.delta)
		}
	}
}

func TestMatchProductName(t *testing.T) {
	cases := []struct {
		order, extracted string
		want             Outcome
	}{
		{"Kiwi", "premium kiwi fruit", Matched},
		{"Kiwi Gold", "kiwi", Matched},
		{"KIWI", "Kiwi", Matched},
		{"Kiwi", "Apples", Mismatched},
	}
	for _, tc := range cases {
		v := verdictFor(t, Match(
			OrderValues{ProductName: Some(tc.order)},
			ExtractedFieldSet{ProductName: Some(tc.extracted)},
			DefaultThresholds(),
		), FieldProductName)
		if v.Match != tc.want {
			t.Fatalf("%q vs %q: got %s, want %s", tc.order, tc.extracted, v.Match, tc.want)
		}
		if v.DeltaPercent.Valid {
			t.Fatalf("product name must not carry a delta")
		}
	}
}

func TestMatchZeroOrderAmountIsNotComparable(t *testing.T) {
	verdicts := Match(
		OrderValues{TotalAmount: dec("0"), TotalQuantity: dec("0")},
		ExtractedFieldSet{TotalAmount: dec("500"), TotalQuantity: dec("10")},
		DefaultThresholds(),
	)
	if len(verdicts) != 0 {
		t.Fatalf("expected no verdicts, got %#v", verdicts)
	}
	res := Score(verdicts, DefaultThresholds())
	if res.ChecksConsidered != 0 || res.MatchPercentage != 0 || res.Disposition != DispositionNoData {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestMatchSkipsOneSidedScoredFields(t *testing.T) {
	verdicts := Match(
		OrderValues{TotalAmount: dec("1000")},
		ExtractedFieldSet{ProductName: Some("Kiwi"), TotalQuantity: dec("10")},
		DefaultThresholds(),
	)
	if len(verdicts) != 0 {
		t.Fatalf("expected no verdicts, got %#v", verdicts)
	}
}

func TestMatchInformationalFields(t *testing.T) {
	verdicts := Match(
		OrderValues{TotalAmount: dec("1000")},
		ExtractedFieldSet{
			TotalAmount:   dec("1000"),
			InvoiceNumber: Some("INV-001"),
			InvoiceDate:   Some("2024-01-05"),
		},
		DefaultThresholds(),
	)
	if len(verdicts) != 3 {
		t.Fatalf("expected 3 verdicts, got %d", len(verdicts))
	}
	for _, f := range []Field{FieldInvoiceNumber, FieldInvoiceDate} {
		v := verdictFor(t, verdicts, f)
		if v.Match != Informational || v.OrderValue != "N/A" {
			t.Fatalf("%s: %#v", f, v)
		}
	}
	res := Score(verdicts, DefaultThresholds())
	if res.ChecksConsidered != 1 || res.ChecksMatched != 1 {
		t.Fatalf("informational fields must not be scored: %#v", res)
	}
}

func TestMatchVerdictOrderAndDisplay(t *testing.T) {
	verdicts := Match(
		OrderValues{TotalAmount: dec("5000"), ProductName: Some("Kiwi"), TotalQuantity: dec("2000")},
		ExtractedFieldSet{
			TotalAmount:   dec("5050"),
			ProductName:   Some("Kiwi Premium"),
			TotalQuantity: dec("2000"),
			InvoiceNumber: Some("INV-001"),
			InvoiceDate:   Some("2024-01-05"),
		},
		DefaultThresholds(),
	)
	want := []Field{FieldTotalAmount, FieldProductName, FieldTotalQuantity, FieldInvoiceNumber, FieldInvoiceDate}
	if len(verdicts) != len(want) {
		t.Fatalf("got %d verdicts", len(verdicts))
	}
	for i, f := range want {
		if verdicts[i].Field != f {
			t.Fatalf("verdict %d: got %s, want %s", i, verdicts[i].Field, f)
		}
	}
	if verdicts[0].OrderValue != "5000.00" || verdicts[0].ExtractedValue != "5050.00" {
		t.Fatalf("amount display: %#v", verdicts[0])
	}
	if verdicts[2].OrderValue != "2,000 boxes" {
		t.Fatalf("quantity display: %q", verdicts[2].OrderValue)
	}
}

func TestCustomThresholds(t *testing.T) {
	th := Thresholds{AmountTolerancePercent: decimal.NewFromInt(10)}
	v := verdictFor(t, Match(OrderValues{TotalAmount: dec("1000")}, ExtractedFieldSet{TotalAmount: dec("950")}, th), FieldTotalAmount)
	if v.Match != Matched {
		t.Fatalf("5%% diff should match under a 10%% tolerance, got %s", v.Match)
	}
}
