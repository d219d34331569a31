package reconcile

import (
	"bytes"
	"encoding/json"
	"testing"
)

const kiwiPayload = `{"total_amount": 5050, "product_name": "Kiwi Premium", "total_quantity": 2000, "invoice_number": "INV-001"}`

func kiwiOrder() OrderValues {
	return OrderValues{TotalAmount: dec("5000"), ProductName: Some("Kiwi"), TotalQuantity: dec("2000")}
}

func TestEngineEndToEnd(t *testing.T) {
	res, err := NewEngine(Thresholds{}).ValidateRaw(kiwiOrder(), []byte(kiwiPayload))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(res.Verdicts) != 4 {
		t.Fatalf("expected 4 verdicts, got %d", len(res.Verdicts))
	}
	if res.ChecksConsidered != 3 || res.ChecksMatched != 3 {
		t.Fatalf("counts: %d/%d", res.ChecksMatched, res.ChecksConsidered)
	}
	if res.MatchPercentage != 100 {
		t.Fatalf("pct = %v", res.MatchPercentage)
	}
	if res.Disposition != DispositionAutoApprove {
		t.Fatalf("disposition = %s", res.Disposition)
	}
	if d := res.Verdicts[0].DeltaPercent.Decimal.String(); d != "1" {
		t.Fatalf("amount delta = %s", d)
	}
	if res.Verdicts[3].Match != Informational {
		t.Fatalf("invoice number should be informational")
	}
}

func TestEngineIsDeterministic(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	first, err := e.ValidateRaw(kiwiOrder(), []byte(kiwiPayload))
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.ValidateRaw(kiwiOrder(), []byte(kiwiPayload))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := first.JSON()
	b, _ := second.JSON()
	if !bytes.Equal(a, b) {
		t.Fatalf("results differ:\n%s\n%s", a, b)
	}
}

func TestEngineNoData(t *testing.T) {
	var e *Engine
	res := e.Validate(kiwiOrder(), map[string]any{"invoice_number": "INV-1"})
	if res.ChecksConsidered != 0 || res.MatchPercentage != 0 || res.Disposition != DispositionNoData {
		t.Fatalf("unexpected %#v", res)
	}
	if len(res.Verdicts) != 1 {
		t.Fatalf("informational verdict should still be shown")
	}
}

func TestEngineHugeExponentIsAbsent(t *testing.T) {
	for _, raw := range []string{
		`{"total_amount": 1e200000000, "total_quantity": "1e-200000000"}`,
		`{"total_amount": "1e200000000 USD"}`,
	} {
		res, err := NewEngine(DefaultThresholds()).ValidateRaw(kiwiOrder(), []byte(raw))
		if err != nil {
			t.Fatalf("%s: validate: %v", raw, err)
		}
		if len(res.Verdicts) != 0 || res.ChecksConsidered != 0 || res.Disposition != DispositionNoData {
			t.Fatalf("%s: unexpected %#v", raw, res)
		}
	}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		pct  float64
		want Disposition
	}{
		{100, DispositionAutoApprove},
		{98, DispositionAutoApprove},
		{97.99, DispositionReview},
		{66.67, DispositionReview},
		{0.1, DispositionReview},
		{0, DispositionNoData},
	}
	for _, tc := range cases {
		if got := Classify(tc.pct, th); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestScorePartialMatch(t *testing.T) {
	res := Score([]FieldVerdict{
		{Field: FieldTotalAmount, Match: Matched},
		{Field: FieldProductName, Match: Mismatched},
		{Field: FieldInvoiceNumber, Match: Informational},
	}, DefaultThresholds())
	if res.ChecksConsidered != 2 || res.ChecksMatched != 1 || res.MatchPercentage != 50 {
		t.Fatalf("unexpected %#v", res)
	}
	if res.Disposition != DispositionReview {
		t.Fatalf("disposition = %s", res.Disposition)
	}
}

func TestResultJSONShape(t *testing.T) {
	b, err := ValidationResult{Disposition: DispositionNoData}.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if v, ok := decoded["verdicts"].([]any); !ok || len(v) != 0 {
		t.Fatalf("verdicts should encode as [], got %s", b)
	}

	res, _ := NewEngine(DefaultThresholds()).ValidateRaw(kiwiOrder(), []byte(kiwiPayload))
	b, _ = res.JSON()
	var back ValidationResult
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Verdicts[0].Match != Matched || back.Verdicts[3].Match != Informational {
		t.Fatalf("tri-state lost: %s", b)
	}
	if !bytes.Contains(b, []byte(`"match":null`)) {
		t.Fatalf("informational match should encode as null: %s", b)
	}
}
