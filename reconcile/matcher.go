package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const notApplicable = "N/A"

var hundred = decimal.NewFromInt(100)

// Match applies one rule per tracked field and returns the verdicts in
// evaluation order. Scored fields need a value on both sides; informational
// fields only need an extracted value.
func Match(order OrderValues, fields ExtractedFieldSet, th Thresholds) []FieldVerdict {
	th = th.withDefaults()
	verdicts := make([]FieldVerdict, 0, len(trackedFields))
	for _, f := range trackedFields {
		var (
			v  FieldVerdict
			ok bool
		)
		switch f {
		case FieldTotalAmount:
			v, ok = matchPercent(f, order.TotalAmount, fields.TotalAmount, th.AmountTolerancePercent, formatAmount)
		case FieldTotalQuantity:
			v, ok = matchPercent(f, order.TotalQuantity, fields.TotalQuantity, th.QuantityTolerancePercent, formatQuantity)
		case FieldProductName:
			v, ok = matchProductName(order.ProductName, fields.ProductName)
		case FieldInvoiceNumber:
			v, ok = informational(f, fields.InvoiceNumber)
		case FieldInvoiceDate:
			v, ok = informational(f, fields.InvoiceDate)
		}
		if ok {
			verdicts = append(verdicts, v)
		}
	}
	return verdicts
}

// PercentDifference returns |extracted-order| / |order| * 100.
// ok is false when the order value is zero.
func PercentDifference(order, extracted decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if order.IsZero() {
		return decimal.Zero, false
	}
	return extracted.Sub(order).Abs().Div(order.Abs()).Mul(hundred), true
}

func matchPercent(f Field, order, extracted Optional[decimal.Decimal], tolerance decimal.Decimal, format func(decimal.Decimal) string) (FieldVerdict, bool) {
	o, okOrder := order.Get()
	e, okExtracted := extracted.Get()
	if !okOrder || !okExtracted {
		return FieldVerdict{}, false
	}
	pct, ok := PercentDifference(o, e)
	if !ok {
		// zero order value: not comparable
		return FieldVerdict{}, false
	}
	return FieldVerdict{
		Field:          f,
		Label:          f.Label(),
		OrderValue:     format(o),
		ExtractedValue: format(e),
		Match:          OutcomeOf(pct.LessThan(tolerance)),
		DeltaPercent:   decimal.NewNullDecimal(pct.Round(2)),
	}, true
}

// ProductNamesMatch reports whether either name contains the other, ignoring case.
func ProductNamesMatch(order, extracted string) bool {
	o := strings.ToLower(strings.TrimSpace(order))
	e := strings.ToLower(strings.TrimSpace(extracted))
	if o == "" || e == "" {
		return false
	}
	return strings.Contains(e, o) || strings.Contains(o, e)
}

func matchProductName(order, extracted Optional[string]) (FieldVerdict, bool) {
	o, okOrder := order.Get()
	e, okExtracted := extracted.Get()
	if !okOrder || !okExtracted || strings.TrimSpace(o) == "" || strings.TrimSpace(e) == "" {
		return FieldVerdict{}, false
	}
	return FieldVerdict{
		Field:          FieldProductName,
		Label:          FieldProductName.Label(),
		OrderValue:     o,
		ExtractedValue: e,
		Match:          OutcomeOf(ProductNamesMatch(o, e)),
	}, true
}

func informational(f Field, extracted Optional[string]) (FieldVerdict, bool) {
	e, ok := extracted.Get()
	if !ok {
		return FieldVerdict{}, false
	}
	return FieldVerdict{
		Field:          f,
		Label:          f.Label(),
		OrderValue:     notApplicable,
		ExtractedValue: e,
		Match:          Informational,
	}, true
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatQuantity(d decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	if d.IsInteger() && d.Abs().LessThan(decimal.New(1, 18)) {
		return p.Sprintf("%d boxes", d.IntPart())
	}
	return d.StringFixed(2) + " boxes"
}
