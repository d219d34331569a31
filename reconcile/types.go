// Package reconcile compares the fields an AI document extractor pulled out of a
// trade document against the order they belong to, and scores how well they agree.
//
// Everything in here is pure computation over already-fetched data: no I/O, no
// clock, no randomness. The same inputs always yield the same ValidationResult.
package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Optional holds a value that may be absent. Absent is distinct from the zero value.
type Optional[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

type Field string

const (
	FieldTotalAmount   Field = "total_amount"
	FieldProductName   Field = "product_name"
	FieldTotalQuantity Field = "total_quantity"
	FieldInvoiceNumber Field = "invoice_number"
	FieldInvoiceDate   Field = "invoice_date"
)

// evaluation order of verdicts
var trackedFields = []Field{
	FieldTotalAmount,
	FieldProductName,
	FieldTotalQuantity,
	FieldInvoiceNumber,
	FieldInvoiceDate,
}

var fieldLabels = map[Field]string{
	FieldTotalAmount:   "Total Amount",
	FieldProductName:   "Product Name",
	FieldTotalQuantity: "Quantity",
	FieldInvoiceNumber: "Invoice/Document Number",
	FieldInvoiceDate:   "Date",
}

func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Outcome is the verdict of a single field comparison.
// Informational fields are shown to the reviewer but never scored.
type Outcome int

const (
	Informational Outcome = iota
	Matched
	Mismatched
)

func OutcomeOf(match bool) Outcome {
	if match {
		return Matched
	}
	return Mismatched
}

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Mismatched:
		return "mismatched"
	default:
		return "informational"
	}
}

// Scored reports whether the outcome counts toward the match percentage.
func (o Outcome) Scored() bool {
	return o == Matched || o == Mismatched
}

// MarshalJSON encodes the tri-state as true / false / null.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o {
	case Matched:
		return []byte("true"), nil
	case Mismatched:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (o *Outcome) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "true":
		*o = Matched
	case "false":
		*o = Mismatched
	case "null":
		*o = Informational
	default:
		return fmt.Errorf("invalid match value %s", b)
	}
	return nil
}

// OrderValues are the order-side values the engine reconciles against.
type OrderValues struct {
	TotalAmount   Optional[decimal.Decimal]
	ProductName   Optional[string]
	TotalQuantity Optional[decimal.Decimal]
}

// ExtractedFieldSet is the canonical view of an AI extraction payload.
type ExtractedFieldSet struct {
	TotalAmount   Optional[decimal.Decimal]
	ProductName   Optional[string]
	TotalQuantity Optional[decimal.Decimal]
	InvoiceNumber Optional[string]
	InvoiceDate   Optional[string]
}

type FieldVerdict struct {
	Field          Field               `json:"field"`
	Label          string              `json:"label"`
	OrderValue     string              `json:"order_value"`
	ExtractedValue string              `json:"extracted_value"`
	Match          Outcome             `json:"match"`
	DeltaPercent   decimal.NullDecimal `json:"delta_percent"`
}

type Disposition string

const (
	DispositionAutoApprove Disposition = "auto_approval_recommended"
	DispositionReview      Disposition = "review_needed"
	DispositionNoData      Disposition = "no_validation_data"
)

func (d Disposition) Label() string {
	switch d {
	case DispositionAutoApprove:
		return "Auto-approval recommended"
	case DispositionReview:
		return "Review needed"
	default:
		return "No validation data"
	}
}

type ValidationResult struct {
	Verdicts         []FieldVerdict `json:"verdicts"`
	ChecksConsidered int            `json:"checks_considered"`
	ChecksMatched    int            `json:"checks_matched"`
	MatchPercentage  float64        `json:"match_percentage"`
	Disposition      Disposition    `json:"disposition"`
}

// JSON renders the result in its persisted form.
func (r ValidationResult) JSON() ([]byte, error) {
	if r.Verdicts == nil {
		r.Verdicts = []FieldVerdict{}
	}
	return json.Marshal(r)
}
