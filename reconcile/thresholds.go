package reconcile

import "github.com/shopspring/decimal"

var (
	DefaultAmountTolerancePercent   = decimal.NewFromInt(2)
	DefaultQuantityTolerancePercent = decimal.NewFromInt(5)
	DefaultAutoApprovePercent       = 98.0
)

// Thresholds are the business tolerances of the matcher and classifier.
// A percent difference must be strictly below the tolerance to match.
type Thresholds struct {
	AmountTolerancePercent   decimal.Decimal
	QuantityTolerancePercent decimal.Decimal
	AutoApprovePercent       float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		AmountTolerancePercent:   DefaultAmountTolerancePercent,
		QuantityTolerancePercent: DefaultQuantityTolerancePercent,
		AutoApprovePercent:       DefaultAutoApprovePercent,
	}
}

// withDefaults fills zero or negative tolerances with the defaults.
func (t Thresholds) withDefaults() Thresholds {
	if !t.AmountTolerancePercent.IsPositive() {
		t.AmountTolerancePercent = DefaultAmountTolerancePercent
	}
	if !t.QuantityTolerancePercent.IsPositive() {
		t.QuantityTolerancePercent = DefaultQuantityTolerancePercent
	}
	if t.AutoApprovePercent <= 0 || t.AutoApprovePercent > 100 {
		t.AutoApprovePercent = DefaultAutoApprovePercent
	}
	return t
}
