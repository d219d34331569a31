package reconcile

// Engine runs extraction, matching and scoring with one set of thresholds.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	Thresholds Thresholds
}

// NewEngine returns an engine; zero or out-of-range thresholds take the defaults.
func NewEngine(th Thresholds) *Engine {
	return &Engine{Thresholds: th.withDefaults()}
}

func (e *Engine) thresholds() Thresholds {
	if e == nil {
		return DefaultThresholds()
	}
	return e.Thresholds.withDefaults()
}

// Validate reconciles a decoded AI payload against the order.
func (e *Engine) Validate(order OrderValues, payload map[string]any) ValidationResult {
	th := e.thresholds()
	return Score(Match(order, Extract(payload), th), th)
}

// ValidateRaw decodes the payload first. A payload that is not a JSON object
// is reported as an error; an empty payload yields no validation data.
func (e *Engine) ValidateRaw(order OrderValues, raw []byte) (ValidationResult, error) {
	payload, err := DecodePayload(raw)
	if err != nil {
		return ValidationResult{}, err
	}
	return e.Validate(order, payload), nil
}
