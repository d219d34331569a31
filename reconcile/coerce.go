package reconcile

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ToDecimal coerces a loosely typed JSON value into a decimal.
// It accepts numbers, json.Number and user-formatted strings such as
// "5,050.00", "USD 5,050" or "$ -1 234.50". Anything else is absent, as
// are values whose exponent or precision no monetary field could need.
func ToDecimal(v any) Optional[decimal.Decimal] {
	switch val := v.(type) {
	case nil:
		return None[decimal.Decimal]()
	case decimal.Decimal:
		return Some(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return None[decimal.Decimal]()
		}
		return bounded(decimal.NewFromFloat(val))
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return None[decimal.Decimal]()
		}
		return bounded(decimal.NewFromFloat32(val))
	case int:
		return Some(decimal.NewFromInt(int64(val)))
	case int32:
		return Some(decimal.NewFromInt32(val))
	case int64:
		return Some(decimal.NewFromInt(val))
	case uint:
		return Some(decimal.NewFromInt(int64(val)))
	case uint32:
		return Some(decimal.NewFromInt(int64(val)))
	case uint64:
		if val > math.MaxInt64 {
			return None[decimal.Decimal]()
		}
		return Some(decimal.NewFromInt(int64(val)))
	case json.Number:
		return parseDecimalString(string(val))
	case string:
		return parseDecimalString(val)
	default:
		return None[decimal.Decimal]()
	}
}

// Values outside these bounds are treated as absent. Arithmetic on a decimal
// with a huge exponent allocates a coefficient of that many digits.
const (
	maxDecimalExponent = 30
	maxCoefficientBits = 128
)

func bounded(d decimal.Decimal) Optional[decimal.Decimal] {
	exp := d.Exponent()
	if exp > maxDecimalExponent || exp < -maxDecimalExponent || d.Coefficient().BitLen() > maxCoefficientBits {
		return None[decimal.Decimal]()
	}
	return Some(d)
}

func parseDecimalString(raw string) Optional[decimal.Decimal] {
	s := strings.TrimSpace(raw)
	if s == "" {
		return None[decimal.Decimal]()
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return bounded(d)
	}
	d, ok := lenientDecimal(s)
	if !ok {
		return None[decimal.Decimal]()
	}
	return bounded(d)
}

// lenientDecimal reads the one number in user-formatted text such as
// "USD 5,050.00", "$ -1 234.50" or "2000 cartons". Text that carries a
// second number ("2024-01-05", "2000 cartons / 40 pallets") is rejected.
func lenientDecimal(s string) (decimal.Decimal, bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return decimal.Zero, false
	}
	prefix, rest := s[:start], s[start:]

	end := 0
	for end < len(rest) {
		c := rest[end]
		if isDigitByte(c) || c == '.' {
			end++
			continue
		}
		// ',' or ' ' only group thousands.
		if (c == ',' || c == ' ') && end > 0 && isDigitByte(rest[end-1]) && isThousandsGroup(rest[end+1:]) {
			end++
			continue
		}
		break
	}
	body, trailing := rest[:end], rest[end:]
	if strings.ContainsAny(trailing, "0123456789-") {
		return decimal.Zero, false
	}

	clean := strings.NewReplacer(",", "", " ", "").Replace(body)
	clean = strings.TrimSuffix(clean, ".")
	if strings.HasSuffix(prefix, ".") {
		clean = "0." + clean
		prefix = strings.TrimSuffix(prefix, ".")
	}
	if strings.HasSuffix(strings.TrimRight(prefix, " "), "-") {
		clean = "-" + clean
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// isThousandsGroup reports whether s starts with exactly three digits.
func isThousandsGroup(s string) bool {
	if len(s) < 3 || !isDigitByte(s[0]) || !isDigitByte(s[1]) || !isDigitByte(s[2]) {
		return false
	}
	return len(s) == 3 || !isDigitByte(s[3])
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

// ToText coerces a JSON scalar into display text. Blank strings are absent.
func ToText(v any) Optional[string] {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return None[string]()
		}
		return Some(s)
	case json.Number:
		return ToText(string(val))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return None[string]()
		}
		return Some(strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return Some(strconv.Itoa(val))
	case int64:
		return Some(strconv.FormatInt(val, 10))
	default:
		return None[string]()
	}
}
