package normalizer

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Float coerces a JSON or Go scalar into a finite float64. Strings may carry
// thousands separators ("1,234.50").
func Float(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		return parseNumber(n.String())
	case decimal.Decimal:
		f = n.InexactFloat64()
	case string:
		return parseNumber(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Percent coerces values such as "12.5%" into 12.5.
func Percent(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		return parseNumber(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	}
	return Float(v)
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "none", "null", "nan", "n/a":
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
