package normalizer

import (
	"fmt"

	apperr "MarketPulse/internal/errors"
)

// parseYahoo reads a v8 chart response. Null quote entries (holidays,
// halted sessions) drop their row.
func parseYahoo(payload any) (parsed, error) {
	obj, ok := asObject(payload)
	if !ok {
		return parsed{}, apperr.NewShapeError("yahoo", "expected a JSON object, got %T", payload)
	}
	chart, ok := asObject(obj["chart"])
	if !ok {
		return parsed{}, apperr.NewShapeError("yahoo", "missing \"chart\" object")
	}

	if e, ok := asObject(chart["error"]); ok {
		code := fmt.Sprint(e["code"])
		if code == "Not Found" {
			return noData("yahoo: %v", e["description"]), nil
		}
		return parsed{}, apperr.Newf(apperr.ErrCodeProviderRejected, "yahoo %s: %v", code, e["description"])
	}

	results, _ := asSlice(chart["result"])
	if len(results) == 0 {
		return noData("yahoo returned no chart result"), nil
	}
	result, ok := asObject(results[0])
	if !ok {
		return parsed{}, apperr.NewShapeError("yahoo", "chart.result[0] is not an object")
	}
	ts, _ := asSlice(result["timestamp"])
	if len(ts) == 0 {
		return noData("yahoo returned no timestamps"), nil
	}

	indicators, _ := asObject(result["indicators"])
	quotes, _ := asSlice(indicators["quote"])
	if len(quotes) == 0 {
		return parsed{}, apperr.NewShapeError("yahoo", "missing indicators.quote")
	}
	quote, ok := asObject(quotes[0])
	if !ok {
		return parsed{}, apperr.NewShapeError("yahoo", "indicators.quote[0] is not an object")
	}
	o, _ := asSlice(quote["open"])
	h, _ := asSlice(quote["high"])
	l, _ := asSlice(quote["low"])
	c, _ := asSlice(quote["close"])
	v, _ := asSlice(quote["volume"])

	rows := make([]row, len(ts))
	for i := range ts {
		rows[i] = row{index: i, date: ts[i], open: at(o, i), high: at(h, i), low: at(l, i), close: at(c, i), volume: at(v, i)}
	}
	return parsed{rows: rows}, nil
}
