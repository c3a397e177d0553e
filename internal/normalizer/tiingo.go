package normalizer

import (
	apperr "MarketPulse/internal/errors"
)

// parseTiingo reads a /tiingo/daily/{ticker}/prices response, an array of
// {"date": "2024-01-02T00:00:00.000Z", "open": 187.15, ...}. An object with
// "detail" is Tiingo's unknown-ticker reply.
func parseTiingo(payload any) (parsed, error) {
	if obj, ok := asObject(payload); ok {
		if detail, ok := obj["detail"]; ok {
			return noData("tiingo: %v", detail), nil
		}
		return parsed{}, apperr.NewShapeError("tiingo", "unexpected object without \"detail\"")
	}

	records, ok := asSlice(payload)
	if !ok {
		return parsed{}, apperr.NewShapeError("tiingo", "expected a JSON array, got %T", payload)
	}
	if len(records) == 0 {
		return noData("tiingo returned no prices"), nil
	}
	return parsed{rows: recordRows(records, []string{"date"})}, nil
}
