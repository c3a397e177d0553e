package normalizer

import (
	apperr "MarketPulse/internal/errors"
)

// parseTwelveData reads a /time_series response:
//
//	{"meta": {...}, "values": [{"datetime": "2024-01-02", "open": "187.15", ...}], "status": "ok"}
func parseTwelveData(payload any) (parsed, error) {
	obj, ok := asObject(payload)
	if !ok {
		return parsed{}, apperr.NewShapeError("twelvedata", "expected a JSON object, got %T", payload)
	}

	if status, _ := obj["status"].(string); status == "error" {
		code, _ := Float(obj["code"])
		switch int(code) {
		case 400, 404:
			return noData("twelvedata: %v", obj["message"]), nil
		case 429:
			return parsed{}, apperr.Newf(apperr.ErrCodeTransientFetchFailure, "twelvedata: %v", obj["message"])
		default:
			return parsed{}, apperr.Newf(apperr.ErrCodeProviderRejected, "twelvedata %d: %v", int(code), obj["message"])
		}
	}

	values, ok := asSlice(obj["values"])
	if !ok {
		return parsed{}, apperr.NewShapeError("twelvedata", "missing \"values\" array")
	}
	if len(values) == 0 {
		return noData("twelvedata returned no values"), nil
	}
	return parsed{rows: recordRows(values, []string{"datetime", "date"})}, nil
}
