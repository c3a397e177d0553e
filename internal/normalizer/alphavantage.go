package normalizer

import (
	"sort"
	"strings"

	apperr "MarketPulse/internal/errors"
)

// parseAlphaVantage reads a TIME_SERIES_DAILY(_ADJUSTED) response:
//
//	{"Meta Data": {...}, "Time Series (Daily)": {"2024-01-02": {"1. open": "187.15", ...}}}
func parseAlphaVantage(payload any) (parsed, error) {
	obj, err := alphaVantageObject(payload)
	if err != nil {
		return parsed{}, err
	}

	var ok bool
	var series map[string]any
	for key, v := range obj {
		if strings.HasPrefix(key, "Time Series") {
			series, ok = asObject(v)
			if !ok {
				return parsed{}, apperr.NewShapeError("alphavantage", "%q is not an object", key)
			}
			break
		}
	}
	if series == nil {
		return parsed{}, apperr.NewShapeError("alphavantage", "no \"Time Series\" key")
	}
	if len(series) == 0 {
		return noData("alphavantage returned an empty time series"), nil
	}

	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	rows := make([]row, 0, len(dates))
	for i, d := range dates {
		r := row{index: i, date: d}
		fields, _ := asObject(series[d])
		for key, v := range fields {
			switch alphaVantageField(key) {
			case "open":
				r.open = v
			case "high":
				r.high = v
			case "low":
				r.low = v
			case "close":
				r.close = v
			case "volume":
				r.volume = v
			}
		}
		rows = append(rows, r)
	}
	return parsed{rows: rows}, nil
}

// alphaVantageObject unwraps a decoded Alpha Vantage body. An "Error
// Message" is a rejection; "Note" and "Information" carry rate-limit notices
// and are transient.
func alphaVantageObject(payload any) (map[string]any, error) {
	obj, ok := asObject(payload)
	if !ok {
		return nil, apperr.NewShapeError("alphavantage", "expected a JSON object, got %T", payload)
	}
	if msg, ok := obj["Error Message"]; ok {
		return nil, apperr.Newf(apperr.ErrCodeProviderRejected, "alphavantage: %v", msg)
	}
	for _, key := range []string{"Note", "Information"} {
		if msg, ok := obj[key]; ok {
			return nil, apperr.Newf(apperr.ErrCodeTransientFetchFailure, "alphavantage: %v", msg)
		}
	}
	return obj, nil
}

// alphaVantageField strips the ordinal prefix: "4. close" -> "close".
func alphaVantageField(key string) string {
	if i := strings.Index(key, ". "); i >= 0 {
		key = key[i+2:]
	}
	return strings.ToLower(strings.TrimSpace(key))
}
