package normalizer

import (
	apperr "MarketPulse/internal/errors"
)

// parseFinnhub reads a /stock/candle response of parallel arrays:
//
//	{"s": "ok", "t": [...], "o": [...], "h": [...], "l": [...], "c": [...], "v": [...]}
func parseFinnhub(payload any) (parsed, error) {
	obj, ok := asObject(payload)
	if !ok {
		return parsed{}, apperr.NewShapeError("finnhub", "expected a JSON object, got %T", payload)
	}

	status, _ := obj["s"].(string)
	if status == "no_data" {
		return noData("finnhub: no_data"), nil
	}
	if msg, ok := obj["error"]; ok {
		return parsed{}, apperr.Newf(apperr.ErrCodeProviderRejected, "finnhub: %v", msg)
	}

	ts, ok := asSlice(obj["t"])
	if !ok {
		return parsed{}, apperr.NewShapeError("finnhub", "missing \"t\" array")
	}
	if len(ts) == 0 {
		return noData("finnhub returned no candles"), nil
	}
	o, _ := asSlice(obj["o"])
	h, _ := asSlice(obj["h"])
	l, _ := asSlice(obj["l"])
	c, _ := asSlice(obj["c"])
	v, _ := asSlice(obj["v"])

	rows := make([]row, len(ts))
	for i := range ts {
		rows[i] = row{index: i, date: ts[i], open: at(o, i), high: at(h, i), low: at(l, i), close: at(c, i), volume: at(v, i)}
	}
	return parsed{rows: rows}, nil
}
