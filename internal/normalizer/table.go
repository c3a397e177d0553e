package normalizer

import (
	"strings"

	apperr "MarketPulse/internal/errors"
)

var tableDateColumns = []string{"date", "datetime", "timestamp", "time", "index"}

// parseTable reads a generic OHLCV table with Date/Open/High/Low/Close/Volume
// columns (any case), either as a list of records or as a column map
// {"Date": [...], "Open": [...], ...}.
func parseTable(payload any) (parsed, error) {
	if cols, ok := asObject(payload); ok {
		return parseColumns(cols)
	}
	records, ok := asSlice(payload)
	if !ok {
		return parsed{}, apperr.NewShapeError("table", "expected records or columns, got %T", payload)
	}
	if len(records) == 0 {
		return noData("table has no rows"), nil
	}
	return parsed{rows: recordRows(records, tableDateColumns)}, nil
}

func parseColumns(cols map[string]any) (parsed, error) {
	lower := make(map[string][]any, len(cols))
	for k, v := range cols {
		s, ok := asSlice(v)
		if !ok {
			return parsed{}, apperr.NewShapeError("table", "column %q is not an array", k)
		}
		lower[strings.ToLower(k)] = s
	}

	var dates []any
	for _, name := range tableDateColumns {
		if d, ok := lower[name]; ok {
			dates = d
			break
		}
	}
	if dates == nil {
		return parsed{}, apperr.NewShapeError("table", "no date column")
	}
	if len(dates) == 0 {
		return noData("table has no rows"), nil
	}

	rows := make([]row, len(dates))
	for i := range dates {
		rows[i] = row{
			index:  i,
			date:   dates[i],
			open:   at(lower["open"], i),
			high:   at(lower["high"], i),
			low:    at(lower["low"], i),
			close:  at(lower["close"], i),
			volume: at(lower["volume"], i),
		}
	}
	return parsed{rows: rows}, nil
}

// recordRows maps objects with case-insensitive OHLCV keys to rows. The first
// present key of dateKeys is the row date. Non-object records become empty
// rows, which are dropped later.
func recordRows(records []any, dateKeys []string) []row {
	rows := make([]row, len(records))
	for i, rec := range records {
		r := row{index: i}
		obj, _ := asObject(rec)
		fields := make(map[string]any, len(obj))
		for k, v := range obj {
			fields[strings.ToLower(k)] = v
		}
		for _, key := range dateKeys {
			if d, ok := fields[key]; ok {
				r.date = d
				break
			}
		}
		r.open = fields["open"]
		r.high = fields["high"]
		r.low = fields["low"]
		r.close = fields["close"]
		r.volume = fields["volume"]
		rows[i] = r
	}
	return rows
}
