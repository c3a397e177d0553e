// Package normalizer turns provider-specific time-series payloads into one
// canonical model.BarSeries.
//
// Rows with missing or malformed fields are dropped and reported in
// Result.Dropped; only a payload that matches no known layout for its
// provider fails, with an *errors.ShapeError.
package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
)

// RowError describes one dropped row.
type RowError struct {
	Index  int
	Key    string
	Field  string
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %s %s", e.Index, e.Key, e.Field, e.Reason)
}

// ErrorCode classifies every dropped row as PARTIAL_ROW_DROPPED.
func (e RowError) ErrorCode() apperr.ErrorCode { return apperr.ErrCodePartialRowDropped }

// Result is the outcome of parsing one payload.
type Result struct {
	Series       model.BarSeries
	Dropped      []RowError
	Duplicates   int
	NoData       bool
	NoDataReason string
}

// Normalize converts raw into a BarSeries. A provider "no data" sentinel
// yields an empty series and a nil error.
func Normalize(raw any, kind model.ProviderKind) (model.BarSeries, error) {
	res, err := Parse(raw, kind)
	if err != nil {
		return nil, err
	}
	return res.Series, nil
}

// Parse is Normalize with row-level diagnostics.
//
// raw may be JSON bytes ([]byte, json.RawMessage or string), an already
// decoded value (map[string]any, []any, []map[string]any) or, for Polygon,
// the SDK's []models.Agg.
func Parse(raw any, kind model.ProviderKind) (*Result, error) {
	payload, err := decode(raw)
	if err != nil {
		return nil, apperr.NewShapeError(kind.String(), "decode: %v", err)
	}

	var p parsed
	switch kind {
	case model.ProviderAlphaVantage:
		p, err = parseAlphaVantage(payload)
	case model.ProviderFinnhub:
		p, err = parseFinnhub(payload)
	case model.ProviderYahoo:
		p, err = parseYahoo(payload)
	case model.ProviderTwelveData:
		p, err = parseTwelveData(payload)
	case model.ProviderTiingo:
		p, err = parseTiingo(payload)
	case model.ProviderPolygon:
		p, err = parsePolygon(payload)
	case model.ProviderTable, model.ProviderMock:
		p, err = parseTable(payload)
	default:
		return nil, apperr.Newf(apperr.ErrCodeUnknownProvider, "no payload layout for provider %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if p.noData != "" {
		return &Result{Series: model.BarSeries{}, NoData: true, NoDataReason: p.noData}, nil
	}
	return build(p.rows), nil
}

// row holds one record's raw field values. nil means absent.
type row struct {
	index  int
	date   any
	open   any
	high   any
	low    any
	close  any
	volume any
}

type parsed struct {
	rows   []row
	noData string
}

func noData(format string, args ...any) parsed {
	return parsed{noData: fmt.Sprintf(format, args...)}
}

func (r row) fail(field, reason string) *RowError {
	return &RowError{Index: r.index, Key: fmt.Sprint(r.date), Field: field, Reason: reason}
}

func (r row) price(field string, raw any) (float64, *RowError) {
	if raw == nil {
		return 0, r.fail(field, "missing")
	}
	v, ok := Float(raw)
	if !ok || v <= 0 {
		return 0, r.fail(field, "not a positive number")
	}
	return v, nil
}

func (r row) bar() (model.Bar, *RowError) {
	t, ok := Time(r.date)
	if !ok {
		return model.Bar{}, r.fail("date", "unparseable")
	}
	b := model.Bar{Time: t}

	var rerr *RowError
	if b.Open, rerr = r.price("open", r.open); rerr != nil {
		return model.Bar{}, rerr
	}
	if b.High, rerr = r.price("high", r.high); rerr != nil {
		return model.Bar{}, rerr
	}
	if b.Low, rerr = r.price("low", r.low); rerr != nil {
		return model.Bar{}, rerr
	}
	if b.Close, rerr = r.price("close", r.close); rerr != nil {
		return model.Bar{}, rerr
	}

	if r.volume == nil {
		return model.Bar{}, r.fail("volume", "missing")
	}
	vol, ok := Float(r.volume)
	if !ok || vol < 0 {
		return model.Bar{}, r.fail("volume", "not a non-negative number")
	}
	b.Volume = math.Round(vol)
	return b, nil
}

// build coerces rows, sorts ascending and keeps the last-seen row for a
// repeated timestamp.
func build(rows []row) *Result {
	res := &Result{}
	bars := make([]model.Bar, 0, len(rows))
	for _, r := range rows {
		b, rerr := r.bar()
		if rerr != nil {
			res.Dropped = append(res.Dropped, *rerr)
			continue
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	series := make(model.BarSeries, 0, len(bars))
	for _, b := range bars {
		if n := len(series); n > 0 && series[n-1].Time.Equal(b.Time) {
			series[n-1] = b
			res.Duplicates++
			continue
		}
		series = append(series, b)
	}
	res.Series = series
	return res
}

func decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("nil payload")
	case []byte:
		return decodeJSON(v)
	case json.RawMessage:
		return decodeJSON(v)
	case string:
		return decodeJSON([]byte(v))
	default:
		return raw, nil
	}
}

func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, f := range s {
			out[i] = f
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i, n := range s {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

// at returns s[i], or nil when i is out of range.
func at(s []any, i int) any {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}
