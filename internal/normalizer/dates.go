package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Slash dates are read month first.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	time.RFC1123,
	time.RFC1123Z,
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e11

// Time parses a date or timestamp into UTC. Numbers and all-digit strings
// are UNIX epoch seconds, or milliseconds when above 1e11; eight-digit
// strings are read as YYYYMMDD first.
func Time(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return epoch(n)
		}
		if f, err := t.Float64(); err == nil {
			return epoch(int64(f))
		}
		return time.Time{}, false
	case float64:
		return epoch(int64(t))
	case int64:
		return epoch(t)
	case int:
		return epoch(int64(t))
	case string:
		return parseDate(t)
	default:
		return time.Time{}, false
	}
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) == 8 {
		if t, err := time.Parse("20060102", s); err == nil {
			return t.UTC(), true
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return epoch(n)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func epoch(n int64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	if n > epochMillisThreshold {
		return time.UnixMilli(n).UTC(), true
	}
	return time.Unix(n, 0).UTC(), true
}
