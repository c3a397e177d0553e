package model

import (
	"fmt"
	"sort"
	"time"
)

// Bar is one daily OHLCV observation.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BarSeries is ordered ascending by Time with no duplicate times.
// Callers must treat it as read-only once returned by the normalizer.
type BarSeries []Bar

func (s BarSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

func (s BarSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

func (s BarSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

func (s BarSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// Since returns the tail of s starting at the first bar on or after from.
func (s BarSeries) Since(from time.Time) BarSeries {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Time.Before(from) })
	return s[i:]
}

// Last returns the most recent bar.
func (s BarSeries) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Period is a lookback window descriptor such as "3mo".
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period2Years  Period = "2y"
)

var periodMonths = map[Period]int{
	Period1Month:  1,
	Period3Months: 3,
	Period6Months: 6,
	Period1Year:   12,
	Period2Years:  24,
}

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := periodMonths[p]; !ok {
		return "", fmt.Errorf("unknown period %q (want 1mo, 3mo, 6mo, 1y or 2y)", s)
	}
	return p, nil
}

// Days returns the calendar-day span of the period, counting 30 days a month.
func (p Period) Days() int {
	if m, ok := periodMonths[p]; ok {
		return m * 30
	}
	return 90
}

// Window returns the [from, to] range ending at now.
func (p Period) Window(now time.Time) (from, to time.Time) {
	return now.AddDate(0, 0, -p.Days()), now
}
