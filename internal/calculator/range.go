package calculator

import (
	"errors"
	"math"

	"MarketPulse/internal/model"
)

// Trading-day spans of the rolling ranges.
const (
	tradingDays52w = 252
	tradingDays30d = 22
)

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(series model.BarSeries) (high, low float64, err error) {
	return rollingRange(series, tradingDays52w)
}

// Calculate30DayRange scans the most recent 22 trading days and returns the high and low.
func Calculate30DayRange(series model.BarSeries) (high, low float64, err error) {
	return rollingRange(series, tradingDays30d)
}

func rollingRange(series model.BarSeries, span int) (high, low float64, err error) {
	if len(series) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	start := len(series) - span
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range series[start:] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Min(math.Max(pos, 0), 1), nil
}

// Ranges builds the report range context for the latest close. It returns
// nil for an empty series.
func Ranges(series model.BarSeries) *model.Range {
	last, ok := series.Last()
	if !ok {
		return nil
	}
	r := &model.Range{}
	r.High52w, r.Low52w, _ = Calculate52WeekRange(series)
	r.High30d, r.Low30d, _ = Calculate30DayRange(series)
	if pos, err := Calculate52WeekPosition(last.Close, r.High52w, r.Low52w); err == nil {
		r.Position52w = pos
	}
	return r
}
