package model

import (
	"fmt"

	"github.com/moznion/go-optional"
)

// Indicator names used as IndicatorSet keys.
const (
	IndicatorOBV         = "OBV"
	IndicatorMFI         = "MFI"
	IndicatorRSI         = "RSI"
	IndicatorDailyReturn = "Daily_Return"
	IndicatorAvgVolume   = "Avg_Volume"
)

// SMAKey returns the IndicatorSet key of an n-period simple moving average.
func SMAKey(n int) string {
	return fmt.Sprintf("SMA_%d", n)
}

// Value is one indicator reading; None means the lookback window is not
// yet filled.
type Value = optional.Option[float64]

// Series is aligned index-for-index with the BarSeries it was computed from.
type Series []Value

// NoValues returns a series of n empty readings.
func NoValues(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = optional.None[float64]()
	}
	return s
}

// At returns the reading at i, or None when i is out of range.
func (s Series) At(i int) Value {
	if i < 0 || i >= len(s) {
		return optional.None[float64]()
	}
	return s[i]
}

// Last returns the final reading.
func (s Series) Last() Value {
	return s.At(len(s) - 1)
}

// Defined counts readings that carry a value.
func (s Series) Defined() int {
	n := 0
	for _, v := range s {
		if v.IsSome() {
			n++
		}
	}
	return n
}

// IndicatorSet maps an indicator name to its series.
type IndicatorSet map[string]Series

// At returns the named reading at i, or None when the indicator is absent.
func (s IndicatorSet) At(name string, i int) Value {
	series, ok := s[name]
	if !ok {
		return optional.None[float64]()
	}
	return series.At(i)
}
