package calculator

import (
	"github.com/markcheno/go-talib"
	"github.com/moznion/go-optional"

	"MarketPulse/internal/model"
)

// MFI returns the Money Flow Index over window bars, computed by talib. A
// window with no falling typical price reads exactly 100, where talib
// reports 0 for a window without flow. The first window positions have no
// value.
func MFI(series model.BarSeries, window int) model.Series {
	n := len(series)
	out := model.NoValues(n)
	if window <= 0 || n <= window {
		return out
	}

	mfi := talib.Mfi(series.Highs(), series.Lows(), series.Closes(), series.Volumes(), window)
	falling := fallingTypicalPrice(series)
	for i := window; i < n; i++ {
		if falling[i]-falling[i-window] == 0 {
			out[i] = optional.Some(100.0)
			continue
		}
		out[i] = optional.Some(clamp(mfi[i], 0, 100))
	}
	return out
}

// fallingTypicalPrice returns a running count of bars whose typical price
// fell against the prior bar.
func fallingTypicalPrice(series model.BarSeries) []int {
	counts := make([]int, len(series))
	prev := 0.0
	for i, b := range series {
		tp := (b.High + b.Low + b.Close) / 3
		if i > 0 {
			counts[i] = counts[i-1]
			if tp < prev {
				counts[i]++
			}
		}
		prev = tp
	}
	return counts
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
