package calculator

import (
	"github.com/markcheno/go-talib"
	"github.com/moznion/go-optional"

	"MarketPulse/internal/model"
)

// SMA returns the trailing simple moving average of values. The first
// window-1 positions carry no value.
func SMA(values []float64, window int) model.Series {
	out := model.NoValues(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	sma := talib.Sma(values, window)
	for i := window - 1; i < len(values); i++ {
		out[i] = optional.Some(sma[i])
	}
	return out
}

// AvgVolume is the SMA of the volume series.
func AvgVolume(series model.BarSeries, window int) model.Series {
	return SMA(series.Volumes(), window)
}
