package calculator

import (
	"github.com/markcheno/go-talib"
	"github.com/moznion/go-optional"

	"MarketPulse/internal/model"
)

// OBV returns On-Balance Volume anchored at 0 on the first bar. talib seeds
// the fold with the first bar's volume, so that volume is taken back out.
func OBV(series model.BarSeries) model.Series {
	out := make(model.Series, len(series))
	if len(series) == 0 {
		return out
	}
	volumes := series.Volumes()
	obv := talib.Obv(series.Closes(), volumes)
	for i := range out {
		out[i] = optional.Some(obv[i] - volumes[0])
	}
	return out
}
