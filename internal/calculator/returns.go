package calculator

import (
	"github.com/moznion/go-optional"

	"MarketPulse/internal/model"
)

// DailyReturn returns the close-to-close percent change. Index 0 has no
// value.
func DailyReturn(series model.BarSeries) model.Series {
	out := model.NoValues(len(series))
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Close
		if prev == 0 {
			continue
		}
		out[i] = optional.Some((series[i].Close - prev) / prev * 100)
	}
	return out
}
