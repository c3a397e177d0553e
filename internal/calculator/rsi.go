package calculator

import (
	"github.com/moznion/go-optional"

	"MarketPulse/internal/model"
)

// RSI smoothing modes.
const (
	SmoothingSimple = "simple"
	SmoothingWilder = "wilder"
)

// RSI returns the Relative Strength Index using simple rolling means of
// gains and losses over period bars. A window without losses reads 100.
// The first period positions have no value.
func RSI(closes []float64, period int) model.Series {
	n := len(closes)
	out := model.NoValues(n)
	if period <= 0 || n <= period {
		return out
	}

	gains, losses := changes(closes)
	for i := period; i < n; i++ {
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}
		out[i] = optional.Some(oscillator(gainSum/float64(period), lossSum/float64(period)))
	}
	return out
}

// WilderRSI returns the Wilder-smoothed RSI: the first reading averages the
// first period changes, later readings smooth with weight 1/period.
func WilderRSI(closes []float64, period int) model.Series {
	n := len(closes)
	out := model.NoValues(n)
	if period <= 0 || n <= period {
		return out
	}

	gains, losses := changes(closes)
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = optional.Some(oscillator(avgGain, avgLoss))

	for i := period + 1; i < n; i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out[i] = optional.Some(oscillator(avgGain, avgLoss))
	}
	return out
}

// changes splits close-to-close moves into gains and losses; index 0 is 0.
func changes(closes []float64) (gains, losses []float64) {
	gains = make([]float64, len(closes))
	losses = make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}
	return gains, losses
}

// oscillator computes 100 - 100/(1 + up/down), clamped to [0, 100]. A zero
// down total reads 100.
func oscillator(up, down float64) float64 {
	if down == 0 {
		return 100
	}
	return clamp(100-100/(1+up/down), 0, 100)
}
