// Package strategy classifies the latest bar into a trading-strength label.
package strategy

import (
	"fmt"

	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
)

// Classify labels last against previous. All four factors are evaluated
// before the first matching rule is applied: all pass is Strong; rising
// price on high volume with OBV not rising is Warning-Divergent; anything
// else is Weak.
func Classify(last, previous model.Snapshot) model.Signal {
	rising := checkRising(last, previous)
	highVolume := checkHighVolume(last)
	obvRising := checkOBVRising(last, previous)
	mfiHealthy := checkMFIHealthy(last)

	sig := model.Signal{
		Last:     &last,
		Previous: &previous,
		Factors:  []model.Factor{rising, highVolume, obvRising, mfiHealthy},
	}
	switch {
	case rising.Passed && highVolume.Passed && obvRising.Passed && mfiHealthy.Passed:
		sig.Strength = model.StrengthStrong
		sig.Reason = "price, volume, OBV and MFI all confirm the move"
	case rising.Passed && highVolume.Passed && !obvRising.Passed:
		sig.Strength = model.StrengthWarningDivergent
		sig.Reason = "price and volume rise but OBV disagrees"
	default:
		sig.Strength = model.StrengthWeak
		sig.Reason = "move not confirmed"
	}
	return sig
}

// Evaluate classifies the last two bars of series. Fewer than two bars is
// NoData.
func Evaluate(series model.BarSeries, set model.IndicatorSet) model.Signal {
	n := len(series)
	if n < 2 {
		sig := NoData(fmt.Sprintf("need two bars, have %d", n))
		sig.Code = apperr.ErrCodeInsufficientHistory
		return sig
	}
	return Classify(SnapshotAt(series, set, n-1), SnapshotAt(series, set, n-2))
}

// NoData returns an insufficient-history signal.
func NoData(reason string) model.Signal {
	return model.Signal{Strength: model.StrengthNoData, Reason: reason}
}

// SnapshotAt collects the classifier inputs of bar i.
func SnapshotAt(series model.BarSeries, set model.IndicatorSet, i int) model.Snapshot {
	b := series[i]
	return model.Snapshot{
		Time:      b.Time,
		Close:     b.Close,
		Volume:    b.Volume,
		OBV:       set.At(model.IndicatorOBV, i),
		MFI:       set.At(model.IndicatorMFI, i),
		AvgVolume: set.At(model.IndicatorAvgVolume, i),
	}
}
