package strategy

import (
	"fmt"

	"MarketPulse/internal/model"
)

// Healthy MFI band, exclusive on both ends.
const (
	MFIHealthyLow  = 50.0
	MFIHealthyHigh = 80.0
)

// Factor names.
const (
	FactorRising     = "is_rising"
	FactorHighVolume = "high_volume"
	FactorOBVRising  = "obv_rising"
	FactorMFIHealthy = "mfi_healthy"
)

func checkRising(last, prev model.Snapshot) model.Factor {
	passed := last.Close > prev.Close
	return model.Factor{
		Name:       FactorRising,
		Passed:     passed,
		Commentary: fmt.Sprintf("close %.2f vs %.2f", last.Close, prev.Close),
	}
}

func checkHighVolume(last model.Snapshot) model.Factor {
	if last.AvgVolume.IsNone() {
		return model.Factor{Name: FactorHighVolume, Commentary: "average volume unavailable"}
	}
	avg := last.AvgVolume.Unwrap()
	return model.Factor{
		Name:       FactorHighVolume,
		Passed:     last.Volume > avg,
		Commentary: fmt.Sprintf("volume %.0f vs average %.0f", last.Volume, avg),
	}
}

func checkOBVRising(last, prev model.Snapshot) model.Factor {
	if last.OBV.IsNone() || prev.OBV.IsNone() {
		return model.Factor{Name: FactorOBVRising, Commentary: "OBV unavailable"}
	}
	cur, before := last.OBV.Unwrap(), prev.OBV.Unwrap()
	return model.Factor{
		Name:       FactorOBVRising,
		Passed:     cur > before,
		Commentary: fmt.Sprintf("OBV %.0f vs %.0f", cur, before),
	}
}

func checkMFIHealthy(last model.Snapshot) model.Factor {
	if last.MFI.IsNone() {
		return model.Factor{Name: FactorMFIHealthy, Commentary: "MFI unavailable"}
	}
	mfi := last.MFI.Unwrap()
	return model.Factor{
		Name:       FactorMFIHealthy,
		Passed:     mfi > MFIHealthyLow && mfi < MFIHealthyHigh,
		Commentary: fmt.Sprintf("MFI %.1f", mfi),
	}
}
