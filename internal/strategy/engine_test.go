package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"

	"MarketPulse/internal/calculator"
	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
)

func snapshots(lastOBV float64) (last, prev model.Snapshot) {
	prev = model.Snapshot{
		Close:     100,
		Volume:    1_400_000,
		OBV:       optional.Some(1000.0),
		MFI:       optional.Some(60.0),
		AvgVolume: optional.Some(1_450_000.0),
	}
	last = model.Snapshot{
		Close:     105,
		Volume:    2_000_000,
		OBV:       optional.Some(lastOBV),
		MFI:       optional.Some(65.0),
		AvgVolume: optional.Some(1_500_000.0),
	}
	return last, prev
}

func TestClassify_Strong(t *testing.T) {
	last, prev := snapshots(1200)
	sig := Classify(last, prev)
	if sig.Strength != model.StrengthStrong {
		t.Fatalf("expected Strong, got %s (%s)", sig.Strength, sig.Reason)
	}
	if len(sig.Factors) != 4 {
		t.Fatalf("expected 4 factors, got %d", len(sig.Factors))
	}
	for _, f := range sig.Factors {
		if !f.Passed {
			t.Errorf("factor %s should pass: %s", f.Name, f.Commentary)
		}
	}
}

func TestClassify_WarningDivergent(t *testing.T) {
	last, prev := snapshots(800)
	sig := Classify(last, prev)
	if sig.Strength != model.StrengthWarningDivergent {
		t.Fatalf("expected Warning-Divergent, got %s", sig.Strength)
	}
}

func TestClassify_Weak(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(last, prev *model.Snapshot)
	}{
		{"falling close", func(last, _ *model.Snapshot) { last.Close = 99 }},
		{"low volume", func(last, _ *model.Snapshot) { last.Volume = 1_000_000 }},
		{"MFI overheated", func(last, _ *model.Snapshot) { last.MFI = optional.Some(85.0) }},
		{"MFI on the lower bound", func(last, _ *model.Snapshot) { last.MFI = optional.Some(50.0) }},
		{"MFI missing", func(last, _ *model.Snapshot) { last.MFI = optional.None[float64]() }},
		{"average volume missing", func(last, _ *model.Snapshot) { last.AvgVolume = optional.None[float64]() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last, prev := snapshots(1200)
			tt.mutate(&last, &prev)
			if got := Classify(last, prev).Strength; got != model.StrengthWeak {
				t.Errorf("expected Weak, got %s", got)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	last, prev := snapshots(800)
	a := Classify(last, prev)
	b := Classify(last, prev)
	if a.Strength != b.Strength || a.Reason != b.Reason {
		t.Errorf("classification changed between calls: %v vs %v", a, b)
	}
}

func TestEvaluate_SingleBarIsNoData(t *testing.T) {
	series := model.BarSeries{{Time: time.Now(), Open: 1, High: 1, Low: 1, Close: 1, Volume: 10}}
	set, err := calculator.ComputeIndicators(series, calculator.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	sig := Evaluate(series, set)
	if sig.Strength != model.StrengthNoData {
		t.Fatalf("expected NoData, got %s", sig.Strength)
	}
	if sig.Last != nil || sig.Previous != nil {
		t.Error("NoData signal should not carry snapshots")
	}
	if sig.Code != apperr.ErrCodeInsufficientHistory {
		t.Errorf("expected code %s, got %q", apperr.ErrCodeInsufficientHistory, sig.Code)
	}
	if NoData("provider had nothing").Code != "" {
		t.Error("an empty provider result is not insufficient history")
	}
}

func TestEvaluate_UsesLastTwoBars(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := make(model.BarSeries, 30)
	for i := range series {
		c := 100 + float64(i%3)
		series[i] = model.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	set, err := calculator.ComputeIndicators(series, calculator.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	sig := Evaluate(series, set)
	if sig.Last == nil || !sig.Last.Time.Equal(series[29].Time) {
		t.Fatalf("expected last snapshot at %s", series[29].Time)
	}
	if !sig.Previous.Time.Equal(series[28].Time) {
		t.Errorf("expected previous snapshot at %s, got %s", series[28].Time, sig.Previous.Time)
	}
	if sig.Last.AvgVolume.IsNone() || sig.Last.MFI.IsNone() {
		t.Error("30 bars should fill the default windows")
	}
}
