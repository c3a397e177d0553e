// Package calculator computes indicator series from a canonical bar
// series. Every function is pure; readings before a lookback window fills
// are model "no value" entries, never zero.
package calculator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"MarketPulse/internal/model"
)

// Config selects the indicator windows.
type Config struct {
	SMAWindows      []int  `yaml:"sma_windows" json:"sma_windows" validate:"required,min=1,dive,gte=1"`
	RSIPeriod       int    `yaml:"rsi_period" json:"rsi_period" validate:"gte=1"`
	MFIWindow       int    `yaml:"mfi_window" json:"mfi_window" validate:"gte=1"`
	AvgVolumeWindow int    `yaml:"avg_volume_window" json:"avg_volume_window" validate:"gte=1"`
	RSISmoothing    string `yaml:"rsi_smoothing" json:"rsi_smoothing" validate:"omitempty,oneof=simple wilder"`
}

// DefaultConfig returns SMA 20, RSI 14, MFI 14 and a 20-bar volume average.
func DefaultConfig() Config {
	return Config{
		SMAWindows:      []int{20},
		RSIPeriod:       14,
		MFIWindow:       14,
		AvgVolumeWindow: 20,
		RSISmoothing:    SmoothingSimple,
	}
}

// Validate checks window sizes.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("indicator config: %w", err)
	}
	return nil
}

// ComputeIndicators derives every configured indicator from series. Each
// resulting series has len(series) entries.
func ComputeIndicators(series model.BarSeries, cfg Config) (model.IndicatorSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	closes := series.Closes()
	set := model.IndicatorSet{
		model.IndicatorOBV:         OBV(series),
		model.IndicatorMFI:         MFI(series, cfg.MFIWindow),
		model.IndicatorDailyReturn: DailyReturn(series),
		model.IndicatorAvgVolume:   AvgVolume(series, cfg.AvgVolumeWindow),
	}
	if cfg.RSISmoothing == SmoothingWilder {
		set[model.IndicatorRSI] = WilderRSI(closes, cfg.RSIPeriod)
	} else {
		set[model.IndicatorRSI] = RSI(closes, cfg.RSIPeriod)
	}
	for _, w := range cfg.SMAWindows {
		set[model.SMAKey(w)] = SMA(closes, w)
	}
	return set, nil
}
