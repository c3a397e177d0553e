package model

import (
	"time"

	apperr "MarketPulse/internal/errors"
)

// Strength is the classifier's label for the latest bar.
type Strength string

const (
	StrengthStrong           Strength = "Strong"
	StrengthWeak             Strength = "Weak"
	StrengthWarningDivergent Strength = "Warning-Divergent"
	StrengthNoData           Strength = "NoData"
)

// Snapshot holds one bar's classifier inputs.
type Snapshot struct {
	Time      time.Time `json:"time"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	OBV       Value     `json:"obv"`
	MFI       Value     `json:"mfi"`
	AvgVolume Value     `json:"avg_volume"`
}

// Factor is one boolean rule evaluated by the classifier.
type Factor struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	Commentary string `json:"commentary"`
}

// Signal is the result of one classification.
type Signal struct {
	Strength Strength         `json:"strength"`
	Last     *Snapshot        `json:"last,omitempty"`
	Previous *Snapshot        `json:"previous,omitempty"`
	Factors  []Factor         `json:"factors,omitempty"`
	Reason   string           `json:"reason"`
	Code     apperr.ErrorCode `json:"code,omitempty"` // set for insufficient history
}
