package collector

import (
	"context"
	"time"
)

// RetryPolicy is a fixed attempt loop with a growing delay between attempts.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" validate:"gte=1,lte=10"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay" validate:"gte=0"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier" validate:"gte=1"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay" validate:"gte=0"`
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based). The
// sequence never decreases and is capped by MaxDelay when set.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
