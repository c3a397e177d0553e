package collector

import (
	"context"
	"math"
	"time"

	"MarketPulse/internal/model"
)

// MockFetcher returns synthetic or fixed bars for development and testing.
// The payload uses the generic table layout.
type MockFetcher struct {
	Price float64
	Bars  model.BarSeries // returned as-is when set
	Now   func() time.Time
}

func NewMockFetcher(price float64) *MockFetcher {
	return &MockFetcher{Price: price, Now: time.Now}
}

func (m *MockFetcher) Kind() model.ProviderKind { return model.ProviderMock }

func (m *MockFetcher) Fetch(ctx context.Context, req Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars := m.Bars
	if bars == nil {
		now := time.Now
		if m.Now != nil {
			now = m.Now
		}
		bars = generateMockBars(m.Price, req.Period.Days(), now().UTC())
	}

	records := make([]map[string]any, len(bars))
	for i, b := range bars {
		records[i] = map[string]any{
			"Date":   b.Time.Format(time.RFC3339),
			"Open":   b.Open,
			"High":   b.High,
			"Low":    b.Low,
			"Close":  b.Close,
			"Volume": b.Volume,
		}
	}
	return records, nil
}

// generateMockBars builds count daily bars ending the day before end, with a
// slight uptrend and a wave so every indicator window sees gains and losses.
func generateMockBars(basePrice float64, count int, end time.Time) model.BarSeries {
	if basePrice <= 0 {
		basePrice = 100
	}
	day := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	bars := make(model.BarSeries, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001 + 0.01*math.Sin(float64(i)*0.7))
		bars[i] = model.Bar{
			Time:   day.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: float64(1000000 + (i%5)*150000),
		}
	}
	return bars
}
