package collector

import (
	"context"
	"time"

	"MarketPulse/internal/model"
)

//go:generate mockgen -destination=./mocks/mock_fetcher.go -package=mocks MarketPulse/internal/collector Fetcher

// Request describes one provider call.
type Request struct {
	Symbol     string
	Period     model.Period
	Credential string
}

// Fetcher retrieves a raw daily time-series payload from one provider.
// The returned value is handed to normalizer.Parse with the fetcher's Kind.
type Fetcher interface {
	Kind() model.ProviderKind
	Fetch(ctx context.Context, req Request) (any, error)
}

// Windowed is implemented by fetchers whose provider cannot bound a request
// by date and so returns more history than the period asks for. The
// coordinator keeps only the bars from Since onward.
type Windowed interface {
	Since(req Request) time.Time
}
