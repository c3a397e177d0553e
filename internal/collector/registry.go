package collector

import (
	"net/http"
	"sync"

	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/model"
)

// ProviderInfo describes a provider's capabilities.
type ProviderInfo struct {
	Kind        model.ProviderKind `json:"kind"`
	DisplayName string             `json:"display_name"`
	RequiresKey bool               `json:"requires_key"`
}

type registration struct {
	info    ProviderInfo
	fetcher Fetcher
}

// Registry maps provider kinds to their capabilities and adapters.
type Registry struct {
	mu      sync.RWMutex
	entries map[model.ProviderKind]registration
	order   []model.ProviderKind
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[model.ProviderKind]registration)}
}

// DefaultRegistry registers every built-in adapter on one HTTP client.
func DefaultRegistry(client *http.Client) *Registry {
	r := NewRegistry()
	r.Register(ProviderInfo{Kind: model.ProviderYahoo, DisplayName: "Yahoo Finance"}, NewYahooFetcher(client))
	r.Register(ProviderInfo{Kind: model.ProviderAlphaVantage, DisplayName: "Alpha Vantage", RequiresKey: true}, NewAlphaVantageFetcher(client))
	r.Register(ProviderInfo{Kind: model.ProviderFinnhub, DisplayName: "Finnhub", RequiresKey: true}, NewFinnhubFetcher(client))
	r.Register(ProviderInfo{Kind: model.ProviderTwelveData, DisplayName: "Twelve Data", RequiresKey: true}, NewTwelveDataFetcher(client))
	r.Register(ProviderInfo{Kind: model.ProviderTiingo, DisplayName: "Tiingo", RequiresKey: true}, NewTiingoFetcher(client))
	r.Register(ProviderInfo{Kind: model.ProviderPolygon, DisplayName: "Polygon.io", RequiresKey: true}, NewPolygonFetcher())
	r.Register(ProviderInfo{Kind: model.ProviderMock, DisplayName: "Mock"}, NewMockFetcher(100))
	return r
}

// Register adds or replaces the adapter for info.Kind.
func (r *Registry) Register(info ProviderInfo, f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[info.Kind]; !exists {
		r.order = append(r.order, info.Kind)
	}
	r.entries[info.Kind] = registration{info: info, fetcher: f}
}

// Lookup returns the adapter for kind, or an UNKNOWN_PROVIDER error.
func (r *Registry) Lookup(kind model.ProviderKind) (ProviderInfo, Fetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[kind]
	if !ok {
		return ProviderInfo{}, nil, apperr.Newf(apperr.ErrCodeUnknownProvider, "unknown provider %q", kind)
	}
	return e.info, e.fetcher, nil
}

// Providers lists registered providers in registration order.
func (r *Registry) Providers() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProviderInfo, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k].info)
	}
	return out
}
