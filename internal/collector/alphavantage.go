package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"MarketPulse/internal/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageFetcher implements Fetcher using TIME_SERIES_DAILY.
type AlphaVantageFetcher struct {
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

func NewAlphaVantageFetcher(client *http.Client) *AlphaVantageFetcher {
	return &AlphaVantageFetcher{BaseURL: alphaVantageBaseURL, Client: client, Now: time.Now}
}

// Since returns the first day of req's period window.
func (f *AlphaVantageFetcher) Since(req Request) time.Time {
	from, _ := req.Period.Window(f.Now().UTC())
	return from.Truncate(24 * time.Hour)
}

func (f *AlphaVantageFetcher) Kind() model.ProviderKind { return model.ProviderAlphaVantage }

func (f *AlphaVantageFetcher) Fetch(ctx context.Context, req Request) (any, error) {
	// compact returns the latest 100 points
	size := "compact"
	if req.Period.Days() > 100 {
		size = "full"
	}
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", req.Symbol)
	q.Set("outputsize", size)
	q.Set("apikey", req.Credential)
	return getBody(ctx, f.Client, "alphavantage", f.BaseURL+"/query?"+q.Encode(), nil)
}

// FetchMovers returns the raw TOP_GAINERS_LOSERS body.
func (f *AlphaVantageFetcher) FetchMovers(ctx context.Context, apiKey string) ([]byte, error) {
	q := url.Values{}
	q.Set("function", "TOP_GAINERS_LOSERS")
	q.Set("apikey", apiKey)
	return getBody(ctx, f.Client, "alphavantage", f.BaseURL+"/query?"+q.Encode(), nil)
}

// FetchOverview returns the raw OVERVIEW company profile.
func (f *AlphaVantageFetcher) FetchOverview(ctx context.Context, symbol, apiKey string) ([]byte, error) {
	return f.query(ctx, "OVERVIEW", symbol, apiKey)
}

// FetchCashFlow returns the raw CASH_FLOW statements.
func (f *AlphaVantageFetcher) FetchCashFlow(ctx context.Context, symbol, apiKey string) ([]byte, error) {
	return f.query(ctx, "CASH_FLOW", symbol, apiKey)
}

// FetchQuote returns the raw GLOBAL_QUOTE of symbol.
func (f *AlphaVantageFetcher) FetchQuote(ctx context.Context, symbol, apiKey string) ([]byte, error) {
	return f.query(ctx, "GLOBAL_QUOTE", symbol, apiKey)
}

func (f *AlphaVantageFetcher) query(ctx context.Context, function, symbol, apiKey string) ([]byte, error) {
	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", apiKey)
	return getBody(ctx, f.Client, "alphavantage", f.BaseURL+"/query?"+q.Encode(), nil)
}
