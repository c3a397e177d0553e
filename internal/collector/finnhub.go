package collector

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"MarketPulse/internal/model"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubFetcher implements Fetcher using /stock/candle with daily
// resolution.
type FinnhubFetcher struct {
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

func NewFinnhubFetcher(client *http.Client) *FinnhubFetcher {
	return &FinnhubFetcher{BaseURL: finnhubBaseURL, Client: client, Now: time.Now}
}

func (f *FinnhubFetcher) Kind() model.ProviderKind { return model.ProviderFinnhub }

func (f *FinnhubFetcher) Fetch(ctx context.Context, req Request) (any, error) {
	from, to := req.Period.Window(f.Now().UTC())
	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("resolution", "D")
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))
	q.Set("token", req.Credential)
	return getBody(ctx, f.Client, "finnhub", f.BaseURL+"/stock/candle?"+q.Encode(), nil)
}

// FetchMetrics returns the raw /stock/metric?metric=all body.
func (f *FinnhubFetcher) FetchMetrics(ctx context.Context, symbol, apiKey string) ([]byte, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("metric", "all")
	q.Set("token", apiKey)
	return getBody(ctx, f.Client, "finnhub", f.BaseURL+"/stock/metric?"+q.Encode(), nil)
}
