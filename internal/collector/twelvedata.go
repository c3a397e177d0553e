package collector

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"MarketPulse/internal/model"
)

const twelveDataBaseURL = "https://api.twelvedata.com"

// TwelveDataFetcher implements Fetcher using /time_series. Twelve Data
// reports most failures inside a 200 body, which the normalizer classifies.
type TwelveDataFetcher struct {
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

func NewTwelveDataFetcher(client *http.Client) *TwelveDataFetcher {
	return &TwelveDataFetcher{BaseURL: twelveDataBaseURL, Client: client, Now: time.Now}
}

// Since returns the first day of req's period window.
func (f *TwelveDataFetcher) Since(req Request) time.Time {
	from, _ := req.Period.Window(f.Now().UTC())
	return from.Truncate(24 * time.Hour)
}

func (f *TwelveDataFetcher) Kind() model.ProviderKind { return model.ProviderTwelveData }

func (f *TwelveDataFetcher) Fetch(ctx context.Context, req Request) (any, error) {
	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("interval", "1day")
	q.Set("outputsize", strconv.Itoa(req.Period.Days()))
	q.Set("apikey", req.Credential)
	return getBody(ctx, f.Client, "twelvedata", f.BaseURL+"/time_series?"+q.Encode(), nil)
}
