package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"MarketPulse/internal/model"
)

const tiingoBaseURL = "https://api.tiingo.com"

// TiingoFetcher implements Fetcher using the end-of-day prices endpoint.
type TiingoFetcher struct {
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

func NewTiingoFetcher(client *http.Client) *TiingoFetcher {
	return &TiingoFetcher{BaseURL: tiingoBaseURL, Client: client, Now: time.Now}
}

func (f *TiingoFetcher) Kind() model.ProviderKind { return model.ProviderTiingo }

// Fetch returns the raw price array. An unknown ticker is a 404 with a
// {"detail": ...} body, passed through as no data.
func (f *TiingoFetcher) Fetch(ctx context.Context, req Request) (any, error) {
	from, to := req.Period.Window(f.Now().UTC())
	q := url.Values{}
	q.Set("startDate", from.Format("2006-01-02"))
	q.Set("endDate", to.Format("2006-01-02"))
	q.Set("token", req.Credential)
	u := fmt.Sprintf("%s/tiingo/daily/%s/prices?%s", f.BaseURL, url.PathEscape(req.Symbol), q.Encode())

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return getBody(ctx, f.Client, "tiingo", u, header, http.StatusNotFound)
}
