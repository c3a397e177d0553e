package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"MarketPulse/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API. No key
// is required.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(client *http.Client) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  client,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"TASI":   "^TASI.SR",
		},
	}
}

func (f *YahooFetcher) Kind() model.ProviderKind { return model.ProviderYahoo }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// Fetch returns the raw chart body. Yahoo answers an unknown ticker with a
// 404 whose body carries chart.error, which the normalizer reads as no data.
func (f *YahooFetcher) Fetch(ctx context.Context, req Request) (any, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(req.Symbol)), req.Period)

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0")
	return getBody(ctx, f.Client, "yahoo", u, header, http.StatusNotFound)
}
