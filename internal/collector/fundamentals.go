package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalizer"
)

// DefaultMinROE is the ROE screen threshold in percent.
const DefaultMinROE = 15.0

// DefaultROESymbols is screened when no symbols are given.
var DefaultROESymbols = []string{"AAPL", "MSFT", "JNJ", "XOM", "JPM"}

// MarketIndex names one index of the market overview.
type MarketIndex struct {
	Key    string
	Symbol string
	Name   string
}

// DefaultIndices are quoted by Indices.
var DefaultIndices = []MarketIndex{
	{Key: "DJIA", Symbol: "^DJI", Name: "Dow Jones"},
	{Key: "SPX", Symbol: "^GSPC", Name: "S&P 500"},
	{Key: "NDX", Symbol: "^IXIC", Name: "Nasdaq"},
	{Key: "RUT", Symbol: "^RUT", Name: "Russell 2000"},
}

// MetricsSource returns a raw Finnhub metric body.
type MetricsSource interface {
	FetchMetrics(ctx context.Context, symbol, apiKey string) ([]byte, error)
}

func (c *Collector) alphaVantage() (*AlphaVantageFetcher, string, error) {
	if c.av == nil {
		return nil, "", apperr.New(apperr.ErrCodeInvalidRequest, "alpha vantage source not configured")
	}
	key := c.settings.Credentials[model.ProviderAlphaVantage]
	if strings.TrimSpace(key) == "" {
		return nil, "", apperr.New(apperr.ErrCodeMissingCredential, "this report requires an Alpha Vantage API key")
	}
	return c.av, key, nil
}

// ScreenROE reads the company overview of each symbol and keeps those whose
// ROE is at least minROE, optionally restricted to one sector. Symbols that
// fail or have no ROE are listed as skipped. Calls are paced with the scan
// interval.
func (c *Collector) ScreenROE(ctx context.Context, symbols []string, minROE float64, sector string) (*model.ROEScreen, error) {
	av, key, err := c.alphaVantage()
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		symbols = DefaultROESymbols
	}
	screen := &model.ROEScreen{MinROE: minROE, Sector: sector}
	log := logger.Get()

	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if err := c.limiter.Wait(ctx); err != nil {
			return screen, fmt.Errorf("roe screen interrupted: %w", err)
		}
		body, err := av.FetchOverview(ctx, sym, key)
		c.metrics.Attempt(model.ProviderAlphaVantage.String(), outcome(err))
		if err != nil {
			log.Warnf("[roe] %s: %v", sym, err)
			screen.Skipped = append(screen.Skipped, sym)
			continue
		}
		ov, err := normalizer.ParseOverview(body, sym)
		if err != nil || ov == nil || ov.ROE.IsNone() {
			log.Warnf("[roe] %s: no usable overview (%v)", sym, err)
			screen.Skipped = append(screen.Skipped, sym)
			continue
		}
		if sector != "" && !strings.EqualFold(ov.Sector, sector) {
			continue
		}
		if ov.ROE.Unwrap() >= minROE {
			screen.Matches = append(screen.Matches, *ov)
		}
	}

	sort.SliceStable(screen.Matches, func(i, j int) bool {
		return screen.Matches[i].ROE.Unwrap() > screen.Matches[j].ROE.Unwrap()
	})
	screen.FetchedAt = c.now().UTC()
	return screen, nil
}

// FreeCashFlow reads symbol's annual cash flow statements. A symbol without
// reports yields an empty CashFlow, not an error.
func (c *Collector) FreeCashFlow(ctx context.Context, symbol string) (*model.CashFlow, error) {
	av, key, err := c.alphaVantage()
	if err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidRequest, "symbol is required")
	}
	body, err := av.FetchCashFlow(ctx, symbol, key)
	c.metrics.Attempt(model.ProviderAlphaVantage.String(), outcome(err))
	if err != nil {
		return nil, fmt.Errorf("fetch cash flow %s: %w", symbol, err)
	}
	cf, err := normalizer.ParseCashFlow(body, symbol)
	if err != nil {
		return nil, fmt.Errorf("parse cash flow %s: %w", symbol, err)
	}
	if cf == nil {
		cf = &model.CashFlow{Symbol: symbol}
	}
	if cf.Dropped > 0 {
		c.metrics.Dropped(model.ProviderAlphaVantage.String(), cf.Dropped)
	}
	cf.FetchedAt = c.now().UTC()
	return cf, nil
}

// Margins reads symbol's trailing margins and revenue growth from Finnhub.
// Metrics the provider does not report are None.
func (c *Collector) Margins(ctx context.Context, symbol string) (*model.Margins, error) {
	_, fetcher, err := c.coord.Registry().Lookup(model.ProviderFinnhub)
	if err != nil {
		return nil, err
	}
	src, ok := fetcher.(MetricsSource)
	if !ok {
		return nil, apperr.New(apperr.ErrCodeInvalidRequest, "finnhub fetcher does not serve metrics")
	}
	key := c.settings.Credentials[model.ProviderFinnhub]
	if strings.TrimSpace(key) == "" {
		return nil, apperr.New(apperr.ErrCodeMissingCredential, "margins require a Finnhub API key")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidRequest, "symbol is required")
	}

	body, err := src.FetchMetrics(ctx, symbol, key)
	c.metrics.Attempt(model.ProviderFinnhub.String(), outcome(err))
	if err != nil {
		return nil, fmt.Errorf("fetch metrics %s: %w", symbol, err)
	}
	m, err := normalizer.ParseMetrics(body, symbol)
	if err != nil {
		return nil, fmt.Errorf("parse metrics %s: %w", symbol, err)
	}
	if m == nil {
		m = &model.Margins{Symbol: symbol}
	}
	m.FetchedAt = c.now().UTC()
	return m, nil
}

// Indices quotes DefaultIndices. An index whose quote fails is listed in
// Failed; the report is returned as long as the context is alive.
func (c *Collector) Indices(ctx context.Context) (*model.IndicesReport, error) {
	av, key, err := c.alphaVantage()
	if err != nil {
		return nil, err
	}
	report := &model.IndicesReport{}
	for _, idx := range DefaultIndices {
		if err := c.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("indices interrupted: %w", err)
		}
		body, err := av.FetchQuote(ctx, idx.Symbol, key)
		c.metrics.Attempt(model.ProviderAlphaVantage.String(), outcome(err))
		var q *model.IndexQuote
		if err == nil {
			q, err = normalizer.ParseGlobalQuote(body)
		}
		if err != nil || q == nil {
			logger.Get().Warnf("[indices] %s: no quote (%v)", idx.Symbol, err)
			report.Failed = append(report.Failed, idx.Key)
			continue
		}
		q.Key, q.Symbol, q.Name = idx.Key, idx.Symbol, idx.Name
		report.Quotes = append(report.Quotes, *q)
	}
	report.FetchedAt = c.now().UTC()
	return report, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return string(model.ResultOK)
}
