package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"MarketPulse/internal/calculator"
	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalizer"
	"MarketPulse/internal/strategy"
)

// DefaultMinMoverPrice filters penny stocks out of the movers lists.
const DefaultMinMoverPrice = 0.55

// Settings configures a Collector.
type Settings struct {
	Provider      model.ProviderKind
	Period        model.Period
	Indicators    calculator.Config
	Credentials   Credentials
	ScanInterval  time.Duration // minimum gap between provider calls during a scan
	MinMoverPrice float64
}

// Collector orchestrates fetch, indicator computation and classification.
type Collector struct {
	coord    *Coordinator
	settings Settings
	limiter  *rate.Limiter
	av       *AlphaVantageFetcher
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewCollector creates a new Collector. av serves the movers, fundamentals
// and indices reports; it may be nil when those are not needed.
func NewCollector(coord *Coordinator, av *AlphaVantageFetcher, s Settings, m *metrics.Metrics) *Collector {
	if s.Provider == "" {
		s.Provider = model.ProviderYahoo
	}
	if s.Period == "" {
		s.Period = model.Period3Months
	}
	if s.Indicators.SMAWindows == nil {
		s.Indicators = calculator.DefaultConfig()
	}
	if s.MinMoverPrice <= 0 {
		s.MinMoverPrice = DefaultMinMoverPrice
	}
	limit := rate.Inf
	if s.ScanInterval > 0 {
		limit = rate.Every(s.ScanInterval)
	}
	return &Collector{
		coord:    coord,
		settings: s,
		limiter:  rate.NewLimiter(limit, 1),
		av:       av,
		metrics:  m,
		now:      time.Now,
	}
}

// Settings returns the collector's defaults.
func (c *Collector) Settings() Settings { return c.settings }

// Providers lists the registered providers.
func (c *Collector) Providers() []ProviderInfo { return c.coord.Registry().Providers() }

// Analyze runs the pipeline for symbol with the default provider and period.
func (c *Collector) Analyze(ctx context.Context, symbol string) (*model.Analysis, error) {
	return c.AnalyzeWith(ctx, symbol, c.settings.Provider, c.settings.Period)
}

// AnalyzeWith runs the pipeline for symbol with an explicit provider and
// period. The returned Analysis is always non-nil; the error is set when the
// fetch ended in an Error result.
func (c *Collector) AnalyzeWith(ctx context.Context, symbol string, provider model.ProviderKind, period model.Period) (*model.Analysis, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	a := &model.Analysis{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Provider:  provider,
		Period:    period,
		CreatedAt: c.now().UTC(),
	}

	res := c.coord.Fetch(ctx, symbol, period, provider, c.settings.Credentials)
	a.Result = res.Kind
	a.Reason = res.Reason
	a.Dropped = res.Dropped

	switch res.Kind {
	case model.ResultError:
		a.Signal = strategy.NoData(res.Reason)
		return a, fmt.Errorf("analyze %s via %s: %w", symbol, provider, res.Err)
	case model.ResultEmpty:
		a.Signal = strategy.NoData(res.Reason)
		c.metrics.Signal(string(a.Signal.Strength))
		return a, nil
	}

	set, err := calculator.ComputeIndicators(res.Series, c.settings.Indicators)
	if err != nil {
		a.Result = model.ResultError
		a.Reason = err.Error()
		a.Signal = strategy.NoData(err.Error())
		return a, apperr.Wrap(apperr.ErrCodeInvalidRequest, "compute indicators", err)
	}
	a.Bars = res.Series
	a.Indicators = set
	a.Signal = strategy.Evaluate(res.Series, set)
	a.Range = calculator.Ranges(res.Series)
	c.metrics.Signal(string(a.Signal.Strength))

	logger.Get().Infof("[analyze] %s via %s: %s (%d bars, %d dropped)", symbol, provider, a.Signal.Strength, len(res.Series), res.Dropped)
	return a, nil
}

// Scan analyzes the first limit symbols (all when limit <= 0) one after
// another, pacing provider calls with the scan interval. progress, when
// non-nil, is called after each symbol.
func (c *Collector) Scan(ctx context.Context, symbols []string, limit int, progress func(done, total int)) (*model.ScanReport, error) {
	if limit > 0 && limit < len(symbols) {
		symbols = symbols[:limit]
	}
	report := &model.ScanReport{StartedAt: c.now().UTC()}

	for i, sym := range symbols {
		if err := c.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("scan interrupted: %w", err)
		}
		a, err := c.Analyze(ctx, sym)
		if err != nil {
			logger.Get().Warnf("[scan] %s: %v", sym, err)
		}
		if a.Result == model.ResultOK && a.LastReturn().IsSome() {
			report.Ranked = append(report.Ranked, a)
		} else {
			report.Skipped = append(report.Skipped, a)
		}
		if progress != nil {
			progress(i+1, len(symbols))
		}
	}

	sort.SliceStable(report.Ranked, func(i, j int) bool {
		return report.Ranked[i].LastReturn().Unwrap() > report.Ranked[j].LastReturn().Unwrap()
	})
	report.FinishedAt = c.now().UTC()
	return report, nil
}

// ScanMarket scans a preset watchlist by name.
func (c *Collector) ScanMarket(ctx context.Context, market string, limit int, progress func(done, total int)) (*model.ScanReport, error) {
	symbols, ok := MarketSymbols(market)
	if !ok {
		return nil, apperr.Newf(apperr.ErrCodeInvalidRequest, "unknown market %q (want one of %s)", market, strings.Join(MarketNames(), ", "))
	}
	report, err := c.Scan(ctx, symbols, limit, progress)
	if report != nil {
		report.Market = market
	}
	return report, err
}

// Movers fetches the Alpha Vantage top gainers, losers and most active
// lists.
func (c *Collector) Movers(ctx context.Context) (*model.Movers, error) {
	av, key, err := c.alphaVantage()
	if err != nil {
		return nil, err
	}
	body, err := av.FetchMovers(ctx, key)
	c.metrics.Attempt(model.ProviderAlphaVantage.String(), outcome(err))
	if err != nil {
		return nil, fmt.Errorf("fetch movers: %w", err)
	}
	movers, err := normalizer.ParseMovers(body, c.settings.MinMoverPrice)
	if err != nil {
		return nil, fmt.Errorf("parse movers: %w", err)
	}
	movers.FetchedAt = c.now().UTC()
	return movers, nil
}
