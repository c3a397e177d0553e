package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalizer"
)

// Credentials maps a provider to its API key. They are passed per call and
// never stored by the coordinator.
type Credentials map[model.ProviderKind]string

// Coordinator fetches one series from one provider with retry, optional
// caching and normalization.
type Coordinator struct {
	registry *Registry
	policy   RetryPolicy
	sleep    SleepFunc
	now      func() time.Time
	cache    Cache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithRetryPolicy(p RetryPolicy) Option { return func(c *Coordinator) { c.policy = p } }

// WithSleep replaces the delay function, mainly for tests.
func WithSleep(fn SleepFunc) Option { return func(c *Coordinator) { c.sleep = fn } }

func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// WithCache enables result caching. A non-positive ttl disables it.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Coordinator) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

func WithMetrics(m *metrics.Metrics) Option { return func(c *Coordinator) { c.metrics = m } }

func NewCoordinator(registry *Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry: registry,
		policy:   DefaultRetryPolicy(),
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the coordinator's provider registry.
func (c *Coordinator) Registry() *Registry { return c.registry }

// Fetch retrieves symbol's daily series for period from provider.
//
// A missing credential for a key-requiring provider fails with no attempt.
// Transient failures are retried up to the policy's attempt count; shape
// errors and provider rejections are not. A provider "no data" answer is
// Empty. Only Ok and Empty results are cached.
func (c *Coordinator) Fetch(ctx context.Context, symbol string, period model.Period, provider model.ProviderKind, creds Credentials) model.ProviderResult {
	symbol = strings.TrimSpace(symbol)
	res := c.fetch(ctx, symbol, period, provider, creds)
	res.Provider = provider
	res.Symbol = symbol
	if res.FetchedAt.IsZero() {
		res.FetchedAt = c.now().UTC()
	}
	c.metrics.Result(provider.String(), string(res.Kind))
	return res
}

func (c *Coordinator) fetch(ctx context.Context, symbol string, period model.Period, provider model.ProviderKind, creds Credentials) model.ProviderResult {
	log := logger.Get().With("provider", provider, "symbol", symbol)

	if symbol == "" {
		return model.Failed(apperr.New(apperr.ErrCodeInvalidRequest, "symbol is required"))
	}
	if _, err := model.ParsePeriod(string(period)); err != nil {
		return model.Failed(apperr.Wrap(apperr.ErrCodeInvalidRequest, "invalid period", err))
	}
	info, fetcher, err := c.registry.Lookup(provider)
	if err != nil {
		return model.Failed(err)
	}
	key := creds[provider]
	if info.RequiresKey && strings.TrimSpace(key) == "" {
		return model.Failed(apperr.Newf(apperr.ErrCodeMissingCredential, "provider %s requires an API key", provider))
	}

	cacheKey := CacheKey(symbol, period, provider)
	if c.cache != nil && c.cacheTTL > 0 {
		cached, hit := c.cache.Get(ctx, cacheKey)
		c.metrics.Cache(hit)
		if hit {
			cached.Cached = true
			return cached
		}
	}

	req := Request{Symbol: symbol, Period: period, Credential: key}
	maxAttempts := c.policy.attempts()
	var res model.ProviderResult
	for attempt := 1; ; attempt++ {
		res, err = c.attempt(ctx, fetcher, req)
		if err == nil {
			res.Attempts = attempt
			c.metrics.Attempt(provider.String(), string(res.Kind))
			break
		}
		c.metrics.Attempt(provider.String(), "error")

		code := apperr.GetCode(err)
		if ctx.Err() != nil || !code.Retryable() || attempt >= maxAttempts {
			log.Warnf("[fetch] giving up after %d attempt(s): %v", attempt, err)
			res = model.Failed(err)
			res.Attempts = attempt
			return res
		}

		delay := c.policy.Delay(attempt)
		log.Infof("[fetch] attempt %d/%d failed: %v, retrying in %s", attempt, maxAttempts, err, delay)
		if serr := c.sleep(ctx, delay); serr != nil {
			res = model.Failed(apperr.Wrap(apperr.ErrCodeTransientFetchFailure, "retry wait interrupted", serr))
			res.Attempts = attempt
			return res
		}
	}

	res.FetchedAt = c.now().UTC()
	if c.cache != nil && c.cacheTTL > 0 && (res.IsOK() || res.IsEmpty()) {
		c.cache.Set(ctx, cacheKey, res, c.cacheTTL)
	}
	return res
}

// attempt performs one provider call plus normalization. A returned error
// means the attempt failed; Ok and Empty results come back with nil.
func (c *Coordinator) attempt(ctx context.Context, fetcher Fetcher, req Request) (res model.ProviderResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Newf(apperr.ErrCodeProviderRejected, "%s adapter panicked: %v", fetcher.Kind(), r)
		}
	}()

	raw, err := fetcher.Fetch(ctx, req)
	if err != nil {
		return model.ProviderResult{}, err
	}
	parsed, err := normalizer.Parse(raw, fetcher.Kind())
	if err != nil {
		return model.ProviderResult{}, err
	}

	if w, ok := fetcher.(Windowed); ok {
		parsed.Series = parsed.Series.Since(w.Since(req))
	}
	if n := len(parsed.Dropped); n > 0 {
		c.metrics.Dropped(fetcher.Kind().String(), n)
		first := parsed.Dropped[0]
		logger.Get().Warnf("[normalize] %s %s: %s %d row(s), first: %v", fetcher.Kind(), req.Symbol, apperr.GetCode(first), n, first)
	}
	if parsed.NoData || len(parsed.Series) == 0 {
		reason := parsed.NoDataReason
		if reason == "" {
			reason = fmt.Sprintf("no usable rows for %s", req.Symbol)
		}
		res = model.Empty(reason)
	} else {
		res = model.Ok(parsed.Series)
	}
	res.Dropped = len(parsed.Dropped)
	return res, nil
}
