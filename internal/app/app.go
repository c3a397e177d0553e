package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
)

// App bundles the components shared by the bot and the CLI.
type App struct {
	Config     *config.Config
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Registry   *collector.Registry
	Collector  *collector.Collector

	redis *redis.Client
}

// New wires the provider registry, the series cache and the collector from
// cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:     cfg,
		HTTPClient: collector.NewHTTPClient(cfg.Proxy, cfg.Providers.Timeout),
		Metrics:    metrics.New(),
	}
	a.Registry = collector.DefaultRegistry(a.HTTPClient)

	opts := []collector.Option{
		collector.WithRetryPolicy(cfg.Retry),
		collector.WithMetrics(a.Metrics),
	}
	cache, err := a.cache(ctx)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		opts = append(opts, collector.WithCache(cache, cfg.Cache.TTL))
	}

	_, movers, err := a.Registry.Lookup(model.ProviderAlphaVantage)
	if err != nil {
		return nil, err
	}
	av, _ := movers.(*collector.AlphaVantageFetcher)

	a.Collector = collector.NewCollector(
		collector.NewCoordinator(a.Registry, opts...),
		av,
		cfg.CollectorSettings(),
		a.Metrics,
	)
	return a, nil
}

func (a *App) cache(ctx context.Context) (collector.Cache, error) {
	switch a.Config.Cache.Backend {
	case "none":
		return nil, nil
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.Config.Cache.RedisAddr,
			Password: a.Config.Cache.RedisPassword,
			DB:       a.Config.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			_ = a.redis.Close()
			return nil, fmt.Errorf("connect redis %s: %w", a.Config.Cache.RedisAddr, err)
		}
		logger.Get().Infof("[cache] redis at %s, ttl %s", a.Config.Cache.RedisAddr, a.Config.Cache.TTL)
		return collector.NewRedisCache(a.redis, ""), nil
	default:
		return collector.NewMemoryCache(), nil
	}
}

// Close releases the redis connection, if any.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
