package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Env      string `yaml:"env" envconfig:"APP_ENV" validate:"omitempty,oneof=development production"`
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Proxy    string `yaml:"proxy" envconfig:"HTTPS_PROXY"`

	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID" validate:"required_with=BotToken,omitempty,numeric"`
	} `yaml:"telegram"`

	Providers struct {
		Default      string        `yaml:"default" envconfig:"PROVIDER" validate:"oneof=yahoo alphavantage finnhub twelvedata tiingo polygon mock"`
		Period       string        `yaml:"period" envconfig:"PERIOD" validate:"oneof=1mo 3mo 6mo 1y 2y"`
		Timeout      time.Duration `yaml:"timeout" envconfig:"HTTP_TIMEOUT" validate:"gte=0"`
		AlphaVantage string        `yaml:"alphavantage_api_key" envconfig:"ALPHAVANTAGE_API_KEY"`
		Finnhub      string        `yaml:"finnhub_api_key" envconfig:"FINNHUB_API_KEY"`
		TwelveData   string        `yaml:"twelvedata_api_key" envconfig:"TWELVEDATA_API_KEY"`
		Tiingo       string        `yaml:"tiingo_api_key" envconfig:"TIINGO_API_KEY"`
		Polygon      string        `yaml:"polygon_api_key" envconfig:"POLYGON_API_KEY"`
	} `yaml:"providers"`

	Retry      collector.RetryPolicy `yaml:"retry"`
	Indicators calculator.Config     `yaml:"indicators"`

	Cache struct {
		Backend       string        `yaml:"backend" envconfig:"CACHE_BACKEND" validate:"oneof=memory redis none"`
		TTL           time.Duration `yaml:"ttl" envconfig:"CACHE_TTL" validate:"gte=0"`
		RedisAddr     string        `yaml:"redis_addr" envconfig:"REDIS_ADDR" validate:"required_if=Backend redis"`
		RedisPassword string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
		RedisDB       int           `yaml:"redis_db" envconfig:"REDIS_DB" validate:"gte=0"`
	} `yaml:"cache"`

	Scan struct {
		Market        string        `yaml:"market" envconfig:"SCAN_MARKET"`
		Watchlist     []string      `yaml:"watchlist" envconfig:"WATCHLIST"`
		Limit         int           `yaml:"limit" envconfig:"SCAN_LIMIT" validate:"gte=0"`
		Interval      time.Duration `yaml:"interval" envconfig:"SCAN_INTERVAL"` // negative disables pacing
		Cron          string        `yaml:"cron" envconfig:"SCAN_CRON"`
		MoversCron    string        `yaml:"movers_cron" envconfig:"MOVERS_CRON"`
		MinMoverPrice float64       `yaml:"min_mover_price" envconfig:"MIN_MOVER_PRICE" validate:"gte=0"`
		MoversLimit   int           `yaml:"movers_limit" envconfig:"MOVERS_LIMIT" validate:"gte=0"`
	} `yaml:"scan"`

	HTTP struct {
		Addr string `yaml:"addr" envconfig:"HTTP_ADDR"`
	} `yaml:"http"`
}

// Load reads config from a YAML file, then a .env file, then environment
// variable overrides, and fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env never overrides variables already set in the environment
	_ = godotenv.Load()

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Providers.Default == "" {
		c.Providers.Default = string(model.ProviderYahoo)
	}
	if c.Providers.Period == "" {
		c.Providers.Period = string(model.Period3Months)
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = 30 * time.Second
	}

	def := collector.DefaultRetryPolicy()
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = def.MaxAttempts
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = def.BaseDelay
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = def.Multiplier
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = def.MaxDelay
	}

	ind := calculator.DefaultConfig()
	if len(c.Indicators.SMAWindows) == 0 {
		c.Indicators.SMAWindows = ind.SMAWindows
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = ind.RSIPeriod
	}
	if c.Indicators.MFIWindow == 0 {
		c.Indicators.MFIWindow = ind.MFIWindow
	}
	if c.Indicators.AvgVolumeWindow == 0 {
		c.Indicators.AvgVolumeWindow = ind.AvgVolumeWindow
	}
	if c.Indicators.RSISmoothing == "" {
		c.Indicators.RSISmoothing = ind.RSISmoothing
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}

	if c.Scan.Market == "" && len(c.Scan.Watchlist) == 0 {
		c.Scan.Market = "NASDAQ"
	}
	if c.Scan.Interval == 0 {
		c.Scan.Interval = 12 * time.Second
	}
	if c.Scan.Cron == "" {
		c.Scan.Cron = "0 30 16 * * 1-5"
	}
	if c.Scan.MoversCron == "" {
		c.Scan.MoversCron = "0 0 17 * * 1-5"
	}
	if c.Scan.MinMoverPrice == 0 {
		c.Scan.MinMoverPrice = collector.DefaultMinMoverPrice
	}
	if c.Scan.MoversLimit == 0 {
		c.Scan.MoversLimit = 10
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if c.Scan.Market != "" {
		if _, ok := collector.MarketSymbols(c.Scan.Market); !ok {
			return fmt.Errorf("scan.market %q is not one of %v", c.Scan.Market, collector.MarketNames())
		}
	}
	return nil
}

// Credentials maps the configured API keys by provider.
func (c *Config) Credentials() collector.Credentials {
	creds := collector.Credentials{}
	for kind, key := range map[model.ProviderKind]string{
		model.ProviderAlphaVantage: c.Providers.AlphaVantage,
		model.ProviderFinnhub:      c.Providers.Finnhub,
		model.ProviderTwelveData:   c.Providers.TwelveData,
		model.ProviderTiingo:       c.Providers.Tiingo,
		model.ProviderPolygon:      c.Providers.Polygon,
	} {
		if key != "" {
			creds[kind] = key
		}
	}
	return creds
}

// TelegramEnabled reports whether a bot token is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// ScanSymbols returns the explicit watchlist, or the preset market's
// symbols.
func (c *Config) ScanSymbols() []string {
	if len(c.Scan.Watchlist) > 0 {
		return c.Scan.Watchlist
	}
	syms, _ := collector.MarketSymbols(c.Scan.Market)
	return syms
}

// CollectorSettings builds the collector defaults from the config.
func (c *Config) CollectorSettings() collector.Settings {
	return collector.Settings{
		Provider:      model.ProviderKind(c.Providers.Default),
		Period:        model.Period(c.Providers.Period),
		Indicators:    c.Indicators,
		Credentials:   c.Credentials(),
		ScanInterval:  max(c.Scan.Interval, 0),
		MinMoverPrice: c.Scan.MinMoverPrice,
	}
}
