package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"MarketPulse/internal/api"
	"MarketPulse/internal/app"
	"MarketPulse/internal/config"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer func() { _ = log.Sync() }()

	log.Info("MarketPulse starting...")
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()
	log.Infof("default provider: %s, period: %s", cfg.Providers.Default, cfg.Providers.Period)

	// Telegram, or the log when no bot is configured
	var (
		n  notifier.Notifier
		tn *notifier.TelegramNotifier
	)
	if cfg.TelegramEnabled() {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, a.HTTPClient, a.Metrics)
		if err != nil {
			log.Fatalf("init telegram: %v", err)
		}
		n = tn
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, reports go to the log")
		n = notifier.NewLogNotifier(a.Metrics)
	}

	sched := scheduler.NewScheduler(ctx, a.Collector, n, cfg.Scan.Market, cfg.Scan.Watchlist)
	sched.ScanLimit = cfg.Scan.Limit
	sched.MoversLimit = cfg.Scan.MoversLimit
	moversCron := cfg.Scan.MoversCron
	if cfg.Providers.AlphaVantage == "" {
		log.Warn("ALPHAVANTAGE_API_KEY not set, movers report disabled")
		moversCron = ""
	}
	if err := sched.RegisterAll(cfg.Scan.Cron, moversCron); err != nil {
		log.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		tn.HandleDocuments(sched.HandleDocument)
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("Telegram polling started")
	}

	if cfg.HTTP.Addr != "" {
		srv := api.NewServer(a.Collector, a.Metrics)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTP.Addr); err != nil {
				log.Errorf("api server: %v", err)
			}
		}()
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, executing scan now")
		go sched.RunScanNow()
	}

	log.Info("MarketPulse is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping...")
}
