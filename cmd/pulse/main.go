package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"MarketPulse/internal/api"
	"MarketPulse/internal/app"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/model"
)

// setup loads the config named by --config and wires the collector.
func setup(ctx context.Context, cmd *cli.Command) (*app.App, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cmd.String("log-level"), cfg.Env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	symbol := cmd.Args().First()
	if symbol == "" {
		return fmt.Errorf("usage: pulse analyze SYMBOL")
	}
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	settings := a.Collector.Settings()
	provider := settings.Provider
	if v := cmd.String("provider"); v != "" {
		provider = model.ProviderKind(strings.ToLower(v))
	}
	period := settings.Period
	if v := cmd.String("period"); v != "" {
		if period, err = model.ParsePeriod(v); err != nil {
			return err
		}
	}

	res, err := a.Collector.AnalyzeWith(ctx, symbol, provider, period)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return printJSON(res)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", res.Symbol, res.Provider, res.Signal.Strength)
	if res.Result == model.ResultOK {
		fmt.Fprintf(w, "close\t%.2f\n", res.LastClose())
		for _, key := range []string{model.IndicatorDailyReturn, model.IndicatorRSI, model.IndicatorMFI, model.IndicatorOBV, model.IndicatorAvgVolume} {
			v := res.Indicators[key].Last()
			if v.IsSome() {
				fmt.Fprintf(w, "%s\t%.2f\n", key, v.Unwrap())
			} else {
				fmt.Fprintf(w, "%s\tn/a\n", key)
			}
		}
		for _, f := range res.Signal.Factors {
			fmt.Fprintf(w, "%s\t%t\t%s\n", f.Name, f.Passed, f.Commentary)
		}
	} else {
		fmt.Fprintf(w, "reason\t%s\n", res.Reason)
	}
	return w.Flush()
}

func scanAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Scanning"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWriter(os.Stderr),
			)
		}
		_ = bar.Set(done)
	}

	var report *model.ScanReport
	if market := cmd.Args().First(); market != "" {
		report, err = a.Collector.ScanMarket(ctx, market, int(cmd.Int("limit")), progress)
	} else {
		report, err = a.Collector.Scan(ctx, a.Config.ScanSymbols(), int(cmd.Int("limit")), progress)
		if report != nil && len(a.Config.Scan.Watchlist) == 0 {
			report.Market = a.Config.Scan.Market
		}
	}
	fmt.Fprintln(os.Stderr)
	if report == nil {
		return err
	}
	if err != nil {
		logger.Get().Warnf("[scan] stopped early: %v", err)
	}
	if cmd.Bool("json") {
		return printJSON(report)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSYMBOL\tCLOSE\tRETURN%\tSIGNAL")
	for i, r := range report.Ranked {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%s\n", i+1, r.Symbol, r.LastClose(), r.LastReturn().Unwrap(), r.Signal.Strength)
	}
	for _, r := range report.Skipped {
		fmt.Fprintf(w, "-\t%s\t\t\t%s\n", r.Symbol, r.Reason)
	}
	return w.Flush()
}

func moversAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.Collector.Movers(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return printJSON(m)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, section := range []struct {
		title string
		rows  []model.Mover
	}{{"GAINERS", m.Gainers}, {"LOSERS", m.Losers}, {"MOST ACTIVE", m.MostActive}} {
		fmt.Fprintf(w, "%s\n", section.title)
		for _, mv := range section.rows {
			fmt.Fprintf(w, "  %s\t%.2f\t%+.2f%%\t%.0f\n", mv.Ticker, mv.Price, mv.ChangePercent, mv.Volume)
		}
	}
	return w.Flush()
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.Config.HTTP.Addr
	if v := cmd.String("addr"); v != "" {
		addr = v
	}
	return api.NewServer(a.Collector, a.Metrics).ListenAndServe(ctx, addr)
}

func main() {
	cmd := &cli.Command{
		Name:  "pulse",
		Usage: "Fetch daily bars, compute indicators and classify market strength",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config",
				Value:   "configs/config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
				Value: "warn",
			},
		},
		Commands: append([]*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyze one symbol",
				ArgsUsage: "SYMBOL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: fmt.Sprintf("One of %v", model.ProviderKinds)},
					&cli.StringFlag{Name: "period", Usage: "1mo, 3mo, 6mo, 1y or 2y"},
					jsonFlag(),
				},
				Action: analyzeAction,
			},
			{
				Name:      "scan",
				Usage:     "Rank a preset market or the configured watchlist by daily return",
				ArgsUsage: fmt.Sprintf("[%s]", strings.Join(collector.MarketNames(), "|")),
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Scan at most `N` symbols"},
					jsonFlag(),
				},
				Action: scanAction,
			},
			{
				Name:   "movers",
				Usage:  "Show the top gainers, losers and most active tickers",
				Flags:  []cli.Flag{jsonFlag()},
				Action: moversAction,
			},
			{
				Name:   "serve",
				Usage:  "Serve the JSON API and metrics",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "addr", Usage: "Listen address"}},
				Action: serveAction,
			},
		}, fundamentalsCommands()...),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Get().Fatal(err)
	}
}
