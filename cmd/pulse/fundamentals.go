package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalizer"
	"MarketPulse/internal/strategy"
)

func percent(v model.Value) string {
	if v.IsNone() {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v.Unwrap())
}

func indicesAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Collector.Indices(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return printJSON(report)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, q := range report.Quotes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%+.2f\t%+.2f%%\n", q.Key, q.Name, humanize.CommafWithDigits(q.Price, 2), q.Change, q.ChangePercent)
	}
	for _, key := range report.Failed {
		fmt.Fprintf(w, "%s\tunavailable\n", key)
	}
	return w.Flush()
}

func roeAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	screen, err := a.Collector.ScreenROE(ctx, cmd.Args().Slice(), cmd.Float("min"), cmd.String("sector"))
	if screen == nil {
		return err
	}
	if err != nil {
		logger.Get().Warnf("[roe] stopped early: %v", err)
	}
	if cmd.Bool("json") {
		return printJSON(screen)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tSECTOR\tROE\tMARKET CAP")
	for _, ov := range screen.Matches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ov.Symbol, ov.Name, ov.Sector, percent(ov.ROE), humanize.Comma(int64(ov.MarketCap)))
	}
	for _, sym := range screen.Skipped {
		fmt.Fprintf(w, "%s\tskipped\n", sym)
	}
	return w.Flush()
}

func fcfAction(ctx context.Context, cmd *cli.Command) error {
	symbol := cmd.Args().First()
	if symbol == "" {
		return fmt.Errorf("usage: pulse fcf SYMBOL")
	}
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cf, err := a.Collector.FreeCashFlow(ctx, symbol)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return printJSON(cf)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FISCAL YEAR\tOPERATING\tCAPEX\tFREE CASH FLOW")
	for _, y := range cf.Years {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", y.FiscalDateEnding,
			humanize.Comma(int64(y.OperatingCashflow)), humanize.Comma(int64(y.CapitalExpenditures)), humanize.Comma(int64(y.FreeCashFlow)))
	}
	return w.Flush()
}

func marginsAction(ctx context.Context, cmd *cli.Command) error {
	symbol := cmd.Args().First()
	if symbol == "" {
		return fmt.Errorf("usage: pulse margins SYMBOL")
	}
	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.Collector.Margins(ctx, symbol)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return printJSON(m)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\n", m.Symbol)
	fmt.Fprintf(w, "operating margin\t%s\n", percent(m.OperatingMargin))
	fmt.Fprintf(w, "net margin\t%s\n", percent(m.NetMargin))
	fmt.Fprintf(w, "revenue growth\t%s\n", percent(m.RevenueGrowth))
	return w.Flush()
}

// companiesAction screens a company list CSV. It needs no provider, so the
// config is not loaded.
func companiesAction(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: pulse companies FILE.csv")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	list, err := normalizer.ParseCompanies(f)
	if err != nil {
		return err
	}
	passed := strategy.FilterCompanies(list.Companies)
	if cmd.Bool("json") {
		return printJSON(passed)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tPRICE\tMARKET CAP\tDIVIDEND")
	for _, c := range passed {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%.2f\n", c.Symbol, c.Name, c.Price, humanize.Comma(int64(c.MarketCap)), c.LastAnnualDividend)
	}
	fmt.Fprintf(w, "%d of %d passed", len(passed), len(list.Companies)+len(list.Dropped))
	if len(list.Dropped) > 0 {
		fmt.Fprintf(w, ", %d malformed row(s) skipped", len(list.Dropped))
	}
	fmt.Fprintln(w)
	return w.Flush()
}

func fundamentalsCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "indices",
			Usage:  "Quote the major US indices",
			Flags:  []cli.Flag{jsonFlag()},
			Action: indicesAction,
		},
		{
			Name:      "roe",
			Usage:     "Screen symbols by return on equity",
			ArgsUsage: "[SYMBOL...]",
			Flags: []cli.Flag{
				&cli.FloatFlag{Name: "min", Usage: "Minimum ROE in percent", Value: collector.DefaultMinROE},
				&cli.StringFlag{Name: "sector", Usage: "Keep only this sector"},
				jsonFlag(),
			},
			Action: roeAction,
		},
		{
			Name:      "fcf",
			Usage:     "Show annual free cash flow",
			ArgsUsage: "SYMBOL",
			Flags:     []cli.Flag{jsonFlag()},
			Action:    fcfAction,
		},
		{
			Name:      "margins",
			Usage:     "Show trailing margins and revenue growth",
			ArgsUsage: "SYMBOL",
			Flags:     []cli.Flag{jsonFlag()},
			Action:    marginsAction,
		},
		{
			Name:      "companies",
			Usage:     "Screen a company list CSV for large dividend payers",
			ArgsUsage: "FILE.csv",
			Flags:     []cli.Flag{jsonFlag()},
			Action:    companiesAction,
		},
	}
}
