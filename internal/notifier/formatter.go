package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"

	"MarketPulse/internal/model"
)

func strengthBadge(s model.Strength) string {
	switch s {
	case model.StrengthStrong:
		return "🟢 Strong"
	case model.StrengthWarningDivergent:
		return "🟠 Warning (divergent)"
	case model.StrengthWeak:
		return "🔴 Weak"
	default:
		return "⚪ No data"
	}
}

func formatValue(v model.Value, digits int) string {
	if v.IsNone() {
		return "n/a"
	}
	return humanize.CommafWithDigits(v.Unwrap(), digits)
}

func formatVolume(v float64) string {
	return humanize.Comma(int64(v))
}

// FormatAnalysis formats one symbol's analysis into a Telegram message.
func FormatAnalysis(a *model.Analysis) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s | %s\n", html.EscapeString(a.Symbol), a.Provider, a.CreatedAt.Format("2006-01-02")))

	if a.Result != model.ResultOK {
		b.WriteString(fmt.Sprintf("\n%s\n%s\n", strengthBadge(model.StrengthNoData), html.EscapeString(a.Reason)))
		return b.String()
	}

	last, _ := a.Bars.Last()
	b.WriteString(fmt.Sprintf("Close: %s (%s%%)\n", humanize.CommafWithDigits(last.Close, 2), formatValue(a.LastReturn(), 2)))
	b.WriteString(fmt.Sprintf("Volume: %s | Avg: %s\n", formatVolume(last.Volume), formatValue(a.Indicators[model.IndicatorAvgVolume].Last(), 0)))
	b.WriteString(fmt.Sprintf("RSI: %s | MFI: %s | OBV: %s\n",
		formatValue(a.Indicators[model.IndicatorRSI].Last(), 1),
		formatValue(a.Indicators[model.IndicatorMFI].Last(), 1),
		formatValue(a.Indicators[model.IndicatorOBV].Last(), 0)))
	if r := a.Range; r != nil {
		b.WriteString(fmt.Sprintf("52w: %.2f - %.2f (%.0f%%) | 30d: %.2f - %.2f\n",
			r.Low52w, r.High52w, r.Position52w*100, r.Low30d, r.High30d))
	}

	b.WriteString(fmt.Sprintf("\n<b>Signal:</b> %s\n", strengthBadge(a.Signal.Strength)))
	for _, f := range a.Signal.Factors {
		mark := "✗"
		if f.Passed {
			mark = "✓"
		}
		b.WriteString(fmt.Sprintf("  %s %s: %s\n", mark, f.Name, html.EscapeString(f.Commentary)))
	}
	if a.Dropped > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d malformed row(s) skipped\n", a.Dropped))
	}
	return b.String()
}

// FormatScan formats a watchlist scan ranked by daily return.
func FormatScan(r *model.ScanReport) string {
	var b strings.Builder
	title := "Watchlist scan"
	if r.Market != "" {
		title = html.EscapeString(r.Market) + " scan"
	}
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b> | %s\n\n", title, r.StartedAt.Format("2006-01-02 15:04")))

	if len(r.Ranked) == 0 {
		b.WriteString("No symbol returned data.\n")
	}
	for i, a := range r.Ranked {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s (%s%%) %s\n",
			i+1, html.EscapeString(a.Symbol),
			humanize.CommafWithDigits(a.LastClose(), 2),
			formatValue(a.LastReturn(), 2),
			strengthBadge(a.Signal.Strength)))
	}
	if len(r.Skipped) > 0 {
		names := make([]string, len(r.Skipped))
		for i, a := range r.Skipped {
			names[i] = html.EscapeString(a.Symbol)
		}
		b.WriteString(fmt.Sprintf("\nSkipped: %s\n", strings.Join(names, ", ")))
	}
	return b.String()
}

// FormatMovers formats the top gainers, losers and most active lists,
// showing at most limit rows each.
func FormatMovers(m *model.Movers, limit int) string {
	var b strings.Builder
	b.WriteString("🚀 <b>Top movers</b>")
	if m.LastUpdated != "" {
		b.WriteString(" | " + html.EscapeString(m.LastUpdated))
	}
	b.WriteString("\n")

	section := func(title string, rows []model.Mover) {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", title))
		if len(rows) == 0 {
			b.WriteString("  none\n")
			return
		}
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		for _, mv := range rows {
			b.WriteString(fmt.Sprintf("  %s %s (%+.2f%%) vol %s\n",
				html.EscapeString(mv.Ticker),
				humanize.CommafWithDigits(mv.Price, 2),
				mv.ChangePercent,
				formatVolume(mv.Volume)))
		}
	}
	section("Gainers", m.Gainers)
	section("Losers", m.Losers)
	section("Most active", m.MostActive)
	return b.String()
}

// FormatROE formats an ROE screen.
func FormatROE(s *model.ROEScreen) string {
	var b strings.Builder
	sector := s.Sector
	if sector == "" {
		sector = "all"
	}
	b.WriteString(fmt.Sprintf("📊 <b>ROE screen</b> | min %s%% | sector %s\n", humanize.Ftoa(s.MinROE), html.EscapeString(sector)))
	if len(s.Matches) == 0 {
		b.WriteString("\nNo company meets the criteria.\n")
	}
	for _, ov := range s.Matches {
		b.WriteString(fmt.Sprintf("\n🏢 <b>%s</b> (%s)\n", html.EscapeString(ov.Name), html.EscapeString(ov.Symbol)))
		b.WriteString(fmt.Sprintf("ROE: %s%% | %s | cap %s\n",
			formatValue(ov.ROE, 2), html.EscapeString(ov.Sector), formatMoney(ov.MarketCap)))
	}
	if len(s.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\nSkipped: %s\n", html.EscapeString(strings.Join(s.Skipped, ", "))))
	}
	return b.String()
}

// FormatCashFlow formats annual free cash flow in millions.
func FormatCashFlow(cf *model.CashFlow) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💰 <b>%s</b> free cash flow\n", html.EscapeString(cf.Symbol)))
	if len(cf.Years) == 0 {
		b.WriteString("No annual reports.\n")
		return b.String()
	}
	for _, y := range cf.Years {
		b.WriteString(fmt.Sprintf("- %s: $%sM\n", html.EscapeString(y.FiscalDateEnding), humanize.CommafWithDigits(y.FreeCashFlow/1e6, 2)))
	}
	return b.String()
}

// FormatMargins formats trailing margins and revenue growth.
func FormatMargins(m *model.Margins) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b> margins (TTM)\n", html.EscapeString(m.Symbol)))
	b.WriteString(fmt.Sprintf("Operating margin: %s%%\n", formatValue(m.OperatingMargin, 2)))
	b.WriteString(fmt.Sprintf("Net profit margin: %s%%\n", formatValue(m.NetMargin, 2)))
	b.WriteString(fmt.Sprintf("Revenue growth: %s%%\n", formatValue(m.RevenueGrowth, 2)))
	return b.String()
}

// FormatIndices formats the market overview.
func FormatIndices(r *model.IndicesReport) string {
	var b strings.Builder
	b.WriteString("🏛 <b>Market indices</b>\n")
	for _, q := range r.Quotes {
		arrow := "🔺"
		if q.Change < 0 {
			arrow = "🔻"
		}
		b.WriteString(fmt.Sprintf("%s %s: %s (%+.2f%%)\n", arrow, html.EscapeString(q.Name), humanize.CommafWithDigits(q.Price, 2), q.ChangePercent))
	}
	if len(r.Failed) > 0 {
		b.WriteString(fmt.Sprintf("Unavailable: %s\n", strings.Join(r.Failed, ", ")))
	}
	return b.String()
}

// FormatCompanies formats screened companies, perMessage to a message.
func FormatCompanies(companies []model.Company, perMessage int) []string {
	if len(companies) == 0 {
		return []string{"📊 No company passed the screen."}
	}
	if perMessage <= 0 {
		perMessage = len(companies)
	}
	var msgs []string
	for start := 0; start < len(companies); start += perMessage {
		end := min(start+perMessage, len(companies))
		var b strings.Builder
		b.WriteString(fmt.Sprintf("📊 Screened companies (%d - %d of %d)\n\n", start+1, end, len(companies)))
		for _, c := range companies[start:end] {
			b.WriteString(fmt.Sprintf("🔹 <b>%s</b> - %s\n", html.EscapeString(c.Symbol), html.EscapeString(c.Name)))
			b.WriteString(fmt.Sprintf("     💲 Price: %s\n", humanize.CommafWithDigits(c.Price, 2)))
			b.WriteString(fmt.Sprintf("     💰 Dividend: %s\n\n", humanize.CommafWithDigits(c.LastAnnualDividend, 2)))
		}
		msgs = append(msgs, strings.TrimRight(b.String(), "\n"))
	}
	return msgs
}

func formatMoney(v float64) string {
	if v == 0 {
		return "n/a"
	}
	value, prefix := humanize.ComputeSI(v)
	return fmt.Sprintf("$%s%s", humanize.CommafWithDigits(value, 2), siSuffix(prefix))
}

func siSuffix(prefix string) string {
	switch prefix {
	case "k":
		return "K"
	case "G":
		return "B"
	default:
		return prefix
	}
}

// HelpText lists the bot commands.
func HelpText(markets []string) string {
	return "Available commands:\n" +
		"• /analyze SYMBOL [provider]\n" +
		"• /scan [" + strings.Join(markets, "|") + "]\n" +
		"• /movers\n" +
		"• /indices\n" +
		"• /roe [MIN%] [SECTOR]\n" +
		"• /fcf SYMBOL\n" +
		"• /margins SYMBOL\n" +
		"• send a CSV company list to screen it\n" +
		"• /help"
}
