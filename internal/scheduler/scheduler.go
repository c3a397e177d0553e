package scheduler

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"MarketPulse/internal/collector"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalizer"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/strategy"
)

// CompaniesPerMessage bounds the screened companies listed in one reply.
const CompaniesPerMessage = 10

// Scheduler manages the cron tasks and answers bot commands.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Notifier    notifier.Notifier
	Market      string   // preset scanned by the cron task; empty uses Symbols
	Symbols     []string // explicit watchlist
	ScanLimit   int
	MoversLimit int
	Ctx         context.Context
}

// NewScheduler creates a new Scheduler scanning either a preset market or an
// explicit watchlist.
func NewScheduler(ctx context.Context, col *collector.Collector, n notifier.Notifier, market string, symbols []string) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Collector:   col,
		Notifier:    n,
		Market:      market,
		Symbols:     symbols,
		MoversLimit: 10,
		Ctx:         ctx,
	}
}

// RegisterAll registers the watchlist scan and the movers report. An empty
// movers expression skips the movers task.
func (s *Scheduler) RegisterAll(scanCron, moversCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if moversCron == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(moversCron, s.moversTask); err != nil {
		return fmt.Errorf("register movers task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Get().Info("[scheduler] started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Get().Info("[scheduler] stopped")
}

// RunScanNow executes the scan task immediately (RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	logger.Get().Info("[scheduler] running scan task")
	report, err := s.scan(s.Ctx, s.Market)
	if err != nil {
		logger.Get().Errorf("[scheduler] scan: %v", err)
		s.trySend(fmt.Sprintf("❌ Scan failed: %v", err))
		if report == nil {
			return
		}
	}
	s.trySend(notifier.FormatScan(report))
}

func (s *Scheduler) moversTask() {
	logger.Get().Info("[scheduler] running movers task")
	m, err := s.Collector.Movers(s.Ctx)
	if err != nil {
		logger.Get().Errorf("[scheduler] movers: %v", err)
		s.trySend(fmt.Sprintf("❌ Movers report failed: %v", err))
		return
	}
	s.trySend(notifier.FormatMovers(m, s.MoversLimit))
}

func (s *Scheduler) scan(ctx context.Context, market string) (*model.ScanReport, error) {
	if market == "" && len(s.Symbols) > 0 {
		return s.Collector.Scan(ctx, s.Symbols, s.ScanLimit, nil)
	}
	return s.Collector.ScanMarket(ctx, market, s.ScanLimit, nil)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText(collector.MarketNames())
	}
	// "/analyze@MyBot AAPL" in group chats
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/analyze":
		if len(args) == 0 {
			return "Usage: /analyze SYMBOL [provider]"
		}
		provider := s.Collector.Settings().Provider
		if len(args) > 1 {
			provider = model.ProviderKind(strings.ToLower(args[1]))
		}
		a, err := s.Collector.AnalyzeWith(ctx, args[0], provider, s.Collector.Settings().Period)
		if err != nil {
			logger.Get().Warnf("[command] analyze %s: %v", args[0], err)
		}
		return notifier.FormatAnalysis(a)
	case "/scan":
		market := s.Market
		if len(args) > 0 {
			market = strings.ToUpper(args[0])
		}
		report, err := s.scan(ctx, market)
		if err != nil && report == nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatScan(report)
	case "/movers":
		m, err := s.Collector.Movers(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatMovers(m, s.MoversLimit)
	case "/indices":
		r, err := s.Collector.Indices(ctx)
		if err != nil && r == nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatIndices(r)
	case "/roe":
		minROE := collector.DefaultMinROE
		if len(args) > 0 {
			if v, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64); err == nil {
				minROE = v
				args = args[1:]
			}
		}
		screen, err := s.Collector.ScreenROE(ctx, nil, minROE, strings.Join(args, " "))
		if err != nil && screen == nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatROE(screen)
	case "/fcf":
		if len(args) == 0 {
			return "Usage: /fcf SYMBOL"
		}
		cf, err := s.Collector.FreeCashFlow(ctx, args[0])
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatCashFlow(cf)
	case "/margins":
		if len(args) == 0 {
			return "Usage: /margins SYMBOL"
		}
		m, err := s.Collector.Margins(ctx, args[0])
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatMargins(m)
	default:
		return notifier.HelpText(collector.MarketNames())
	}
}

// HandleDocument screens an uploaded company list CSV and returns the
// replies, CompaniesPerMessage companies to a message.
func (s *Scheduler) HandleDocument(_ context.Context, name string, r io.Reader) []string {
	list, err := normalizer.ParseCompanies(r)
	if err != nil {
		logger.Get().Warnf("[command] company list %s: %v", name, err)
		return []string{fmt.Sprintf("❌ %s: %v", name, err)}
	}
	passed := strategy.FilterCompanies(list.Companies)
	logger.Get().Infof("[command] company list %s: %d of %d passed, %d dropped", name, len(passed), len(list.Companies), len(list.Dropped))

	summary := fmt.Sprintf("✅ %d of %d companies passed the screen", len(passed), len(list.Companies))
	if n := len(list.Dropped); n > 0 {
		summary += fmt.Sprintf(" (%d malformed row(s) skipped)", n)
	}
	return append([]string{summary}, notifier.FormatCompanies(passed, CompaniesPerMessage)...)
}

func (s *Scheduler) trySend(text string) {
	if err := notifier.SendWithRetry(s.Ctx, s.Notifier, text, 3); err != nil {
		logger.Get().Errorf("[scheduler] send notification: %v", err)
	}
}
