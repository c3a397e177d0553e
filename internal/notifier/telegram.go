package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"MarketPulse/internal/logger"
	"MarketPulse/internal/metrics"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageLen = 4000

// Notifier delivers a formatted report.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// botAPI is the part of *tgbotapi.BotAPI the notifier uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

// TelegramNotifier sends messages to one chat via the Telegram Bot API.
type TelegramNotifier struct {
	api       botAPI
	chatID    int64
	client    *http.Client
	metrics   *metrics.Metrics
	documents DocumentHandler
}

// NewTelegramNotifier authorizes the bot token and targets chatID. client
// carries the proxy and timeout settings.
func NewTelegramNotifier(botToken, chatID string, client *http.Client, m *metrics.Metrics) (*TelegramNotifier, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse chat id %q: %w", chatID, err)
	}
	api, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	logger.Get().Infof("[telegram] authorized on account %s", api.Self.UserName)
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramNotifier{api: api, chatID: id, client: client, metrics: m}, nil
}

// Send sends text to the configured chat in HTML mode, split into several
// messages when it exceeds the Telegram size limit.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	for _, part := range splitMessage(text, maxMessageLen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.sendTo(t.chatID, part); err != nil {
			t.metrics.Notification("telegram", "error")
			return err
		}
	}
	t.metrics.Notification("telegram", "ok")
	return nil
}

func (t *TelegramNotifier) sendTo(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// retryBackoff is the wait after failed attempt i (0-based).
var retryBackoff = func(i int) time.Duration {
	return time.Duration(1<<uint(i)) * time.Second
}

// SendWithRetry sends text through n part by part, retrying each part up to
// maxRetries times with exponential backoff. Parts already delivered are not
// sent again when a later part fails.
func SendWithRetry(ctx context.Context, n Notifier, text string, maxRetries int) error {
	parts := splitMessage(text, maxMessageLen)
	for p, part := range parts {
		if err := sendPart(ctx, n, part, maxRetries); err != nil {
			if len(parts) > 1 {
				return fmt.Errorf("part %d/%d: %w", p+1, len(parts), err)
			}
			return err
		}
	}
	return nil
}

func sendPart(ctx context.Context, n Notifier, part string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := n.Send(ctx, part)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := retryBackoff(i)
		logger.Get().Warnf("[notify] send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}

// splitMessage cuts text on line boundaries into parts of at most limit
// bytes. A single longer line is cut hard, on a rune boundary.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if b.Len() > 0 {
				parts = append(parts, b.String())
				b.Reset()
			}
			cut := runeCut(line, limit)
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if b.Len()+len(line) > limit {
			parts = append(parts, b.String())
			b.Reset()
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

// runeCut returns the largest index <= limit that starts a rune in s.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

// LogNotifier writes reports to the log. It stands in for Telegram when no
// bot is configured.
type LogNotifier struct {
	metrics *metrics.Metrics
}

func NewLogNotifier(m *metrics.Metrics) *LogNotifier {
	return &LogNotifier{metrics: m}
}

func (l *LogNotifier) Send(_ context.Context, text string) error {
	logger.Get().Infof("[notify]\n%s", text)
	l.metrics.Notification("log", "ok")
	return nil
}
