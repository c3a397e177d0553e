package notifier

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"path"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"MarketPulse/internal/logger"
)

// CommandHandler is called when a user command is received. An empty reply
// sends nothing.
type CommandHandler func(ctx context.Context, command string) string

// DocumentHandler is called with an uploaded CSV file. Each reply is sent as
// its own message.
type DocumentHandler func(ctx context.Context, name string, r io.Reader) []string

// Uploads larger than this are refused.
const maxDocumentSize = 5 << 20

// HandleDocuments installs the handler for CSV uploads. Without one,
// documents are ignored.
func (t *TelegramNotifier) HandleDocuments(h DocumentHandler) {
	t.documents = h
}

// StartPolling long-polls Telegram for commands from the configured chat.
// Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)
	log := logger.Get()

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			log.Info("[telegram] polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				log.Info("[telegram] update channel closed")
				return
			}
			msg := update.Message
			if msg == nil || (msg.Text == "" && msg.Document == nil) {
				continue
			}
			if msg.Chat == nil || msg.Chat.ID != t.chatID {
				log.Warnf("[telegram] ignoring message from chat %v", chatIDOf(msg))
				continue
			}
			if msg.Document != nil {
				t.handleDocument(ctx, msg.Document)
				continue
			}
			text := strings.TrimSpace(msg.Text)
			log.Infof("[telegram] received command: %s", text)
			if reply := handler(ctx, text); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					log.Errorf("[telegram] send reply: %v", err)
				}
			}
		}
	}
}

func (t *TelegramNotifier) handleDocument(ctx context.Context, doc *tgbotapi.Document) {
	log := logger.Get()
	if t.documents == nil || !strings.EqualFold(path.Ext(doc.FileName), ".csv") {
		log.Infof("[telegram] ignoring document %q", doc.FileName)
		return
	}
	log.Infof("[telegram] received document: %s (%d bytes)", doc.FileName, doc.FileSize)

	replies := []string{fmt.Sprintf("❌ %s is larger than %d bytes", html.EscapeString(doc.FileName), maxDocumentSize)}
	if doc.FileSize <= maxDocumentSize {
		body, err := t.download(ctx, doc.FileID)
		if err != nil {
			log.Errorf("[telegram] download %s: %v", doc.FileName, err)
			replies = []string{fmt.Sprintf("❌ could not download %s", html.EscapeString(doc.FileName))}
		} else {
			replies = t.documents(ctx, doc.FileName, io.LimitReader(body, maxDocumentSize))
			body.Close()
		}
	}
	for _, reply := range replies {
		if err := SendWithRetry(ctx, t, reply, 2); err != nil {
			log.Errorf("[telegram] send reply: %v", err)
			return
		}
	}
}

func (t *TelegramNotifier) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := t.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := t.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("file download: %s", resp.Status)
	}
	return resp.Body, nil
}

func chatIDOf(m *tgbotapi.Message) any {
	if m.Chat == nil {
		return "unknown"
	}
	return m.Chat.ID
}
