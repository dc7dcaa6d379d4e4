package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/omarshaarawi/tradereferee/internal/service"
)

const maxUploadBytes = 1 << 20

type TelegramBot struct {
	bot        *tgbotapi.BotAPI
	handler    *Handler
	httpClient *http.Client
}

func NewTelegramBot(token string, tradeService *service.TradeService) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	handler := NewHandler(tradeService)

	return &TelegramBot{
		bot:        bot,
		handler:    handler,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (t *TelegramBot) Start(ctx context.Context) error {
	slog.Info("Authorized on account", "username", t.bot.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			t.handleMessage(ctx, update)
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *TelegramBot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	var msg tgbotapi.MessageConfig
	switch {
	case update.Message.IsCommand():
		msg = t.handler.HandleCommand(ctx, update)
	case update.Message.Document != nil:
		msg = t.handleDocument(ctx, update.Message)
	default:
		return
	}

	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("Error sending message", "chat_id", msg.ChatID, "error", err)
	}
}

func (t *TelegramBot) handleDocument(ctx context.Context, m *tgbotapi.Message) tgbotapi.MessageConfig {
	doc := m.Document
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".json") && doc.MimeType != "application/json" {
		return tgbotapi.NewMessage(m.Chat.ID, "Please upload a .json league file.")
	}
	if doc.FileSize > maxUploadBytes {
		return tgbotapi.NewMessage(m.Chat.ID, "League files are limited to 1 MB.")
	}

	data, err := t.download(ctx, doc.FileID)
	if err != nil {
		slog.Error("Error downloading upload", "chat_id", m.Chat.ID, "file", doc.FileName, "error", err)
		return tgbotapi.NewMessage(m.Chat.ID, "Could not download the file, please try again.")
	}

	return t.handler.HandleDocument(m.Chat.ID, data)
}

func (t *TelegramBot) download(ctx context.Context, fileID string) ([]byte, error) {
	link, err := t.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes))
}

// SendMessage pushes an unsolicited message, used by scheduled jobs.
func (t *TelegramBot) SendMessage(chatID int64, text string) error {
	if chatID == 0 {
		slog.Error("Chat ID not set")
		return fmt.Errorf("chat ID not set")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := t.bot.Send(msg)
	if err != nil {
		slog.Error("Error sending message", "chat_id", chatID, "error", err)
	}
	return err
}
