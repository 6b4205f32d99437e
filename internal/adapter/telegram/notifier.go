// Package telegram mirrors notification batches into a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageRunes is Telegram's text message limit.
const maxMessageRunes = 4096

// Notifier implements pipeline.Notifier with a bot posting to one chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewNotifier authenticates the bot token against the public Bot API.
func NewNotifier(token string, chatID int64, logger *slog.Logger) (*Notifier, error) {
	return newNotifier(token, tgbotapi.APIEndpoint, &http.Client{}, chatID, logger)
}

func newNotifier(token, endpoint string, client tgbotapi.HTTPClient, chatID int64, logger *slog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info("telegram notifier enabled", "bot", bot.Self.UserName, "chat_id", chatID)
	return &Notifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// Name identifies the channel in logs and metrics.
func (n *Notifier) Name() string { return "telegram" }

// Notify sends the message as plain text. The bot library has no context
// support, so ctx is only checked before sending.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r := []rune(message)
	if len(r) > maxMessageRunes {
		message = string(r[:maxMessageRunes-1]) + "…"
	}

	msg := tgbotapi.NewMessage(n.chatID, message)
	msg.DisableWebPagePreview = true
	sent, err := n.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	n.logger.Info("telegram notification sent", "message_id", sent.MessageID)
	return nil
}
