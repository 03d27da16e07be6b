package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pfrederiksen/contest-digest/internal/digest"
	"github.com/pfrederiksen/contest-digest/internal/logger"
)

const (
	// TelegramMaxLength is the Telegram message text ceiling
	TelegramMaxLength = 4096

	telegramTimeout = 10 * time.Second
)

// TelegramNotifier sends the digest through a Telegram bot
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID string
}

// NewTelegramNotifier creates a Telegram sink. chatID is a numeric chat id
// or a @channel username. An empty endpoint selects the public Bot API.
// The bot token is checked with getMe before returning.
func NewTelegramNotifier(token, chatID, endpoint string, client *http.Client) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: telegramTimeout}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// Notify sends the digest as plain text with link previews disabled
func (n *TelegramNotifier) Notify(ctx context.Context, d *digest.Digest) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Sink: "telegram", Err: err}
	}

	msg, err := n.message(fitMessage("telegram", d.Text, TelegramMaxLength))
	if err != nil {
		return &DeliveryError{Sink: "telegram", Err: err}
	}

	sent, err := n.bot.Send(msg)
	if err != nil {
		de := &DeliveryError{Sink: "telegram", Err: err}
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			de.StatusCode = apiErr.Code
			de.Detail = apiErr.Message
			de.Err = nil
		}
		return de
	}

	logger.Debug("Telegram accepted digest", logger.Fields{
		"message_id": sent.MessageID,
	})
	return nil
}

func (n *TelegramNotifier) message(text string) (tgbotapi.MessageConfig, error) {
	var msg tgbotapi.MessageConfig
	if strings.HasPrefix(n.chatID, "@") {
		msg = tgbotapi.NewMessageToChannel(n.chatID, text)
	} else {
		id, err := strconv.ParseInt(n.chatID, 10, 64)
		if err != nil {
			return msg, fmt.Errorf("invalid chat ID %q: %w", n.chatID, err)
		}
		msg = tgbotapi.NewMessage(id, text)
	}
	msg.DisableWebPagePreview = true
	return msg, nil
}
