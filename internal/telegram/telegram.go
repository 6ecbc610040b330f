// Package telegram wraps the go-telegram/bot transport: bot construction,
// webhook registration, and the outbound sender used by commands.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/convobot/internal/command"
)

// NewBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully")
	return b, nil
}

// RegisterWebhook points the remote API at the given public URL. Skipped
// when url is empty so deployers can manage the webhook out of band.
func RegisterWebhook(ctx context.Context, b *bot.Bot, url, secret string, logger *slog.Logger) error {
	if url == "" {
		logger.Info("No webhook URL configured, skipping webhook registration")
		return nil
	}

	ok, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         url,
		SecretToken: secret,
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	if !ok {
		return fmt.Errorf("webhook registration was not confirmed by the API")
	}

	logger.Info("Webhook registered", "url", url)
	return nil
}

// Sender implements command.Sender on top of the bot's send operation.
type Sender struct {
	b      *bot.Bot
	logger *slog.Logger
}

// NewSender creates a Sender bound to a bot instance.
func NewSender(b *bot.Bot, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{b: b, logger: logger.With("component", "sender")}
}

// SendMessage delivers one reply and reports the provider-assigned message
// identifier. Transport failures surface as the returned error; the caller
// decides whether to retry.
func (s *Sender) SendMessage(ctx context.Context, params command.SendParams) (command.SendResult, error) {
	p := &bot.SendMessageParams{
		ChatID:      params.ChatID,
		Text:        params.Text,
		ReplyMarkup: params.Markup,
	}
	if params.ReplyToMessageID != 0 {
		p.ReplyParameters = &models.ReplyParameters{MessageID: params.ReplyToMessageID}
	}

	msg, err := s.b.SendMessage(ctx, p)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", params.ChatID)
		return command.SendResult{}, fmt.Errorf("failed to send message to chat %d: %w", params.ChatID, err)
	}

	s.logger.DebugContext(ctx, "Message sent", "chat_id", params.ChatID, "message_id", msg.ID)
	return command.SendResult{OK: true, MessageID: msg.ID}, nil
}
