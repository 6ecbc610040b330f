package command

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/convobot/internal/conversation"
)

// Context carries the per-update state a command needs: the inbound update,
// the bot identity, the outbound sender, and the conversation store. A new
// Context is built for every dispatched update so handler instances stay
// isolated across requests.
type Context struct {
	Update *models.Update

	BotID       int64
	BotUsername string

	Sender        Sender
	Conversations conversation.Store
	Registry      *Registry
	Logger        *slog.Logger
}

// NewContext builds an execution context for one update.
func NewContext(update *models.Update, botID int64, botUsername string, sender Sender, conversations conversation.Store, registry *Registry, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Context{
		Update:        update,
		BotID:         botID,
		BotUsername:   botUsername,
		Sender:        sender,
		Conversations: conversations,
		Registry:      registry,
		Logger:        logger,
	}
}

// Message returns the message payload carried by the update, regardless of
// whether it arrived as a plain message, an edit, or a channel post.
func (c *Context) Message() *models.Message {
	switch {
	case c.Update == nil:
		return nil
	case c.Update.Message != nil:
		return c.Update.Message
	case c.Update.EditedMessage != nil:
		return c.Update.EditedMessage
	case c.Update.ChannelPost != nil:
		return c.Update.ChannelPost
	default:
		return nil
	}
}

// ChatID returns the chat the update originated from, or 0 when the update
// carries no chat (inline queries).
func (c *Context) ChatID() int64 {
	if msg := c.Message(); msg != nil {
		return msg.Chat.ID
	}
	if c.Update != nil && c.Update.CallbackQuery != nil {
		cb := c.Update.CallbackQuery
		if cb.Message.Message != nil {
			return cb.Message.Message.Chat.ID
		}
		if cb.Message.InaccessibleMessage != nil {
			return cb.Message.InaccessibleMessage.Chat.ID
		}
	}
	return 0
}

// UserID returns the identifier of the originating user, or 0 when the
// update carries no sender.
func (c *Context) UserID() int64 {
	if msg := c.Message(); msg != nil && msg.From != nil {
		return msg.From.ID
	}
	if c.Update != nil {
		if c.Update.CallbackQuery != nil {
			return c.Update.CallbackQuery.From.ID
		}
		if c.Update.InlineQuery != nil && c.Update.InlineQuery.From != nil {
			return c.Update.InlineQuery.From.ID
		}
	}
	return 0
}

// Text returns the message text of the update, or the empty string.
func (c *Context) Text() string {
	if msg := c.Message(); msg != nil {
		return msg.Text
	}
	return ""
}

// Args returns the message text with a leading "/command" token removed.
// For plain text it returns the whole text trimmed.
func (c *Context) Args() string {
	text := c.Text()
	if !strings.HasPrefix(text, "/") {
		return strings.TrimSpace(text)
	}
	if idx := strings.IndexAny(text, " \n"); idx != -1 {
		return strings.TrimSpace(text[idx+1:])
	}
	return ""
}

// Reply sends a plain text reply to the originating chat.
func (c *Context) Reply(ctx context.Context, text string) (Result, error) {
	chatID := c.ChatID()
	if chatID == 0 || text == "" {
		return Result{Handled: true}, nil
	}

	res, err := c.Sender.SendMessage(ctx, SendParams{ChatID: chatID, Text: text})
	if err != nil {
		return Result{Handled: true}, err
	}
	return Result{Handled: true, Sent: res.OK, MessageID: res.MessageID}, nil
}
