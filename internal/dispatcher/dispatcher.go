// Package dispatcher routes inbound updates to command handlers. It
// extracts the invoked command from each update, consults the resident
// conversation for the (user, chat) pair, resolves the name through the
// command registry, and executes the resulting handler.
package dispatcher

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/convobot/internal/command"
	"github.com/edgard/convobot/internal/conversation"
)

// Command names synthesized for updates that carry no explicit "/token".
const (
	// cmdGeneric handles explicitly invoked commands that resolve to nothing.
	cmdGeneric = "generic"
	// cmdGenericMessage handles free-text messages outside a conversation.
	cmdGenericMessage = "genericmessage"
)

// System command names derived from the update kind or message service fields.
const (
	cmdEditedMessage   = "editedmessage"
	cmdChannelPost     = "channelpost"
	cmdInlineQuery     = "inlinequery"
	cmdCallbackQuery   = "callbackquery"
	cmdNewChatMembers  = "newchatmembers"
	cmdDeleteChatPhoto = "deletechatphoto"
)

// Dispatcher routes one update at a time. It holds no per-update state;
// everything request-scoped lives in the command.Context built per call.
type Dispatcher struct {
	registry      *command.Registry
	conversations conversation.Store
	sender        command.Sender

	botID       int64
	botUsername string

	logger *slog.Logger
}

// New creates a dispatcher bound to the given registry, conversation store,
// and outbound sender. botID and botUsername identify this bot so commands
// addressed to other bots in a group are ignored.
func New(registry *command.Registry, conversations conversation.Store, sender command.Sender, botID int64, botUsername string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		registry:      registry,
		conversations: conversations,
		sender:        sender,
		botID:         botID,
		botUsername:   botUsername,
		logger:        logger.With("component", "dispatcher"),
	}
}

// Handle processes one inbound update and returns the executed handler's
// result. Unknown commands and updates nothing applies to yield the zero
// Result with a nil error; handler errors propagate unchanged.
func (d *Dispatcher) Handle(ctx context.Context, update *models.Update) (command.Result, error) {
	if update == nil {
		return command.Result{}, nil
	}

	name, explicit, err := d.targetCommand(ctx, update)
	if err != nil {
		return command.Result{}, err
	}
	if name == "" {
		d.logger.DebugContext(ctx, "No command applies to update", "update_id", update.ID)
		return command.Result{}, nil
	}

	cctx := command.NewContext(update, d.botID, d.botUsername, d.sender, d.conversations, d.registry, d.logger)

	cmd, ok := d.registry.Resolve(name, cctx)
	if !ok && explicit {
		// An explicitly invoked but unknown command falls back to the
		// generic handler; without one the update is silently ignored.
		d.logger.DebugContext(ctx, "Unknown command, trying generic fallback", "name", name)
		cmd, ok = d.registry.Resolve(cmdGeneric, cctx)
	}
	if !ok {
		d.logger.DebugContext(ctx, "No handler resolved, ignoring update", "name", name, "update_id", update.ID)
		return command.Result{}, nil
	}

	d.logger.InfoContext(ctx, "Dispatching command", "name", name, "update_id", update.ID, "explicit", explicit)
	return cmd.Execute(ctx)
}

// targetCommand determines which command name the update should run and
// whether it was invoked explicitly via a leading "/token".
//
// Precedence for message updates: service events first, then an explicit
// token, then the pair's resident conversation, then the generic message
// fallback. An explicit token always wins over a resident conversation.
func (d *Dispatcher) targetCommand(ctx context.Context, update *models.Update) (name string, explicit bool, err error) {
	switch {
	case update.Message != nil:
		msg := update.Message

		if len(msg.NewChatMembers) > 0 {
			return cmdNewChatMembers, false, nil
		}
		if msg.DeleteChatPhoto {
			return cmdDeleteChatPhoto, false, nil
		}

		if token := d.extractToken(msg); token != "" {
			return token, true, nil
		}

		if msg.From != nil {
			conv, convErr := conversation.New(ctx, d.conversations, msg.From.ID, msg.Chat.ID, "")
			if convErr != nil {
				return "", false, convErr
			}
			if conv.Exists() {
				return conv.Command(), false, nil
			}
		}

		return cmdGenericMessage, false, nil

	case update.EditedMessage != nil:
		return cmdEditedMessage, false, nil
	case update.ChannelPost != nil:
		return cmdChannelPost, false, nil
	case update.InlineQuery != nil:
		return cmdInlineQuery, false, nil
	case update.CallbackQuery != nil:
		return cmdCallbackQuery, false, nil
	}

	return "", false, nil
}

// extractToken returns the lowercase command token when the message starts
// with an explicit "/token". Commands addressed to another bot via
// "/token@otherbot" yield the empty string.
func (d *Dispatcher) extractToken(msg *models.Message) string {
	text := msg.Text
	if !strings.HasPrefix(text, "/") {
		return ""
	}

	// Trust the parsed entity offset when present.
	hasEntity := len(msg.Entities) == 0
	for _, e := range msg.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			hasEntity = true
			break
		}
	}
	if !hasEntity {
		return ""
	}

	token := text[1:]
	if idx := strings.IndexAny(token, " \n"); idx != -1 {
		token = token[:idx]
	}

	if at := strings.Index(token, "@"); at != -1 {
		mention := token[at+1:]
		token = token[:at]
		if !strings.EqualFold(mention, d.botUsername) {
			return ""
		}
	}

	return strings.ToLower(token)
}
