package commands

import (
	"context"
	"fmt"

	"github.com/edgard/convobot/internal/command"
	"github.com/edgard/convobot/internal/conversation"
)

// NewCancelCommand returns the factory for the /cancel command, which ends
// the caller's active conversation, whatever command owns it.
func NewCancelCommand(deps Deps) command.Factory {
	return func(cctx *command.Context) command.Command {
		return &cancelCommand{cctx: cctx, deps: deps}
	}
}

type cancelCommand struct {
	cctx *command.Context
	deps Deps
}

func (c *cancelCommand) Execute(ctx context.Context) (command.Result, error) {
	log := c.cctx.Logger.With("command", "cancel")

	userID := c.cctx.UserID()
	chatID := c.cctx.ChatID()
	if userID == 0 || chatID == 0 {
		return command.Result{}, nil
	}

	conv, err := conversation.New(ctx, c.cctx.Conversations, userID, chatID, "")
	if err != nil {
		return command.Result{Handled: true}, err
	}

	if !conv.Exists() {
		return c.cctx.Reply(ctx, c.deps.Messages.CancelNone)
	}

	name := conv.Command()
	if err := conv.Cancel(ctx); err != nil {
		return command.Result{Handled: true}, err
	}

	log.InfoContext(ctx, "Conversation cancelled", "user_id", userID, "chat_id", chatID, "conversation_command", name)
	return c.cctx.Reply(ctx, fmt.Sprintf(c.deps.Messages.CancelDone, name))
}
