package commands

import (
	"context"

	"github.com/edgard/convobot/internal/command"
)

// NewSystemCommand returns the factory for a system command. System
// commands react to platform-generated events (edited messages, channel
// posts, callback and inline queries, chat service messages); the framework
// ships acknowledging handlers that deployers shadow via override tables
// when they need real behavior.
func NewSystemCommand(name string) command.Factory {
	return func(cctx *command.Context) command.Command {
		return &systemCommand{name: name, cctx: cctx}
	}
}

type systemCommand struct {
	name string
	cctx *command.Context
}

func (c *systemCommand) Execute(ctx context.Context) (command.Result, error) {
	c.cctx.Logger.InfoContext(ctx, "Handling system event",
		"command", c.name,
		"update_id", c.cctx.Update.ID,
		"chat_id", c.cctx.ChatID(),
		"user_id", c.cctx.UserID())

	return command.Result{Handled: true}, nil
}
