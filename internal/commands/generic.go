package commands

import (
	"context"

	"github.com/edgard/convobot/internal/command"
)

// NewGenericCommand returns the factory for the generic fallback, invoked
// when a user explicitly calls a command nothing is registered under.
func NewGenericCommand(deps Deps) command.Factory {
	return func(cctx *command.Context) command.Command {
		return &genericCommand{cctx: cctx, deps: deps}
	}
}

type genericCommand struct {
	cctx *command.Context
	deps Deps
}

func (c *genericCommand) Execute(ctx context.Context) (command.Result, error) {
	c.cctx.Logger.DebugContext(ctx, "Unknown command invoked",
		"chat_id", c.cctx.ChatID(), "user_id", c.cctx.UserID(), "text", c.cctx.Text())

	if c.deps.Messages.UnknownCommand == "" {
		return command.Result{Handled: true}, nil
	}
	return c.cctx.Reply(ctx, c.deps.Messages.UnknownCommand)
}
