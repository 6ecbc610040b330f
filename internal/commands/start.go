package commands

import (
	"context"
	"strings"

	"github.com/edgard/convobot/internal/command"
)

// NewStartCommand returns the factory for the /start command.
func NewStartCommand(deps Deps) command.Factory {
	return func(cctx *command.Context) command.Command {
		return &startCommand{cctx: cctx, deps: deps}
	}
}

type startCommand struct {
	cctx *command.Context
	deps Deps
}

func (c *startCommand) Execute(ctx context.Context) (command.Result, error) {
	log := c.cctx.Logger.With("command", "start")
	log.InfoContext(ctx, "Handling /start command", "chat_id", c.cctx.ChatID(), "user_id", c.cctx.UserID())

	welcome := c.deps.Messages.Welcome
	if c.cctx.BotUsername != "" {
		welcome = strings.ReplaceAll(welcome, "@botname", "@"+c.cctx.BotUsername)
	}

	return c.cctx.Reply(ctx, welcome)
}
