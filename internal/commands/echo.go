package commands

import (
	"context"

	"github.com/edgard/convobot/internal/command"
)

// NewEchoCommand returns the factory for the /echo command.
func NewEchoCommand(deps Deps) command.Factory {
	return func(cctx *command.Context) command.Command {
		return &echoCommand{cctx: cctx, deps: deps}
	}
}

type echoCommand struct {
	cctx *command.Context
	deps Deps
}

func (c *echoCommand) Execute(ctx context.Context) (command.Result, error) {
	text := c.cctx.Args()
	if text == "" {
		text = "Usage: /echo <text>"
	}
	return c.cctx.Reply(ctx, text)
}
