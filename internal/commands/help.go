package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/edgard/convobot/internal/command"
)

// NewHelpCommand returns the factory for the /help command.
func NewHelpCommand(deps Deps) command.Factory {
	return func(cctx *command.Context) command.Command {
		return &helpCommand{cctx: cctx, deps: deps}
	}
}

type helpCommand struct {
	cctx *command.Context
	deps Deps
}

// Execute lists the publicly visible user commands from the registry.
func (c *helpCommand) Execute(ctx context.Context) (command.Result, error) {
	log := c.cctx.Logger.With("command", "help")
	log.InfoContext(ctx, "Handling /help command", "chat_id", c.cctx.ChatID(), "user_id", c.cctx.UserID())

	descriptors := c.cctx.Registry.List()

	names := make([]string, 0, len(descriptors))
	for name, desc := range descriptors {
		if desc.Enabled && desc.ShowInHelp && desc.Kind == command.KindUser {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(c.deps.Messages.HelpHeader)
	for _, name := range names {
		desc := descriptors[name]
		usage := desc.Usage
		if usage == "" {
			usage = "/" + name
		}
		sb.WriteString(fmt.Sprintf("%s - %s\n", usage, desc.Description))
	}

	return c.cctx.Reply(ctx, sb.String())
}
