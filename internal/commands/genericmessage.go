package commands

import (
	"context"

	"github.com/edgard/convobot/internal/command"
)

// NewGenericMessageCommand returns the factory for the free-text fallback,
// invoked for plain messages with no active conversation. With the AI
// integration enabled it answers through Gemini; otherwise it sends the
// configured default reply, or stays silent when none is configured.
func NewGenericMessageCommand(deps Deps) command.Factory {
	return func(cctx *command.Context) command.Command {
		return &genericMessageCommand{cctx: cctx, deps: deps}
	}
}

type genericMessageCommand struct {
	cctx *command.Context
	deps Deps
}

func (c *genericMessageCommand) Execute(ctx context.Context) (command.Result, error) {
	log := c.cctx.Logger.With("command", "genericmessage")

	text := c.cctx.Text()
	if text == "" {
		return command.Result{Handled: true}, nil
	}

	if c.deps.AI != nil {
		reply, err := c.deps.AI.GenerateReply(ctx, text)
		if err != nil {
			log.ErrorContext(ctx, "AI reply generation failed", "error", err, "chat_id", c.cctx.ChatID())
			if c.deps.Messages.GeneralError != "" {
				return c.cctx.Reply(ctx, c.deps.Messages.GeneralError)
			}
			return command.Result{Handled: true}, err
		}
		return c.cctx.Reply(ctx, reply)
	}

	if c.deps.Messages.DefaultReply == "" {
		// Free text with no active conversation produces no reply by default.
		return command.Result{Handled: true}, nil
	}
	return c.cctx.Reply(ctx, c.deps.Messages.DefaultReply)
}
