package commands

import (
	"context"
	"fmt"

	"github.com/edgard/convobot/internal/command"
	"github.com/edgard/convobot/internal/conversation"
)

// Survey conversation states stored in the notes payload.
const (
	surveyStateName = "name"
	surveyStateAge  = "age"
)

// NewSurveyCommand returns the factory for the /survey command, a
// multi-turn conversation that collects answers across several messages.
func NewSurveyCommand(deps Deps) command.Factory {
	return func(cctx *command.Context) command.Command {
		return &surveyCommand{cctx: cctx, deps: deps}
	}
}

type surveyCommand struct {
	cctx *command.Context
	deps Deps
}

// Execute advances the survey by one step. The first invocation starts the
// conversation; subsequent free-text messages from the same (user, chat)
// pair are routed back here by the dispatcher until the survey finishes.
func (c *surveyCommand) Execute(ctx context.Context) (command.Result, error) {
	log := c.cctx.Logger.With("command", "survey")

	userID := c.cctx.UserID()
	chatID := c.cctx.ChatID()
	if userID == 0 || chatID == 0 {
		return command.Result{}, nil
	}

	conv, err := conversation.New(ctx, c.cctx.Conversations, userID, chatID, "survey")
	if err != nil {
		return command.Result{Handled: true}, err
	}

	answer := c.cctx.Args()
	state, _ := conv.Notes["state"].(string)

	switch state {
	case "":
		conv.Notes["state"] = surveyStateName
		if err := conv.Update(ctx); err != nil {
			return command.Result{Handled: true}, err
		}
		return c.cctx.Reply(ctx, "What is your name?")

	case surveyStateName:
		if answer == "" {
			return c.cctx.Reply(ctx, "What is your name?")
		}
		conv.Notes["name"] = answer
		conv.Notes["state"] = surveyStateAge
		if err := conv.Update(ctx); err != nil {
			return command.Result{Handled: true}, err
		}
		return c.cctx.Reply(ctx, fmt.Sprintf("Nice to meet you, %s! How old are you?", answer))

	case surveyStateAge:
		if answer == "" {
			return c.cctx.Reply(ctx, "How old are you?")
		}
		conv.Notes["age"] = answer
		if err := conv.Update(ctx); err != nil {
			return command.Result{Handled: true}, err
		}
		name, _ := conv.Notes["name"].(string)
		if err := conv.Stop(ctx); err != nil {
			return command.Result{Handled: true}, err
		}
		log.InfoContext(ctx, "Survey completed", "user_id", userID, "chat_id", chatID)
		return c.cctx.Reply(ctx, fmt.Sprintf("Thanks %s, that's all! Survey complete.", name))

	default:
		// Unknown state in the stored notes, restart the survey.
		log.WarnContext(ctx, "Survey in unknown state, restarting", "state", state, "user_id", userID, "chat_id", chatID)
		conv.Notes["state"] = surveyStateName
		if err := conv.Update(ctx); err != nil {
			return command.Result{Handled: true}, err
		}
		return c.cctx.Reply(ctx, "What is your name?")
	}
}
