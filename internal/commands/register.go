package commands

import (
	"github.com/edgard/convobot/internal/command"
)

// RegisterAll registers the framework's built-in user commands and system
// commands with the registry. Deployer override tables are added separately
// via Registry.AddOverrides and shadow everything registered here.
func RegisterAll(r *command.Registry, deps Deps) {
	r.RegisterBuiltin(command.Entry{
		Descriptor: command.Descriptor{
			Name:        "help",
			Description: "Show available commands",
			Usage:       "/help",
			Version:     "1.1.0",
			Enabled:     true,
			ShowInHelp:  true,
			Kind:        command.KindUser,
		},
		New: NewHelpCommand(deps),
	})
	r.RegisterBuiltin(command.Entry{
		Descriptor: command.Descriptor{
			Name:        "start",
			Description: "Start interacting with the bot",
			Usage:       "/start",
			Version:     "1.0.0",
			Enabled:     true,
			ShowInHelp:  true,
			Kind:        command.KindUser,
		},
		New: NewStartCommand(deps),
	})
	r.RegisterBuiltin(command.Entry{
		Descriptor: command.Descriptor{
			Name:        "echo",
			Description: "Repeat the given text",
			Usage:       "/echo <text>",
			Version:     "1.0.0",
			Enabled:     true,
			ShowInHelp:  true,
			Kind:        command.KindUser,
		},
		New: NewEchoCommand(deps),
	})
	r.RegisterBuiltin(command.Entry{
		Descriptor: command.Descriptor{
			Name:        "cancel",
			Description: "Cancel the currently active conversation",
			Usage:       "/cancel",
			Version:     "1.0.0",
			Enabled:     true,
			ShowInHelp:  true,
			Kind:        command.KindUser,
		},
		New: NewCancelCommand(deps),
	})
	r.RegisterBuiltin(command.Entry{
		Descriptor: command.Descriptor{
			Name:        "survey",
			Description: "Answer a short multi-step survey",
			Usage:       "/survey",
			Version:     "1.0.0",
			Enabled:     true,
			ShowInHelp:  true,
			Kind:        command.KindUser,
		},
		New: NewSurveyCommand(deps),
	})
	r.RegisterBuiltin(command.Entry{
		Descriptor: command.Descriptor{
			Name:        "generic",
			Description: "Fallback for unknown explicit commands",
			Usage:       "",
			Version:     "1.0.0",
			Enabled:     true,
			ShowInHelp:  false,
			Kind:        command.KindUser,
		},
		New: NewGenericCommand(deps),
	})
	r.RegisterBuiltin(command.Entry{
		Descriptor: command.Descriptor{
			Name:        "genericmessage",
			Description: "Fallback for free-text messages",
			Usage:       "",
			Version:     "1.0.0",
			Enabled:     true,
			ShowInHelp:  false,
			Kind:        command.KindUser,
		},
		New: NewGenericMessageCommand(deps),
	})

	for _, name := range []string{
		"editedmessage",
		"channelpost",
		"inlinequery",
		"callbackquery",
		"newchatmembers",
		"deletechatphoto",
	} {
		r.RegisterSystem(command.Entry{
			Descriptor: command.Descriptor{
				Name:        name,
				Description: "Handle " + name + " platform events",
				Version:     "1.0.0",
				Enabled:     true,
				ShowInHelp:  false,
				Kind:        command.KindSystem,
			},
			New: NewSystemCommand(name),
		})
	}
}
