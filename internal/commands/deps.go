// Package commands provides the framework's built-in user commands and
// system commands, along with their registration into the command registry.
package commands

import (
	"github.com/edgard/convobot/internal/config"
	"github.com/edgard/convobot/internal/gemini"
)

// Deps provides shared dependencies for the built-in commands.
// AI is nil when the Gemini integration is disabled.
type Deps struct {
	Messages config.MessagesConfig
	AI       gemini.Client
}
