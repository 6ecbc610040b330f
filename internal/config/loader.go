package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration indicates a fatal configuration problem detected at load time.
var ErrConfiguration = errors.New("configuration error")

// Load reads configuration in order of increasing precedence:
// 1. Default values
// 2. The config file (optional)
// 3. BOT_* environment variables
//
// The resulting config is validated; a missing bot token or any other
// invalid value is a fatal error.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
		}
		// Missing config file is fine, defaults plus env cover everything.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

func isMissingFile(err error) bool {
	// viper returns *fs.PathError instead of ConfigFileNotFoundError when
	// an explicit config file path does not exist.
	return strings.Contains(err.Error(), "no such file")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("scheduler.conversation_ttl", "24h")
	v.SetDefault("scheduler.expiry_schedule", "0 * * * *")
	v.SetDefault("scheduler.maintenance_schedule", "0 4 * * *")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.temperature", 1.0)
	v.SetDefault("ai.timeout", "2m")
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.retry_delay", "5s")

	v.SetDefault("messages.welcome", "Hello! I'm ready. Use /help to see what I can do.")
	v.SetDefault("messages.help_header", "Available commands:\n\n")
	v.SetDefault("messages.unknown_command", "Unknown command. Use /help to see available commands.")
	v.SetDefault("messages.default_reply", "")
	v.SetDefault("messages.cancel_done", "Conversation \"%s\" cancelled.")
	v.SetDefault("messages.cancel_none", "There is no active conversation to cancel.")
	v.SetDefault("messages.general_error", "An error occurred. Please try again later.")
}
