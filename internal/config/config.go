// Package config manages application configuration from config.yaml,
// BOT_-prefixed environment variables, and default values.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration parameters for all components
// of the bot framework: logging, Telegram transport, webhook server, storage,
// scheduled maintenance, AI integration, and user-facing messages.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	AI        AIConfig        `mapstructure:"ai"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot identity and webhook registration settings.
// BotInfo is populated at runtime after a successful GetMe call.
type TelegramConfig struct {
	Token         string `mapstructure:"token"          validate:"required"`
	WebhookURL    string `mapstructure:"webhook_url"    validate:"omitempty,url"`
	WebhookSecret string `mapstructure:"webhook_secret"`

	BotInfo *models.User `mapstructure:"-"`
}

// ServerConfig holds the webhook HTTP server settings.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=1m"`
}

// DatabaseConfig holds the SQLite storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig controls the background maintenance jobs.
type SchedulerConfig struct {
	// ConversationTTL is how long an active conversation may sit idle
	// before the expiry job cancels it.
	ConversationTTL     time.Duration `mapstructure:"conversation_ttl"     validate:"min=1m"`
	ExpirySchedule      string        `mapstructure:"expiry_schedule"      validate:"required"`
	MaintenanceSchedule string        `mapstructure:"maintenance_schedule" validate:"required"`
}

// AIConfig holds the optional Gemini integration used by the generic
// message fallback. All fields except Enabled are ignored when disabled.
type AIConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	APIKey      string        `mapstructure:"api_key"     validate:"required_if=Enabled true"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Instruction string        `mapstructure:"instruction"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"min=0"`
}

// MessagesConfig holds the user-facing reply texts for the built-in commands.
type MessagesConfig struct {
	Welcome        string `mapstructure:"welcome"`
	HelpHeader     string `mapstructure:"help_header"`
	UnknownCommand string `mapstructure:"unknown_command"`
	DefaultReply   string `mapstructure:"default_reply"`
	CancelDone     string `mapstructure:"cancel_done"`
	CancelNone     string `mapstructure:"cancel_none"`
	GeneralError   string `mapstructure:"general_error"`
}
