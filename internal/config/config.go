// Package config provides configuration loading, validation, and management
// for the Moirai application. It handles reading from YAML files, applying
// MOIRAI_* environment overrides, setting default values, and validating
// configuration parameters.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration for all components of the
// Moirai system: logging, Telegram, AI integration, storage, the offline
// engine, connectivity probing, scheduled tasks, and oracle behavior.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Net       NetConfig       `mapstructure:"net"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the admin user. BotInfo is filled
// in at runtime after the bot identifies itself.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required,gt=0"`

	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig holds the Gemini API settings.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"             validate:"required"`
	ModelName         string  `mapstructure:"model_name"          validate:"required"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0,max=300"`
}

// StorageConfig selects the snapshot backend. The file backend writes a JSON
// snapshot, the sqlite backend keeps it in a single-row table, and none
// disables persistence entirely.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=file sqlite none"`
	Path    string `mapstructure:"path"`
}

// EngineConfig tunes the offline send/retry engine.
type EngineConfig struct {
	MaxRetries   int           `mapstructure:"max_retries"   validate:"min=0,max=10"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"min=0"`

	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures" validate:"min=1"`
	BreakerCooldown    time.Duration `mapstructure:"breaker_cooldown"     validate:"min=1s"`
}

// NetConfig tunes the connectivity monitor.
type NetConfig struct {
	ProbeURL      string        `mapstructure:"probe_url"      validate:"omitempty,url"`
	ProbeInterval time.Duration `mapstructure:"probe_interval" validate:"min=1s"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"  validate:"min=1s"`
}

// TaskConfig enables one scheduled task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules. The names must match
// the task registry keys.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// OracleConfig carries oracle behavior knobs and the per-language greeting
// used to seed and reset the message log.
type OracleConfig struct {
	HistoryLimit      int               `mapstructure:"history_limit"       validate:"min=1"`
	DailyMessageLimit int               `mapstructure:"daily_message_limit" validate:"min=1"`
	Greetings         map[string]string `mapstructure:"greetings"`
}

// Greeting returns the configured greeting for the language tag, falling
// back to English.
func (o OracleConfig) Greeting(language string) string {
	if g, ok := o.Greetings[language]; ok && g != "" {
		return g
	}
	return o.Greetings["en"]
}

// MessagesConfig holds user-facing notice texts.
type MessagesConfig struct {
	NotAuthorized     string `mapstructure:"not_authorized"`
	GeneralError      string `mapstructure:"general_error"`
	SendFailed        string `mapstructure:"send_failed"`
	NoFailedMessage   string `mapstructure:"no_failed_message"`
	DataCleared       string `mapstructure:"data_cleared"`
	DailyLimitReached string `mapstructure:"daily_limit_reached"`
	NoFacts           string `mapstructure:"no_facts"`
	FactsHeader       string `mapstructure:"facts_header"`
	NoSummaries       string `mapstructure:"no_summaries"`
	SummariesHeader   string `mapstructure:"summaries_header"`

	SettingSaved        string `mapstructure:"setting_saved"`
	UnknownOption       string `mapstructure:"unknown_option"`
	FactForgotten       string `mapstructure:"fact_forgotten"`
	FactRevised         string `mapstructure:"fact_revised"`
	NoSuchFact          string `mapstructure:"no_such_fact"`
	ConversationCleared string `mapstructure:"conversation_cleared"`
}
