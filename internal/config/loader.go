package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (optional)
// 3. MOIRAI_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MOIRAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Allow a missing config file; defaults plus environment still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for optional configuration parameters.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay_seconds", 5)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "moirai-state.json")

	v.SetDefault("engine.max_retries", 3)
	v.SetDefault("engine.initial_delay", "1s")
	v.SetDefault("engine.breaker_max_failures", 5)
	v.SetDefault("engine.breaker_cooldown", "60s")

	v.SetDefault("net.probe_url", "https://www.gstatic.com/generate_204")
	v.SetDefault("net.probe_interval", "30s")
	v.SetDefault("net.probe_timeout", "5s")

	v.SetDefault("scheduler.tasks.daily_summary.enabled", true)
	v.SetDefault("scheduler.tasks.daily_summary.schedule", "0 5 * * *")
	v.SetDefault("scheduler.tasks.fact_extraction.enabled", true)
	v.SetDefault("scheduler.tasks.fact_extraction.schedule", "30 */4 * * *")

	v.SetDefault("oracle.history_limit", 10)
	v.SetDefault("oracle.daily_message_limit", 20)
	v.SetDefault("oracle.greetings.en", "Welcome, seeker. The veils of destiny part for you. What weighs on your spirit today?")
	v.SetDefault("oracle.greetings.es", "Bienvenide, alma buscadora. Los velos del destino se abren para ti. ¿Qué inquieta hoy a tu espíritu?")

	v.SetDefault("messages.not_authorized", "You are not authorized to use this command.")
	v.SetDefault("messages.general_error", "The threads of fate are tangled. Please try again later.")
	v.SetDefault("messages.send_failed", "Your words could not reach the oracle. Use /retry when the connection returns.")
	v.SetDefault("messages.no_failed_message", "There is nothing to retry; all your words have reached the oracle.")
	v.SetDefault("messages.data_cleared", "The slate is wiped clean. Our journey begins anew.")
	v.SetDefault("messages.daily_limit_reached", "The oracle must rest. Return tomorrow, when the stars have shifted.")
	v.SetDefault("messages.no_facts", "The oracle holds no threads of your fate yet.")
	v.SetDefault("messages.facts_header", "Threads of your fate:\n\n")
	v.SetDefault("messages.no_summaries", "No daily readings have been recorded yet.")
	v.SetDefault("messages.summaries_header", "Past readings:\n\n")

	v.SetDefault("messages.setting_saved", "So it is woven. The oracle will remember.")
	v.SetDefault("messages.unknown_option", "The oracle does not recognize that choice.")
	v.SetDefault("messages.fact_forgotten", "That thread has been released into the mist.")
	v.SetDefault("messages.fact_revised", "The thread has been rewoven.")
	v.SetDefault("messages.no_such_fact", "No such thread exists in the weave.")
	v.SetDefault("messages.conversation_cleared", "The conversation fades into mist; your threads of fate remain.")
}
