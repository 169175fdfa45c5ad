package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port           int      `env:"PORT" envDefault:"5000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Completion provider
	OpenAIAPIKey           string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL          string `env:"OPENAI_BASE_URL"`
	OpenAIModel            string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	ProviderTimeoutSeconds int    `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"30"`

	// Conversation
	SystemPromptPath  string `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`
	ContextWindowSize int    `env:"CONTEXT_WINDOW_SIZE" envDefault:"5"`

	// Storage
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/sessions.db"`

	// Retention (0 keeps sessions forever)
	SessionRetentionDays int    `env:"SESSION_RETENTION_DAYS" envDefault:"0"`
	CleanupSchedule      string `env:"CLEANUP_SCHEDULE" envDefault:"0 3 * * *"`

	// Optional Telegram gateway
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
