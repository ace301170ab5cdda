package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	GitHub   GitHubConfig
	Admin    AdminConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         string `validate:"required,numeric"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TLSCertFile  string `validate:"required_with=TLSKeyFile"`
	TLSKeyFile   string `validate:"required_with=TLSCertFile"`
}

// TLSEnabled reports whether both certificate and key were configured
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

type TelegramConfig struct {
	BotToken   string `validate:"required"`
	ChatID     string `validate:"required"`
	BaseURL    string `validate:"required,url"`
	Timeout    time.Duration
	RetryCount int `validate:"gte=0,lte=5"`
}

type GitHubConfig struct {
	WebhookSecret string `validate:"required"`
}

// AdminConfig guards the manual notification endpoint; empty disables it
type AdminConfig struct {
	Token string
}

type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn warning error fatal"`
	Format string `validate:"oneof=json console"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvWithDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvWithDefault("PORT", "3000"),
			ReadTimeout:  getDurationFromEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationFromEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			TLSCertFile:  os.Getenv("TLS_CERT_FILE"),
			TLSKeyFile:   os.Getenv("TLS_KEY_FILE"),
		},
		Telegram: TelegramConfig{
			BotToken:   os.Getenv("BOT_TOKEN"),
			ChatID:     os.Getenv("CHAT_ID"),
			BaseURL:    strings.TrimRight(getEnvWithDefault("TELEGRAM_BASE_URL", "https://api.telegram.org"), "/"),
			Timeout:    getDurationFromEnv("TELEGRAM_TIMEOUT", 10*time.Second),
			RetryCount: getIntFromEnv("TELEGRAM_RETRY_COUNT", 1),
		},
		GitHub: GitHubConfig{
			WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		},
		Admin: AdminConfig{
			Token: os.Getenv("ADMIN_TOKEN"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
			Format: getEnvWithDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks presence and shape of every setting
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// describe names the environment variable behind a failed field where one exists
func describe(fe validator.FieldError) string {
	name := fe.StructNamespace()
	if env, ok := envNames[name]; ok {
		name = env
	}
	if fe.Tag() == "required" {
		return fmt.Sprintf("%s is required", name)
	}
	return fmt.Sprintf("%s failed %q validation", name, fe.Tag())
}

var envNames = map[string]string{
	"Config.Server.Port":          "PORT",
	"Config.Server.TLSCertFile":   "TLS_CERT_FILE",
	"Config.Server.TLSKeyFile":    "TLS_KEY_FILE",
	"Config.Telegram.BotToken":    "BOT_TOKEN",
	"Config.Telegram.ChatID":      "CHAT_ID",
	"Config.Telegram.BaseURL":     "TELEGRAM_BASE_URL",
	"Config.Telegram.RetryCount":  "TELEGRAM_RETRY_COUNT",
	"Config.GitHub.WebhookSecret": "WEBHOOK_SECRET",
	"Config.Logging.Level":        "LOG_LEVEL",
	"Config.Logging.Format":       "LOG_FORMAT",
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntFromEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationFromEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
