package config

import (
	"fmt"
	"strings"
	"time"

	"class_schedule_bot/internal/domain/notification"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres" validate:"oneof=postgres memory"`
	DatabaseURL string `envconfig:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`

	TelegramToken   string `envconfig:"TELEGRAM_TOKEN"`
	AdminTelegramID int64  `envconfig:"ADMIN_TELEGRAM_ID" validate:"required_with=TelegramToken"`

	SendGridAPIKey   string `envconfig:"SENDGRID_API_KEY"`
	EmailFromAddress string `envconfig:"EMAIL_FROM_ADDRESS" validate:"omitempty,email"`
	EmailFromName    string `envconfig:"EMAIL_FROM_NAME" default:"Class Schedule"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Timezone    string `envconfig:"TIMEZONE" default:"UTC" validate:"notblank"`
	ClassesFile string `envconfig:"CLASSES_FILE" default:"classes.yaml" validate:"notblank"`

	HorizonDays        int           `envconfig:"HORIZON_DAYS" default:"30" validate:"min=1,max=366"`
	ToppedUpSessions   int           `envconfig:"TOPPED_UP_SESSIONS" default:"0" validate:"min=0"`
	ReminderOffsets    []string      `envconfig:"REMINDER_OFFSETS" default:"24h,3h,30m" validate:"min=1,dive,oneof=24h 3h 30m"`
	ReminderTolerance  time.Duration `envconfig:"REMINDER_TOLERANCE" default:"5m" validate:"gt=0"`
	TriggerInterval    time.Duration `envconfig:"TRIGGER_INTERVAL" default:"5m" validate:"gte=1s"`
	ChannelTimeout     time.Duration `envconfig:"CHANNEL_TIMEOUT" default:"5s" validate:"gt=0,lt=10s"`
	RetryFailed        bool          `envconfig:"RETRY_FAILED" default:"false"`
	FreePreviewAnon    bool          `envconfig:"FREE_PREVIEW_ANONYMOUS" default:"true"`
	MaxParallelBatches int           `envconfig:"MAX_PARALLEL_BATCHES" default:"4" validate:"min=1"`

	// Resolved from the raw values above by Load.
	Location *time.Location        `ignored:"true"`
	Offsets  []notification.Offset `ignored:"true"`
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)

	if err := validateStruct(cfg); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	seen := make(map[notification.Offset]bool, len(cfg.ReminderOffsets))
	for _, raw := range cfg.ReminderOffsets {
		o, err := notification.ParseOffset(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid REMINDER_OFFSETS: %w", err)
		}
		if seen[o] {
			continue
		}
		seen[o] = true
		cfg.Offsets = append(cfg.Offsets, o)
	}

	return cfg, nil
}

// TelegramEnabled reports whether the bot and the telegram channel should run.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// EmailEnabled reports whether the SendGrid channel should run.
func (c *AppConfig) EmailEnabled() bool {
	return c.SendGridAPIKey != ""
}
