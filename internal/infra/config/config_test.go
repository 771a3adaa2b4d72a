package config

import (
	"testing"
	"time"

	"class_schedule_bot/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("SENDGRID_API_KEY", "")
	t.Setenv("EMAIL_FROM_ADDRESS", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("REMINDER_OFFSETS", "24h,3h,30m")
	t.Setenv("REMINDER_TOLERANCE", "5m")
	t.Setenv("TRIGGER_INTERVAL", "5m")
	t.Setenv("CHANNEL_TIMEOUT", "5s")
}

func TestLoadDefaults(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 30, cfg.HorizonDays)
	assert.Equal(t, 4, cfg.MaxParallelBatches)
	assert.Equal(t, 5*time.Minute, cfg.ReminderTolerance)
	assert.Equal(t, 5*time.Second, cfg.ChannelTimeout)
	assert.True(t, cfg.FreePreviewAnon)
	assert.False(t, cfg.RetryFailed)
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
	assert.Equal(t, []notification.Offset{
		notification.OffsetDayBefore,
		notification.OffsetThreeHours,
		notification.OffsetHalfHour,
	}, cfg.Offsets)
	assert.False(t, cfg.TelegramEnabled())
	assert.False(t, cfg.EmailEnabled())
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "postgres without url",
			env:     map[string]string{"STORE_DRIVER": "postgres"},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"STORE_DRIVER": "sqlite"},
			wantErr: "STORE_DRIVER",
		},
		{
			name:    "tolerance below trigger interval",
			env:     map[string]string{"REMINDER_TOLERANCE": "1m", "TRIGGER_INTERVAL": "5m"},
			wantErr: "REMINDER_TOLERANCE must be at least TRIGGER_INTERVAL",
		},
		{
			name:    "channel timeout too long",
			env:     map[string]string{"CHANNEL_TIMEOUT": "15s"},
			wantErr: "CHANNEL_TIMEOUT",
		},
		{
			name:    "unknown offset",
			env:     map[string]string{"REMINDER_OFFSETS": "24h,1h"},
			wantErr: "REMINDER_OFFSETS",
		},
		{
			name:    "telegram without admin",
			env:     map[string]string{"TELEGRAM_TOKEN": "token"},
			wantErr: "ADMIN_TELEGRAM_ID",
		},
		{
			name:    "sendgrid without sender",
			env:     map[string]string{"SENDGRID_API_KEY": "key"},
			wantErr: "EMAIL_FROM_ADDRESS is required",
		},
		{
			name:    "bad timezone",
			env:     map[string]string{"TIMEZONE": "Mars/Olympus"},
			wantErr: "invalid TIMEZONE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDeduplicatesOffsets(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("REMINDER_OFFSETS", "30m,24h,30m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []notification.Offset{notification.OffsetHalfHour, notification.OffsetDayBefore}, cfg.Offsets)
}
