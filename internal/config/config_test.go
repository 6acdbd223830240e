package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, 10.0, cfg.Detector.MinSpreadPercent)
	assert.Equal(t, 500_000.0, cfg.Detector.MinVolumeUSDT)
	assert.Equal(t, 0.5, cfg.Funding.MaxFundingRatePercent)
	assert.Equal(t, 5.0, cfg.Cooldown.MinChangePercent)
	assert.Equal(t, 3*time.Minute, cfg.Cooldown.MinCooldown.Duration)
	assert.Equal(t, 30*time.Minute, cfg.Cooldown.MaxCooldown.Duration)
	assert.Equal(t, 6*time.Hour, cfg.Cooldown.HistoryMaxAge.Duration)
	assert.Equal(t, 60*time.Second, cfg.Monitor.ScanInterval.Duration)
	assert.Equal(t, 30, cfg.Monitor.StatsEvery)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.LogLevel = "loud"
	cfg.Detector.MinSpreadPercent = 0
	cfg.Cooldown.MaxCooldown = duration{time.Minute} // below min_cooldown

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "turbo"`)
	assert.Contains(t, err.Error(), `unknown log_level "loud"`)
	assert.Contains(t, err.Error(), "min_spread_percent must be > 0")
	assert.Contains(t, err.Error(), "max_cooldown must exceed min_cooldown")
}

func TestValidateTelegramPairing(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.TelegramToken = "123:abc"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram_token and telegram_chat_id must be set together")

	cfg.Notify.TelegramChatID = "-100200300"
	require.NoError(t, cfg.Validate())
}

func TestValidateModeGating(t *testing.T) {
	// monitor mode does not require redis/postgres/s3 settings.
	cfg := Defaults()
	cfg.Mode = "monitor"
	cfg.Redis.Addr = ""
	cfg.Postgres.Host = ""
	cfg.S3.Bucket = ""
	require.NoError(t, cfg.Validate())

	// full mode does.
	cfg.Mode = "full"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: addr must not be empty")
	assert.Contains(t, err.Error(), "postgres: host must not be empty")
	assert.Contains(t, err.Error(), "s3: bucket must not be empty")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "monitor"
log_level = "debug"

[detector]
min_spread_percent = 12.5

[cooldown]
min_cooldown = "90s"

[monitor]
scan_interval = "45s"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("SPREADBOT_DETECTOR_MIN_VOLUME_USDT", "750000")
	t.Setenv("SPREADBOT_MONITOR_STATS_EVERY", "10")
	t.Setenv("SPREADBOT_NOTIFY_EVENTS", "spread_alert, error")

	cfg, err := Load(path)
	require.NoError(t, err)

	// File overrides defaults.
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 12.5, cfg.Detector.MinSpreadPercent)
	assert.Equal(t, 90*time.Second, cfg.Cooldown.MinCooldown.Duration)
	assert.Equal(t, 45*time.Second, cfg.Monitor.ScanInterval.Duration)

	// Env overrides file and defaults.
	assert.Equal(t, 750_000.0, cfg.Detector.MinVolumeUSDT)
	assert.Equal(t, 10, cfg.Monitor.StatsEvery)
	assert.Equal(t, []string{"spread_alert", "error"}, cfg.Notify.Events)

	// Untouched defaults survive.
	assert.Equal(t, 30*time.Minute, cfg.Cooldown.MaxCooldown.Duration)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.TelegramToken = "123:abc"
	cfg.Notify.DiscordWebhookURL = "https://discord.com/api/webhooks/1/secret"
	cfg.Redis.Password = "hunter2"
	cfg.Postgres.Password = "pgpass"
	cfg.S3.AccessKey = "AKIA123"
	cfg.S3.SecretKey = "topsecret"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Notify.TelegramToken)
	assert.Equal(t, "***", red.Notify.DiscordWebhookURL)
	assert.Equal(t, "***", red.Redis.Password)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.S3.AccessKey)
	assert.Equal(t, "***", red.S3.SecretKey)

	// Empty secrets stay empty rather than becoming placeholders.
	assert.Empty(t, red.Postgres.DSN)

	// Non-secret fields and the original are untouched.
	assert.Equal(t, cfg.Redis.Addr, red.Redis.Addr)
	assert.Equal(t, "hunter2", cfg.Redis.Password)

	// Slice copies are independent of the original.
	red.Notify.Events[0] = "mutated"
	assert.Equal(t, "spread_alert", cfg.Notify.Events[0])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
