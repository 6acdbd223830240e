package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SPREADBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SPREADBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Detector ──
	setFloat64(&cfg.Detector.MinSpreadPercent, "SPREADBOT_DETECTOR_MIN_SPREAD_PERCENT")
	setFloat64(&cfg.Detector.MinVolumeUSDT, "SPREADBOT_DETECTOR_MIN_VOLUME_USDT")

	// ── Funding ──
	setFloat64(&cfg.Funding.MaxFundingRatePercent, "SPREADBOT_FUNDING_MAX_FUNDING_RATE_PERCENT")

	// ── Cooldown ──
	setFloat64(&cfg.Cooldown.MinChangePercent, "SPREADBOT_COOLDOWN_MIN_CHANGE_PERCENT")
	setDuration(&cfg.Cooldown.MinCooldown, "SPREADBOT_COOLDOWN_MIN_COOLDOWN")
	setDuration(&cfg.Cooldown.MaxCooldown, "SPREADBOT_COOLDOWN_MAX_COOLDOWN")
	setDuration(&cfg.Cooldown.HistoryMaxAge, "SPREADBOT_COOLDOWN_HISTORY_MAX_AGE")

	// ── Monitor ──
	setDuration(&cfg.Monitor.ScanInterval, "SPREADBOT_MONITOR_SCAN_INTERVAL")
	setDuration(&cfg.Monitor.RequestTimeout, "SPREADBOT_MONITOR_REQUEST_TIMEOUT")
	setInt(&cfg.Monitor.StatsEvery, "SPREADBOT_MONITOR_STATS_EVERY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SPREADBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SPREADBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.TelegramThreadID, "SPREADBOT_NOTIFY_TELEGRAM_THREAD_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SPREADBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SPREADBOT_NOTIFY_EVENTS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SPREADBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SPREADBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SPREADBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SPREADBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SPREADBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SPREADBOT_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SPREADBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SPREADBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SPREADBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SPREADBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SPREADBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SPREADBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SPREADBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SPREADBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SPREADBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SPREADBOT_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "SPREADBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SPREADBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "SPREADBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SPREADBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SPREADBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SPREADBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SPREADBOT_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.RetentionDays, "SPREADBOT_S3_RETENTION_DAYS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SPREADBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SPREADBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SPREADBOT_SERVER_CORS_ORIGINS")

	// ── Top-level ──
	setStr(&cfg.Mode, "SPREADBOT_MODE")
	setStr(&cfg.LogLevel, "SPREADBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
