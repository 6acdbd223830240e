// Package config defines the top-level configuration for the spread monitor
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SPREADBOT_* environment variables.
type Config struct {
	Detector DetectorConfig `toml:"detector"`
	Funding  FundingConfig  `toml:"funding"`
	Cooldown CooldownConfig `toml:"cooldown"`
	Monitor  MonitorConfig  `toml:"monitor"`
	Notify   NotifyConfig   `toml:"notify"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// DetectorConfig holds spread detection thresholds.
type DetectorConfig struct {
	MinSpreadPercent float64 `toml:"min_spread_percent"`
	MinVolumeUSDT    float64 `toml:"min_volume_usdt"`
}

// FundingConfig holds funding-rate gate parameters.
type FundingConfig struct {
	MaxFundingRatePercent float64 `toml:"max_funding_rate_percent"`
}

// CooldownConfig holds notification rate-limiting parameters.
type CooldownConfig struct {
	MinChangePercent float64  `toml:"min_change_percent"`
	MinCooldown      duration `toml:"min_cooldown"`
	MaxCooldown      duration `toml:"max_cooldown"`
	HistoryMaxAge    duration `toml:"history_max_age"`
}

// MonitorConfig holds scan-loop timing parameters.
type MonitorConfig struct {
	ScanInterval   duration `toml:"scan_interval"`
	RequestTimeout duration `toml:"request_timeout"`
	StatsEvery     int      `toml:"stats_every"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	TelegramThreadID  string   `toml:"telegram_thread_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	RetentionDays  int    `toml:"retention_days"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "3m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "3m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Detector: DetectorConfig{
			MinSpreadPercent: 10.0,
			MinVolumeUSDT:    500_000.0,
		},
		Funding: FundingConfig{
			MaxFundingRatePercent: 0.5,
		},
		Cooldown: CooldownConfig{
			MinChangePercent: 5.0,
			MinCooldown:      duration{3 * time.Minute},
			MaxCooldown:      duration{30 * time.Minute},
			HistoryMaxAge:    duration{6 * time.Hour},
		},
		Monitor: MonitorConfig{
			ScanInterval:   duration{60 * time.Second},
			RequestTimeout: duration{10 * time.Second},
			StatsEvery:     30,
		},
		Notify: NotifyConfig{
			Events: []string{"spread_alert", "startup", "error"},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "spreadbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "spreadbot-data",
			UseSSL:         false,
			ForcePathStyle: true,
			RetentionDays:  90,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"monitor": true,
	"full":    true,
	"server":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: monitor, full, server)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Detector
	if c.Detector.MinSpreadPercent <= 0 {
		errs = append(errs, "detector: min_spread_percent must be > 0")
	}
	if c.Detector.MinVolumeUSDT < 0 {
		errs = append(errs, "detector: min_volume_usdt must be >= 0")
	}

	// Funding
	if c.Funding.MaxFundingRatePercent <= 0 {
		errs = append(errs, "funding: max_funding_rate_percent must be > 0")
	}

	// Cooldown
	if c.Cooldown.MinChangePercent <= 0 {
		errs = append(errs, "cooldown: min_change_percent must be > 0")
	}
	if c.Cooldown.MinCooldown.Duration <= 0 {
		errs = append(errs, "cooldown: min_cooldown must be > 0")
	}
	if c.Cooldown.MaxCooldown.Duration <= c.Cooldown.MinCooldown.Duration {
		errs = append(errs, "cooldown: max_cooldown must exceed min_cooldown")
	}
	if c.Cooldown.HistoryMaxAge.Duration <= 0 {
		errs = append(errs, "cooldown: history_max_age must be > 0")
	}

	// Monitor
	if c.Monitor.ScanInterval.Duration <= 0 {
		errs = append(errs, "monitor: scan_interval must be > 0")
	}
	if c.Monitor.RequestTimeout.Duration <= 0 {
		errs = append(errs, "monitor: request_timeout must be > 0")
	}
	if c.Monitor.StatsEvery < 1 {
		errs = append(errs, "monitor: stats_every must be >= 1")
	}

	// A chat id without a token (or vice versa) is a config mistake.
	tk := c.Notify.TelegramToken != ""
	ch := c.Notify.TelegramChatID != ""
	if tk != ch {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	mode := strings.ToLower(c.Mode)
	needsRedis := mode == "full" || mode == "server"
	needsPostgres := mode == "full" || mode == "server"
	needsS3 := mode == "full"

	// Redis
	if needsRedis {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Postgres
	if needsPostgres {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if needsS3 {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.RetentionDays < 1 {
			errs = append(errs, "s3: retention_days must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled && (mode == "full" || mode == "server") {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
