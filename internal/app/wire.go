package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/spreadbot/internal/blob/s3"
	"github.com/alanyoungcy/spreadbot/internal/cache/redis"
	"github.com/alanyoungcy/spreadbot/internal/config"
	"github.com/alanyoungcy/spreadbot/internal/domain"
	"github.com/alanyoungcy/spreadbot/internal/exchange"
	"github.com/alanyoungcy/spreadbot/internal/notify"
	"github.com/alanyoungcy/spreadbot/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function. Fields backed by optional infrastructure (Redis,
// Postgres, S3) are nil in modes that do not wire them.
type Dependencies struct {
	// Exchanges
	Primary     domain.TickerProvider
	Secondaries []domain.TickerProvider
	Books       map[string]domain.BookProvider
	FundingSrcs []domain.FundingProvider

	// Redis
	SnapshotCache domain.SnapshotCache
	SignalBus     domain.SignalBus

	// Postgres
	SignalStore domain.SignalStore

	// Blob storage
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// needsRedis returns true for modes that mirror state or stream alerts.
func needsRedis(mode string) bool {
	switch mode {
	case "full", "server":
		return true
	default:
		return false
	}
}

// needsPostgres returns true for modes that persist alert history.
func needsPostgres(mode string) bool {
	switch mode {
	case "full", "server":
		return true
	default:
		return false
	}
}

// needsS3 returns true for modes that archive aged alerts to object storage.
func needsS3(mode string) bool {
	return mode == "full"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Exchange clients ---
	timeout := cfg.Monitor.RequestTimeout.Duration

	mexc := exchange.NewMEXC(exchange.MEXCBaseURL, timeout)
	binance := exchange.NewBinance(exchange.BinanceBaseURL, timeout)
	bybit := exchange.NewBybit(exchange.BybitBaseURL, timeout)
	gate := exchange.NewGate(exchange.GateBaseURL, timeout)
	kucoin := exchange.NewKuCoin(exchange.KuCoinBaseURL, timeout)
	okx := exchange.NewOKX(exchange.OKXBaseURL, timeout)
	bingx := exchange.NewBingX(exchange.BingXBaseURL, timeout)

	deps.Primary = mexc
	deps.Secondaries = []domain.TickerProvider{binance, bybit, gate, kucoin, okx, bingx}

	// Bybit and BingX expose no usable depth endpoint here; candidates
	// against them fail validation with a missing-book reason.
	deps.Books = map[string]domain.BookProvider{
		mexc.Name():    mexc,
		binance.Name(): binance,
		gate.Name():    gate,
		kucoin.Name():  kucoin,
		okx.Name():     okx,
	}

	deps.FundingSrcs = []domain.FundingProvider{mexc, binance}

	// --- Redis (only for modes that mirror snapshots / stream alerts) ---
	if needsRedis(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SnapshotCache = redis.NewSnapshotCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- PostgreSQL (only for modes that persist alert history) ---
	if needsPostgres(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		store := postgres.NewSignalStore(pgClient.Pool())
		deps.SignalStore = store

		// --- S3 blob storage (full mode only) ---
		if needsS3(cfg.Mode) {
			s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
				Endpoint:       cfg.S3.Endpoint,
				Region:         cfg.S3.Region,
				Bucket:         cfg.S3.Bucket,
				AccessKey:      cfg.S3.AccessKey,
				SecretKey:      cfg.S3.SecretKey,
				UseSSL:         cfg.S3.UseSSL,
				ForcePathStyle: cfg.S3.ForcePathStyle,
			})
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: s3: %w", err)
			}
			closers = append(closers, func() { _ = s3Client.Close() })

			deps.BlobReader = s3blob.NewReader(s3Client)
			deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), store)
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
			cfg.Notify.TelegramThreadID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
