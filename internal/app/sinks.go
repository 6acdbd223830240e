package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
	"github.com/alanyoungcy/spreadbot/internal/scanner"
)

// storeSink persists every dispatched alert to the signal store.
type storeSink struct {
	store domain.SignalStore
}

func (s *storeSink) Record(ctx context.Context, alert domain.Alert) error {
	return s.store.Insert(ctx, alert)
}

// busSink hands every dispatched alert to the signal bus, which fans it out
// to the live channel and the replay stream.
type busSink struct {
	bus domain.SignalBus
}

func (s *busSink) Record(ctx context.Context, alert domain.Alert) error {
	return s.bus.PublishAlert(ctx, alert)
}

// snapshotObserver mirrors each fetched ticker snapshot into the cache.
// Cache failures are logged, never fatal: the pipeline already holds the
// snapshot in memory.
type snapshotObserver struct {
	cache  domain.SnapshotCache
	logger *slog.Logger
}

func (o *snapshotObserver) ObserveSnapshot(ctx context.Context, exchange string, snap domain.TickerSnapshot, ts time.Time) {
	if err := o.cache.SetTickers(ctx, exchange, snap, ts); err != nil {
		o.logger.Warn("snapshot cache update failed",
			slog.String("exchange", exchange),
			slog.String("error", err.Error()),
		)
	}
}

var (
	_ scanner.Sink             = (*storeSink)(nil)
	_ scanner.Sink             = (*busSink)(nil)
	_ scanner.SnapshotObserver = (*snapshotObserver)(nil)
)
