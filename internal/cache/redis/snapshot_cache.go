package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// snapshotTTL bounds how long a mirrored snapshot survives without a
// refresh. Stale market data is worse than none.
const snapshotTTL = 5 * time.Minute

// SnapshotCache implements domain.SnapshotCache by mirroring each exchange's
// ticker snapshot into a Redis hash at tickers:{exchange}. The whole snapshot
// is stored as one JSON blob alongside its fetch timestamp so readers always
// see a consistent view.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

func snapshotKey(exchange string) string {
	return "tickers:" + exchange
}

// SetTickers replaces the cached snapshot for an exchange.
func (sc *SnapshotCache) SetTickers(ctx context.Context, exchange string, snap domain.TickerSnapshot, ts time.Time) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot for %s: %w", exchange, err)
	}

	key := snapshotKey(exchange)
	pipe := sc.rdb.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"data": data,
		"ts":   strconv.FormatInt(ts.UnixMilli(), 10),
	})
	pipe.Expire(ctx, key, snapshotTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set snapshot for %s: %w", exchange, err)
	}
	return nil
}

// GetTickers returns the cached snapshot for an exchange along with the time
// it was fetched. It returns domain.ErrNotFound when no snapshot is cached.
func (sc *SnapshotCache) GetTickers(ctx context.Context, exchange string) (domain.TickerSnapshot, time.Time, error) {
	fields, err := sc.rdb.HGetAll(ctx, snapshotKey(exchange)).Result()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: get snapshot for %s: %w", exchange, err)
	}
	if len(fields) == 0 {
		return nil, time.Time{}, fmt.Errorf("redis: snapshot for %s: %w", exchange, domain.ErrNotFound)
	}

	var snap domain.TickerSnapshot
	if err := json.Unmarshal([]byte(fields["data"]), &snap); err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: unmarshal snapshot for %s: %w", exchange, err)
	}

	millis, err := strconv.ParseInt(fields["ts"], 10, 64)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: parse snapshot timestamp for %s: %w", exchange, err)
	}

	return snap, time.UnixMilli(millis).UTC(), nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
