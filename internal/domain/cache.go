package domain

import (
	"context"
	"time"
)

// SnapshotCache stores the latest ticker snapshot per exchange so dashboards
// and the HTTP API can read market state without touching the venues.
type SnapshotCache interface {
	SetTickers(ctx context.Context, exchange string, snap TickerSnapshot, ts time.Time) error
	GetTickers(ctx context.Context, exchange string) (TickerSnapshot, time.Time, error)
}

// Well-known bus names. AlertChannel carries dispatched alerts for live
// subscribers, StatusChannel carries scanner status updates, and AlertStream
// keeps a bounded replayable alert history.
const (
	AlertChannel  = "ch:alert"
	StatusChannel = "ch:status"
	AlertStream   = "stream:alerts"
)

// StreamMessage represents a single entry from a Redis stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams, plus a typed entry point
// for dispatched alerts.
type SignalBus interface {
	PublishAlert(ctx context.Context, alert Alert) error
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
