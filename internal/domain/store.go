package domain

import (
	"context"
	"time"
)

// SignalStore persists dispatched alerts for audit and the API. It is never
// read by the pipeline itself.
type SignalStore interface {
	Insert(ctx context.Context, alert Alert) error
	ListRecent(ctx context.Context, limit int) ([]Alert, error)
	ListBefore(ctx context.Context, before time.Time) ([]Alert, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
