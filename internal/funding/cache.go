// Package funding caches per-exchange funding rates and gates opportunities
// whose funding exposure makes the trade unprofitable or risky.
package funding

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// Cache holds the latest funding rates (percent) per exchange. Each refresh
// replaces an exchange's map wholesale; when a provider fails the previous
// rates are kept so the gate can work from stale-but-recent data.
type Cache struct {
	providers []domain.FundingProvider
	logger    *slog.Logger

	mu    sync.RWMutex
	rates map[string]map[string]float64
}

// NewCache creates a Cache over the given funding providers.
func NewCache(providers []domain.FundingProvider, logger *slog.Logger) *Cache {
	return &Cache{
		providers: providers,
		logger:    logger.With(slog.String("component", "funding_cache")),
		rates:     make(map[string]map[string]float64),
	}
}

// Refresh fetches current rates from every provider concurrently. Provider
// failures are logged and leave that exchange's previous rates in place;
// Refresh itself never fails.
func (c *Cache) Refresh(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	for _, p := range c.providers {
		g.Go(func() error {
			rates, err := p.FundingRates(gctx)
			if err != nil {
				c.logger.Warn("funding refresh failed, keeping stale rates",
					slog.String("exchange", p.Name()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			c.mu.Lock()
			c.rates[p.Name()] = rates
			c.mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
}

// Rate returns the cached funding rate in percent for a symbol on an
// exchange. ok is false when the exchange has no funding data or the symbol
// is absent.
func (c *Cache) Rate(exchange, symbol string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.rates[exchange]
	if !ok {
		return 0, false
	}
	rate, ok := m[symbol]
	return rate, ok
}
