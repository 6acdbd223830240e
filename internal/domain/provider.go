package domain

import "context"

// TickerProvider fetches the latest USDT-perpetual tickers for one exchange.
// Implementations return an error on transport or decode failure; callers
// degrade that exchange to an empty snapshot for the cycle.
type TickerProvider interface {
	Name() string
	Tickers(ctx context.Context) (TickerSnapshot, error)
}

// BookProvider fetches the top of book for a single contract. Exchanges
// without a depth endpoint return ErrNoOrderBook.
type BookProvider interface {
	Name() string
	BookTop(ctx context.Context, symbol string) (BookTop, error)
}

// FundingProvider fetches the current funding rates (percent per interval)
// keyed by normalized symbol.
type FundingProvider interface {
	Name() string
	FundingRates(ctx context.Context) (map[string]float64, error)
}
