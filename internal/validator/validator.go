// Package validator re-prices spread candidates against live top-of-book
// quotes before they are allowed to alert.
package validator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// maxInternalSpreadPercent rejects candidates when either venue's own
// bid/ask spread exceeds this, since the ticker prices are then stale or the
// book is too thin to execute against.
const maxInternalSpreadPercent = 5.0

// Config holds the validation thresholds.
type Config struct {
	MinSpreadPercent float64
}

// Validator re-checks a candidate against both venues' order books.
type Validator struct {
	cfg    Config
	books  map[string]domain.BookProvider
	logger *slog.Logger
}

// New creates a Validator. books maps exchange name to its book provider;
// exchanges absent from the map cannot be validated and their candidates are
// rejected.
func New(cfg Config, books map[string]domain.BookProvider, logger *slog.Logger) *Validator {
	return &Validator{
		cfg:    cfg,
		books:  books,
		logger: logger.With(slog.String("component", "validator")),
	}
}

// Validate fetches the top of book on both legs concurrently and re-derives
// the spread from executable prices. On acceptance the opportunity's prices
// and spread are overwritten in place with the book-derived values; on
// rejection the returned reason explains which check failed.
func (v *Validator) Validate(ctx context.Context, opp *domain.Opportunity) (bool, string) {
	primary, ok := v.books[opp.PrimaryExchange]
	if !ok {
		return false, fmt.Sprintf("no order book source for %s", opp.PrimaryExchange)
	}
	secondary, ok := v.books[opp.SecondaryExchange]
	if !ok {
		return false, fmt.Sprintf("no order book source for %s", opp.SecondaryExchange)
	}

	var primaryBook, secondaryBook domain.BookTop

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		primaryBook, err = primary.BookTop(gctx, opp.Symbol)
		if err != nil {
			return fmt.Errorf("%s book: %w", opp.PrimaryExchange, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		secondaryBook, err = secondary.BookTop(gctx, opp.Symbol)
		if err != nil {
			return fmt.Errorf("%s book: %w", opp.SecondaryExchange, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		v.logger.Debug("book fetch failed",
			slog.String("symbol", opp.Symbol),
			slog.String("error", err.Error()),
		)
		return false, "order book unavailable: " + err.Error()
	}

	if s := primaryBook.InternalSpreadPercent(); s > maxInternalSpreadPercent {
		return false, fmt.Sprintf("%s internal spread %.2f%% too wide", opp.PrimaryExchange, s)
	}
	if s := secondaryBook.InternalSpreadPercent(); s > maxInternalSpreadPercent {
		return false, fmt.Sprintf("%s internal spread %.2f%% too wide", opp.SecondaryExchange, s)
	}

	// Entry is a buy at the ask, exit a sell at the bid, legs chosen by
	// direction.
	var entry, exit float64
	switch opp.Signal {
	case domain.SignalPrimaryLong:
		entry = primaryBook.Ask
		exit = secondaryBook.Bid
	case domain.SignalPrimaryShort:
		entry = secondaryBook.Ask
		exit = primaryBook.Bid
	default:
		return false, fmt.Sprintf("unknown signal %v", opp.Signal)
	}

	if entry <= 0 {
		return false, "entry price missing"
	}
	if entry >= exit {
		return false, fmt.Sprintf("spread inverted at top of book (entry %.8g >= exit %.8g)", entry, exit)
	}

	realSpread := (exit - entry) / entry * 100
	if realSpread < v.cfg.MinSpreadPercent {
		return false, fmt.Sprintf("executable spread %.2f%% below threshold %.2f%%", realSpread, v.cfg.MinSpreadPercent)
	}

	// Replace ticker-derived figures with executable ones.
	opp.SpreadPercent = realSpread
	if opp.Signal == domain.SignalPrimaryLong {
		opp.PrimaryPrice = primaryBook.Ask
		opp.SecondaryPrice = secondaryBook.Bid
	} else {
		opp.PrimaryPrice = primaryBook.Bid
		opp.SecondaryPrice = secondaryBook.Ask
	}

	return true, ""
}
