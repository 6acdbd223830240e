package validator

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// fakeBooks serves canned top-of-book quotes and fails for absent symbols.
type fakeBooks struct {
	name  string
	books map[string]domain.BookTop
}

func (f *fakeBooks) Name() string { return f.name }

func (f *fakeBooks) BookTop(_ context.Context, symbol string) (domain.BookTop, error) {
	b, ok := f.books[symbol]
	if !ok {
		return domain.BookTop{}, domain.ErrNoOrderBook
	}
	return b, nil
}

func newValidator(minSpread float64, primary, secondary map[string]domain.BookTop) *Validator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{MinSpreadPercent: minSpread}, map[string]domain.BookProvider{
		"mexc":    &fakeBooks{name: "mexc", books: primary},
		"binance": &fakeBooks{name: "binance", books: secondary},
	}, logger)
}

func longOpp(tickerSpread float64) domain.Opportunity {
	return domain.Opportunity{
		Symbol:            "BTCUSDT",
		Signal:            domain.SignalPrimaryLong,
		PrimaryExchange:   "mexc",
		SecondaryExchange: "binance",
		PrimaryPrice:      100,
		SecondaryPrice:    100 + tickerSpread,
		SpreadPercent:     tickerSpread,
	}
}

func TestValidateAcceptRewritesPrices(t *testing.T) {
	v := newValidator(10,
		map[string]domain.BookTop{"BTCUSDT": {Bid: 99, Ask: 100}},
		map[string]domain.BookTop{"BTCUSDT": {Bid: 115, Ask: 116}},
	)

	opp := longOpp(15)
	ok, reason := v.Validate(context.Background(), &opp)
	require.True(t, ok, reason)

	// Entry at primary ask, exit at secondary bid.
	assert.Equal(t, 100.0, opp.PrimaryPrice)
	assert.Equal(t, 115.0, opp.SecondaryPrice)
	assert.InDelta(t, 15.0, opp.SpreadPercent, 1e-9)
}

func TestValidateShortLegSelection(t *testing.T) {
	v := newValidator(10,
		map[string]domain.BookTop{"BTCUSDT": {Bid: 115, Ask: 116}},
		map[string]domain.BookTop{"BTCUSDT": {Bid: 99, Ask: 100}},
	)

	opp := longOpp(0)
	opp.Signal = domain.SignalPrimaryShort
	ok, reason := v.Validate(context.Background(), &opp)
	require.True(t, ok, reason)

	// Entry at secondary ask, exit at primary bid.
	assert.Equal(t, 115.0, opp.PrimaryPrice)
	assert.Equal(t, 100.0, opp.SecondaryPrice)
	assert.InDelta(t, 15.0, opp.SpreadPercent, 1e-9)
}

func TestValidateMissingBook(t *testing.T) {
	v := newValidator(10,
		map[string]domain.BookTop{"BTCUSDT": {Bid: 99, Ask: 100}},
		map[string]domain.BookTop{}, // secondary has no book
	)

	opp := longOpp(15)
	ok, reason := v.Validate(context.Background(), &opp)
	assert.False(t, ok)
	assert.Contains(t, reason, "order book unavailable")
}

func TestValidateNoBookSource(t *testing.T) {
	v := newValidator(10,
		map[string]domain.BookTop{"BTCUSDT": {Bid: 99, Ask: 100}},
		map[string]domain.BookTop{"BTCUSDT": {Bid: 115, Ask: 116}},
	)

	opp := longOpp(15)
	opp.SecondaryExchange = "bybit" // no depth endpoint wired
	ok, reason := v.Validate(context.Background(), &opp)
	assert.False(t, ok)
	assert.Contains(t, reason, "no order book source for bybit")
}

func TestValidateWideInternalSpread(t *testing.T) {
	// Primary book is 100/107: 7% internal spread, above the 5% cap.
	v := newValidator(10,
		map[string]domain.BookTop{"BTCUSDT": {Bid: 100, Ask: 107}},
		map[string]domain.BookTop{"BTCUSDT": {Bid: 115, Ask: 116}},
	)

	opp := longOpp(15)
	ok, reason := v.Validate(context.Background(), &opp)
	assert.False(t, ok)
	assert.Contains(t, reason, "internal spread")
}

func TestValidateInvertedAtTopOfBook(t *testing.T) {
	// Ticker showed 15% but the books have already converged.
	v := newValidator(10,
		map[string]domain.BookTop{"BTCUSDT": {Bid: 99, Ask: 100}},
		map[string]domain.BookTop{"BTCUSDT": {Bid: 98, Ask: 99.5}},
	)

	opp := longOpp(15)
	ok, reason := v.Validate(context.Background(), &opp)
	assert.False(t, ok)
	assert.Contains(t, reason, "inverted")
	// Rejection leaves the candidate untouched.
	assert.Equal(t, 15.0, opp.SpreadPercent)
	assert.Equal(t, 100.0, opp.PrimaryPrice)
}

func TestValidateExecutableSpreadBelowThreshold(t *testing.T) {
	// Real spread is (105-100)/100 = 5%, ticker claimed 15%.
	v := newValidator(10,
		map[string]domain.BookTop{"BTCUSDT": {Bid: 99, Ask: 100}},
		map[string]domain.BookTop{"BTCUSDT": {Bid: 105, Ask: 106}},
	)

	opp := longOpp(15)
	ok, reason := v.Validate(context.Background(), &opp)
	assert.False(t, ok)
	assert.Contains(t, reason, "below threshold")
}
