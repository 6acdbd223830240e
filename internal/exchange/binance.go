package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// BinanceBaseURL is the production Binance USDT-M futures API root.
const BinanceBaseURL = "https://fapi.binance.com"

// Binance is the market-data client for Binance USDT-M perpetual futures.
// Like the primary it reports volume, top of book, and funding rates.
type Binance struct {
	restClient
}

// NewBinance creates a Binance client against the given API root.
func NewBinance(baseURL string, timeout time.Duration) *Binance {
	return &Binance{restClient: newRESTClient(baseURL, timeout)}
}

// Name returns the exchange identifier.
func (b *Binance) Name() string { return "binance" }

type binanceTicker struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	QuoteVolume string `json:"quoteVolume"`
}

// Tickers fetches all USDT-quoted 24h tickers. Binance symbols are already in
// the normalized form.
func (b *Binance) Tickers(ctx context.Context) (domain.TickerSnapshot, error) {
	var tickers []binanceTicker
	if err := b.getJSON(ctx, "/fapi/v1/ticker/24hr", &tickers); err != nil {
		return nil, fmt.Errorf("exchange/binance: tickers: %w", err)
	}

	snap := make(domain.TickerSnapshot, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, "USDT") {
			continue
		}
		price, ok := parseFloat(t.LastPrice)
		if !ok || price <= 0 {
			continue
		}
		vol, ok := parseFloat(t.QuoteVolume)
		if !ok {
			continue
		}
		snap[t.Symbol] = domain.Ticker{
			Symbol:      t.Symbol,
			Price:       price,
			VolumeUSDT:  vol,
			VolumeKnown: true,
		}
	}
	return snap, nil
}

type binanceBookTicker struct {
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

// BookTop fetches the best bid and ask for one contract.
func (b *Binance) BookTop(ctx context.Context, symbol string) (domain.BookTop, error) {
	var bt binanceBookTicker
	if err := b.getJSON(ctx, "/fapi/v1/ticker/bookTicker?symbol="+url.QueryEscape(symbol), &bt); err != nil {
		return domain.BookTop{}, fmt.Errorf("exchange/binance: book ticker %s: %w", symbol, err)
	}

	bid, okB := parseFloat(bt.BidPrice)
	ask, okA := parseFloat(bt.AskPrice)
	if !okB || !okA || bid <= 0 || ask <= 0 {
		return domain.BookTop{}, fmt.Errorf("exchange/binance: book ticker %s: %w", symbol, domain.ErrNoOrderBook)
	}
	return domain.BookTop{Bid: bid, Ask: ask}, nil
}

type binancePremiumIndex struct {
	Symbol          string `json:"symbol"`
	LastFundingRate string `json:"lastFundingRate"`
}

// FundingRates fetches the current funding rate for every USDT-quoted
// perpetual, converted to percent.
func (b *Binance) FundingRates(ctx context.Context) (map[string]float64, error) {
	var entries []binancePremiumIndex
	if err := b.getJSON(ctx, "/fapi/v1/premiumIndex", &entries); err != nil {
		return nil, fmt.Errorf("exchange/binance: funding rates: %w", err)
	}

	rates := make(map[string]float64, len(entries))
	for _, e := range entries {
		if !strings.HasSuffix(e.Symbol, "USDT") {
			continue
		}
		rate, ok := parseFloat(e.LastFundingRate)
		if !ok {
			continue
		}
		rates[e.Symbol] = rate * 100
	}
	return rates, nil
}

var (
	_ domain.TickerProvider  = (*Binance)(nil)
	_ domain.BookProvider    = (*Binance)(nil)
	_ domain.FundingProvider = (*Binance)(nil)
)
