package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// KuCoinBaseURL is the production KuCoin futures API root.
const KuCoinBaseURL = "https://api-futures.kucoin.com"

// KuCoin is the market-data client for KuCoin USDT-margined futures.
// Price-only tickers; the level-1 endpoint provides top of book.
type KuCoin struct {
	restClient
}

// NewKuCoin creates a KuCoin client against the given API root.
func NewKuCoin(baseURL string, timeout time.Duration) *KuCoin {
	return &KuCoin{restClient: newRESTClient(baseURL, timeout)}
}

// Name returns the exchange identifier.
func (k *KuCoin) Name() string { return "kucoin" }

type kucoinContractsResponse struct {
	Code string `json:"code"`
	Data []struct {
		Symbol    string  `json:"symbol"`
		MarkPrice float64 `json:"markPrice"`
	} `json:"data"`
}

// Tickers fetches all active USDT-margined contracts. KuCoin symbols carry a
// trailing "M" and use XBT for Bitcoin ("XBTUSDTM"), both normalized away.
func (k *KuCoin) Tickers(ctx context.Context) (domain.TickerSnapshot, error) {
	var resp kucoinContractsResponse
	if err := k.getJSON(ctx, "/api/v1/contracts/active", &resp); err != nil {
		return nil, fmt.Errorf("exchange/kucoin: contracts: %w", err)
	}
	if resp.Code != "200000" {
		return nil, fmt.Errorf("exchange/kucoin: contracts: api error code %s", resp.Code)
	}

	snap := make(domain.TickerSnapshot, len(resp.Data))
	for _, c := range resp.Data {
		if !strings.HasSuffix(c.Symbol, "USDTM") || c.MarkPrice <= 0 {
			continue
		}
		sym := normalizeKuCoinSymbol(c.Symbol)
		snap[sym] = domain.Ticker{
			Symbol: sym,
			Price:  c.MarkPrice,
		}
	}
	return snap, nil
}

type kucoinTickerResponse struct {
	Code string `json:"code"`
	Data struct {
		BestBidPrice string `json:"bestBidPrice"`
		BestAskPrice string `json:"bestAskPrice"`
	} `json:"data"`
}

// BookTop fetches the best bid and ask for one contract.
func (k *KuCoin) BookTop(ctx context.Context, symbol string) (domain.BookTop, error) {
	contract := denormalizeKuCoinSymbol(symbol)

	var resp kucoinTickerResponse
	if err := k.getJSON(ctx, "/api/v1/ticker?symbol="+url.QueryEscape(contract), &resp); err != nil {
		return domain.BookTop{}, fmt.Errorf("exchange/kucoin: ticker %s: %w", symbol, err)
	}

	bid, okB := parseFloat(resp.Data.BestBidPrice)
	ask, okA := parseFloat(resp.Data.BestAskPrice)
	if resp.Code != "200000" || !okB || !okA || bid <= 0 || ask <= 0 {
		return domain.BookTop{}, fmt.Errorf("exchange/kucoin: ticker %s: %w", symbol, domain.ErrNoOrderBook)
	}
	return domain.BookTop{Bid: bid, Ask: ask}, nil
}

// normalizeKuCoinSymbol maps "XBTUSDTM" to "BTCUSDT".
func normalizeKuCoinSymbol(symbol string) string {
	s := strings.TrimSuffix(symbol, "M")
	if strings.HasPrefix(s, "XBT") {
		s = "BTC" + strings.TrimPrefix(s, "XBT")
	}
	return s
}

// denormalizeKuCoinSymbol maps "BTCUSDT" back to "XBTUSDTM".
func denormalizeKuCoinSymbol(symbol string) string {
	s := symbol
	if strings.HasPrefix(s, "BTC") {
		s = "XBT" + strings.TrimPrefix(s, "BTC")
	}
	return s + "M"
}

var (
	_ domain.TickerProvider = (*KuCoin)(nil)
	_ domain.BookProvider   = (*KuCoin)(nil)
)
