package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// BybitBaseURL is the production Bybit v5 API root.
const BybitBaseURL = "https://api.bybit.com"

// Bybit is the market-data client for Bybit linear perpetuals. It is
// price-only: no volume figure is reported and no depth endpoint is wired,
// so candidates against Bybit skip volume scoring and fail order-book
// validation.
type Bybit struct {
	restClient
}

// NewBybit creates a Bybit client against the given API root.
func NewBybit(baseURL string, timeout time.Duration) *Bybit {
	return &Bybit{restClient: newRESTClient(baseURL, timeout)}
}

// Name returns the exchange identifier.
func (b *Bybit) Name() string { return "bybit" }

type bybitTickerResponse struct {
	RetCode int `json:"retCode"`
	Result  struct {
		List []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	} `json:"result"`
}

// Tickers fetches all linear USDT tickers.
func (b *Bybit) Tickers(ctx context.Context) (domain.TickerSnapshot, error) {
	var resp bybitTickerResponse
	if err := b.getJSON(ctx, "/v5/market/tickers?category=linear", &resp); err != nil {
		return nil, fmt.Errorf("exchange/bybit: tickers: %w", err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("exchange/bybit: tickers: api error code %d", resp.RetCode)
	}

	snap := make(domain.TickerSnapshot, len(resp.Result.List))
	for _, t := range resp.Result.List {
		if !strings.HasSuffix(t.Symbol, "USDT") {
			continue
		}
		price, ok := parseFloat(t.LastPrice)
		if !ok || price <= 0 {
			continue
		}
		snap[t.Symbol] = domain.Ticker{
			Symbol: t.Symbol,
			Price:  price,
		}
	}
	return snap, nil
}

var _ domain.TickerProvider = (*Bybit)(nil)
