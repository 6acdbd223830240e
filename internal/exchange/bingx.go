package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// BingXBaseURL is the production BingX API root.
const BingXBaseURL = "https://open-api.bingx.com"

// BingX is the market-data client for BingX perpetual swaps. Price-only: no
// volume figure is reported and no depth endpoint is wired.
type BingX struct {
	restClient
}

// NewBingX creates a BingX client against the given API root.
func NewBingX(baseURL string, timeout time.Duration) *BingX {
	return &BingX{restClient: newRESTClient(baseURL, timeout)}
}

// Name returns the exchange identifier.
func (b *BingX) Name() string { return "bingx" }

type bingxTickerResponse struct {
	Code int `json:"code"`
	Data []struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
	} `json:"data"`
}

// Tickers fetches all USDT-swap tickers. BingX symbols look like "BTC-USDT"
// and have the dash stripped.
func (b *BingX) Tickers(ctx context.Context) (domain.TickerSnapshot, error) {
	var resp bingxTickerResponse
	if err := b.getJSON(ctx, "/openApi/swap/v2/quote/ticker", &resp); err != nil {
		return nil, fmt.Errorf("exchange/bingx: tickers: %w", err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("exchange/bingx: tickers: api error code %d", resp.Code)
	}

	snap := make(domain.TickerSnapshot, len(resp.Data))
	for _, t := range resp.Data {
		if !strings.HasSuffix(t.Symbol, "-USDT") {
			continue
		}
		price, ok := parseFloat(t.LastPrice)
		if !ok || price <= 0 {
			continue
		}
		sym := strings.ReplaceAll(t.Symbol, "-", "")
		snap[sym] = domain.Ticker{
			Symbol: sym,
			Price:  price,
		}
	}
	return snap, nil
}

var _ domain.TickerProvider = (*BingX)(nil)
