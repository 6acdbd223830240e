package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// OKXBaseURL is the production OKX API root.
const OKXBaseURL = "https://www.okx.com"

// OKX is the market-data client for OKX USDT swaps. Price-only tickers; the
// books endpoint provides top of book.
type OKX struct {
	restClient
}

// NewOKX creates an OKX client against the given API root.
func NewOKX(baseURL string, timeout time.Duration) *OKX {
	return &OKX{restClient: newRESTClient(baseURL, timeout)}
}

// Name returns the exchange identifier.
func (o *OKX) Name() string { return "okx" }

type okxTickersResponse struct {
	Code string `json:"code"`
	Data []struct {
		InstID string `json:"instId"`
		Last   string `json:"last"`
	} `json:"data"`
}

// Tickers fetches all USDT-swap tickers. OKX instrument IDs look like
// "BTC-USDT-SWAP" and are collapsed to "BTCUSDT".
func (o *OKX) Tickers(ctx context.Context) (domain.TickerSnapshot, error) {
	var resp okxTickersResponse
	if err := o.getJSON(ctx, "/api/v5/market/tickers?instType=SWAP", &resp); err != nil {
		return nil, fmt.Errorf("exchange/okx: tickers: %w", err)
	}
	if resp.Code != "0" {
		return nil, fmt.Errorf("exchange/okx: tickers: api error code %s", resp.Code)
	}

	snap := make(domain.TickerSnapshot, len(resp.Data))
	for _, t := range resp.Data {
		if !strings.HasSuffix(t.InstID, "-USDT-SWAP") {
			continue
		}
		price, ok := parseFloat(t.Last)
		if !ok || price <= 0 {
			continue
		}
		sym := strings.ReplaceAll(strings.TrimSuffix(t.InstID, "-SWAP"), "-", "")
		snap[sym] = domain.Ticker{
			Symbol: sym,
			Price:  price,
		}
	}
	return snap, nil
}

type okxBooksResponse struct {
	Code string `json:"code"`
	Data []struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
	} `json:"data"`
}

// BookTop fetches the best bid and ask for one contract.
func (o *OKX) BookTop(ctx context.Context, symbol string) (domain.BookTop, error) {
	instID := denormalizeOKXSymbol(symbol)

	var resp okxBooksResponse
	if err := o.getJSON(ctx, "/api/v5/market/books?instId="+url.QueryEscape(instID)+"&sz=1", &resp); err != nil {
		return domain.BookTop{}, fmt.Errorf("exchange/okx: books %s: %w", symbol, err)
	}
	if resp.Code != "0" || len(resp.Data) == 0 ||
		len(resp.Data[0].Bids) == 0 || len(resp.Data[0].Asks) == 0 ||
		len(resp.Data[0].Bids[0]) == 0 || len(resp.Data[0].Asks[0]) == 0 {
		return domain.BookTop{}, fmt.Errorf("exchange/okx: books %s: %w", symbol, domain.ErrNoOrderBook)
	}

	bid, okB := parseFloat(resp.Data[0].Bids[0][0])
	ask, okA := parseFloat(resp.Data[0].Asks[0][0])
	if !okB || !okA || bid <= 0 || ask <= 0 {
		return domain.BookTop{}, fmt.Errorf("exchange/okx: books %s: %w", symbol, domain.ErrNoOrderBook)
	}
	return domain.BookTop{Bid: bid, Ask: ask}, nil
}

// denormalizeOKXSymbol maps "BTCUSDT" back to "BTC-USDT-SWAP".
func denormalizeOKXSymbol(symbol string) string {
	base := strings.TrimSuffix(symbol, "USDT")
	return base + "-USDT-SWAP"
}

var (
	_ domain.TickerProvider = (*OKX)(nil)
	_ domain.BookProvider   = (*OKX)(nil)
)
