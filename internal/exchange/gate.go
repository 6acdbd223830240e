package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// GateBaseURL is the production Gate.io API root.
const GateBaseURL = "https://api.gateio.ws"

// Gate is the market-data client for Gate.io USDT futures. Price-only
// tickers; the order-book endpoint is available.
type Gate struct {
	restClient
}

// NewGate creates a Gate client against the given API root.
func NewGate(baseURL string, timeout time.Duration) *Gate {
	return &Gate{restClient: newRESTClient(baseURL, timeout)}
}

// Name returns the exchange identifier.
func (g *Gate) Name() string { return "gate" }

type gateTicker struct {
	Contract string `json:"contract"`
	Last     string `json:"last"`
}

// Tickers fetches all USDT-futures tickers. Gate contracts use an underscore
// ("BTC_USDT") which is stripped during normalization.
func (g *Gate) Tickers(ctx context.Context) (domain.TickerSnapshot, error) {
	var tickers []gateTicker
	if err := g.getJSON(ctx, "/api/v4/futures/usdt/tickers", &tickers); err != nil {
		return nil, fmt.Errorf("exchange/gate: tickers: %w", err)
	}

	snap := make(domain.TickerSnapshot, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Contract, "_USDT") {
			continue
		}
		price, ok := parseFloat(t.Last)
		if !ok || price <= 0 {
			continue
		}
		sym := strings.ReplaceAll(t.Contract, "_", "")
		snap[sym] = domain.Ticker{
			Symbol: sym,
			Price:  price,
		}
	}
	return snap, nil
}

// gateBookLevel decodes a single order-book level. Gate has served levels
// both as objects {"p":"123","s":1} and as ["123","1"] arrays depending on
// API version, so both forms are accepted.
type gateBookLevel struct {
	Price float64
}

func (l *gateBookLevel) UnmarshalJSON(data []byte) error {
	var obj struct {
		P string `json:"p"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.P != "" {
		p, ok := parseFloat(obj.P)
		if !ok {
			return fmt.Errorf("bad level price %q", obj.P)
		}
		l.Price = p
		return nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil || len(arr) == 0 {
		return fmt.Errorf("unrecognized level format")
	}
	p, ok := parseFloat(arr[0])
	if !ok {
		return fmt.Errorf("bad level price %q", arr[0])
	}
	l.Price = p
	return nil
}

type gateBookResponse struct {
	Bids []gateBookLevel `json:"bids"`
	Asks []gateBookLevel `json:"asks"`
}

// BookTop fetches the best bid and ask for one contract.
func (g *Gate) BookTop(ctx context.Context, symbol string) (domain.BookTop, error) {
	contract := denormalizeUnderscore(symbol)

	var resp gateBookResponse
	if err := g.getJSON(ctx, "/api/v4/futures/usdt/order_book?contract="+url.QueryEscape(contract)+"&limit=1", &resp); err != nil {
		return domain.BookTop{}, fmt.Errorf("exchange/gate: order book %s: %w", symbol, err)
	}
	if len(resp.Bids) == 0 || len(resp.Asks) == 0 {
		return domain.BookTop{}, fmt.Errorf("exchange/gate: order book %s: %w", symbol, domain.ErrNoOrderBook)
	}

	return domain.BookTop{
		Bid: resp.Bids[0].Price,
		Ask: resp.Asks[0].Price,
	}, nil
}

var (
	_ domain.TickerProvider = (*Gate)(nil)
	_ domain.BookProvider   = (*Gate)(nil)
)
