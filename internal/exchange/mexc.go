package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// MEXCBaseURL is the production MEXC contract API root.
const MEXCBaseURL = "https://contract.mexc.com"

// MEXC is the market-data client for MEXC USDT-perpetual futures. It is the
// primary exchange: it reports 24h volume, top of book, and funding rates.
type MEXC struct {
	restClient
}

// NewMEXC creates a MEXC client against the given API root.
func NewMEXC(baseURL string, timeout time.Duration) *MEXC {
	return &MEXC{restClient: newRESTClient(baseURL, timeout)}
}

// Name returns the exchange identifier.
func (m *MEXC) Name() string { return "mexc" }

type mexcTickerResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Symbol    string  `json:"symbol"`
		LastPrice float64 `json:"lastPrice"`
		Amount24  float64 `json:"amount24"`
	} `json:"data"`
}

// Tickers fetches all USDT-perpetual tickers. MEXC symbols use an underscore
// ("BTC_USDT") which is stripped during normalization.
func (m *MEXC) Tickers(ctx context.Context) (domain.TickerSnapshot, error) {
	var resp mexcTickerResponse
	if err := m.getJSON(ctx, "/api/v1/contract/ticker", &resp); err != nil {
		return nil, fmt.Errorf("exchange/mexc: tickers: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("exchange/mexc: tickers: api reported failure")
	}

	snap := make(domain.TickerSnapshot, len(resp.Data))
	for _, t := range resp.Data {
		if !strings.HasSuffix(t.Symbol, "_USDT") || t.LastPrice <= 0 {
			continue
		}
		sym := strings.ReplaceAll(t.Symbol, "_", "")
		snap[sym] = domain.Ticker{
			Symbol:      sym,
			Price:       t.LastPrice,
			VolumeUSDT:  t.Amount24,
			VolumeKnown: true,
		}
	}
	return snap, nil
}

type mexcDepthResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Bids [][]float64 `json:"bids"`
		Asks [][]float64 `json:"asks"`
	} `json:"data"`
}

// BookTop fetches the best bid and ask for one contract. symbol is the
// normalized form ("BTCUSDT").
func (m *MEXC) BookTop(ctx context.Context, symbol string) (domain.BookTop, error) {
	contract := denormalizeUnderscore(symbol)

	var resp mexcDepthResponse
	if err := m.getJSON(ctx, "/api/v1/contract/depth/"+contract+"?limit=5", &resp); err != nil {
		return domain.BookTop{}, fmt.Errorf("exchange/mexc: depth %s: %w", symbol, err)
	}
	if !resp.Success || len(resp.Data.Bids) == 0 || len(resp.Data.Asks) == 0 ||
		len(resp.Data.Bids[0]) == 0 || len(resp.Data.Asks[0]) == 0 {
		return domain.BookTop{}, fmt.Errorf("exchange/mexc: depth %s: %w", symbol, domain.ErrNoOrderBook)
	}

	return domain.BookTop{
		Bid: resp.Data.Bids[0][0],
		Ask: resp.Data.Asks[0][0],
	}, nil
}

type mexcFundingResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Symbol      string  `json:"symbol"`
		FundingRate float64 `json:"fundingRate"`
	} `json:"data"`
}

// FundingRates fetches the current funding rate for every USDT-perpetual,
// converted to percent.
func (m *MEXC) FundingRates(ctx context.Context) (map[string]float64, error) {
	var resp mexcFundingResponse
	if err := m.getJSON(ctx, "/api/v1/contract/funding_rate", &resp); err != nil {
		return nil, fmt.Errorf("exchange/mexc: funding rates: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("exchange/mexc: funding rates: api reported failure")
	}

	rates := make(map[string]float64, len(resp.Data))
	for _, r := range resp.Data {
		if !strings.HasSuffix(r.Symbol, "_USDT") {
			continue
		}
		sym := strings.ReplaceAll(r.Symbol, "_", "")
		rates[sym] = r.FundingRate * 100
	}
	return rates, nil
}

// denormalizeUnderscore converts "BTCUSDT" back to the venue's "BTC_USDT"
// contract name.
func denormalizeUnderscore(symbol string) string {
	base := strings.TrimSuffix(symbol, "USDT")
	return base + "_USDT"
}

var (
	_ domain.TickerProvider  = (*MEXC)(nil)
	_ domain.BookProvider    = (*MEXC)(nil)
	_ domain.FundingProvider = (*MEXC)(nil)
)
