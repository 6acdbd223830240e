package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

func serve(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMEXCTickers(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v1/contract/ticker": `{"success":true,"data":[
			{"symbol":"BTC_USDT","lastPrice":50000,"amount24":12000000},
			{"symbol":"ETH_USD","lastPrice":3000,"amount24":1},
			{"symbol":"BAD_USDT","lastPrice":0,"amount24":5}
		]}`,
	})

	m := NewMEXC(srv.URL, time.Second)
	snap, err := m.Tickers(context.Background())
	require.NoError(t, err)

	require.Len(t, snap, 1)
	tk := snap["BTCUSDT"]
	assert.Equal(t, 50000.0, tk.Price)
	assert.Equal(t, 12_000_000.0, tk.VolumeUSDT)
	assert.True(t, tk.VolumeKnown)
}

func TestMEXCBookTopAndFunding(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v1/contract/depth/BTC_USDT": `{"success":true,"data":{"bids":[[49990,12]],"asks":[[50010,7]]}}`,
		"/api/v1/contract/funding_rate":   `{"success":true,"data":[{"symbol":"BTC_USDT","fundingRate":0.0001}]}`,
	})

	m := NewMEXC(srv.URL, time.Second)

	book, err := m.BookTop(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 49990.0, book.Bid)
	assert.Equal(t, 50010.0, book.Ask)

	rates, err := m.FundingRates(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.01, rates["BTCUSDT"], 1e-9)
}

func TestMEXCBookTopEmpty(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v1/contract/depth/XYZ_USDT": `{"success":true,"data":{"bids":[],"asks":[]}}`,
	})

	m := NewMEXC(srv.URL, time.Second)
	_, err := m.BookTop(context.Background(), "XYZUSDT")
	require.ErrorIs(t, err, domain.ErrNoOrderBook)
}

func TestBinanceTickersAndBook(t *testing.T) {
	srv := serve(t, map[string]string{
		"/fapi/v1/ticker/24hr": `[
			{"symbol":"BTCUSDT","lastPrice":"50500","quoteVolume":"9000000"},
			{"symbol":"ETHBUSD","lastPrice":"3000","quoteVolume":"1"},
			{"symbol":"DOGEUSDT","lastPrice":"not-a-number","quoteVolume":"1"}
		]`,
		"/fapi/v1/ticker/bookTicker": `{"bidPrice":"50490","askPrice":"50510"}`,
		"/fapi/v1/premiumIndex":      `[{"symbol":"BTCUSDT","lastFundingRate":"-0.0002"}]`,
	})

	b := NewBinance(srv.URL, time.Second)

	snap, err := b.Tickers(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, 50500.0, snap["BTCUSDT"].Price)
	assert.True(t, snap["BTCUSDT"].VolumeKnown)

	book, err := b.BookTop(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50490.0, book.Bid)
	assert.Equal(t, 50510.0, book.Ask)

	rates, err := b.FundingRates(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -0.02, rates["BTCUSDT"], 1e-9)
}

func TestBybitTickersPriceOnly(t *testing.T) {
	srv := serve(t, map[string]string{
		"/v5/market/tickers": `{"retCode":0,"result":{"list":[
			{"symbol":"BTCUSDT","lastPrice":"50400"},
			{"symbol":"BTCPERP","lastPrice":"50400"}
		]}}`,
	})

	b := NewBybit(srv.URL, time.Second)
	snap, err := b.Tickers(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.False(t, snap["BTCUSDT"].VolumeKnown)
}

func TestGateTickersAndBookForms(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v4/futures/usdt/tickers":    `[{"contract":"BTC_USDT","last":"50300"}]`,
		"/api/v4/futures/usdt/order_book": `{"bids":[{"p":"50290","s":10}],"asks":[["50310","4"]]}`,
	})

	g := NewGate(srv.URL, time.Second)

	snap, err := g.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50300.0, snap["BTCUSDT"].Price)

	// Object-form bid, array-form ask: both must decode.
	book, err := g.BookTop(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50290.0, book.Bid)
	assert.Equal(t, 50310.0, book.Ask)
}

func TestKuCoinSymbolNormalization(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v1/contracts/active": `{"code":"200000","data":[
			{"symbol":"XBTUSDTM","markPrice":50200},
			{"symbol":"ETHUSDTM","markPrice":3000},
			{"symbol":"ETHUSDM","markPrice":3000}
		]}`,
		"/api/v1/ticker": `{"code":"200000","data":{"bestBidPrice":"50190","bestAskPrice":"50210"}}`,
	})

	k := NewKuCoin(srv.URL, time.Second)

	snap, err := k.Tickers(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Contains(t, snap, "BTCUSDT")
	assert.Contains(t, snap, "ETHUSDT")

	book, err := k.BookTop(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50190.0, book.Bid)
}

func TestOKXTickersAndBooks(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v5/market/tickers": `{"code":"0","data":[
			{"instId":"BTC-USDT-SWAP","last":"50100"},
			{"instId":"BTC-USD-SWAP","last":"50100"}
		]}`,
		"/api/v5/market/books": `{"code":"0","data":[{"bids":[["50090","3"]],"asks":[["50110","2"]]}]}`,
	})

	o := NewOKX(srv.URL, time.Second)

	snap, err := o.Tickers(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, 50100.0, snap["BTCUSDT"].Price)

	book, err := o.BookTop(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50090.0, book.Bid)
	assert.Equal(t, 50110.0, book.Ask)
}

func TestBingXTickers(t *testing.T) {
	srv := serve(t, map[string]string{
		"/openApi/swap/v2/quote/ticker": `{"code":0,"data":[
			{"symbol":"BTC-USDT","lastPrice":"50050"},
			{"symbol":"BTC-USDC","lastPrice":"50050"}
		]}`,
	})

	b := NewBingX(srv.URL, time.Second)
	snap, err := b.Tickers(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, 50050.0, snap["BTCUSDT"].Price)
}

func TestHTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewMEXC(srv.URL, time.Second)
	_, err := m.Tickers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRateLimitedSurfacesSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	m := NewMEXC(srv.URL, time.Second)
	_, err := m.Tickers(context.Background())
	require.ErrorIs(t, err, domain.ErrRateLimited)
}
