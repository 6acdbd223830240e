package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSender struct {
	name   string
	titles []string
	alerts []domain.Alert
	err    error
}

func (r *recordingSender) Name() string { return r.name }

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	return nil
}

type richSender struct{ recordingSender }

func (r *richSender) SendAlert(_ context.Context, alert domain.Alert) error {
	if r.err != nil {
		return r.err
	}
	r.alerts = append(r.alerts, alert)
	return nil
}

func sampleAlert() domain.Alert {
	return domain.Alert{
		Symbol:            "BTCUSDT",
		Signal:            domain.SignalPrimaryLong,
		Decision:          domain.DecisionNewSpread,
		PrimaryExchange:   "mexc",
		SecondaryExchange: "binance",
		PrimaryPrice:      50000,
		SecondaryPrice:    57500,
		SpreadPercent:     15.0,
		EffectiveVolume:   8_000_000,
		QualityScore:      85,
		FundingNote:       "OK",
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$50,000", FormatPrice(50000))
	assert.Equal(t, "$1,234,568", FormatPrice(1234567.89))
	assert.Equal(t, "$1,000", FormatPrice(1000))
	assert.Equal(t, "$999.50", FormatPrice(999.5))
	assert.Equal(t, "$1.00", FormatPrice(1))
	assert.Equal(t, "$0.0432", FormatPrice(0.0432))
}

func TestFormatAlertText(t *testing.T) {
	title, message := FormatAlertText(sampleAlert())
	assert.Contains(t, title, "BTCUSDT")
	assert.Contains(t, title, "15.00%")
	assert.Contains(t, title, "🟢")
	assert.Contains(t, message, "PRIMARY_LONG")
	assert.Contains(t, message, "$50,000")
	assert.Contains(t, message, "$57,500")
	assert.NotContains(t, message, "funding") // OK is not echoed
}

func TestNotifyEventFilter(t *testing.T) {
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, []string{"error"}, testLogger())

	require.NoError(t, n.Notify(context.Background(), "startup", "hi", "body"))
	assert.Empty(t, s.titles)

	require.NoError(t, n.Notify(context.Background(), "error", "bad", "body"))
	assert.Equal(t, []string{"bad"}, s.titles)

	// NotifyAll bypasses the filter.
	require.NoError(t, n.NotifyAll(context.Background(), "forced", "body"))
	assert.Equal(t, []string{"bad", "forced"}, s.titles)
}

func TestNotifyAlertPrefersRichSenders(t *testing.T) {
	plain := &recordingSender{name: "plain"}
	rich := &richSender{recordingSender{name: "rich"}}
	n := NewNotifier([]Sender{plain, rich}, nil, testLogger())

	delivered := n.NotifyAlert(context.Background(), sampleAlert())
	assert.True(t, delivered)
	assert.Len(t, plain.titles, 1)
	require.Len(t, rich.alerts, 1)
	assert.Equal(t, "BTCUSDT", rich.alerts[0].Symbol)
}

func TestNotifyAlertFilteredAndFailed(t *testing.T) {
	// Filter without spread_alert drops everything.
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, []string{"error"}, testLogger())
	assert.False(t, n.NotifyAlert(context.Background(), sampleAlert()))

	// All senders failing means not delivered.
	bad := &recordingSender{name: "bad", err: errors.New("down")}
	n = NewNotifier([]Sender{bad}, nil, testLogger())
	assert.False(t, n.NotifyAlert(context.Background(), sampleAlert()))
}

func TestDispatchContinuesPastFailure(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("down")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.NotifyAll(context.Background(), "title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, []string{"title"}, good.titles)
}

func TestTelegramSendAlertPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegramSender("123:abc", "-100555", "42")
	tg.baseURL = srv.URL

	require.NoError(t, tg.SendAlert(context.Background(), sampleAlert()))

	assert.Equal(t, "-100555", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, float64(42), got["message_thread_id"])

	text, _ := got["text"].(string)
	assert.Contains(t, text, "<b>#BTCUSDT</b>")
	assert.Contains(t, text, "15.00%")

	markup, _ := json.Marshal(got["reply_markup"])
	assert.Contains(t, string(markup), "https://www.mexc.com/exchange/BTC_USDT")
	assert.Contains(t, string(markup), "Open App / Trade")
}

func TestDiscordSendEmbedPayload(t *testing.T) {
	var got discordMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	require.NoError(t, d.Send(context.Background(), "Spread monitor started", "Mode: full"))

	assert.Equal(t, "spreadbot", got.Username)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Spread monitor started", got.Embeds[0].Title)
	assert.Equal(t, "Mode: full", got.Embeds[0].Description)
	assert.Equal(t, discordEmbedColor, got.Embeds[0].Color)
	assert.NotEmpty(t, got.Embeds[0].Timestamp)
}

func TestDiscordSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid webhook"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	err := d.Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTelegramSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegramSender("123:abc", "-100555", "")
	tg.baseURL = srv.URL

	err := tg.Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
