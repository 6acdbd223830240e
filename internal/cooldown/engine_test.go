package cooldown

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

func newEngine() *Engine {
	return New(Config{
		MinChangePercent: 5.0,
		MinCooldown:      3 * time.Minute,
		MaxCooldown:      30 * time.Minute,
		HistoryMaxAge:    6 * time.Hour,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func opp(symbol, secondary string, spread float64) domain.Opportunity {
	return domain.Opportunity{
		Symbol:            symbol,
		Signal:            domain.SignalPrimaryLong,
		PrimaryExchange:   "mexc",
		SecondaryExchange: secondary,
		SpreadPercent:     spread,
	}
}

func TestDecisionLadder(t *testing.T) {
	e := newEngine()
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	// First sighting notifies.
	assert.Equal(t, domain.DecisionNewSpread, e.Evaluate(opp("BTCUSDT", "binance", 12), t0))

	// Within min cooldown even a huge move suppresses.
	assert.Equal(t, domain.DecisionMinCooldown, e.Evaluate(opp("BTCUSDT", "binance", 25), t0.Add(time.Minute)))

	// Past min cooldown, change >= threshold notifies.
	assert.Equal(t, domain.DecisionSpreadChanged, e.Evaluate(opp("BTCUSDT", "binance", 18), t0.Add(4*time.Minute)))

	// Small drift past min cooldown suppresses.
	assert.Equal(t, domain.DecisionNoSignificantChange, e.Evaluate(opp("BTCUSDT", "binance", 19), t0.Add(9*time.Minute)))

	// Max cooldown forces a heartbeat notification.
	assert.Equal(t, domain.DecisionMaxCooldown, e.Evaluate(opp("BTCUSDT", "binance", 19), t0.Add(4*time.Minute+31*time.Minute)))
}

func TestChangeAnchoredToLastNotification(t *testing.T) {
	e := newEngine()
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, domain.DecisionNewSpread, e.Evaluate(opp("ETHUSDT", "gate", 10), t0))

	// Drifts of 4% each update lastSpread but not the notification anchor.
	require.Equal(t, domain.DecisionNoSignificantChange, e.Evaluate(opp("ETHUSDT", "gate", 14), t0.Add(4*time.Minute)))
	// 14 -> 15 is a 1% step from the last observation but 5% from the
	// anchor at 10, so it notifies.
	assert.Equal(t, domain.DecisionSpreadChanged, e.Evaluate(opp("ETHUSDT", "gate", 15), t0.Add(8*time.Minute)))
}

func TestMinCooldownUpdatesLastSpreadOnly(t *testing.T) {
	e := newEngine()
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, domain.DecisionNewSpread, e.Evaluate(opp("XRPUSDT", "okx", 10), t0))
	require.Equal(t, domain.DecisionMinCooldown, e.Evaluate(opp("XRPUSDT", "okx", 30), t0.Add(time.Minute)))

	// The suppressed 30% observation did not move the anchor: at +4m a
	// return to 12% is only 2% from the anchor and suppresses.
	assert.Equal(t, domain.DecisionNoSignificantChange, e.Evaluate(opp("XRPUSDT", "okx", 12), t0.Add(4*time.Minute)))
}

func TestKeysAreIndependent(t *testing.T) {
	e := newEngine()
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, domain.DecisionNewSpread, e.Evaluate(opp("BTCUSDT", "binance", 12), t0))
	// Same symbol on a different secondary exchange is a fresh key.
	assert.Equal(t, domain.DecisionNewSpread, e.Evaluate(opp("BTCUSDT", "gate", 12), t0))
	// Different symbol, same exchange likewise.
	assert.Equal(t, domain.DecisionNewSpread, e.Evaluate(opp("ETHUSDT", "binance", 12), t0))
}

func TestSweep(t *testing.T) {
	e := newEngine()
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	e.Evaluate(opp("BTCUSDT", "binance", 12), t0)
	e.Evaluate(opp("ETHUSDT", "binance", 12), t0.Add(5*time.Hour))

	// Only the first entry is older than 6h.
	removed := e.Sweep(t0.Add(6*time.Hour + time.Minute))
	assert.Equal(t, 1, removed)

	// The swept key alerts as new again.
	assert.Equal(t, domain.DecisionNewSpread, e.Evaluate(opp("BTCUSDT", "binance", 12), t0.Add(7*time.Hour)))
}

func TestStats(t *testing.T) {
	e := newEngine()
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, Stats{}, e.Stats())

	e.Evaluate(opp("BTCUSDT", "binance", 10), t0)
	e.Evaluate(opp("ETHUSDT", "gate", 20), t0)
	e.Evaluate(opp("BTCUSDT", "binance", 16), t0.Add(4*time.Minute)) // SPREAD_CHANGED

	s := e.Stats()
	assert.Equal(t, 2, s.TrackedPairs)
	assert.Equal(t, 3, s.TotalNotifications)
	assert.InDelta(t, 18.0, s.AvgSpread, 1e-9)
	assert.Equal(t, 16.0, s.MinSpread)
	assert.Equal(t, 20.0, s.MaxSpread)
}
