package detector

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDetector(minSpread, minVolume float64) *Detector {
	return New(Config{MinSpreadPercent: minSpread, MinVolumeUSDT: minVolume}, "mexc", testLogger())
}

func tick(price, volume float64) domain.Ticker {
	return domain.Ticker{Price: price, VolumeUSDT: volume, VolumeKnown: true}
}

func priceOnly(price float64) domain.Ticker {
	return domain.Ticker{Price: price}
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		spread float64
		want   int
	}{
		{"max both plus bonus capped", 10_000_000, 25, 100},
		{"strong volume weak spread", 10_000_000, 5, 50},
		{"bonus applies", 2_000_000, 15, 65},
		{"no bonus just below volume", 1_999_999, 15, 45},
		{"no bonus just below spread", 2_000_000, 14.99, 45},
		{"minimum tier", 500_000, 10, 25},
		{"below all tiers", 400_000, 9, 0},
		{"mid tiers", 5_000_000, 20, 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qualityScore(tt.volume, tt.spread))
		})
	}
}

func TestSpreadPercentSymmetry(t *testing.T) {
	// Measured against the lower price regardless of direction.
	assert.InDelta(t, 10.0, spreadPercent(100, 110), 1e-9)
	assert.InDelta(t, 10.0, spreadPercent(110, 100), 1e-9)
}

func TestDetectDirection(t *testing.T) {
	d := newDetector(10, 500_000)
	now := time.Now().UTC()

	primary := domain.TickerSnapshot{"BTCUSDT": tick(100, 20_000_000)}

	// Secondary higher: long on the primary.
	opps := d.Detect(primary, map[string]domain.TickerSnapshot{
		"binance": {"BTCUSDT": tick(120, 20_000_000)},
	}, now)
	require.Len(t, opps, 1)
	assert.Equal(t, domain.SignalPrimaryLong, opps[0].Signal)
	assert.Equal(t, "mexc", opps[0].EntryExchange())
	assert.Equal(t, "binance", opps[0].ExitExchange())

	// Secondary lower: short on the primary.
	opps = d.Detect(primary, map[string]domain.TickerSnapshot{
		"binance": {"BTCUSDT": tick(80, 20_000_000)},
	}, now)
	require.Len(t, opps, 1)
	assert.Equal(t, domain.SignalPrimaryShort, opps[0].Signal)
	assert.Equal(t, "binance", opps[0].EntryExchange())
}

func TestDetectVolumeFallback(t *testing.T) {
	// A price-only secondary inherits the primary's volume. This is
	// deliberately optimistic: price-only venues would otherwise never
	// produce a candidate.
	d := newDetector(10, 500_000)

	primary := domain.TickerSnapshot{"BTCUSDT": tick(100, 8_000_000)}
	opps := d.Detect(primary, map[string]domain.TickerSnapshot{
		"okx": {"BTCUSDT": priceOnly(120)},
	}, time.Now().UTC())

	require.Len(t, opps, 1)
	assert.Equal(t, 8_000_000.0, opps[0].EffectiveVolume)
	assert.Equal(t, 8_000_000.0, opps[0].PrimaryVolume)
	assert.Zero(t, opps[0].SecondaryVolume)
}

func TestDetectEffectiveVolumeIsMin(t *testing.T) {
	d := newDetector(10, 500_000)

	primary := domain.TickerSnapshot{"BTCUSDT": tick(100, 8_000_000)}
	opps := d.Detect(primary, map[string]domain.TickerSnapshot{
		"binance": {"BTCUSDT": tick(120, 3_000_000)},
	}, time.Now().UTC())

	require.Len(t, opps, 1)
	assert.Equal(t, 3_000_000.0, opps[0].EffectiveVolume)

	// Both legs are carried; the effective figure is derived, not a
	// replacement.
	assert.Equal(t, 8_000_000.0, opps[0].PrimaryVolume)
	assert.Equal(t, 3_000_000.0, opps[0].SecondaryVolume)
}

func TestDetectFilters(t *testing.T) {
	d := newDetector(10, 500_000)
	now := time.Now().UTC()

	primary := domain.TickerSnapshot{
		"STRAXUSDT": tick(100, 20_000_000), // blacklisted
		"LOWUSDT":   tick(100, 100_000),    // below volume floor
		"FLATUSDT":  tick(100, 20_000_000), // below spread floor
		"ZEROUSDT":  {Price: 0},            // bad price
	}
	secondaries := map[string]domain.TickerSnapshot{
		"binance": {
			"STRAXUSDT": tick(120, 20_000_000),
			"LOWUSDT":   tick(120, 100_000),
			"FLATUSDT":  tick(101, 20_000_000),
			"ZEROUSDT":  tick(120, 20_000_000),
		},
	}

	assert.Empty(t, d.Detect(primary, secondaries, now))
}

func TestDetectQualityFloor(t *testing.T) {
	// Spread 10% at 500K volume scores 25, below the floor of 40.
	d := newDetector(10, 500_000)

	primary := domain.TickerSnapshot{"ABCUSDT": tick(100, 500_000)}
	opps := d.Detect(primary, map[string]domain.TickerSnapshot{
		"binance": {"ABCUSDT": tick(110, 500_000)},
	}, time.Now().UTC())
	assert.Empty(t, opps)

	// Same spread with heavy volume scores 65 and passes.
	primary = domain.TickerSnapshot{"ABCUSDT": tick(100, 20_000_000)}
	opps = d.Detect(primary, map[string]domain.TickerSnapshot{
		"binance": {"ABCUSDT": tick(110, 20_000_000)},
	}, time.Now().UTC())
	require.Len(t, opps, 1)
	assert.Equal(t, 65, opps[0].QualityScore)
}

func TestDetectSortedByQualityDescending(t *testing.T) {
	d := newDetector(10, 500_000)

	primary := domain.TickerSnapshot{
		"AAAUSDT": tick(100, 20_000_000),
		"BBBUSDT": tick(100, 1_000_000),
	}
	opps := d.Detect(primary, map[string]domain.TickerSnapshot{
		"binance": {
			"AAAUSDT": tick(130, 20_000_000), // 100
			"BBBUSDT": tick(112, 1_000_000),  // scores 35, filtered
		},
		"gate": {
			"AAAUSDT": priceOnly(116), // 50+25+10 = 85
		},
	}, time.Now().UTC())

	require.Len(t, opps, 2)
	assert.Equal(t, 100, opps[0].QualityScore)
	assert.Equal(t, 85, opps[1].QualityScore)
	assert.True(t, opps[0].QualityScore >= opps[1].QualityScore)
}
