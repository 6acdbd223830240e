// Package detector scans ticker snapshots for cross-exchange price spreads
// and scores each candidate before it is handed to the validator.
package detector

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// minQualityScore is the floor below which a candidate is discarded.
const minQualityScore = 40

// Config holds the detection thresholds.
type Config struct {
	MinSpreadPercent float64
	MinVolumeUSDT    float64
}

// Detector finds spread candidates between the primary exchange and each
// secondary snapshot.
type Detector struct {
	cfg             Config
	primaryExchange string
	logger          *slog.Logger
}

// New creates a Detector.
func New(cfg Config, primaryExchange string, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:             cfg,
		primaryExchange: primaryExchange,
		logger:          logger.With(slog.String("component", "detector")),
	}
}

// Detect compares the primary snapshot against every secondary snapshot and
// returns the surviving candidates ordered by quality score, highest first.
// Ordering between equal scores follows detection order.
func (d *Detector) Detect(primary domain.TickerSnapshot, secondaries map[string]domain.TickerSnapshot, now time.Time) []domain.Opportunity {
	var opps []domain.Opportunity

	for symbol, pt := range primary {
		if blacklisted(symbol) || pt.Price <= 0 {
			continue
		}

		for exch, snap := range secondaries {
			st, ok := snap[symbol]
			if !ok || st.Price <= 0 {
				continue
			}

			// When the secondary venue is price-only, assume the primary's
			// volume rather than discarding the pair.
			effVolume := pt.VolumeUSDT
			if st.VolumeKnown {
				effVolume = math.Min(pt.VolumeUSDT, st.VolumeUSDT)
			}
			if effVolume < d.cfg.MinVolumeUSDT {
				continue
			}

			spread := spreadPercent(pt.Price, st.Price)
			if spread < d.cfg.MinSpreadPercent {
				continue
			}

			score := qualityScore(effVolume, spread)
			if score < minQualityScore {
				d.logger.Debug("candidate below quality floor",
					slog.String("symbol", symbol),
					slog.String("secondary", exch),
					slog.Int("score", score),
				)
				continue
			}

			signal := domain.SignalPrimaryShort
			if st.Price > pt.Price {
				signal = domain.SignalPrimaryLong
			}

			opps = append(opps, domain.Opportunity{
				ID:                uuid.NewString(),
				Symbol:            symbol,
				Signal:            signal,
				PrimaryExchange:   d.primaryExchange,
				SecondaryExchange: exch,
				PrimaryPrice:      pt.Price,
				SecondaryPrice:    st.Price,
				SpreadPercent:     spread,
				PrimaryVolume:     pt.VolumeUSDT,
				SecondaryVolume:   st.VolumeUSDT,
				EffectiveVolume:   effVolume,
				QualityScore:      score,
				DetectedAt:        now,
			})
		}
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].QualityScore > opps[j].QualityScore
	})

	return opps
}

// spreadPercent is the relative price difference, measured against the lower
// of the two prices.
func spreadPercent(p1, p2 float64) float64 {
	lo := math.Min(p1, p2)
	if lo <= 0 {
		return 0
	}
	return math.Abs(p1-p2) / lo * 100
}

// qualityScore combines a volume score (0-50), a spread score (0-40), and a
// +10 bonus when both legs are strong, capped at 100.
func qualityScore(volumeUSDT, spread float64) int {
	var volumeScore int
	switch {
	case volumeUSDT >= 10_000_000:
		volumeScore = 50
	case volumeUSDT >= 5_000_000:
		volumeScore = 40
	case volumeUSDT >= 2_000_000:
		volumeScore = 30
	case volumeUSDT >= 1_000_000:
		volumeScore = 20
	case volumeUSDT >= 500_000:
		volumeScore = 10
	}

	var spreadScore int
	switch {
	case spread >= 25:
		spreadScore = 40
	case spread >= 20:
		spreadScore = 35
	case spread >= 15:
		spreadScore = 25
	case spread >= 10:
		spreadScore = 15
	}

	score := volumeScore + spreadScore
	if volumeUSDT >= 2_000_000 && spread >= 15 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
