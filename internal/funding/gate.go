package funding

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// RateSource is the read side of the Cache, split out so the gate can be
// tested with canned rates.
type RateSource interface {
	Rate(exchange, symbol string) (float64, bool)
}

// Config holds the gate threshold.
type Config struct {
	// MaxFundingRatePercent bounds both the magnitude and the directional
	// checks.
	MaxFundingRatePercent float64
}

// Gate decides whether a candidate's funding exposure is acceptable.
type Gate struct {
	cfg    Config
	rates  RateSource
	logger *slog.Logger
}

// NewGate creates a Gate reading rates from the given source.
func NewGate(cfg Config, rates RateSource, logger *slog.Logger) *Gate {
	return &Gate{
		cfg:    cfg,
		rates:  rates,
		logger: logger.With(slog.String("component", "funding_gate")),
	}
}

// Check looks up funding on both legs and returns whether the candidate may
// proceed. Missing data fails open: a candidate is never blocked only
// because funding is unknown. The returned reason is "NO_DATA", "OK", or a
// rejection cause naming the offending exchange and rate.
func (g *Gate) Check(opp domain.Opportunity) (bool, string) {
	max := g.cfg.MaxFundingRatePercent

	primaryRate, primaryOK := g.rates.Rate(opp.PrimaryExchange, opp.Symbol)
	secondaryRate, secondaryOK := g.rates.Rate(opp.SecondaryExchange, opp.Symbol)

	if !primaryOK && !secondaryOK {
		return true, "NO_DATA"
	}

	// Directional exposure on the primary leg: a long pays strongly negative
	// funding, a short pays strongly positive funding.
	if primaryOK {
		if opp.Signal == domain.SignalPrimaryLong && primaryRate < -max {
			return false, fmt.Sprintf("long against negative funding on %s: %.4f%%", opp.PrimaryExchange, primaryRate)
		}
		if opp.Signal == domain.SignalPrimaryShort && primaryRate > max {
			return false, fmt.Sprintf("short against positive funding on %s: %.4f%%", opp.PrimaryExchange, primaryRate)
		}
	}

	if primaryOK && math.Abs(primaryRate) > max {
		return false, fmt.Sprintf("funding rate on %s too high: %.4f%%", opp.PrimaryExchange, primaryRate)
	}
	if secondaryOK && math.Abs(secondaryRate) > max {
		return false, fmt.Sprintf("funding rate on %s too high: %.4f%%", opp.SecondaryExchange, secondaryRate)
	}

	return true, "OK"
}

// CombinedCost returns |primary| + |secondary| in percent, the worst-case
// funding paid holding both legs. Informational only, it never gates.
func (g *Gate) CombinedCost(opp domain.Opportunity) float64 {
	var cost float64
	if r, ok := g.rates.Rate(opp.PrimaryExchange, opp.Symbol); ok {
		cost += math.Abs(r)
	}
	if r, ok := g.rates.Rate(opp.SecondaryExchange, opp.Symbol); ok {
		cost += math.Abs(r)
	}
	return cost
}
