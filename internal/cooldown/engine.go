// Package cooldown rate-limits notifications per (symbol, secondary
// exchange) pair, surfacing meaningful spread moves quickly while bounding
// alert volume.
package cooldown

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// Config holds the cooldown thresholds.
type Config struct {
	MinChangePercent float64
	MinCooldown      time.Duration
	MaxCooldown      time.Duration
	HistoryMaxAge    time.Duration
}

// key identifies one tracked spread.
type key struct {
	symbol    string
	secondary string
}

// entry is the per-key history. lastSpread tracks the freshest observation
// even when suppressed; only lastNotificationSpread anchors the
// change-magnitude test.
type entry struct {
	lastSpread             float64
	lastNotificationTime   time.Time
	lastNotificationSpread float64
	notificationCount      int
}

// Engine is the stateful notification filter. It is not safe for concurrent
// use: the scan loop evaluates candidates strictly sequentially, which is
// the only access path.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	history map[key]*entry
}

// New creates an Engine with empty history.
func New(cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "cooldown")),
		history: make(map[key]*entry),
	}
}

// Evaluate runs the decision ladder for one accepted opportunity. Checks run
// in a fixed order and the first match wins; min-cooldown deliberately
// precedes the change test so even a large move cannot alert twice within
// MinCooldown.
func (e *Engine) Evaluate(opp domain.Opportunity, now time.Time) domain.Decision {
	k := key{symbol: opp.Symbol, secondary: opp.SecondaryExchange}
	spread := opp.SpreadPercent

	ent, ok := e.history[k]
	if !ok {
		e.history[k] = &entry{
			lastSpread:             spread,
			lastNotificationTime:   now,
			lastNotificationSpread: spread,
			notificationCount:      1,
		}
		return domain.DecisionNewSpread
	}

	sinceNotif := now.Sub(ent.lastNotificationTime)

	if sinceNotif < e.cfg.MinCooldown {
		ent.lastSpread = spread
		return domain.DecisionMinCooldown
	}

	if math.Abs(spread-ent.lastNotificationSpread) >= e.cfg.MinChangePercent {
		e.notify(ent, spread, now)
		return domain.DecisionSpreadChanged
	}

	if sinceNotif >= e.cfg.MaxCooldown {
		e.notify(ent, spread, now)
		return domain.DecisionMaxCooldown
	}

	ent.lastSpread = spread
	return domain.DecisionNoSignificantChange
}

func (e *Engine) notify(ent *entry, spread float64, now time.Time) {
	ent.lastSpread = spread
	ent.lastNotificationTime = now
	ent.lastNotificationSpread = spread
	ent.notificationCount++
}

// Sweep removes entries not notified within HistoryMaxAge and returns how
// many were dropped. It bounds memory for symbols that stop appearing.
func (e *Engine) Sweep(now time.Time) int {
	var removed int
	for k, ent := range e.history {
		if now.Sub(ent.lastNotificationTime) > e.cfg.HistoryMaxAge {
			delete(e.history, k)
			removed++
		}
	}
	if removed > 0 {
		e.logger.Info("swept stale spread history",
			slog.Int("removed", removed),
			slog.Int("remaining", len(e.history)),
		)
	}
	return removed
}

// TrackedSpread is a read-only view of one history entry.
type TrackedSpread struct {
	Symbol               string    `json:"symbol"`
	SecondaryExchange    string    `json:"secondary_exchange"`
	LastSpread           float64   `json:"last_spread"`
	LastNotificationTime time.Time `json:"last_notification_time"`
	Notifications        int       `json:"notifications"`
}

// Tracked returns the current history entries, widest spread first.
func (e *Engine) Tracked() []TrackedSpread {
	out := make([]TrackedSpread, 0, len(e.history))
	for k, ent := range e.history {
		out = append(out, TrackedSpread{
			Symbol:               k.symbol,
			SecondaryExchange:    k.secondary,
			LastSpread:           ent.lastSpread,
			LastNotificationTime: ent.lastNotificationTime,
			Notifications:        ent.notificationCount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSpread > out[j].LastSpread
	})
	return out
}

// Stats summarizes the tracked spreads for periodic logging.
type Stats struct {
	TrackedPairs       int
	TotalNotifications int
	AvgSpread          float64
	MinSpread          float64
	MaxSpread          float64
}

// Stats computes a snapshot over the current history.
func (e *Engine) Stats() Stats {
	s := Stats{TrackedPairs: len(e.history)}
	if len(e.history) == 0 {
		return s
	}

	s.MinSpread = math.Inf(1)
	var sum float64
	for _, ent := range e.history {
		s.TotalNotifications += ent.notificationCount
		sum += ent.lastSpread
		s.MinSpread = math.Min(s.MinSpread, ent.lastSpread)
		s.MaxSpread = math.Max(s.MaxSpread, ent.lastSpread)
	}
	s.AvgSpread = sum / float64(len(e.history))
	return s
}
