// Package scanner drives the scan loop: fetch ticker snapshots from every
// exchange, detect spread candidates, validate them against order books,
// gate on funding, and hand survivors to the cooldown engine and notifier.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/spreadbot/internal/cooldown"
	"github.com/alanyoungcy/spreadbot/internal/detector"
	"github.com/alanyoungcy/spreadbot/internal/domain"
	"github.com/alanyoungcy/spreadbot/internal/funding"
	"github.com/alanyoungcy/spreadbot/internal/validator"
)

// Config holds the scan-loop timing parameters.
type Config struct {
	ScanInterval   time.Duration
	RequestTimeout time.Duration

	// StatsEvery controls how often (in cycles) the scanner logs summary
	// stats and sweeps stale cooldown history.
	StatsEvery int
}

// AlertNotifier delivers an accepted alert to the operator channels and
// reports whether at least one channel took it.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert domain.Alert) bool
}

// Sink receives every dispatched alert for downstream observability
// (streaming, persistence). Sink failures are logged, never fatal.
type Sink interface {
	Record(ctx context.Context, alert domain.Alert) error
}

// SnapshotObserver is told about each exchange's ticker snapshot after the
// fan-out fetch, e.g. to mirror market state into a cache.
type SnapshotObserver interface {
	ObserveSnapshot(ctx context.Context, exchange string, snap domain.TickerSnapshot, ts time.Time)
}

// Counters are the scanner's cumulative totals.
type Counters struct {
	Scans               int64 `json:"scans"`
	AlertsSent          int64 `json:"alerts_sent"`
	ValidatorRejections int64 `json:"validator_rejections"`
	FundingRejections   int64 `json:"funding_rejections"`
	Suppressed          int64 `json:"suppressed"`
}

// Status is a point-in-time summary for logs and the HTTP API.
type Status struct {
	StartedAt      time.Time                `json:"started_at"`
	LastScanAt     time.Time                `json:"last_scan_at"`
	Counters       Counters                 `json:"counters"`
	TrackedSpreads []cooldown.TrackedSpread `json:"tracked_spreads"`
}

// Scanner owns one full pipeline pass per cycle. The pipeline stages run
// strictly sequentially within a cycle; only the data fetches fan out.
type Scanner struct {
	cfg         Config
	primary     domain.TickerProvider
	secondaries []domain.TickerProvider
	detector    *detector.Detector
	validator   *validator.Validator
	fundingSrc  *funding.Cache
	gate        *funding.Gate
	engine      *cooldown.Engine
	notifier    AlertNotifier
	sinks       []Sink
	observer    SnapshotObserver
	logger      *slog.Logger

	mu        sync.RWMutex
	startedAt time.Time
	lastScan  time.Time
	counters  Counters
	tracked   []cooldown.TrackedSpread
}

// New assembles a Scanner. observer and sinks may be nil/empty in
// monitor mode.
func New(
	cfg Config,
	primary domain.TickerProvider,
	secondaries []domain.TickerProvider,
	det *detector.Detector,
	val *validator.Validator,
	fundingSrc *funding.Cache,
	gate *funding.Gate,
	engine *cooldown.Engine,
	notifier AlertNotifier,
	sinks []Sink,
	observer SnapshotObserver,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		cfg:         cfg,
		primary:     primary,
		secondaries: secondaries,
		detector:    det,
		validator:   val,
		fundingSrc:  fundingSrc,
		gate:        gate,
		engine:      engine,
		notifier:    notifier,
		sinks:       sinks,
		observer:    observer,
		logger:      logger.With(slog.String("component", "scanner")),
		startedAt:   time.Now().UTC(),
	}
}

// Run executes scan cycles on the configured interval until the context is
// cancelled. The first cycle runs immediately. A clean shutdown returns nil.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scan loop starting",
		slog.Duration("interval", s.cfg.ScanInterval),
		slog.Int("secondaries", len(s.secondaries)),
	)

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	s.safeScan(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scan loop stopped")
			return nil
		case <-ticker.C:
			s.safeScan(ctx)
		}
	}
}

// safeScan runs one cycle with panic recovery: an unexpected failure ends
// only this cycle, never the loop.
func (s *Scanner) safeScan(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan cycle panicked",
				slog.Any("panic", r),
			)
		}
	}()
	s.Scan(ctx)
}

// Scan runs one full pipeline cycle.
func (s *Scanner) Scan(ctx context.Context) {
	now := time.Now().UTC()
	cycle := s.bumpScans()

	primarySnap, secondarySnaps := s.fetchAll(ctx, now)

	opps := s.detector.Detect(primarySnap, secondarySnaps, now)

	var sent, validatorRejected, fundingRejected, suppressed int64
	for i := range opps {
		opp := &opps[i]

		if ok, reason := s.validateWithTimeout(ctx, opp); !ok {
			validatorRejected++
			s.logger.Debug("validator rejected",
				slog.String("symbol", opp.Symbol),
				slog.String("secondary", opp.SecondaryExchange),
				slog.String("reason", reason),
			)
			continue
		}

		ok, fundingNote := s.gate.Check(*opp)
		if !ok {
			fundingRejected++
			s.logger.Info("funding gate rejected",
				slog.String("symbol", opp.Symbol),
				slog.String("secondary", opp.SecondaryExchange),
				slog.String("reason", fundingNote),
			)
			continue
		}

		decision := s.engine.Evaluate(*opp, time.Now().UTC())
		if !decision.Notify() {
			suppressed++
			continue
		}

		alert := buildAlert(*opp, decision, fundingNote)
		if s.notifier.NotifyAlert(ctx, alert) {
			sent++
		}
		s.record(ctx, alert)

		s.logger.Info("alert dispatched",
			slog.String("symbol", alert.Symbol),
			slog.String("signal", alert.Signal.String()),
			slog.String("decision", alert.Decision.String()),
			slog.String("secondary", alert.SecondaryExchange),
			slog.Float64("spread_percent", alert.SpreadPercent),
			slog.Float64("funding_cost", s.gate.CombinedCost(*opp)),
		)
	}

	s.finishCycle(now, sent, validatorRejected, fundingRejected, suppressed)

	if s.cfg.StatsEvery > 0 && cycle%int64(s.cfg.StatsEvery) == 0 {
		s.engine.Sweep(time.Now().UTC())
		s.logStats()
	}
}

// fetchAll refreshes the funding cache and fetches every exchange's tickers
// concurrently. A failed source degrades to an empty snapshot for this
// cycle.
func (s *Scanner) fetchAll(ctx context.Context, now time.Time) (domain.TickerSnapshot, map[string]domain.TickerSnapshot) {
	fctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	var (
		mu             sync.Mutex
		primarySnap    = domain.TickerSnapshot{}
		secondarySnaps = make(map[string]domain.TickerSnapshot, len(s.secondaries))
	)

	g, gctx := errgroup.WithContext(fctx)

	g.Go(func() error {
		s.fundingSrc.Refresh(gctx)
		return nil
	})

	g.Go(func() error {
		snap, err := s.primary.Tickers(gctx)
		if err != nil {
			s.logger.Warn("primary ticker fetch failed",
				slog.String("exchange", s.primary.Name()),
				slog.String("error", err.Error()),
			)
			return nil
		}
		mu.Lock()
		primarySnap = snap
		mu.Unlock()
		s.observe(gctx, s.primary.Name(), snap, now)
		return nil
	})

	for _, sec := range s.secondaries {
		g.Go(func() error {
			snap, err := sec.Tickers(gctx)
			if err != nil {
				s.logger.Warn("secondary ticker fetch failed",
					slog.String("exchange", sec.Name()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			secondarySnaps[sec.Name()] = snap
			mu.Unlock()
			s.observe(gctx, sec.Name(), snap, now)
			return nil
		})
	}

	_ = g.Wait()
	return primarySnap, secondarySnaps
}

func (s *Scanner) validateWithTimeout(ctx context.Context, opp *domain.Opportunity) (bool, string) {
	vctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	return s.validator.Validate(vctx, opp)
}

func (s *Scanner) observe(ctx context.Context, exchange string, snap domain.TickerSnapshot, ts time.Time) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveSnapshot(ctx, exchange, snap, ts)
}

func (s *Scanner) record(ctx context.Context, alert domain.Alert) {
	for _, sink := range s.sinks {
		if err := sink.Record(ctx, alert); err != nil {
			s.logger.Warn("alert sink failed",
				slog.String("symbol", alert.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}
}

func buildAlert(opp domain.Opportunity, decision domain.Decision, fundingNote string) domain.Alert {
	id := opp.ID
	if id == "" {
		id = uuid.NewString()
	}
	return domain.Alert{
		ID:                id,
		Symbol:            opp.Symbol,
		Signal:            opp.Signal,
		Decision:          decision,
		PrimaryExchange:   opp.PrimaryExchange,
		SecondaryExchange: opp.SecondaryExchange,
		PrimaryPrice:      opp.PrimaryPrice,
		SecondaryPrice:    opp.SecondaryPrice,
		SpreadPercent:     opp.SpreadPercent,
		EffectiveVolume:   opp.EffectiveVolume,
		QualityScore:      opp.QualityScore,
		FundingNote:       fundingNote,
		SentAt:            time.Now().UTC(),
	}
}

func (s *Scanner) bumpScans() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Scans++
	return s.counters.Scans
}

func (s *Scanner) finishCycle(startedAt time.Time, sent, validatorRejected, fundingRejected, suppressed int64) {
	tracked := s.engine.Tracked()

	s.mu.Lock()
	s.lastScan = startedAt
	s.counters.AlertsSent += sent
	s.counters.ValidatorRejections += validatorRejected
	s.counters.FundingRejections += fundingRejected
	s.counters.Suppressed += suppressed
	s.tracked = tracked
	s.mu.Unlock()
}

// Status returns a snapshot of the scanner's counters and tracked spreads.
// Safe for concurrent use with the scan loop.
func (s *Scanner) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		StartedAt:      s.startedAt,
		LastScanAt:     s.lastScan,
		Counters:       s.counters,
		TrackedSpreads: s.tracked,
	}
}

func (s *Scanner) logStats() {
	stats := s.engine.Stats()
	st := s.Status()

	s.logger.Info("scan stats",
		slog.Int64("scans", st.Counters.Scans),
		slog.Int64("alerts_sent", st.Counters.AlertsSent),
		slog.Int64("validator_rejections", st.Counters.ValidatorRejections),
		slog.Int64("funding_rejections", st.Counters.FundingRejections),
		slog.Int64("suppressed", st.Counters.Suppressed),
		slog.Int("tracked_pairs", stats.TrackedPairs),
		slog.Int("total_notifications", stats.TotalNotifications),
		slog.String("spreads", fmt.Sprintf("avg=%.2f%% min=%.2f%% max=%.2f%%", stats.AvgSpread, stats.MinSpread, stats.MaxSpread)),
	)
}
