package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/spreadbot/internal/cooldown"
	"github.com/alanyoungcy/spreadbot/internal/detector"
	"github.com/alanyoungcy/spreadbot/internal/funding"
	"github.com/alanyoungcy/spreadbot/internal/scanner"
	"github.com/alanyoungcy/spreadbot/internal/server"
	"github.com/alanyoungcy/spreadbot/internal/server/handler"
	"github.com/alanyoungcy/spreadbot/internal/server/ws"
	"github.com/alanyoungcy/spreadbot/internal/validator"
)

// MonitorMode runs the scan loop with notifications only: no Redis, no
// Postgres, no HTTP API.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	scn := a.buildScanner(deps, nil, nil)
	g.Go(func() error {
		return scn.Run(ctx)
	})

	a.notifyStartup(ctx, deps)

	return g.Wait()
}

// FullMode runs the scan loop plus the full observability surface: snapshot
// mirroring to Redis, alert streaming on the signal bus, alert history in
// Postgres, S3 archival of aged rows, and the HTTP/WebSocket API.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	sinks := []scanner.Sink{
		&busSink{bus: deps.SignalBus},
		&storeSink{store: deps.SignalStore},
	}
	observer := &snapshotObserver{cache: deps.SnapshotCache, logger: a.base}

	scn := a.buildScanner(deps, sinks, observer)
	g.Go(func() error {
		return scn.Run(ctx)
	})

	a.startArchiveLoop(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, scn)
	}

	a.notifyStartup(ctx, deps)

	return g.Wait()
}

// ServerMode serves the HTTP/WebSocket API over existing alert history
// without running the scan loop.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// buildScanner assembles the pipeline stages from config and wired
// dependencies. sinks and observer may be nil in monitor mode.
func (a *App) buildScanner(deps *Dependencies, sinks []scanner.Sink, observer scanner.SnapshotObserver) *scanner.Scanner {
	det := detector.New(detector.Config{
		MinSpreadPercent: a.cfg.Detector.MinSpreadPercent,
		MinVolumeUSDT:    a.cfg.Detector.MinVolumeUSDT,
	}, deps.Primary.Name(), a.base)

	val := validator.New(validator.Config{
		MinSpreadPercent: a.cfg.Detector.MinSpreadPercent,
	}, deps.Books, a.base)

	fundingCache := funding.NewCache(deps.FundingSrcs, a.base)
	gate := funding.NewGate(funding.Config{
		MaxFundingRatePercent: a.cfg.Funding.MaxFundingRatePercent,
	}, fundingCache, a.base)

	engine := cooldown.New(cooldown.Config{
		MinChangePercent: a.cfg.Cooldown.MinChangePercent,
		MinCooldown:      a.cfg.Cooldown.MinCooldown.Duration,
		MaxCooldown:      a.cfg.Cooldown.MaxCooldown.Duration,
		HistoryMaxAge:    a.cfg.Cooldown.HistoryMaxAge.Duration,
	}, a.base)

	return scanner.New(
		scanner.Config{
			ScanInterval:   a.cfg.Monitor.ScanInterval.Duration,
			RequestTimeout: a.cfg.Monitor.RequestTimeout.Duration,
			StatsEvery:     a.cfg.Monitor.StatsEvery,
		},
		deps.Primary,
		deps.Secondaries,
		det, val, fundingCache, gate, engine,
		deps.Notifier,
		sinks,
		observer,
		a.base,
	)
}

// startHTTPServer adds the HTTP server and, when the signal bus is wired, the
// WebSocket hub to the given errgroup. scn may be nil in server mode.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, scn *scanner.Scanner) {
	var source handler.StatusSource
	if scn != nil {
		source = scn
	}
	startedAt := time.Now().UTC()

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(startedAt),
		Status: handler.NewStatusHandler(a.cfg.Mode, source),
	}
	if deps.SignalStore != nil {
		handlers.Signals = handler.NewSignalsHandler(deps.SignalStore, a.base)
	}
	if deps.BlobReader != nil {
		handlers.Archives = handler.NewArchivesHandler(deps.BlobReader, a.base)
	}
	if deps.SnapshotCache != nil {
		handlers.Tickers = handler.NewTickersHandler(deps.SnapshotCache, a.base)
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.base, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: startedAt,
		})
		g.Go(func() error {
			if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("app: ws hub: %w", err)
			}
			return nil
		})
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, handlers, hub, a.base)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// startArchiveLoop moves aged alert rows to object storage once a day. It is
// a no-op unless both the archiver and a positive retention window are
// configured.
func (a *App) startArchiveLoop(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Archiver == nil || a.cfg.S3.RetentionDays <= 0 {
		return
	}

	retention := a.cfg.S3.RetentionDays
	g.Go(func() error {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				cutoff := time.Now().UTC().AddDate(0, 0, -retention)
				n, err := deps.Archiver.ArchiveAlerts(ctx, cutoff)
				if err != nil {
					a.logger.WarnContext(ctx, "alert archival failed",
						slog.String("error", err.Error()),
					)
					continue
				}
				if n > 0 {
					a.logger.InfoContext(ctx, "archived aged alerts",
						slog.Int64("count", n),
						slog.Time("cutoff", cutoff),
					)
				}
			}
		}
	})
}

// notifyStartup announces the running configuration on the startup event.
func (a *App) notifyStartup(ctx context.Context, deps *Dependencies) {
	msg := fmt.Sprintf("Mode: %s\nScan interval: %s\nSecondaries: %d\nMin spread: %.1f%%",
		a.cfg.Mode,
		a.cfg.Monitor.ScanInterval.Duration,
		len(deps.Secondaries),
		a.cfg.Detector.MinSpreadPercent,
	)
	if err := deps.Notifier.Notify(ctx, "startup", "Spread monitor started", msg); err != nil {
		a.logger.WarnContext(ctx, "startup notification failed",
			slog.String("error", err.Error()),
		)
	}
}
