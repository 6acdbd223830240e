package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// TickersHandler serves the cached ticker snapshots the scanner mirrors into
// Redis, so dashboards can read market state without hitting the venues.
type TickersHandler struct {
	cache  domain.SnapshotCache
	logger *slog.Logger
}

// NewTickersHandler creates a TickersHandler backed by the given cache.
func NewTickersHandler(cache domain.SnapshotCache, logger *slog.Logger) *TickersHandler {
	return &TickersHandler{
		cache:  cache,
		logger: logger.With(slog.String("handler", "tickers")),
	}
}

// GetTickers responds with the latest cached snapshot for one exchange. A
// venue that has never been scanned, or whose snapshot expired, is a 404.
// GET /api/tickers/{exchange}
func (h *TickersHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	exchange := r.PathValue("exchange")

	snap, ts, err := h.cache.GetTickers(r.Context(), exchange)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no snapshot for exchange "+exchange)
			return
		}
		h.logger.Error("snapshot lookup failed",
			slog.String("exchange", exchange),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"exchange":   exchange,
		"updated_at": ts.UTC().Format(time.RFC3339),
		"count":      len(snap),
		"tickers":    snap,
	})
}
