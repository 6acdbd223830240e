package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// SignalsHandler serves persisted alert history.
type SignalsHandler struct {
	store  domain.SignalStore
	logger *slog.Logger
}

// NewSignalsHandler creates a SignalsHandler backed by the given store.
func NewSignalsHandler(store domain.SignalStore, logger *slog.Logger) *SignalsHandler {
	return &SignalsHandler{
		store:  store,
		logger: logger.With(slog.String("handler", "signals")),
	}
}

// ListRecent responds with the most recently dispatched alerts, newest first.
// GET /api/signals/recent?limit=50
func (h *SignalsHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 500)

	alerts, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list recent alerts failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}
