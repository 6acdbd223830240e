package handler

import (
	"net/http"

	"github.com/alanyoungcy/spreadbot/internal/scanner"
)

// StatusSource exposes a point-in-time scanner status. In server mode, where
// no scan loop runs, the source is absent.
type StatusSource interface {
	Status() scanner.Status
}

// StatusHandler serves the scanner status for dashboards.
type StatusHandler struct {
	mode   string
	source StatusSource
}

// NewStatusHandler creates a StatusHandler. source may be nil when no scanner
// is running.
func NewStatusHandler(mode string, source StatusSource) *StatusHandler {
	return &StatusHandler{mode: mode, source: source}
}

// GetStatus responds with the mode and, when a scanner is running, its
// counters and tracked spreads.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"mode":     h.mode,
		"scanning": h.source != nil,
	}
	if h.source != nil {
		resp["scanner"] = h.source.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetActiveSpreads responds with the spreads currently tracked by the
// cooldown engine, widest first.
// GET /api/spreads/active
func (h *StatusHandler) GetActiveSpreads(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeJSON(w, http.StatusOK, map[string]any{"spreads": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"spreads": h.source.Status().TrackedSpreads,
	})
}
