package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// ArchivesHandler lists archived alert objects in cold storage.
type ArchivesHandler struct {
	reader domain.BlobReader
	logger *slog.Logger
}

// NewArchivesHandler creates an ArchivesHandler backed by the given reader.
func NewArchivesHandler(reader domain.BlobReader, logger *slog.Logger) *ArchivesHandler {
	return &ArchivesHandler{
		reader: reader,
		logger: logger.With(slog.String("handler", "archives")),
	}
}

// List responds with metadata for every archived JSONL object.
// GET /api/archives
func (h *ArchivesHandler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := h.reader.List(r.Context(), "archive/")
	if err != nil {
		h.logger.Error("list archives failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}

	type archive struct {
		Path         string `json:"path"`
		Size         int64  `json:"size"`
		LastModified string `json:"last_modified"`
	}
	out := make([]archive, 0, len(infos))
	for _, info := range infos {
		out = append(out, archive{
			Path:         info.Path,
			Size:         info.Size,
			LastModified: info.LastModified.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"archives": out,
		"count":    len(out),
	})
}
