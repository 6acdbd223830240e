package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// AlertArchiveStore is the narrow store surface the archiver needs: a
// time-ranged read plus a matching delete. The Postgres SignalStore satisfies
// it.
type AlertArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Alert, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver implements domain.Archiver by querying aged alert rows, uploading
// them to object storage as JSONL, and deleting them from the primary store
// once the upload succeeds. A failed upload leaves the rows in place, so the
// worst failure mode is re-archiving the same rows next run.
type Archiver struct {
	writer domain.BlobWriter
	store  AlertArchiveStore
}

// NewArchiver creates a new Archiver.
func NewArchiver(writer domain.BlobWriter, store AlertArchiveStore) *Archiver {
	return &Archiver{writer: writer, store: store}
}

// ArchiveAlerts moves all alerts sent before the cutoff to
// archive/alerts/YYYY-MM.jsonl and returns how many were archived.
func (a *Archiver) ArchiveAlerts(ctx context.Context, before time.Time) (int64, error) {
	alerts, err := a.store.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive alerts query: %w", err)
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(alerts)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive alerts marshal: %w", err)
	}

	path := archivePath("alerts", before)
	if err := a.putArchive(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive alerts upload: %w", err)
	}

	if _, err := a.store.DeleteBefore(ctx, before); err != nil {
		return int64(len(alerts)), fmt.Errorf("s3blob: archive alerts delete: %w", err)
	}

	return int64(len(alerts)), nil
}

// multipartThreshold is the payload size above which archive uploads switch
// from a single PutObject to a multipart upload.
const multipartThreshold = 8 * 1024 * 1024

// archiveContentType marks archive objects as newline-delimited JSON.
const archiveContentType = "application/x-ndjson"

// putArchive uploads an archive payload, choosing the upload strategy by
// size. Months with heavy alert traffic can exceed a single-request upload's
// comfortable range.
func (a *Archiver) putArchive(ctx context.Context, path string, buf []byte) error {
	if int64(len(buf)) >= multipartThreshold {
		return a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), archiveContentType, multipartThreshold)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), archiveContentType)
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff time, e.g. archive/alerts/2026-08.jsonl.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON. Each
// element becomes one compact JSON line.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
