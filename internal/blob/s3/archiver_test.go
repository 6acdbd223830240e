package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

type fakeWriter struct {
	putPaths       []string
	putSizes       []int
	multipartPaths []string
	contentTypes   []string
	err            error
}

func (f *fakeWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	if f.err != nil {
		return f.err
	}
	body, _ := io.ReadAll(data)
	f.putPaths = append(f.putPaths, path)
	f.putSizes = append(f.putSizes, len(body))
	f.contentTypes = append(f.contentTypes, contentType)
	return nil
}

func (f *fakeWriter) PutMultipart(_ context.Context, path string, _ io.Reader, contentType string, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.multipartPaths = append(f.multipartPaths, path)
	f.contentTypes = append(f.contentTypes, contentType)
	return nil
}

type fakeArchiveStore struct {
	alerts  []domain.Alert
	deleted bool
	listErr error
}

func (f *fakeArchiveStore) ListBefore(context.Context, time.Time) ([]domain.Alert, error) {
	return f.alerts, f.listErr
}

func (f *fakeArchiveStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	f.deleted = true
	return int64(len(f.alerts)), nil
}

func agedAlerts(n int) []domain.Alert {
	alerts := make([]domain.Alert, n)
	for i := range alerts {
		alerts[i] = domain.Alert{
			ID:       "a",
			Symbol:   "BTCUSDT",
			Signal:   domain.SignalPrimaryLong,
			Decision: domain.DecisionNewSpread,
		}
	}
	return alerts
}

func TestArchiveAlertsUploadsThenDeletes(t *testing.T) {
	w := &fakeWriter{}
	st := &fakeArchiveStore{alerts: agedAlerts(3)}
	a := NewArchiver(w, st)

	cutoff := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	n, err := a.ArchiveAlerts(context.Background(), cutoff)
	require.NoError(t, err)

	assert.Equal(t, int64(3), n)
	require.Equal(t, []string{"archive/alerts/2026-08.jsonl"}, w.putPaths)
	assert.Equal(t, []string{"application/x-ndjson"}, w.contentTypes)
	assert.True(t, st.deleted)
}

func TestArchiveAlertsEmptyIsNoop(t *testing.T) {
	w := &fakeWriter{}
	st := &fakeArchiveStore{}
	a := NewArchiver(w, st)

	n, err := a.ArchiveAlerts(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, w.putPaths)
	assert.False(t, st.deleted)
}

func TestArchiveAlertsFailedUploadKeepsRows(t *testing.T) {
	w := &fakeWriter{err: errors.New("bucket gone")}
	st := &fakeArchiveStore{alerts: agedAlerts(2)}
	a := NewArchiver(w, st)

	_, err := a.ArchiveAlerts(context.Background(), time.Now())
	require.Error(t, err)
	assert.False(t, st.deleted, "rows must survive a failed upload")
}

func TestPutArchiveRoutesBySize(t *testing.T) {
	w := &fakeWriter{}
	a := NewArchiver(w, &fakeArchiveStore{})

	small := []byte("{}\n")
	require.NoError(t, a.putArchive(context.Background(), "archive/alerts/small.jsonl", small))
	assert.Equal(t, []string{"archive/alerts/small.jsonl"}, w.putPaths)
	assert.Empty(t, w.multipartPaths)

	large := bytes.Repeat([]byte("x"), multipartThreshold)
	require.NoError(t, a.putArchive(context.Background(), "archive/alerts/large.jsonl", large))
	assert.Equal(t, []string{"archive/alerts/large.jsonl"}, w.multipartPaths)
}

func TestMarshalJSONLOneLinePerRecord(t *testing.T) {
	buf, err := marshalJSONL(agedAlerts(2))
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSuffix(buf, []byte("\n")), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"signal":"PRIMARY_LONG"`)
}
