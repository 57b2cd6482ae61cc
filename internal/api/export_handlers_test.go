package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattjoyce/planview/internal/artifact"
	"github.com/mattjoyce/planview/internal/cad"
	"github.com/mattjoyce/planview/internal/export"
	"github.com/mattjoyce/planview/internal/reaper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHTML(t *testing.T) {
	ts := newTestServer(t, Config{})
	var got export.Request
	ts.exporter.renderFunc = func(_ context.Context, req export.Request) (string, error) {
		got = req
		return "<html><head><script>var app_isExportMode = true;</script></head></html>", nil
	}

	rec := ts.do(http.MethodPost, "/api/export/html", `{"cadFileId": 3, "mappingId": 4, "colorMap": "viridis"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "app_isExportMode")
	assert.Equal(t, int64(3), got.CADFileID)
	require.NotNil(t, got.MappingID)
	assert.Equal(t, int64(4), *got.MappingID)
	assert.Equal(t, "viridis", got.ColorMap)
}

func TestExportHTMLValidation(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.exporter.renderFunc = func(_ context.Context, req export.Request) (string, error) {
		return "", fmt.Errorf("%w: id=%d", cad.ErrNotFound, req.CADFileID)
	}

	rec := ts.do(http.MethodPost, "/api/export/html", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/export/html", `{"cadFileId": 99}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportLinkReturnsPlainURL(t *testing.T) {
	ts := newTestServer(t, Config{})
	expires := time.Date(2024, 3, 1, 12, 15, 0, 0, time.UTC)
	ts.exporter.publishFunc = func(_ context.Context, req export.Request) (*export.Link, error) {
		return &export.Link{
			URL:       "http://plans.example/exports/response_3_01032024-120000_abc123.html",
			FileName:  "response_3_01032024-120000_abc123.html",
			ExpiresAt: expires,
		}, nil
	}

	rec := ts.do(http.MethodPost, "/api/export/getLink", `{"cadFileId": 3}`, "Origin", "http://viewer.example")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "http://plans.example/exports/response_3_01032024-120000_abc123.html", rec.Body.String())
	assert.Equal(t, expires.Format(http.TimeFormat), rec.Header().Get("Expires"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestExportLinkPreflight(t *testing.T) {
	ts := newTestServer(t, Config{APIKey: "admin-key"})

	rec := ts.do(http.MethodOptions, "/api/export/getLink", "",
		"Origin", "http://viewer.example",
		"Access-Control-Request-Method", http.MethodPost,
	)
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeExportTouchesDeletion(t *testing.T) {
	ts := newTestServer(t, Config{APIKey: "admin-key"})
	store, err := artifact.NewFSStore(t.TempDir())
	require.NoError(t, err)
	path, err := store.Write(context.Background(), "response_1_01032024-120000_abc123.html", []byte("<html>plan</html>"))
	require.NoError(t, err)
	ts.artifacts.openFunc = store.Open
	ts.exporter.touchResult = true

	// Public: no token required.
	rec := ts.do(http.MethodGet, "/exports/response_1_01032024-120000_abc123.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>plan</html>", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Len(t, ts.exporter.touched, 1)
	assert.Equal(t, filepath.Clean(path), ts.exporter.touched[0])
}

func TestServeExportMissing(t *testing.T) {
	ts := newTestServer(t, Config{})
	store, err := artifact.NewFSStore(t.TempDir())
	require.NoError(t, err)
	ts.artifacts.openFunc = store.Open

	rec := ts.do(http.MethodGet, "/exports/expired.html", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/exports/..", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, ts.exporter.touched)
}

func TestListPending(t *testing.T) {
	ts := newTestServer(t, Config{})
	deadline := time.Date(2024, 3, 1, 12, 15, 0, 0, time.UTC)
	ts.pending.pending = []reaper.PendingDeletion{
		{ResourceID: "/exports/a.html", Deadline: deadline, Delay: 15 * time.Minute},
	}

	rec := ts.do(http.MethodGet, "/api/export/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"resource_id":"/exports/a.html"`)
}
