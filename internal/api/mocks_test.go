package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/mattjoyce/planview/internal/cad"
	"github.com/mattjoyce/planview/internal/events"
	"github.com/mattjoyce/planview/internal/export"
	"github.com/mattjoyce/planview/internal/reaper"
	"github.com/mattjoyce/planview/internal/roommapping"
)

var errUnexpected = errors.New("unexpected call")

// mockCADStore implements CADStore for testing
type mockCADStore struct {
	createFunc func(ctx context.Context, f cad.File) (cad.Reference, error)
	getFunc    func(ctx context.Context, id int64) (*cad.File, error)
	listFunc   func(ctx context.Context) ([]cad.Reference, error)
	updateFunc func(ctx context.Context, f cad.File) (cad.Reference, error)
	deleteFunc func(ctx context.Context, id int64) (cad.Reference, error)
}

func (m *mockCADStore) Create(ctx context.Context, f cad.File) (cad.Reference, error) {
	if m.createFunc == nil {
		return cad.Reference{}, errUnexpected
	}
	return m.createFunc(ctx, f)
}

func (m *mockCADStore) Get(ctx context.Context, id int64) (*cad.File, error) {
	if m.getFunc == nil {
		return nil, errUnexpected
	}
	return m.getFunc(ctx, id)
}

func (m *mockCADStore) List(ctx context.Context) ([]cad.Reference, error) {
	if m.listFunc == nil {
		return nil, errUnexpected
	}
	return m.listFunc(ctx)
}

func (m *mockCADStore) Update(ctx context.Context, f cad.File) (cad.Reference, error) {
	if m.updateFunc == nil {
		return cad.Reference{}, errUnexpected
	}
	return m.updateFunc(ctx, f)
}

func (m *mockCADStore) Delete(ctx context.Context, id int64) (cad.Reference, error) {
	if m.deleteFunc == nil {
		return cad.Reference{}, errUnexpected
	}
	return m.deleteFunc(ctx, id)
}

// mockMappingStore implements MappingStore for testing
type mockMappingStore struct {
	createFunc    func(ctx context.Context, c roommapping.Collection) (roommapping.Reference, error)
	getFunc       func(ctx context.Context, id int64) (*roommapping.Collection, error)
	listFunc      func(ctx context.Context) ([]roommapping.Reference, error)
	listByCADFunc func(ctx context.Context, cadFileID int64) ([]roommapping.Reference, error)
	updateFunc    func(ctx context.Context, c roommapping.Collection) (roommapping.Reference, error)
	deleteFunc    func(ctx context.Context, id int64) (roommapping.Reference, error)
}

func (m *mockMappingStore) Create(ctx context.Context, c roommapping.Collection) (roommapping.Reference, error) {
	if m.createFunc == nil {
		return roommapping.Reference{}, errUnexpected
	}
	return m.createFunc(ctx, c)
}

func (m *mockMappingStore) Get(ctx context.Context, id int64) (*roommapping.Collection, error) {
	if m.getFunc == nil {
		return nil, errUnexpected
	}
	return m.getFunc(ctx, id)
}

func (m *mockMappingStore) List(ctx context.Context) ([]roommapping.Reference, error) {
	if m.listFunc == nil {
		return nil, errUnexpected
	}
	return m.listFunc(ctx)
}

func (m *mockMappingStore) ListByCADFile(ctx context.Context, cadFileID int64) ([]roommapping.Reference, error) {
	if m.listByCADFunc == nil {
		return nil, errUnexpected
	}
	return m.listByCADFunc(ctx, cadFileID)
}

func (m *mockMappingStore) Update(ctx context.Context, c roommapping.Collection) (roommapping.Reference, error) {
	if m.updateFunc == nil {
		return roommapping.Reference{}, errUnexpected
	}
	return m.updateFunc(ctx, c)
}

func (m *mockMappingStore) Delete(ctx context.Context, id int64) (roommapping.Reference, error) {
	if m.deleteFunc == nil {
		return roommapping.Reference{}, errUnexpected
	}
	return m.deleteFunc(ctx, id)
}

// mockExporter implements Exporter for testing
type mockExporter struct {
	renderFunc  func(ctx context.Context, req export.Request) (string, error)
	publishFunc func(ctx context.Context, req export.Request) (*export.Link, error)
	touched     []string
	touchResult bool
}

func (m *mockExporter) RenderHTML(ctx context.Context, req export.Request) (string, error) {
	if m.renderFunc == nil {
		return "", errUnexpected
	}
	return m.renderFunc(ctx, req)
}

func (m *mockExporter) Publish(ctx context.Context, req export.Request) (*export.Link, error) {
	if m.publishFunc == nil {
		return nil, errUnexpected
	}
	return m.publishFunc(ctx, req)
}

func (m *mockExporter) Touch(_ context.Context, path string) bool {
	m.touched = append(m.touched, path)
	return m.touchResult
}

// mockArtifacts implements ArtifactReader for testing
type mockArtifacts struct {
	openFunc func(ctx context.Context, name string) (*os.File, os.FileInfo, error)
}

func (m *mockArtifacts) Open(ctx context.Context, name string) (*os.File, os.FileInfo, error) {
	if m.openFunc == nil {
		return nil, nil, errUnexpected
	}
	return m.openFunc(ctx, name)
}

// mockPending implements PendingLister for testing
type mockPending struct {
	pending []reaper.PendingDeletion
}

func (m *mockPending) Pending() []reaper.PendingDeletion { return m.pending }
func (m *mockPending) Len() int                          { return len(m.pending) }

type testServer struct {
	*Server
	cads      *mockCADStore
	mappings  *mockMappingStore
	exporter  *mockExporter
	artifacts *mockArtifacts
	pending   *mockPending
	hub       *events.Hub
	handler   http.Handler
}

func newTestServer(t *testing.T, config Config) *testServer {
	t.Helper()
	ts := &testServer{
		cads:      &mockCADStore{},
		mappings:  &mockMappingStore{},
		exporter:  &mockExporter{},
		artifacts: &mockArtifacts{},
		pending:   &mockPending{},
		hub:       events.NewHub(10),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts.Server = New(config, ts.cads, ts.mappings, ts.exporter, ts.artifacts, ts.pending, ts.hub, logger)
	ts.handler = ts.Handler()
	return ts
}

func (ts *testServer) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
