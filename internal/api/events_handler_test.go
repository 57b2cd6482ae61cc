package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/mattjoyce/planview/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsReplaysBufferedEvents(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.hub.Publish("artifact.scheduled", map[string]string{"artifact": "/exports/a.html"})
	ts.hub.Publish("artifact.deleted", map[string]string{"artifact": "/exports/a.html"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "1")
	rec := httptest.NewRecorder()

	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "retry: 3000\n\n")
	assert.NotContains(t, body, "event: artifact.scheduled")
	assert.Contains(t, body, "id: 2\nevent: artifact.deleted\ndata: {\"artifact\":\"/exports/a.html\"}\n\n")
}

func TestParseLastEventID(t *testing.T) {
	assert.Equal(t, int64(0), parseLastEventID(""))
	assert.Equal(t, int64(0), parseLastEventID("abc"))
	assert.Equal(t, int64(0), parseLastEventID("-4"))
	assert.Equal(t, int64(12), parseLastEventID("12"))
}

func streamEvents(t *testing.T, ts *testServer, target string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestEventsFilterByTypeFamily(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.hub.Publish("artifact.scheduled", map[string]string{"artifact": "/exports/a.html"})
	ts.hub.Publish("janitor.sweep", map[string]int{"deleted": 1, "kept": 0})
	ts.hub.Publish("artifact.deleted", map[string]string{"artifact": "/exports/a.html"})

	body := streamEvents(t, ts, "/events?type=artifact.*")
	assert.Contains(t, body, "event: artifact.scheduled")
	assert.Contains(t, body, "event: artifact.deleted")
	assert.NotContains(t, body, "janitor.sweep")

	body = streamEvents(t, ts, "/events?type=janitor.sweep,artifact.deleted")
	assert.NotContains(t, body, "artifact.scheduled")
	assert.Contains(t, body, "event: janitor.sweep")
	assert.Contains(t, body, "event: artifact.deleted")
}

func TestEventsFilterByArtifact(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.hub.Publish("artifact.scheduled", map[string]string{"artifact": "/exports/a.html"})
	ts.hub.Publish("artifact.scheduled", map[string]string{"artifact": "/exports/b.html"})
	ts.hub.Publish("janitor.sweep", map[string]int{"deleted": 0, "kept": 2})

	body := streamEvents(t, ts, "/events?artifact=b.html")
	assert.Contains(t, body, "/exports/b.html")
	assert.NotContains(t, body, "/exports/a.html")
	assert.NotContains(t, body, "janitor.sweep")
}

func TestEventFilterMatch(t *testing.T) {
	data := func(v any) json.RawMessage {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return b
	}
	deleted := events.Event{Type: "artifact.deleted", Data: data(map[string]string{"artifact": "/srv/exports/x.html"})}
	sweep := events.Event{Type: "janitor.sweep", Data: data(map[string]int{"deleted": 1})}

	tests := []struct {
		name  string
		query string
		event events.Event
		want  bool
	}{
		{"no filter", "", sweep, true},
		{"family", "type=artifact.*", deleted, true},
		{"family does not match bare prefix", "type=artifact.*", events.Event{Type: "artifactual"}, false},
		{"exact miss", "type=artifact.deferred", deleted, false},
		{"repeated type params", "type=janitor.sweep&type=artifact.deleted", deleted, true},
		{"artifact by base name", "artifact=x.html", deleted, true},
		{"artifact given as path", "artifact=/exports/x.html", deleted, true},
		{"artifact on event without one", "artifact=x.html", sweep, false},
		{"type and artifact", "type=artifact.deferred&artifact=x.html", deleted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, parseEventFilter(q).match(tt.event))
		})
	}
}
