package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/planview/internal/events"
)

const (
	sseKeepAlive = 15 * time.Second
	sseRetry     = 3 * time.Second
)

// eventFilter narrows /events to some event types and, optionally, to a
// single published export.
type eventFilter struct {
	// exact types such as "artifact.deleted" or families such as "artifact.*"
	types []string
	// export file name, compared with the base name of the event's artifact
	artifact string
}

func parseEventFilter(q url.Values) eventFilter {
	var f eventFilter
	for _, v := range q["type"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.types = append(f.types, t)
			}
		}
	}
	f.artifact = filepath.Base(strings.TrimSpace(q.Get("artifact")))
	if f.artifact == "." || f.artifact == "/" {
		f.artifact = ""
	}
	return f
}

func (f eventFilter) match(ev events.Event) bool {
	if len(f.types) > 0 && !f.matchType(ev.Type) {
		return false
	}
	if f.artifact == "" {
		return true
	}
	var payload struct {
		Artifact string `json:"artifact"`
	}
	if err := json.Unmarshal(ev.Data, &payload); err != nil || payload.Artifact == "" {
		return false
	}
	return filepath.Base(payload.Artifact) == f.artifact
}

func (f eventFilter) matchType(eventType string) bool {
	for _, t := range f.types {
		if family, ok := strings.CutSuffix(t, ".*"); ok {
			if strings.HasPrefix(eventType, family+".") {
				return true
			}
			continue
		}
		if t == eventType {
			return true
		}
	}
	return false
}

// handleEvents handles GET /events. Buffered events newer than Last-Event-ID
// are replayed before the live stream. ?type=artifact.*,janitor.sweep limits
// the event types and ?artifact=<file name> follows one export.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter := parseEventFilter(r.URL.Query())

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", sseRetry.Milliseconds()); err != nil {
		return
	}

	lastID := parseLastEventID(r.Header.Get("Last-Event-ID"))
	for _, ev := range s.events.SnapshotSince(lastID) {
		if !filter.match(ev) {
			continue
		}
		if err := writeSSE(w, ev); err != nil {
			return
		}
	}
	flusher.Flush()

	ch, cancel := s.events.Subscribe()
	defer cancel()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if !filter.match(ev) {
				continue
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			// SSE comment line as keep-alive.
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func parseLastEventID(v string) int64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeSSE(w http.ResponseWriter, ev events.Event) error {
	if _, err := fmt.Fprintf(w, "id: %d\n", ev.ID); err != nil {
		return err
	}
	if ev.Type != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", ev.Type); err != nil {
			return err
		}
	}
	// Payloads are single-line JSON, so one data line is enough.
	if _, err := fmt.Fprintf(w, "data: %s\n\n", ev.Data); err != nil {
		return err
	}
	return nil
}
