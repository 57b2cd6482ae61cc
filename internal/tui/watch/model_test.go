package watch

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelEventUpdatesState(t *testing.T) {
	m := New("http://127.0.0.1:8080", "")

	next, cmd := m.Update(eventMsg(event(t, "artifact.scheduled", t0, map[string]any{
		"artifact": "exports/plan.html",
		"deadline": time.Now().Add(15 * time.Minute),
	})))
	require.NotNil(t, cmd)

	got := next.(Model)
	require.Len(t, got.eventLog, 1)
	assert.True(t, got.health.Connected)
	require.Contains(t, got.artifacts, "exports/plan.html")
	assert.Len(t, got.table.Rows(), 1)
}

func TestModelEventLogIsBounded(t *testing.T) {
	var model tea.Model = *New("http://127.0.0.1:8080", "")
	for i := 0; i < eventLogSize+10; i++ {
		model, _ = model.Update(eventMsg(event(t, "janitor.sweep", t0, map[string]any{"deleted": i})))
	}
	assert.Len(t, model.(Model).eventLog, eventLogSize)
}

func TestModelHealthAndDisconnect(t *testing.T) {
	var model tea.Model = *New("http://127.0.0.1:8080", "")

	model, _ = model.Update(healthMsg{Status: "ok", UptimeSeconds: 30, PendingDeletions: 2})
	m := model.(Model)
	assert.True(t, m.health.Connected)
	assert.Equal(t, 2, m.health.PendingDeletions)

	model, cmd := model.Update(sseDisconnectedMsg{})
	require.NotNil(t, cmd)
	m = model.(Model)
	assert.False(t, m.health.Connected)
	assert.Contains(t, m.lastError, "reconnecting")
}

func TestModelView(t *testing.T) {
	var model tea.Model = *New("http://127.0.0.1:8080", "")
	assert.Equal(t, "Connecting to planview...", model.View())

	model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := model.View()
	assert.True(t, strings.Contains(view, "PLANVIEW WATCH"))
	assert.True(t, strings.Contains(view, "No artifacts scheduled for deletion"))
}

func TestModelQuit(t *testing.T) {
	m := New("http://127.0.0.1:8080", "")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
