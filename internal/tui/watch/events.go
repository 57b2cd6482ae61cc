package watch

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/planview/internal/events"
)

func renderEventStream(eventLog []events.Event, theme Theme, width int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for events..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}

	eventsText := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		eventsText,
	)

	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))

	typeName := eventStyle(theme, e.Type).Render(fmt.Sprintf("%-22s", e.Type))
	return fmt.Sprintf("%s %s %s", ts, typeName, extractEventDesc(e))
}

// eventStyle colours an event type by what it means for the artifact.
func eventStyle(theme Theme, eventType string) lipgloss.Style {
	switch eventType {
	case "artifact.deleted":
		return theme.StatusOK
	case "artifact.delete_failed":
		return theme.StatusFailed
	case "artifact.deferred":
		return theme.StatusRunning
	case "artifact.scheduled", "janitor.sweep":
		return theme.Highlight
	default:
		return theme.Dim
	}
}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string

	if artifact, ok := data["artifact"].(string); ok {
		parts = append(parts, filepath.Base(artifact))
	}

	if deadline, ok := data["deadline"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, deadline); err == nil {
			parts = append(parts, "until "+t.Local().Format("15:04:05"))
		}
	}

	if msg, ok := data["error"].(string); ok && msg != "" {
		parts = append(parts, msg)
	}

	if e.Type == "janitor.sweep" {
		deleted, _ := data["deleted"].(float64)
		kept, _ := data["kept"].(float64)
		parts = append(parts, fmt.Sprintf("deleted %d kept %d", int(deleted), int(kept)))
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}

	return strings.Join(parts, " ")
}
