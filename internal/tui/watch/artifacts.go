package watch

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/planview/internal/events"
)

// Artifact statuses shown in the table.
const (
	statusPending   = "pending"
	statusDeleted   = "deleted"
	statusFailed    = "failed"
	statusCancelled = "cancelled"
)

// finishedRetention is how long deleted, failed and cancelled rows stay visible.
const finishedRetention = 5 * time.Minute

// ArtifactState tracks one export artifact discovered from events or the
// pending snapshot.
type ArtifactState struct {
	Path     string
	Deadline time.Time
	Status   string
	Touches  int
	Error    string
	LastSeen time.Time
}

// SweepState is the outcome of the most recent janitor sweep.
type SweepState struct {
	Deleted int
	Kept    int
	At      time.Time
}

type artifactEventData struct {
	Artifact string    `json:"artifact"`
	Deadline time.Time `json:"deadline"`
	Error    string    `json:"error"`
}

type sweepEventData struct {
	Deleted int `json:"deleted"`
	Kept    int `json:"kept"`
}

// updateArtifactState applies one lifecycle event. It reports whether the
// artifact table changed.
func updateArtifactState(artifacts map[string]*ArtifactState, sweep *SweepState, e events.Event) bool {
	if e.Type == "janitor.sweep" {
		var d sweepEventData
		if err := json.Unmarshal(e.Data, &d); err != nil {
			return false
		}
		*sweep = SweepState{Deleted: d.Deleted, Kept: d.Kept, At: e.At}
		return false
	}

	var d artifactEventData
	if err := json.Unmarshal(e.Data, &d); err != nil || d.Artifact == "" {
		return false
	}

	a, ok := artifacts[d.Artifact]
	if !ok {
		a = &ArtifactState{Path: d.Artifact}
		artifacts[d.Artifact] = a
	}
	a.LastSeen = e.At

	switch e.Type {
	case "artifact.scheduled":
		a.Status = statusPending
		a.Deadline = d.Deadline
		a.Error = ""
	case "artifact.deferred":
		a.Status = statusPending
		a.Deadline = d.Deadline
		a.Touches++
	case "artifact.deleted":
		a.Status = statusDeleted
	case "artifact.delete_failed":
		a.Status = statusFailed
		a.Error = d.Error
	case "artifact.cancelled":
		a.Status = statusCancelled
	default:
		if !ok {
			delete(artifacts, d.Artifact)
		}
		return false
	}
	return true
}

// applyPending reconciles tracked artifacts with a server snapshot. Pending
// rows the server no longer knows about are dropped.
func applyPending(artifacts map[string]*ArtifactState, p pendingMsg) {
	seen := make(map[string]bool, len(p.Pending))
	for _, pd := range p.Pending {
		seen[pd.ResourceID] = true
		a, ok := artifacts[pd.ResourceID]
		if !ok {
			a = &ArtifactState{Path: pd.ResourceID}
			artifacts[pd.ResourceID] = a
		}
		a.Status = statusPending
		a.Deadline = pd.Deadline
		a.LastSeen = p.Now
	}
	for path, a := range artifacts {
		if a.Status == statusPending && !seen[path] {
			delete(artifacts, path)
		}
	}
}

// pruneArtifacts drops finished rows older than finishedRetention.
func pruneArtifacts(artifacts map[string]*ArtifactState, now time.Time) {
	for path, a := range artifacts {
		if a.Status != statusPending && now.Sub(a.LastSeen) > finishedRetention {
			delete(artifacts, path)
		}
	}
}

// sortedArtifacts orders pending rows by deadline, followed by finished rows
// with the most recent first.
func sortedArtifacts(artifacts map[string]*ArtifactState) []*ArtifactState {
	out := make([]*ArtifactState, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].Status == statusPending, out[j].Status == statusPending
		if pi != pj {
			return pi
		}
		if pi {
			if !out[i].Deadline.Equal(out[j].Deadline) {
				return out[i].Deadline.Before(out[j].Deadline)
			}
			return out[i].Path < out[j].Path
		}
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func newArtifactTable(theme Theme) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ST", Width: 2},
			{Title: "Artifact", Width: 36},
			{Title: "Status", Width: 10},
			{Title: "Deadline", Width: 10},
			{Title: "Remaining", Width: 10},
			{Title: "Touches", Width: 7},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(theme.Table)
	return t
}

func artifactRows(artifacts map[string]*ArtifactState, now time.Time) []table.Row {
	var rows []table.Row
	for _, a := range sortedArtifacts(artifacts) {
		remaining := "-"
		deadline := "-"
		if !a.Deadline.IsZero() {
			deadline = a.Deadline.Local().Format("15:04:05")
		}
		if a.Status == statusPending {
			left := a.Deadline.Sub(now)
			if left < 0 {
				left = 0
			}
			remaining = formatDuration(left)
		}
		rows = append(rows, table.Row{
			statusIcon(a.Status),
			filepath.Base(a.Path),
			a.Status,
			deadline,
			remaining,
			fmt.Sprintf("%d", a.Touches),
		})
	}
	return rows
}

func statusIcon(status string) string {
	switch status {
	case statusPending:
		return "⏳"
	case statusDeleted:
		return "🗑"
	case statusFailed:
		return "❌"
	case statusCancelled:
		return "⏹"
	default:
		return "?"
	}
}

func renderArtifacts(t table.Model, artifacts map[string]*ArtifactState, sweep SweepState, theme Theme, width int) string {
	innerWidth := width - 4

	title := theme.Title.Render("EXPORT ARTIFACTS")
	if len(artifacts) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			theme.Dim.Render("  No artifacts scheduled for deletion"),
			renderSweep(sweep, theme),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var failures []string
	for _, a := range sortedArtifacts(artifacts) {
		if a.Status == statusFailed && a.Error != "" {
			failures = append(failures, theme.StatusFailed.Render(fmt.Sprintf("  %s: %s", filepath.Base(a.Path), a.Error)))
		}
	}

	parts := []string{title, t.View()}
	parts = append(parts, failures...)
	parts = append(parts, renderSweep(sweep, theme))
	return theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func renderSweep(sweep SweepState, theme Theme) string {
	if sweep.At.IsZero() {
		return theme.Dim.Render("  Last sweep: never")
	}
	return theme.Dim.Render(fmt.Sprintf("  Last sweep: %s  deleted %d  kept %d",
		sweep.At.Local().Format("15:04:05"), sweep.Deleted, sweep.Kept))
}
