package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HealthState tracks server health from /healthz polling.
type HealthState struct {
	Status           string
	UptimeSeconds    int64
	PendingDeletions int
	EventSubscribers int
	Connected        bool
	LastCheck        time.Time
}

const (
	activitySlots = 5
	activityFade  = 10 * time.Second
)

var heartbeatFrames = []string{"⟲", "⟳"}

// activity is the header's strip of recent lifecycle events, newest first,
// one dot per event coloured by type. It clears after activityFade of silence.
type activity struct {
	types []string
	last  time.Time
}

func (a *activity) record(eventType string, at time.Time) {
	a.types = append([]string{eventType}, a.types...)
	if len(a.types) > activitySlots {
		a.types = a.types[:activitySlots]
	}
	a.last = at
}

func (a *activity) fade(now time.Time) {
	if len(a.types) > 0 && now.Sub(a.last) > activityFade {
		a.types = nil
	}
}

func (a activity) render(theme Theme) string {
	var b strings.Builder
	for i := range activitySlots {
		if i < len(a.types) {
			b.WriteString(eventStyle(theme, a.types[i]).Render("●"))
		} else {
			b.WriteString(theme.ActivityIdle.Render("○"))
		}
	}
	return b.String()
}

func renderHeader(health HealthState, beat int, recent activity, theme Theme, width int) string {
	innerWidth := width - 4

	// Status
	statusText := theme.StatusOK.Render("HEALTHY")
	statusIcon := "✅"
	if !health.Connected {
		statusText = theme.StatusFailed.Render("CONNECTING")
		statusIcon = "🔌"
	} else if health.Status != "ok" && health.Status != "" {
		statusText = theme.StatusFailed.Render("DEGRADED")
		statusIcon = "⚠️"
	}

	// Uptime
	uptime := time.Duration(health.UptimeSeconds) * time.Second
	uptimeStr := formatDuration(uptime)

	// Last event
	lastEventStr := "never"
	if !recent.last.IsZero() {
		ago := time.Since(recent.last).Round(time.Second)
		lastEventStr = fmt.Sprintf("%s ago", ago)
	}

	// Title line with heartbeat and clock
	tickerStr := theme.Highlight.Render(heartbeatFrames[beat%len(heartbeatFrames)])
	clock := theme.Dim.Render(time.Now().Format("15:04:05"))
	titleText := fmt.Sprintf(" PLANVIEW WATCH %s", tickerStr)

	// Calculate padding between title and clock
	titleWidth := lipgloss.Width(titleText)
	clockWidth := lipgloss.Width(clock)
	pad := innerWidth - titleWidth - clockWidth - 4
	if pad < 1 {
		pad = 1
	}
	titleLine := titleText + strings.Repeat(" ", pad) + clock + " "

	// Stats line
	statsLine := fmt.Sprintf(" %s %s  ⏱ %s  Pending: %d  Subscribers: %d",
		statusIcon, statusText,
		uptimeStr,
		health.PendingDeletions,
		health.EventSubscribers,
	)

	// Activity line
	activityLine := fmt.Sprintf(" Last event: %s %s",
		lastEventStr,
		recent.render(theme),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleLine,
		statsLine,
		activityLine,
	)

	return theme.Border.Width(innerWidth).Render(content)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
