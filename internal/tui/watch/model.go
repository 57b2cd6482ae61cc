package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/planview/internal/events"
)

const (
	eventLogSize    = 50
	healthInterval  = 5 * time.Second
	pendingInterval = 10 * time.Second
)

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	// State
	health    HealthState
	artifacts map[string]*ArtifactState
	sweep     SweepState
	eventLog  []events.Event
	table     table.Model

	// Live indicators
	beat   int
	recent activity

	theme Theme

	// Communication
	hubEvents chan events.Event

	// Error display
	lastError string
}

// New creates a new watch TUI model.
func New(apiURL, apiKey string) *Model {
	theme := NewDefaultTheme()
	return &Model{
		apiURL:    apiURL,
		apiKey:    apiKey,
		artifacts: make(map[string]*ArtifactState),
		eventLog:  make([]events.Event, 0),
		hubEvents: make(chan events.Event, 100),
		table:     newArtifactTable(theme),
		theme:     theme,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.apiKey, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		func() tea.Msg { return fetchHealth(m.apiURL, m.apiKey) },
		func() tea.Msg { return fetchPending(m.apiURL, m.apiKey) },
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, func() tea.Msg { return fetchPending(m.apiURL, m.apiKey) }
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.beat++
		m.recent.fade(time.Time(msg))
		pruneArtifacts(m.artifacts, time.Time(msg))
		m.refreshTable(time.Time(msg))
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case eventMsg:
		e := events.Event(msg)

		// Update event log (newest first)
		m.eventLog = append([]events.Event{e}, m.eventLog...)
		if len(m.eventLog) > eventLogSize {
			m.eventLog = m.eventLog[:eventLogSize]
		}

		m.recent.record(e.Type, time.Now())
		if updateArtifactState(m.artifacts, &m.sweep, e) {
			m.refreshTable(time.Now())
		}

		m.health.Connected = true
		m.lastError = ""

		return m, receiveNextEvent(m.hubEvents)

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.PendingDeletions = msg.PendingDeletions
		m.health.EventSubscribers = msg.EventSubscribers
		m.health.Connected = true
		m.health.LastCheck = time.Now()
		m.lastError = ""

		return m, tea.Tick(healthInterval, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL, m.apiKey)
		})

	case pendingMsg:
		applyPending(m.artifacts, msg)
		m.refreshTable(time.Now())
		return m, tea.Tick(pendingInterval, func(t time.Time) tea.Msg {
			return fetchPending(m.apiURL, m.apiKey)
		})

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "SSE disconnected, reconnecting..."
		// The existing receiveNextEvent goroutine is still waiting on the
		// channel and picks up events from the new subscription.
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return reconnectMsg{}
		})

	case reconnectMsg:
		return m, tea.Batch(
			subscribeToEvents(m.apiURL, m.apiKey, m.hubEvents),
			func() tea.Msg { return fetchPending(m.apiURL, m.apiKey) },
		)

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(healthInterval, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL, m.apiKey)
		})
	}

	return m, nil
}

func (m *Model) refreshTable(now time.Time) {
	m.table.SetRows(artifactRows(m.artifacts, now))
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting to planview..."
	}

	header := renderHeader(m.health, m.beat, m.recent, m.theme, m.width)
	artifacts := renderArtifacts(m.table, m.artifacts, m.sweep, m.theme, m.width)
	eventStream := renderEventStream(m.eventLog, m.theme, m.width)

	var errBar string
	if m.lastError != "" {
		errBar = m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError))
	}

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(" [q] Quit • [r] Refresh • [↑/↓] Navigate Artifacts")

	parts := []string{header, artifacts, eventStream}
	if errBar != "" {
		parts = append(parts, errBar)
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
