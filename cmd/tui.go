// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// eventBatchSize is the listener queue depth per batch interval
const eventBatchSize = 64

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for events
}

// Messages
type tickMsg time.Time
type hubEventMsg struct {
	event lpf2.Event
	at    time.Time
}
type hubEventBatchMsg struct {
	events []hubEventMsg
}
type connectionLostMsg struct {
	err error
}

// Shared styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// eventForwarder returns a listener that queues events without blocking
// the hub. Events are dropped when the queue is full.
func eventForwarder(events chan<- hubEventMsg) lpf2.Listener {
	return lpf2.ListenerFunc(func(ev lpf2.Event) {
		select {
		case events <- hubEventMsg{event: ev, at: time.Now()}:
		default:
		}
	})
}

// forwardEvents sends queued events to the program in batches at a fixed rate
func forwardEvents(p *tea.Program, events <-chan hubEventMsg) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		var batch hubEventBatchMsg
	drainLoop:
		for {
			select {
			case ev := <-events:
				batch.events = append(batch.events, ev)
			default:
				break drainLoop
			}
		}
		if len(batch.events) > 0 {
			p.Send(batch)
		}
	}
}

// formatElapsed formats a duration as a human-friendly string
func formatElapsed(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds <= 0 {
		return "0 seconds"
	}

	hours := seconds / 3600
	minutes := (seconds / 60) % 60
	seconds %= 60

	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

// isPortChange reports attach and detach events, which the event logs
// always show
func isPortChange(ev lpf2.Event) bool {
	switch ev.(type) {
	case lpf2.AttachEvent, lpf2.DetachEvent:
		return true
	}
	return false
}

// statsModel is the TUI model for the stats command
type statsModel struct {
	hub           *lpf2.Hub
	connInfo      string
	statsInterval int
	showAll       bool

	stats    lpf2.Statistics
	ports    []lpf2.PortState
	voltage  int
	current  float64
	battery  uint8
	hasVolt  bool
	hasCurr  bool
	hasBatt  bool
	lastTick time.Time

	eventLog      []eventLogEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
	disconnected  bool
}

func initialStatsModel(hub *lpf2.Hub, connInfo string, statsInterval int) statsModel {
	m := statsModel{
		hub:           hub,
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showEvents,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
	m.refresh()
	return m
}

func (m statsModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh copies the hub's current state into the model
func (m *statsModel) refresh() {
	m.stats = m.hub.Statistics()
	m.ports = m.hub.Ports()
	m.voltage, m.hasVolt = m.hub.Voltage()
	m.current, m.hasCurr = m.hub.Current()
	m.battery, m.hasBatt = m.hub.Battery()
	m.lastTick = time.Now()
}

func (m statsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "a":
			m.showAll = !m.showAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case hubEventBatchMsg:
		for _, ev := range msg.events {
			if m.showAll || isPortChange(ev.event) {
				m.addLogEntry(ev.at, lpf2.FormatEvent(ev.event), false)
			}
		}

	case connectionLostMsg:
		m.disconnected = true
		m.addLogEntry(time.Now(), fmt.Sprintf("Connection lost: %v", msg.err), true)
	}

	return m, nil
}

func (m *statsModel) addLogEntry(at time.Time, message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: at,
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m statsModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("HUBCTL - STATISTICS"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | %s | Mode: %s | 'a' toggles events, 'q' quits",
		m.hub.Profile().Name, m.connInfo, func() string {
			if m.showAll {
				return "All events"
			}
			return "Port changes only"
		}())))
	s.WriteString("\n\n")

	if m.disconnected {
		s.WriteString(errorStyle.Render("✗ Disconnected"))
	} else {
		s.WriteString(valueStyle.Render("✓ Connected"))
		s.WriteString(headerStyle.Render(" for " + formatElapsed(m.lastTick.Sub(m.stats.StartTime))))
	}
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(m.renderStats()))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Ports:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(renderPorts(m.ports)))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Reserve space for header, stats and ports
	logHeight := m.height - 18 - len(m.ports)
	if logHeight < 5 {
		logHeight = 5
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(renderEventLog(m.eventLog, logHeight)))

	return s.String()
}

func (m statsModel) renderStats() string {
	st := m.stats
	dropped := st.UnknownTypes + st.UnknownPorts

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", st.TotalFrames)),
		labelStyle.Render("Bytes:"), valueStyle.Render(fmt.Sprintf("%d", st.TotalBytes)),
		labelStyle.Render("Events:"), valueStyle.Render(fmt.Sprintf("%d", st.Events)),
	))

	if dropped > 0 || st.EmptyReadings > 0 {
		b.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d)   %s %s\n",
			labelStyle.Render("Dropped:"), warningStyle.Render(fmt.Sprintf("%d", dropped)),
			headerStyle.Render("unknown type"), st.UnknownTypes,
			headerStyle.Render("unknown port"), st.UnknownPorts,
			labelStyle.Render("Empty:"), warningStyle.Render(fmt.Sprintf("%d", st.EmptyReadings)),
		))
	}

	writeErrors := valueStyle.Render("0")
	if st.WriteErrors > 0 {
		writeErrors = errorStyle.Render(fmt.Sprintf("%d", st.WriteErrors))
	}
	b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Sent:"), valueStyle.Render(fmt.Sprintf("%d", st.FramesSent)),
		labelStyle.Render("Write Errors:"), writeErrors,
	))

	b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Frame Rate:"), valueStyle.Render(fmt.Sprintf("%.1f frames/s", st.FrameRate)),
		labelStyle.Render("Event Rate:"), valueStyle.Render(fmt.Sprintf("%.1f events/s", st.EventRate)),
	))

	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("Voltage:"), valueStyle.Render(orDash(m.hasVolt, fmt.Sprintf("%d%%", m.voltage))),
		labelStyle.Render("Current:"), valueStyle.Render(orDash(m.hasCurr, fmt.Sprintf("%.3f", m.current))),
		labelStyle.Render("Battery:"), valueStyle.Render(orDash(m.hasBatt, fmt.Sprintf("%d%%", m.battery))),
	))
	return b.String()
}

// renderPorts draws one line per configured port
func renderPorts(ports []lpf2.PortState) string {
	if len(ports) == 0 {
		return headerStyle.Render("(no ports)")
	}

	lines := make([]string, 0, len(ports))
	for _, p := range ports {
		device := headerStyle.Render("-")
		if p.Connected {
			device = valueStyle.Render(p.Device.String())
		}
		state := ""
		switch {
		case p.Timed:
			state = warningStyle.Render(" timed")
		case p.Busy:
			state = warningStyle.Render(" busy")
		}
		lines = append(lines, fmt.Sprintf("%s %s %s%s",
			labelStyle.Render(fmt.Sprintf("%-12s", p.Name)),
			headerStyle.Render(fmt.Sprintf("0x%02X", p.Index)),
			device, state,
		))
	}
	return strings.Join(lines, "\n")
}

// renderEventLog draws the newest entries that fit in height lines
func renderEventLog(log []eventLogEntry, height int) string {
	if len(log) == 0 {
		return headerStyle.Render("  (no events yet)")
	}

	startIdx := len(log) - height
	if startIdx < 0 {
		startIdx = 0
	}

	var b strings.Builder
	for i := startIdx; i < len(log); i++ {
		entry := log[i]
		timestamp := entry.timestamp.Format("15:04:05.000")
		if entry.isError {
			b.WriteString(fmt.Sprintf("%s %s\n",
				headerStyle.Render(timestamp),
				errorStyle.Render("✗ "+entry.message),
			))
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n",
				headerStyle.Render(timestamp),
				warningStyle.Render("ℹ "+entry.message),
			))
		}
	}
	return b.String()
}

func orDash(ok bool, s string) string {
	if !ok {
		return "-"
	}
	return s
}
