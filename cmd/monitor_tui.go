// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/hubctl/pkg/lpf2"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusPortList = iota
	focusCommand
)

// portItem is one row of the port list
type portItem struct {
	state   lpf2.PortState
	reading string
}

// Implement list.Item interface
func (p portItem) Title() string {
	if !p.state.Connected {
		return fmt.Sprintf("%-10s -", p.state.Name)
	}
	return fmt.Sprintf("%-10s %s", p.state.Name, p.state.Device)
}

func (p portItem) Description() string {
	switch {
	case !p.state.Connected:
		return "no device"
	case p.state.Timed:
		return "timed command running"
	case p.state.Busy:
		return "awaiting feedback"
	case p.reading != "":
		return p.reading
	}
	return "idle"
}

func (p portItem) FilterValue() string { return p.state.Name }

type monitorModel struct {
	hub      *lpf2.Hub
	connInfo string

	portList     list.Model
	ports        []lpf2.PortState
	readings     map[string]string
	input        textinput.Model
	focusedField int

	stats   lpf2.Statistics
	voltage int
	current float64
	battery uint8
	hasVolt bool
	hasCurr bool
	hasBatt bool

	eventLog       []eventLogEntry
	maxLogEntries  int
	width          int
	height         int
	quitting       bool
	connectionLost bool
}

// Messages
type monitorTickMsg time.Time
type commandDoneMsg struct {
	label string
	err   error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialMonitorModel(hub *lpf2.Hub, connInfo string) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "motor A 50 (type help)"
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.Width = 40

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	portList := list.New([]list.Item{}, delegate, 36, 10)
	portList.Title = "Ports"
	portList.SetShowStatusBar(false)
	portList.SetShowHelp(false)
	portList.SetFilteringEnabled(false)

	m := monitorModel{
		hub:           hub,
		connInfo:      connInfo,
		portList:      portList,
		readings:      make(map[string]string),
		input:         ti,
		focusedField:  focusPortList,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
	m.refresh()
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if m.focusedField == focusPortList {
			var cmd tea.Cmd
			m.portList, cmd = m.portList.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case monitorTickMsg:
		m.refresh()
		return m, monitorTickCmd()

	case hubEventBatchMsg:
		for _, ev := range msg.events {
			m.processEvent(ev)
		}
		m.updatePortList()

	case commandDoneMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s: %v", msg.label, msg.err), true)
		} else {
			m.addLogEntry(msg.label+": done", false)
		}

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry(fmt.Sprintf("Connection lost: %v", msg.err), true)
	}

	return m, nil
}

func (m *monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.focusedField == focusPortList {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		return m.toggleFocus(), nil

	case "esc":
		if m.focusedField == focusCommand {
			m.input.Reset()
			return m.toggleFocus(), nil
		}

	case "enter":
		return m.handleEnter()
	}

	// Pass through to focused component
	var cmd tea.Cmd
	if m.focusedField == focusCommand {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.portList, cmd = m.portList.Update(msg)
	}
	return m, cmd
}

func (m *monitorModel) toggleFocus() *monitorModel {
	if m.focusedField == focusPortList {
		m.focusedField = focusCommand
		m.input.Focus()
	} else {
		m.focusedField = focusPortList
		m.input.Blur()
	}
	return m
}

func (m *monitorModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.focusedField == focusPortList {
		item, ok := m.portList.SelectedItem().(portItem)
		if !ok {
			return m, nil
		}
		m.input.SetValue(fmt.Sprintf("motor %s ", item.state.Name))
		m.input.CursorEnd()
		return m.toggleFocus(), nil
	}

	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	m.input.Reset()

	// Don't allow commands while connection is lost
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return m, nil
	}

	res, err := runConsoleCommand(m.hub, line)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("%s: %v", line, err), true)
		return m, nil
	}
	m.addLogEntry(res.Message, false)
	if res.Done != nil {
		return m, waitForCommand(line, res.Done)
	}
	return m, nil
}

// waitForCommand reports a command's completion back to the model
func waitForCommand(label string, done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{label: label, err: <-done}
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	var s strings.Builder

	// Header
	s.WriteString(titleStyle.Render("HUBCTL MONITOR"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = errorStyle.Render("DISCONNECTED")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %s | Tab=switch Enter=select q=quit",
		m.hub.Profile().Name, connStatus)))
	s.WriteString("\n\n")

	// Port list beside the hub panel
	listBox := boxStyle
	inputBox := boxStyle
	if m.focusedField == focusPortList {
		listBox = focusedBoxStyle
	} else {
		inputBox = focusedBoxStyle
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		listBox.Render(m.portList.View()),
		" ",
		boxStyle.Render(m.renderHubPanel()),
	))
	s.WriteString("\n")

	s.WriteString(inputBox.Width(m.width - 4).Render(m.input.View()))
	s.WriteString("\n")

	s.WriteString(m.renderStatisticsBar())
	s.WriteString("\n")

	// Event log gets whatever height is left
	logHeight := m.height - lipgloss.Height(s.String()) - 3
	if logHeight < 3 {
		logHeight = 3
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(renderEventLog(m.eventLog, logHeight)))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m monitorModel) renderHubPanel() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("HUB"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Voltage:"),
		valueStyle.Render(orDash(m.hasVolt, fmt.Sprintf("%d%%", m.voltage)))))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Current:"),
		valueStyle.Render(orDash(m.hasCurr, fmt.Sprintf("%.3f", m.current)))))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Battery:"),
		valueStyle.Render(orDash(m.hasBatt, fmt.Sprintf("%d%%", m.battery)))))

	connected := 0
	for _, p := range m.ports {
		if p.Connected {
			connected++
		}
	}
	b.WriteString(fmt.Sprintf("%s %s", labelStyle.Render("Devices:"),
		valueStyle.Render(fmt.Sprintf("%d of %d ports", connected, len(m.ports)))))
	return b.String()
}

func (m monitorModel) renderStatisticsBar() string {
	st := m.stats
	writeErrors := valueStyle.Render("0")
	if st.WriteErrors > 0 {
		writeErrors = errorStyle.Render(fmt.Sprintf("%d", st.WriteErrors))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", st.TotalFrames)),
		labelStyle.Render("Dropped:"), valueStyle.Render(fmt.Sprintf("%d", st.UnknownTypes+st.UnknownPorts)),
		labelStyle.Render("Sent:"), valueStyle.Render(fmt.Sprintf("%d", st.FramesSent)),
		labelStyle.Render("Write Errors:"), writeErrors,
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f frames/s", st.FrameRate)),
	)
	return boxStyle.Width(m.width - 4).Render(content)
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

// refresh copies the hub's state into the model
func (m *monitorModel) refresh() {
	m.stats = m.hub.Statistics()
	m.ports = m.hub.Ports()
	m.voltage, m.hasVolt = m.hub.Voltage()
	m.current, m.hasCurr = m.hub.Current()
	m.battery, m.hasBatt = m.hub.Battery()
	m.updatePortList()
}

// processEvent logs port changes and button presses. Sensor readings
// update the port list instead of the log.
func (m *monitorModel) processEvent(msg hubEventMsg) {
	switch ev := msg.event.(type) {
	case lpf2.AttachEvent, lpf2.ButtonEvent:
		m.addLogEntryAt(msg.at, lpf2.FormatEvent(ev), false)
	case lpf2.DetachEvent:
		delete(m.readings, ev.PortName)
		m.addLogEntryAt(msg.at, lpf2.FormatEvent(ev), false)
	case lpf2.VoltageEvent, lpf2.CurrentEvent, lpf2.BatteryEvent:
		// Shown in the hub panel
	default:
		port := ev.Port()
		m.readings[port] = strings.TrimPrefix(lpf2.FormatEvent(ev), port+": ")
	}
}

func (m *monitorModel) updatePortList() {
	items := make([]list.Item, len(m.ports))
	for i, p := range m.ports {
		items[i] = portItem{state: p, reading: m.readings[p.Name]}
	}
	m.portList.SetItems(items)
}

func (m *monitorModel) updateListSize() {
	// Adjust list size based on terminal size
	listHeight := m.height / 2
	if listHeight < 6 {
		listHeight = 6
	}
	m.portList.SetSize(36, listHeight)
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.addLogEntryAt(time.Now(), message, isError)
}

func (m *monitorModel) addLogEntryAt(at time.Time, message string, isError bool) {
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
