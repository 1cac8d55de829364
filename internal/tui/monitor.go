// Package tui provides the terminal run monitor for maestro.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/maestro/internal/orchestrator"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// EngineEventMsg wraps one engine event for the monitor.
type EngineEventMsg struct {
	Event orchestrator.Event
}

// RunDoneMsg signals that the run has finished.
type RunDoneMsg struct {
	Summary orchestrator.RunSummary
	Err     error
}

// LogEntry is one line in the monitor's event log.
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// taskRow tracks the display state of one task.
type taskRow struct {
	id     string
	worker string
	status models.TaskStatus
	cached bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Monitor is the bubbletea model for a single engine run.
type Monitor struct {
	spin     spinner.Model
	runID    string
	strategy string
	level    int
	tasks    []*taskRow
	logs     []LogEntry
	done     bool
	summary  orchestrator.RunSummary
	err      error
	quitting bool
}

// NewMonitor creates a run monitor.
func NewMonitor() *Monitor {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &Monitor{spin: s}
}

// Init implements tea.Model.
func (m *Monitor) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model.
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case EngineEventMsg:
		m.handleEvent(msg.Event)

	case RunDoneMsg:
		m.done = true
		m.summary = msg.Summary
		m.err = msg.Err
	}

	return m, nil
}

// View implements tea.Model.
func (m *Monitor) View() string {
	if m.quitting {
		return ""
	}

	var b []byte
	header := titleStyle.Render(fmt.Sprintf("maestro run %s", m.runID))
	if m.strategy != "" {
		header += dimStyle.Render(fmt.Sprintf("  strategy=%s level=%d", m.strategy, m.level))
	}
	b = append(b, header...)
	b = append(b, '\n', '\n')

	for _, row := range m.tasks {
		b = append(b, "  "+m.renderRow(row)+"\n"...)
	}

	b = append(b, '\n')
	for _, entry := range m.recentLogs(10) {
		line := fmt.Sprintf("  %s %s", entry.Timestamp.Format("15:04:05"), entry.Message)
		if entry.Level == "ERROR" {
			line = failStyle.Render(line)
		} else {
			line = dimStyle.Render(line)
		}
		b = append(b, line+"\n"...)
	}

	b = append(b, '\n')
	b = append(b, m.footer()...)
	b = append(b, '\n')
	return string(b)
}

func (m *Monitor) renderRow(row *taskRow) string {
	label := row.id
	if len(label) > 8 {
		label = label[:8]
	}
	suffix := ""
	if row.worker != "" {
		suffix = " via " + row.worker
	}
	if row.cached {
		suffix += " (cached)"
	}

	switch row.status {
	case models.TaskStatusComplete:
		return successStyle.Render("✓ "+label) + dimStyle.Render(suffix)
	case models.TaskStatusFailed:
		return failStyle.Render("✗ "+label) + dimStyle.Render(suffix)
	case models.TaskStatusRunning:
		return m.spin.View() + " " + label + dimStyle.Render(suffix)
	default:
		return dimStyle.Render("· " + label)
	}
}

func (m *Monitor) footer() string {
	if !m.done {
		return dimStyle.Render("q to quit")
	}
	line := fmt.Sprintf("%d tasks, %d ok, %d failed, %d tokens, $%.4f",
		m.summary.TaskCount, m.summary.Successful, m.summary.Failed,
		m.summary.TotalTokens, m.summary.TotalCost)
	if m.err != nil {
		return failStyle.Render("✗ "+line) + dimStyle.Render(" | q to exit")
	}
	return successStyle.Render("✓ "+line) + dimStyle.Render(" | q to exit")
}

// handleEvent folds one engine event into the display state.
func (m *Monitor) handleEvent(ev orchestrator.Event) {
	if m.runID == "" && ev.RunID != "" {
		m.runID = ev.RunID
	}

	switch ev.Type {
	case orchestrator.EventRunStarted:
		m.strategy = ev.Message
	case orchestrator.EventLevelStarted:
		m.level = ev.Level
	case orchestrator.EventTaskStarted:
		row := m.findOrCreateRow(ev.TaskID)
		row.worker = ev.WorkerName
		row.status = models.TaskStatusRunning
	case orchestrator.EventTaskCompleted:
		row := m.findOrCreateRow(ev.TaskID)
		row.worker = ev.WorkerName
		row.status = models.TaskStatusComplete
	case orchestrator.EventTaskFailed:
		row := m.findOrCreateRow(ev.TaskID)
		row.status = models.TaskStatusFailed
		m.log("ERROR", fmt.Sprintf("task %s failed: %s", ev.TaskID, ev.Message))
		return
	case orchestrator.EventCacheHit:
		row := m.findOrCreateRow(ev.TaskID)
		row.cached = true
		row.status = models.TaskStatusComplete
	case orchestrator.EventDependencyMissing:
		row := m.findOrCreateRow(ev.TaskID)
		row.status = models.TaskStatusFailed
	case orchestrator.EventCycleDetected, orchestrator.EventStrategyFallback,
		orchestrator.EventUnresolvedResidual, orchestrator.EventValidationWarning,
		orchestrator.EventRoutingFallback, orchestrator.EventConsensusDecided,
		orchestrator.EventSequentialHalt:
		m.log("INFO", fmt.Sprintf("%s %s", ev.Type, ev.Message))
		return
	}

	if ev.Message != "" {
		m.log("INFO", fmt.Sprintf("%s %s", ev.Type, ev.Message))
	}
}

func (m *Monitor) log(level, message string) {
	m.logs = append(m.logs, LogEntry{Timestamp: time.Now(), Level: level, Message: message})
}

func (m *Monitor) recentLogs(n int) []LogEntry {
	if len(m.logs) <= n {
		return m.logs
	}
	return m.logs[len(m.logs)-n:]
}

func (m *Monitor) findOrCreateRow(id string) *taskRow {
	if id == "" {
		id = "(run)"
	}
	for _, row := range m.tasks {
		if row.id == id {
			return row
		}
	}
	row := &taskRow{id: id, status: models.TaskStatusPending}
	m.tasks = append(m.tasks, row)
	return row
}

// NewProgram creates a bubbletea program around a monitor. Engine events
// are forwarded to the program via Send from the caller's pump goroutine.
func NewProgram() (*tea.Program, *Monitor) {
	m := NewMonitor()
	p := tea.NewProgram(m)
	return p, m
}

// Pump forwards engine events into the program until the channel closes,
// then sends the final RunDoneMsg. Intended to run on its own goroutine.
func Pump(p *tea.Program, events <-chan orchestrator.Event, done <-chan RunDoneMsg) {
	for events != nil || done != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			p.Send(EngineEventMsg{Event: ev})
		case msg, ok := <-done:
			if !ok {
				done = nil
				continue
			}
			p.Send(msg)
		}
	}
}
