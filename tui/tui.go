// Package tui shows a running batch: overall progress, the clip list and
// pause/cancel controls.
package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/clipcutter/batch"
	"github.com/user/clipcutter/pkg/timeutil"
	"github.com/user/clipcutter/tui/components"
	"github.com/user/clipcutter/tui/layout"
)

const (
	// tickInterval is how often the snapshot is refreshed.
	tickInterval = 200 * time.Millisecond
	// sideBySideWidth is the narrowest terminal that shows the settings box
	// next to the progress box.
	sideBySideWidth = 100
	defaultWidth    = 80
	defaultHeight   = 24
)

// Controller is the part of batch.Orchestrator the view drives.
type Controller interface {
	Snapshot() batch.Snapshot
	Pause()
	Resume()
	Paused() bool
	Cancel()
}

// Options configure the view.
type Options struct {
	Quality string
	// Settings are shown in a side box on wide terminals.
	Settings []string
	// ExitWhenDone quits as soon as the batch stops instead of waiting for q.
	ExitWhenDone bool
}

type tickMsg time.Time

// Model is the Bubbletea model for the batch progress view.
type Model struct {
	ctl  Controller
	opts Options
	snap batch.Snapshot

	width  int
	height int
	// quitRequested is set by q while the batch is still running; the view
	// exits once the cancellation has landed.
	quitRequested bool
	quitting      bool
}

// NewModel creates a model reading from ctl.
func NewModel(ctl Controller, opts Options) *Model {
	return &Model{
		ctl:    ctl,
		opts:   opts,
		snap:   ctl.Snapshot(),
		width:  defaultWidth,
		height: defaultHeight,
	}
}

// Init starts the refresh ticker.
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) stopped() bool {
	return m.snap.State == batch.StateFinished || m.snap.State == batch.StateCancelled
}

// Update handles key presses, resizes and ticks.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		// Refresh and quit once the batch has stopped, if asked to
		m.snap = m.ctl.Snapshot()
		if m.stopped() && (m.quitRequested || m.opts.ExitWhenDone) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "p", " ":
		// Toggle pause
		if m.stopped() {
			return m, nil
		}
		if m.ctl.Paused() {
			m.ctl.Resume()
		} else {
			m.ctl.Pause()
		}
		m.snap = m.ctl.Snapshot()

	case "c":
		if !m.stopped() {
			m.ctl.Cancel()
		}

	case "q", "ctrl+c":
		if m.stopped() {
			m.quitting = true
			return m, tea.Quit
		}
		// Cancel first, quit on the tick that sees it land
		m.ctl.Cancel()
		m.quitRequested = true
	}
	return m, nil
}

func (m *Model) progressState() components.BatchProgressState {
	s := m.snap
	state := components.BatchProgressState{
		Total:     s.Total,
		Completed: s.Completed,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
		Progress:  s.Progress,
		Paused:    s.Paused,
		Finished:  s.State == batch.StateFinished,
		Cancelled: s.State == batch.StateCancelled,
		Elapsed:   timeutil.FormatDuration(s.Elapsed),
		ETA:       timeutil.FormatETA(s.ETA, s.ETAKnown),
	}
	// Show the job being encoded, if any
	if s.Current >= 0 && s.Current < len(s.Jobs) {
		job := s.Jobs[s.Current]
		state.Current = job.Request.Label
		state.CurrentProgress = job.Progress
		state.Attempt = job.Attempts
	}
	return state
}

// View renders the status bar, the progress box, the clip table and the help line.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	status := components.StatusBar(components.StatusBarState{
		RunID:   m.snap.RunID,
		Quality: m.opts.Quality,
		State:   m.snap.State.String(),
		Paused:  m.snap.Paused,
	}, m.width)

	// Settings box goes beside progress on wide terminals
	var top string
	if m.width >= sideBySideWidth && len(m.opts.Settings) > 0 {
		right := 34
		left := m.width - right - 1
		top = layout.SideBySide(
			components.BatchProgress(m.progressState(), left),
			components.RenderInfoBox("Settings", m.opts.Settings, right),
			left, right)
	} else {
		top = components.BatchProgress(m.progressState(), m.width)
	}

	help := components.HelpLine(components.Bindings(m.snap.Paused, m.stopped()), m.width)

	// Rows taken by the status bar, the top box and the help line
	used := 1 + strings.Count(top, "\n") + 1 + 1
	table := components.JobTable(m.snap.Jobs, m.snap.Current, m.width, m.height-used)

	content := strings.Join([]string{status, top, table, help}, "\n")
	return layout.Container{Width: m.width, Height: m.height}.Render(content)
}

// Run shows the view until the batch stops and the user quits.
func Run(ctl Controller, opts Options) error {
	p := tea.NewProgram(NewModel(ctl, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
