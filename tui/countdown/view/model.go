// Package view is the bubbletea model behind the countdown terminal UI.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	countdown "github.com/d093w1z/countdown/api"
)

var (
	timeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFA12C")).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F11D28"))
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)
)

// snapshotMsg carries one published snapshot into Update.
type snapshotMsg countdown.Snapshot

// CompletedMsg is sent into the program when a run finishes.
type CompletedMsg struct{}

// closedMsg reports that the subscription channel was closed.
type closedMsg struct{}

// Controller is the subset of *countdown.TimerManager the view drives.
type Controller interface {
	Start()
	Pause()
	Resume()
	Toggle()
	Stop()
	Inc() bool
	Dec() bool
	Current() countdown.Snapshot
}

// Model renders a countdown and maps keys onto timer controls.
type Model struct {
	timers      Controller
	updates     <-chan countdown.Snapshot
	snapshot    countdown.Snapshot
	completions int
	keys        KeyMap
	help        help.Model
	progress    progress.Model
	quitting    bool
}

// NewModel builds a model that reads snapshots from updates and sends
// key presses to timers.
func NewModel(timers Controller, updates <-chan countdown.Snapshot) Model {
	return Model{
		timers:   timers,
		updates:  updates,
		snapshot: timers.Current(),
		keys:     DefaultKeyMap,
		help:     help.New(),
		progress: progress.New(progress.WithGradient("#F11D28", "#FFA12C"), progress.WithWidth(30)),
	}
}

func waitForSnapshot(updates <-chan countdown.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (model Model) Init() tea.Cmd {
	return waitForSnapshot(model.updates)
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.WindowSizeMsg:
		width := message.Width - 10
		if width > 60 {
			width = 60
		}
		if width > 10 {
			model.progress.Width = width
		}
		model.help.Width = message.Width
		return model, nil

	case snapshotMsg:
		model.snapshot = countdown.Snapshot(message)
		return model, waitForSnapshot(model.updates)

	case CompletedMsg:
		model.completions++
		return model, nil

	case closedMsg:
		model.quitting = true
		return model, tea.Quit
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		model.quitting = true
		return model, tea.Quit
	case key.Matches(message, model.keys.Toggle):
		model.timers.Toggle()
	case key.Matches(message, model.keys.Start):
		model.timers.Start()
	case key.Matches(message, model.keys.Pause):
		model.timers.Pause()
	case key.Matches(message, model.keys.Resume):
		model.timers.Resume()
	case key.Matches(message, model.keys.Stop):
		model.timers.Stop()
	case key.Matches(message, model.keys.Increase):
		model.timers.Inc()
	case key.Matches(message, model.keys.Decrease):
		model.timers.Dec()
	default:
		return model, nil
	}
	model.snapshot = model.timers.Current()
	return model, nil
}

// Status names the state of the current snapshot.
func (model Model) Status() string {
	switch {
	case model.snapshot.Running:
		return "running"
	case model.snapshot.Remaining < model.snapshot.Total:
		return "paused"
	default:
		return "ready"
	}
}

func (model Model) View() string {
	if model.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(timeStyle.Render(model.snapshot.Display))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(model.Status()))
	if model.completions > 0 {
		b.WriteString("  ")
		b.WriteString(doneStyle.Render(completionLabel(model.completions)))
	}
	b.WriteString("\n\n")
	b.WriteString(model.progress.ViewAs(model.snapshot.Progress()))
	b.WriteString("\n\n")
	b.WriteString(model.help.View(model.keys))

	return frameStyle.Render(b.String())
}

func completionLabel(n int) string {
	if n == 1 {
		return "done"
	}
	return fmt.Sprintf("done ×%d", n)
}
