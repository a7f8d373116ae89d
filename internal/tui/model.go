// Package tui is the terminal front end of the caption wizard. A Screen
// records what the wizard shows; the bubbletea model renders it and turns
// key presses into controller calls.
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/alkime/captions/internal/tui/components/labeledspinner"
	"github.com/alkime/captions/internal/tui/components/levelmeter"
	"github.com/alkime/captions/internal/tui/components/steps"
	"github.com/alkime/captions/internal/tui/style"
	"github.com/alkime/captions/internal/wizard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultToastDuration is how long a toast stays on screen.
const DefaultToastDuration = 3 * time.Second

// Config holds the TUI's behaviour switches.
type Config struct {
	// ConfirmStartOver asks before throwing the session away.
	ConfirmStartOver bool
	ToastDuration    time.Duration
	Recorder         RecorderControls
	// Cancel is called when the user quits.
	Cancel context.CancelFunc
	Logger *slog.Logger
}

type changedMsg struct{}

type toastExpiredMsg struct {
	id uint64
}

type model struct {
	config      Config
	keys        KeyMap
	act         actions
	screen      *Screen
	steps       steps.Model
	loading     labeledspinner.Model
	snap        Snapshot
	lastToastID uint64
	confirming  bool
	// metering is true while a redraw loop for the level meter is scheduled.
	metering bool
}

// New creates the root model. Every wizard.View call on screen ends up on
// the display; ctrl drives the wizard that owns screen.
func New(ctx context.Context, config Config, ctrl Controller, screen *Screen) tea.Model {
	if config.ToastDuration <= 0 {
		config.ToastDuration = DefaultToastDuration
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	act := actions{ctx: ctx, ctrl: ctrl, logger: config.Logger}

	// Order matches wizard.Step so a step index is its position here.
	container := steps.New([]steps.Step{
		steps.NewStep(wizard.StepRecord.String(), newRecordStep(act, config.Recorder)),
		steps.NewStep(wizard.StepGenerate.String(), newPreviewStep(act)),
		steps.NewStep(wizard.StepResult.String(), newResultStep(act)),
		steps.NewStep(wizard.StepAddDetails.String(), newDetailsStep(act, config.Recorder)),
	})

	return &model{
		config:  config,
		keys:    DefaultKeyMap(),
		act:     act,
		screen:  screen,
		steps:   container,
		loading: labeledspinner.New(spinner.Dot, "", "", ""),
		snap:    screen.Snapshot(),
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		m.steps.Init(),
		m.loading.Init(),
		func() tea.Msg { return changedMsg{} },
	)
}

// waitForChange blocks until the screen changes.
func (m *model) waitForChange() tea.Cmd {
	changes := m.screen.Changes()
	return func() tea.Msg {
		<-changes
		return changedMsg{}
	}
}

func (m *model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case changedMsg:
		return m, tea.Batch(m.sync(), m.waitForChange())

	case toastExpiredMsg:
		m.screen.DismissToast(msg.id)
		return m, nil

	case actionDoneMsg:
		m.act.logDone(msg)
		return m, nil

	case levelmeter.TickMsg:
		// The meter reads its levels on every render; the tick only forces one.
		if !isRecording(m.snap) {
			m.metering = false
			return m, nil
		}
		return m, levelmeter.Tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.loading, cmd = m.loading.Update(msg)
		return m, tea.Batch(cmd, m.broadcast(msg))

	case stopwatch.TickMsg, stopwatch.StartStopMsg, stopwatch.ResetMsg:
		return m, m.broadcast(msg)

	case tea.WindowSizeMsg:
		return m, m.broadcast(msg)

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
		// A running request owns the screen until it finishes.
		if m.snap.LoadingVisible {
			return m, nil
		}
	}

	return m, m.delegate(teaMsg)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit(), true
	}

	if m.confirming {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirming = false
			return m.act.startOver(), true
		case key.Matches(msg, m.keys.Decline):
			m.confirming = false
		}
		return nil, true
	}

	// q types into the details input instead of quitting.
	if m.snap.Step != wizard.StepAddDetails && key.Matches(msg, m.keys.Quit) {
		return m.quit(), true
	}

	if m.canStartOver() && key.Matches(msg, startOverBinding()) {
		if m.config.ConfirmStartOver {
			m.confirming = true
			return nil, true
		}
		return m.act.startOver(), true
	}

	return nil, false
}

// canStartOver is true where a start over key is offered: the preview and
// result steps, and the loading overlay.
func (m *model) canStartOver() bool {
	if m.snap.LoadingVisible {
		return true
	}

	return m.snap.Step == wizard.StepGenerate || m.snap.Step == wizard.StepResult
}

func (m *model) quit() tea.Cmd {
	if m.config.Cancel != nil {
		m.config.Cancel()
	}

	return tea.Quit
}

// sync pulls the screen snapshot into every step and switches step if needed.
func (m *model) sync() tea.Cmd {
	m.snap = m.screen.Snapshot()

	cmds := []tea.Cmd{m.delegate(steps.BroadcastMsg{Msg: snapshotMsg{snap: m.snap}})}

	if idx := int(m.snap.Step); idx != m.steps.Current() {
		m.confirming = false
		cmds = append(cmds, m.delegate(steps.ShowMsg{Index: idx}))
	}

	if m.snap.Toast != "" && m.snap.ToastID != m.lastToastID {
		m.lastToastID = m.snap.ToastID
		id := m.snap.ToastID
		cmds = append(cmds, tea.Tick(m.config.ToastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		}))
	}

	if m.snap.LoadingVisible {
		m.loading = m.loading.WithTitle(m.snap.Loading)
	}

	if isRecording(m.snap) && !m.metering {
		m.metering = true
		cmds = append(cmds, levelmeter.Tick())
	}

	return tea.Batch(cmds...)
}

func isRecording(snap Snapshot) bool {
	for _, status := range snap.Status {
		if status == wizard.StatusRecording {
			return true
		}
	}

	return false
}

func (m *model) broadcast(msg tea.Msg) tea.Cmd {
	return m.delegate(steps.BroadcastMsg{Msg: msg})
}

func (m *model) delegate(msg tea.Msg) tea.Cmd {
	updated, cmd := m.steps.Update(msg)
	m.steps = updated.(steps.Model) //nolint:forcetypeassert // steps.Model always returns steps.Model

	return cmd
}

func (m *model) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("📷 Photo Caption Wizard"))
	sb.WriteString("\n\n")

	if m.snap.LoadingVisible {
		sb.WriteString(m.loading.ViewWithHelp(renderKeyHelp(startOverBinding())))
	} else {
		sb.WriteString(m.steps.View())
	}
	sb.WriteString("\n\n")

	if m.confirming {
		sb.WriteString(style.Warning.Render("Start over? This session will be discarded."))
		sb.WriteString(" ")
		sb.WriteString(renderHelpLine(m.keys.Confirm, m.keys.Decline))
		sb.WriteString("\n\n")
	}

	if m.snap.Toast != "" {
		sb.WriteString(style.Toast.Render(m.snap.Toast))
		sb.WriteString("\n\n")
	}

	quit := m.keys.Quit
	quit.SetEnabled(m.snap.Step != wizard.StepAddDetails)
	if quit.Enabled() {
		sb.WriteString(renderKeyHelp(quit, "  "))
	}
	sb.WriteString(renderKeyHelp(m.keys.ForceQuit))

	return sb.String()
}
