package tui

import (
	"strings"

	"github.com/alkime/captions/internal/tui/style"
	"github.com/alkime/captions/internal/wizard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type recordKeyMap struct {
	Toggle key.Binding
}

func defaultRecordKeyMap() recordKeyMap {
	return recordKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "r"),
			key.WithHelp("space", "start/stop recording"),
		),
	}
}

// snapshotMsg carries the latest screen state to every step.
type snapshotMsg struct {
	snap Snapshot
}

// recordStep is step 1: record a spoken description of the photo.
type recordStep struct {
	keys     recordKeyMap
	act      actions
	recorder recorder
}

func newRecordStep(act actions, controls RecorderControls) *recordStep {
	return &recordStep{
		keys:     defaultRecordKeyMap(),
		act:      act,
		recorder: newRecorder(wizard.TargetPrimary, controls),
	}
}

func (r *recordStep) Init() tea.Cmd {
	return nil
}

func (r *recordStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case snapshotMsg:
		var cmd tea.Cmd
		r.recorder, cmd = r.recorder.setStatus(msg.snap.StatusOf(wizard.TargetPrimary))
		return r, cmd

	case tea.KeyMsg:
		if key.Matches(msg, r.keys.Toggle) {
			return r, r.toggle()
		}
		return r, nil
	}

	var cmd tea.Cmd
	r.recorder, cmd = r.recorder.Update(teaMsg)

	if r.recorder.limitReached() {
		r.recorder.limitHit = true
		return r, tea.Batch(cmd, r.act.stopRecording(wizard.TargetPrimary))
	}

	return r, cmd
}

func (r *recordStep) toggle() tea.Cmd {
	switch {
	case r.recorder.recording():
		return r.act.stopRecording(wizard.TargetPrimary)
	case r.recorder.processing():
		return nil
	default:
		return r.act.startRecording(wizard.TargetPrimary)
	}
}

func (r *recordStep) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Step 1 · Describe the photo"))
	sb.WriteString("\n")
	sb.WriteString(style.Subtitle.Render("Say who is in the picture, what is happening, where and when."))
	sb.WriteString("\n\n")
	sb.WriteString(r.recorder.View("Press space to start recording"))
	sb.WriteString("\n\n")

	toggle := r.keys.Toggle
	toggle.SetEnabled(!r.recorder.processing())
	sb.WriteString(renderHelpLine(toggle))

	return sb.String()
}
