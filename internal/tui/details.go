package tui

import (
	"strings"

	"github.com/alkime/captions/internal/tui/style"
	"github.com/alkime/captions/internal/wizard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type detailsKeyMap struct {
	Record key.Binding
	Update key.Binding
	Cancel key.Binding
}

func defaultDetailsKeyMap() detailsKeyMap {
	return detailsKeyMap{
		Record: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "start/stop recording"),
		),
		Update: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "update caption"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back to caption"),
		),
	}
}

// detailsStep is step 4: type or dictate what the caption is missing.
type detailsStep struct {
	keys          detailsKeyMap
	act           actions
	recorder      recorder
	input         textarea.Model
	reminder      []string
	detailsRev    uint64
	updateEnabled bool
}

func newDetailsStep(act actions, controls RecorderControls) *detailsStep {
	ta := textarea.New()
	ta.Placeholder = "Names, places, dates..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(76)
	ta.SetHeight(4)

	return &detailsStep{
		keys:     defaultDetailsKeyMap(),
		act:      act,
		recorder: newRecorder(wizard.TargetAdditional, controls),
		input:    ta,
	}
}

func (d *detailsStep) Init() tea.Cmd {
	return d.input.Focus()
}

func (d *detailsStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case snapshotMsg:
		return d, d.applySnapshot(msg.snap)

	case tea.WindowSizeMsg:
		d.input.SetWidth(max(msg.Width-4, 20))
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, d.keys.Record):
			return d, d.toggle()
		case key.Matches(msg, d.keys.Update):
			return d, d.act.updateCaption()
		case key.Matches(msg, d.keys.Cancel):
			return d, d.act.cancelAddDetails()
		}

		before := d.input.Value()
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(msg)
		if after := d.input.Value(); after != before {
			d.act.ctrl.SetAdditionalDetails(after)
		}
		return d, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	d.recorder, cmd = d.recorder.Update(teaMsg)
	cmds = append(cmds, cmd)

	d.input, cmd = d.input.Update(teaMsg)
	cmds = append(cmds, cmd)

	if d.recorder.limitReached() {
		d.recorder.limitHit = true
		cmds = append(cmds, d.act.stopRecording(wizard.TargetAdditional))
	}

	return d, tea.Batch(cmds...)
}

func (d *detailsStep) applySnapshot(snap Snapshot) tea.Cmd {
	d.reminder = snap.Reminder
	d.updateEnabled = snap.UpdateEnabled

	// Only text the wizard replaced goes into the input; typing is not echoed back.
	if snap.DetailsRev != d.detailsRev {
		d.detailsRev = snap.DetailsRev
		d.input.SetValue(snap.Details)
	}

	var cmd tea.Cmd
	d.recorder, cmd = d.recorder.setStatus(snap.StatusOf(wizard.TargetAdditional))

	return cmd
}

func (d *detailsStep) toggle() tea.Cmd {
	switch {
	case d.recorder.recording():
		return d.act.stopRecording(wizard.TargetAdditional)
	case d.recorder.processing():
		return nil
	default:
		return d.act.startRecording(wizard.TargetAdditional)
	}
}

func (d *detailsStep) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Step 4 · Add details"))
	sb.WriteString("\n\n")

	if len(d.reminder) > 0 {
		sb.WriteString(style.Alert.Render(renderMissing("Still missing", d.reminder)))
		sb.WriteString("\n\n")
	}

	sb.WriteString(d.recorder.View("Type below or press ctrl+r to dictate"))
	sb.WriteString("\n\n")
	sb.WriteString(d.input.View())
	sb.WriteString("\n\n")

	update := d.keys.Update
	update.SetEnabled(d.updateEnabled)
	sb.WriteString(renderHelpLine(d.keys.Record, update, d.keys.Cancel))

	return sb.String()
}
