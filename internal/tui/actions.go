package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alkime/captions/internal/wizard"
	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of the wizard the TUI drives.
type Controller interface {
	StartRecording(ctx context.Context, target wizard.Target) error
	StopRecording(ctx context.Context, target wizard.Target) error
	GenerateCaption(ctx context.Context) error
	UpdateCaption(ctx context.Context) error
	StartOver(ctx context.Context)
	OpenAddDetails() error
	CancelAddDetails(ctx context.Context) error
	SetAdditionalDetails(text string)
	CopyCaption() error
}

var _ Controller = (*wizard.Controller)(nil)

// actionDoneMsg reports a finished controller call. Failures were already
// shown as toasts by the wizard.
type actionDoneMsg struct {
	name string
	err  error
}

type actions struct {
	ctx    context.Context
	ctrl   Controller
	logger *slog.Logger
}

// run calls fn off the update loop; the wizard blocks on network calls.
func (a actions) run(name string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{name: name, err: fn(a.ctx)}
	}
}

func (a actions) startRecording(target wizard.Target) tea.Cmd {
	return a.run("start recording", func(ctx context.Context) error {
		return a.ctrl.StartRecording(ctx, target)
	})
}

func (a actions) stopRecording(target wizard.Target) tea.Cmd {
	return a.run("stop recording", func(ctx context.Context) error {
		return a.ctrl.StopRecording(ctx, target)
	})
}

func (a actions) generateCaption() tea.Cmd {
	return a.run("generate caption", a.ctrl.GenerateCaption)
}

func (a actions) updateCaption() tea.Cmd {
	return a.run("update caption", a.ctrl.UpdateCaption)
}

func (a actions) startOver() tea.Cmd {
	return a.run("start over", func(ctx context.Context) error {
		a.ctrl.StartOver(ctx)
		return nil
	})
}

func (a actions) openAddDetails() tea.Cmd {
	return a.run("add details", func(context.Context) error {
		return a.ctrl.OpenAddDetails()
	})
}

func (a actions) cancelAddDetails() tea.Cmd {
	return a.run("cancel details", a.ctrl.CancelAddDetails)
}

func (a actions) copyCaption() tea.Cmd {
	return a.run("copy caption", func(context.Context) error {
		return a.ctrl.CopyCaption()
	})
}

func (a actions) logDone(msg actionDoneMsg) {
	switch {
	case msg.err == nil:
		a.logger.Debug("action finished", "action", msg.name)
	case errors.Is(msg.err, wizard.ErrStale), errors.Is(msg.err, wizard.ErrBusy):
		a.logger.Debug("action dropped", "action", msg.name, "error", msg.err)
	default:
		a.logger.Warn("action failed", "action", msg.name, "error", msg.err)
	}
}
