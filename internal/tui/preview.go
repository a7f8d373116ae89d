package tui

import (
	"strings"

	"github.com/alkime/captions/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type previewKeyMap struct {
	Generate  key.Binding
	Details   key.Binding
	// StartOver is handled by the root model; it is here for the help line.
	StartOver key.Binding
}

func defaultPreviewKeyMap() previewKeyMap {
	return previewKeyMap{
		Generate: key.NewBinding(
			key.WithKeys("enter", "g"),
			key.WithHelp("enter", "generate caption"),
		),
		Details: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "show/hide full transcription"),
		),
		StartOver: startOverBinding(),
	}
}

// previewStep is step 2: review the transcription before asking for a caption.
type previewStep struct {
	keys     previewKeyMap
	act      actions
	preview  string
	full     string
	expanded bool
	width    int
}

func newPreviewStep(act actions) *previewStep {
	return &previewStep{
		keys:  defaultPreviewKeyMap(),
		act:   act,
		width: 80,
	}
}

// Init collapses the full transcription each time the step is shown.
func (p *previewStep) Init() tea.Cmd {
	p.expanded = false
	return nil
}

func (p *previewStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case snapshotMsg:
		p.preview = msg.snap.Preview
		p.full = msg.snap.FullTranscription

	case tea.WindowSizeMsg:
		p.width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Generate):
			return p, p.act.generateCaption()
		case key.Matches(msg, p.keys.Details):
			p.expanded = !p.expanded
		}
	}

	return p, nil
}

func (p *previewStep) View() string {
	var sb strings.Builder
	textWidth := max(p.width-4, 20)

	sb.WriteString(style.Title.Render("Step 2 · Review the transcription"))
	sb.WriteString("\n\n")
	sb.WriteString(lipgloss.NewStyle().Width(textWidth).Render(p.preview))
	sb.WriteString("\n\n")

	if p.expanded {
		sb.WriteString(style.Label.Render("Full transcription"))
		sb.WriteString("\n")
		sb.WriteString(style.Viewport.Width(textWidth).Render(p.full))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderHelpLine(p.keys.Generate, p.keys.Details, p.keys.StartOver))

	return sb.String()
}
