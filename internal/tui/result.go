package tui

import (
	"strings"

	"github.com/alkime/captions/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	resultChromeHeight = 14
	minViewportHeight  = 5
)

type resultKeyMap struct {
	Copy       key.Binding
	AddDetails key.Binding
	// StartOver is handled by the root model; it is here for the help line.
	StartOver  key.Binding
}

func defaultResultKeyMap() resultKeyMap {
	return resultKeyMap{
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy caption"),
		),
		AddDetails: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add details"),
		),
		StartOver: startOverBinding(),
	}
}

// resultStep is step 3: the formatted caption and what it is still missing.
type resultStep struct {
	keys     resultKeyMap
	act      actions
	viewport viewport.Model
	caption  string
	missing  []string
	width    int
}

func newResultStep(act actions) *resultStep {
	vp := viewport.New(76, minViewportHeight)
	vp.KeyMap = scrollOnlyKeyMap()

	return &resultStep{
		keys:     defaultResultKeyMap(),
		act:      act,
		viewport: vp,
		width:    80,
	}
}

// scrollOnlyKeyMap keeps the viewport away from letter keys the step uses.
func scrollOnlyKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		Up:       key.NewBinding(key.WithKeys("up")),
		Down:     key.NewBinding(key.WithKeys("down")),
	}
}

func (r *resultStep) Init() tea.Cmd {
	r.viewport.GotoTop()
	return nil
}

func (r *resultStep) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case snapshotMsg:
		if msg.snap.Caption != r.caption {
			r.caption = msg.snap.Caption
			r.refresh()
		}
		r.missing = msg.snap.MissingInfo
		return r, nil

	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.viewport.Width = max(msg.Width-4, 20)
		r.viewport.Height = max(msg.Height-resultChromeHeight, minViewportHeight)
		r.refresh()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, r.keys.Copy):
			return r, r.act.copyCaption()
		case key.Matches(msg, r.keys.AddDetails):
			if len(r.missing) == 0 {
				return r, nil
			}
			return r, r.act.openAddDetails()
		}
	}

	var cmd tea.Cmd
	r.viewport, cmd = r.viewport.Update(teaMsg)

	return r, cmd
}

func (r *resultStep) refresh() {
	r.viewport.SetContent(wrapText(r.caption, r.viewport.Width-2))
}

func (r *resultStep) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Step 3 · Caption"))
	sb.WriteString("\n\n")
	sb.WriteString(style.Viewport.Render(r.viewport.View()))
	sb.WriteString("\n\n")

	// The alert and the add-details action exist only while something is missing.
	addDetails := r.keys.AddDetails
	if len(r.missing) > 0 {
		sb.WriteString(style.Alert.Render(renderMissing("⚠️ Missing information", r.missing)))
		sb.WriteString("\n\n")
	} else {
		addDetails.SetEnabled(false)
	}

	bindings := []key.Binding{r.keys.Copy}
	if addDetails.Enabled() {
		bindings = append(bindings, addDetails)
	}
	bindings = append(bindings, r.keys.StartOver)
	sb.WriteString(renderHelpLine(bindings...))

	return sb.String()
}

func renderMissing(heading string, items []string) string {
	var sb strings.Builder

	sb.WriteString(style.Warning.Render(heading))
	for _, item := range items {
		sb.WriteString("\n")
		sb.WriteString(style.Bullet.Render("• "))
		sb.WriteString(item)
	}

	return sb.String()
}

// wrapText wraps text to width so long lines wrap instead of being cut by the viewport.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	return lipgloss.NewStyle().Width(width).Render(text)
}
