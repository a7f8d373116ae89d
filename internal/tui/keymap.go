package tui

import (
	"strings"

	"github.com/alkime/captions/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the bindings available on every step.
type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Confirm   key.Binding
	Decline   key.Binding
}

// DefaultKeyMap returns the global key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "yes"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

func startOverBinding() key.Binding {
	return key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "start over"),
	)
}

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	return s + strings.Join(suffix, "")
}

// renderDisabledKeyHelp shows a binding that does nothing right now.
func renderDisabledKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Muted.Render("[" + keyBinding.Help().Key + "] " + keyBinding.Help().Desc)

	return s + strings.Join(suffix, "")
}

func renderHelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			parts = append(parts, renderDisabledKeyHelp(b))
			continue
		}
		parts = append(parts, renderKeyHelp(b))
	}

	return strings.Join(parts, "  ")
}
