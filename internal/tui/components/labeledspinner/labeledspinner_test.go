package labeledspinner_test

import (
	"testing"

	"github.com/alkime/captions/internal/tui/components/labeledspinner"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestLabeledSpinner(t *testing.T) {
	m := labeledspinner.New(spinner.Dot, "Transcribing...", "Hang tight", "esc to start over")
	t.Run("initial state", func(t *testing.T) {
		assert.Equal(t, "Transcribing...", m.Title)
		assert.Equal(t, "Hang tight", m.Subtitle)
		assert.Equal(t, "esc to start over", m.Help)
		assert.Equal(t, spinner.Dot, m.Spinner.Spinner)
	})

	v0 := m.View()
	t.Run("view output", func(t *testing.T) {
		assert.Contains(t, v0, "Transcribing...")
		assert.Contains(t, v0, "Hang tight")
		assert.Contains(t, v0, "esc to start over")
		assert.Contains(t, v0, spinner.Dot.Frames[0])
	})

	t.Run("check updates", func(t *testing.T) {
		m, _ = m.Update(spinner.TickMsg{})
		assert.Contains(t, m.View(), spinner.Dot.Frames[1])
		m, _ = m.Update(spinner.TickMsg{})
		assert.Contains(t, m.View(), spinner.Dot.Frames[2])
	})

	t.Run("retitle keeps frame", func(t *testing.T) {
		m2 := m.WithTitle("Generating caption...")
		v := m2.View()
		assert.Contains(t, v, "Generating caption...")
		assert.Contains(t, v, spinner.Dot.Frames[2])
	})
}

func TestLabeledSpinner_OmitsEmptyLines(t *testing.T) {
	m := labeledspinner.New(spinner.Line, "Working", "", "")

	assert.NotContains(t, m.View(), "\n")
}
