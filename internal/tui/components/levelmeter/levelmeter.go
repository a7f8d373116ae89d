// Package levelmeter draws recent microphone levels as vertical bars.
package levelmeter

import (
	"math"
	"strings"
	"time"

	"github.com/alkime/captions/internal/tui/style"
	"github.com/alkime/captions/pkg/uictl"
	tea "github.com/charmbracelet/bubbletea"
)

// Block characters for partial fills, bottom to top. Index 0 is empty.
const blockChars = " ▁▂▃▄▅▆▇█"

const refreshInterval = 50 * time.Millisecond

// TickMsg triggers a redraw.
type TickMsg struct{}

// Model reads normalized levels (0 to 1, oldest first) from a Levels control
// and renders one column per level. Fewer levels than columns are drawn
// right-aligned so the newest sound is always at the right edge.
type Model struct {
	levels uictl.Levels[float64]
	width  int
	height int
}

// New creates a meter width columns wide and height rows tall.
func New(levels uictl.Levels[float64], width, height int) Model {
	return Model{
		levels: levels,
		width:  max(width, 1),
		height: max(height, 1),
	}
}

// Tick schedules the next redraw at about 20 FPS.
func Tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return Tick()
}

// Update keeps the refresh loop alive.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); ok {
		return m, Tick()
	}

	return m, nil
}

// Width returns the number of columns.
func (m Model) Width() int {
	return m.width
}

// View renders the meter.
func (m Model) View() string {
	if m.levels == nil {
		return m.renderEmpty()
	}

	values := m.levels.Read()
	if len(values) == 0 {
		return m.renderEmpty()
	}

	return m.renderBars(values)
}

func (m Model) renderBars(values []float64) string {
	cols := m.columnLevels(values)
	runes := []rune(blockChars)

	rows := make([]string, m.height)
	for row := range m.height {
		var rowSB strings.Builder
		for _, level := range cols {
			rowSB.WriteRune(runes[m.blockIndexForRow(level, row)])
		}
		rows[row] = style.Progress.Render(rowSB.String())
	}

	return strings.Join(rows, "\n")
}

// columnLevels maps values onto width columns as levels from 0 to height*8.
func (m Model) columnLevels(values []float64) []int {
	if len(values) > m.width {
		values = values[len(values)-m.width:]
	}

	cols := make([]int, m.width)
	offset := m.width - len(values)
	for i, v := range values {
		cols[offset+i] = toLevel(v, m.height*8)
	}

	return cols
}

// blockIndexForRow returns the block for a column level at a row; row 0 is the top.
func (m Model) blockIndexForRow(level, row int) int {
	base := (m.height - 1 - row) * 8

	return min(max(level-base, 0), 8)
}

func (m Model) renderEmpty() string {
	rows := make([]string, m.height)
	for row := range m.height {
		fill := " "
		if row == m.height-1 {
			fill = "▁"
		}
		rows[row] = style.Muted.Render(strings.Repeat(fill, m.width))
	}

	return strings.Join(rows, "\n")
}

// toLevel maps v onto 0..maxLevel. A square root curve keeps quiet speech visible.
func toLevel(v float64, maxLevel int) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}

	v = min(v, 1)

	return min(int(math.Sqrt(v)*float64(maxLevel)), maxLevel)
}
