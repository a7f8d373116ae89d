// Package steps is a container that shows one of several bubbletea models
// at a time. Unlike a linear pager, the owner jumps straight to any step.
package steps

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ShowMsg switches the container to the step at Index.
type ShowMsg struct {
	Index int
}

// BroadcastMsg delivers Msg to every step, not only the visible one.
type BroadcastMsg struct {
	Msg tea.Msg
}

// ShowCmd returns a command that switches to the step at index.
func ShowCmd(index int) tea.Cmd {
	return func() tea.Msg { return ShowMsg{Index: index} }
}

type Step struct {
	Name string
	mdl  tea.Model
}

func (s Step) Init() tea.Cmd {
	return s.mdl.Init()
}

func (s Step) Update(msg tea.Msg) (Step, tea.Cmd) {
	updatedMdl, cmd := s.mdl.Update(msg)
	s.mdl = updatedMdl
	return s, cmd
}

func (s Step) View() string {
	return s.mdl.View()
}

func NewStep(name string, mdl tea.Model) Step {
	return Step{
		Name: name,
		mdl:  mdl,
	}
}

type Model struct {
	steps []Step
	curr  int
}

func New(steps []Step) Model {
	return Model{
		steps: steps,
		curr:  0,
	}
}

func (m Model) currentStep() Step {
	return m.steps[m.curr]
}

func (m Model) Init() tea.Cmd {
	return m.currentStep().Init()
}

func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case ShowMsg:
		if msg.Index < 0 || msg.Index >= len(m.steps) || msg.Index == m.curr {
			return m, nil
		}
		m.curr = msg.Index
		return m, m.currentStep().Init()

	case BroadcastMsg:
		cmds := make([]tea.Cmd, 0, len(m.steps))
		steps := make([]Step, len(m.steps))
		for i, s := range m.steps {
			var cmd tea.Cmd
			steps[i], cmd = s.Update(msg.Msg)
			cmds = append(cmds, cmd)
		}
		m.steps = steps
		return m, tea.Batch(cmds...)
	}

	st, cmd := m.currentStep().Update(teaMsg)
	steps := make([]Step, len(m.steps))
	copy(steps, m.steps)
	steps[m.curr] = st
	m.steps = steps

	return m, cmd
}

func (m Model) View() string {
	return m.currentStep().View()
}

// Current returns the index of the visible step.
func (m Model) Current() int {
	return m.curr
}

// CurrentName returns the name of the visible step.
func (m Model) CurrentName() string {
	return m.currentStep().Name
}
