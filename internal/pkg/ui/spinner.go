package ui

import (
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type (
	relabelMsg string
	doneMsg    struct{}
)

// spinnerModel draws a dot spinner followed by a label.
type spinnerModel struct {
	dots  spinner.Model
	label string
	done  bool
}

func (m spinnerModel) Init() tea.Cmd { return m.dots.Tick }

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case relabelMsg:
		m.label = string(msg)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.dots, cmd = m.dots.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.dots.View() + " " + m.label
}

// bubbleSpinner runs spinnerModel as its own bubbletea program.
type bubbleSpinner struct {
	mu      sync.Mutex
	out     io.Writer
	model   spinnerModel
	program *tea.Program
}

func newBubbleSpinner(label string, out io.Writer) *bubbleSpinner {
	dots := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
	)
	return &bubbleSpinner{out: out, model: spinnerModel{dots: dots, label: label}}
}

// Start draws in the background. The program is given no input so a
// prompt that follows owns stdin alone.
func (s *bubbleSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program != nil {
		return
	}

	s.program = tea.NewProgram(s.model, tea.WithOutput(s.out), tea.WithInput(nil))
	go func(p *tea.Program) { _, _ = p.Run() }(s.program)
}

// Stop returns once the spinner line has been erased.
func (s *bubbleSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program == nil {
		return
	}

	s.program.Send(doneMsg{})
	s.program.Wait()
	s.program = nil
}

func (s *bubbleSpinner) UpdateText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model.label = text
	if s.program != nil {
		s.program.Send(relabelMsg(text))
	}
}
