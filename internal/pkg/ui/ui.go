// Package ui draws commitgpt's prompts, picker and spinner on the terminal,
// and stands in for them when stdin is not a terminal.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/commitgpt/commitgpt/internal/pkg/ai"
)

// PickTitle heads the suggestion picker.
const PickTitle = "Pick a message"

// Spinner is shown while a completion request is in flight.
type Spinner interface {
	Start()
	Stop()
	UpdateText(text string)
}

// Manager is everything a session asks of the terminal.
type Manager interface {
	// PickCandidate shows the picker. An abort returns a UserCancelled error.
	PickCandidate(candidates []ai.Candidate) (ai.Candidate, error)
	// PromptSecret reads a masked value. An abort returns a UserCancelled error.
	PromptSecret(title string, validate func(string) error) (string, error)
	PromptConfirm(message string) (bool, error)
	ShowSpinner(text string) Spinner
	ShowMessage(title, message string)
	ShowWarnings(title string, warnings []string)
	ShowSuccess(message string)
	ShowInfo(message string)
}

type role int

const (
	roleTitle role = iota
	roleSubject
	roleSuccess
	roleWarning
	roleInfo
)

// palette maps each role to its ANSI 256 color; bold roles are listed in bold.
var (
	palette = map[role]string{
		roleTitle:   "39",
		roleSubject: "220",
		roleSuccess: "42",
		roleWarning: "214",
		roleInfo:    "39",
	}
	bold = map[role]bool{roleTitle: true, roleSubject: true, roleSuccess: true}
)

type styles map[role]lipgloss.Style

func newStyles(colorEnabled bool) styles {
	s := styles{}
	for r, color := range palette {
		st := lipgloss.NewStyle()
		if colorEnabled {
			st = st.Foreground(lipgloss.Color(color)).Bold(bold[r])
		}
		s[r] = st
	}
	return s
}

// printer is the output half shared by both managers.
type printer struct {
	out    io.Writer
	styles styles
}

func (p *printer) line(r role, text string) {
	fmt.Fprintln(p.out, p.styles[r].Render(text))
}

// ShowMessage prints message under an optional title.
func (p *printer) ShowMessage(title, message string) {
	if title != "" {
		p.line(roleTitle, title)
	}
	p.line(roleSubject, message)
}

// ShowWarnings prints a bulleted list under title, or nothing when empty.
func (p *printer) ShowWarnings(title string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	p.line(roleWarning, title)
	for _, w := range warnings {
		p.line(roleWarning, "  - "+w)
	}
}

func (p *printer) ShowSuccess(message string) { p.line(roleSuccess, message) }

func (p *printer) ShowInfo(message string) { p.line(roleInfo, message) }

// IsTerminal reports whether f is a terminal, Cygwin and MSYS ptys included.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
