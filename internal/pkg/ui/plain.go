package ui

import (
	"fmt"
	"io"

	"github.com/commitgpt/commitgpt/internal/pkg/ai"
	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
)

// NonInteractiveManager serves runs whose stdin is not a terminal, such as
// hooks and scripts. It takes the first suggestion and never prompts.
type NonInteractiveManager struct {
	printer
}

var _ Manager = (*NonInteractiveManager)(nil)

func NewNonInteractiveManager(colorEnabled bool, out io.Writer) *NonInteractiveManager {
	return &NonInteractiveManager{printer: printer{out: out, styles: newStyles(colorEnabled)}}
}

// PickCandidate returns the first real suggestion and echoes it.
func (m *NonInteractiveManager) PickCandidate(candidates []ai.Candidate) (ai.Candidate, error) {
	for _, c := range candidates {
		if c.Kind != ai.KindMessage {
			continue
		}
		fmt.Fprintf(m.out, "%s: %s\n", PickTitle, c.Text)
		return c, nil
	}
	return ai.Candidate{}, apperrors.New(apperrors.ErrAIProviderFailed, "no suggestions to choose from").
		WithSuggestion("Run commitgpt in a terminal to write your own message")
}

// PromptSecret always fails; a key has to come from the environment.
func (m *NonInteractiveManager) PromptSecret(string, func(string) error) (string, error) {
	return "", apperrors.NewInvalidConfigError("an API key is required but stdin is not a terminal").
		WithSuggestion("Set COMMITGPT_PROVIDER_API_KEY")
}

// PromptConfirm answers yes.
func (m *NonInteractiveManager) PromptConfirm(string) (bool, error) { return true, nil }

// ShowSpinner returns a spinner that prints a line on Start and on each
// change of text.
func (m *NonInteractiveManager) ShowSpinner(text string) Spinner {
	return &lineSpinner{out: m.out, text: text}
}

type lineSpinner struct {
	out     io.Writer
	text    string
	started bool
}

func (s *lineSpinner) Start() {
	s.started = true
	fmt.Fprintln(s.out, s.text)
}

func (s *lineSpinner) Stop() { s.started = false }

// UpdateText prints the new text as its own line while the spinner runs.
func (s *lineSpinner) UpdateText(text string) {
	if s.started && text != s.text {
		fmt.Fprintln(s.out, text)
	}
	s.text = text
}
