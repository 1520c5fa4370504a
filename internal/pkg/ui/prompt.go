package ui

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/commitgpt/commitgpt/internal/pkg/ai"
	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
)

// DefaultManager prompts with huh forms and spins with bubbletea.
type DefaultManager struct {
	printer
	accessible bool
}

var _ Manager = (*DefaultManager)(nil)

// NewDefaultManager writes to stdout. ACCESSIBLE in the environment turns
// huh's prompts into plain line-based ones.
func NewDefaultManager(colorEnabled bool) *DefaultManager {
	return &DefaultManager{
		printer:    printer{out: os.Stdout, styles: newStyles(colorEnabled)},
		accessible: os.Getenv("ACCESSIBLE") != "",
	}
}

// PickCandidate lets the user choose one candidate by its label.
func (m *DefaultManager) PickCandidate(candidates []ai.Candidate) (ai.Candidate, error) {
	if len(candidates) == 0 {
		return ai.Candidate{}, apperrors.NewInvalidArgumentError("nothing to pick from")
	}

	var index int
	err := m.ask(huh.NewSelect[int]().
		Title(PickTitle).
		Options(candidateOptions(candidates)...).
		Value(&index))
	if err != nil {
		return ai.Candidate{}, err
	}
	return candidates[index], nil
}

// candidateOptions labels each candidate; the value is its index.
func candidateOptions(candidates []ai.Candidate) []huh.Option[int] {
	options := make([]huh.Option[int], 0, len(candidates))
	for i, c := range candidates {
		options = append(options, huh.NewOption(c.Label(), i))
	}
	return options
}

// PromptSecret reads a value without echoing it.
func (m *DefaultManager) PromptSecret(title string, validate func(string) error) (string, error) {
	var secret string
	input := huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(&secret)
	if validate != nil {
		input = input.Validate(validate)
	}

	if err := m.ask(input); err != nil {
		return "", err
	}
	return secret, nil
}

// PromptConfirm asks a yes/no question with yes preselected.
func (m *DefaultManager) PromptConfirm(message string) (bool, error) {
	answer := true
	if err := m.ask(huh.NewConfirm().Title(message).Affirmative("Yes").Negative("No").Value(&answer)); err != nil {
		return false, err
	}
	return answer, nil
}

func (m *DefaultManager) ask(field huh.Field) error {
	return mapFormError(huh.NewForm(huh.NewGroup(field)).
		WithAccessible(m.accessible).
		WithShowHelp(false).
		Run())
}

// mapFormError reports ctrl-c and esc as a UserCancelled error and any
// other form failure as a terminal error.
func mapFormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted):
		return apperrors.NewUserCancelledError()
	default:
		return apperrors.NewTerminalError(err)
	}
}

// ShowSpinner returns a stopped spinner; Start shows it.
func (m *DefaultManager) ShowSpinner(text string) Spinner {
	return newBubbleSpinner(text, m.out)
}
