// Package app drives one commitgpt run from staged diff to commit.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/commitgpt/commitgpt/internal/pkg/ai"
	"github.com/commitgpt/commitgpt/internal/pkg/credential"
	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
	"github.com/commitgpt/commitgpt/internal/pkg/git"
	"github.com/commitgpt/commitgpt/internal/pkg/history"
	"github.com/commitgpt/commitgpt/internal/pkg/message"
	"github.com/commitgpt/commitgpt/internal/pkg/processor"
	"github.com/commitgpt/commitgpt/internal/pkg/ui"
)

// MaxConsecutiveAuthFailures is how many rejected requests in a row end the run.
const MaxConsecutiveAuthFailures = 2

const (
	// ExpiredKeyMessage is shown when a request is rejected for authentication.
	ExpiredKeyMessage = "Looks like your session token has expired"
	// CommittedMessage follows a successful commit.
	CommittedMessage = "Committed."
)

// State is a step of the interaction loop.
type State int

const (
	StateAwaitingCredential State = iota
	StateRequesting
	StatePresenting
	StateCommitting
	StateDone
	StateFailed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateAwaitingCredential:
		return "AwaitingCredential"
	case StateRequesting:
		return "Requesting"
	case StatePresenting:
		return "Presenting"
	case StateCommitting:
		return "Committing"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ClientFactory builds a completion client for a key.
type ClientFactory func(apiKey string) (ai.Client, error)

// Options are the per-run settings from flags and config.
type Options struct {
	Style        string
	CustomPrompt string
	Conventional bool
	DryRun       bool
	// Provider and Model are recorded in history.
	Provider string
	Model    string
}

// Deps are the collaborators of a Session.
type Deps struct {
	Git       git.Client
	Processor processor.Processor
	Store     credential.Store
	NewClient ClientFactory
	UI        ui.Manager
	History   history.Manager
}

// Session runs the interaction loop once. It is not safe for concurrent use.
type Session struct {
	deps Deps
	opts Options

	state        State
	err          error
	diff         *processor.Result
	client       ai.Client
	continuation bool
	authFailures int
	requests     int
	candidates   []ai.Candidate
	picked       ai.Candidate
}

// NewSession creates a Session. A nil History disables recording.
func NewSession(deps Deps, opts Options) *Session {
	if deps.History == nil {
		deps.History = history.Noop{}
	}
	if deps.Processor == nil {
		deps.Processor = processor.New(nil)
	}
	return &Session{deps: deps, opts: opts, state: StateAwaitingCredential}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Picked returns the candidate chosen in the picker.
func (s *Session) Picked() ai.Candidate {
	return s.picked
}

// Run reads the staged diff and loops until a commit is made or the run fails.
// An empty diff returns a NoChanges error before any credential or network use.
func (s *Session) Run(ctx context.Context) error {
	raw, err := s.deps.Git.StagedDiff(ctx)
	if err != nil {
		return s.fail(err)
	}
	if raw == "" {
		return s.fail(apperrors.NewNoChangesError())
	}
	s.diff = s.deps.Processor.Process(raw)

	for {
		switch s.state {
		case StateAwaitingCredential:
			s.awaitCredential(ctx)
		case StateRequesting:
			s.request(ctx)
		case StatePresenting:
			s.present()
		case StateCommitting:
			s.commit(ctx)
		case StateDone:
			return nil
		case StateFailed:
			return s.err
		}
	}
}

func (s *Session) transition(to State) {
	apperrors.LogTransition(s.state.String(), to.String())
	s.state = to
}

func (s *Session) fail(err error) error {
	s.err = err
	s.transition(StateFailed)
	return err
}

func (s *Session) awaitCredential(ctx context.Context) {
	key, err := s.deps.Store.Get(ctx)
	if err != nil {
		s.fail(err)
		return
	}

	client, err := s.deps.NewClient(key)
	if err != nil {
		s.fail(err)
		return
	}
	s.client = client
	s.transition(StateRequesting)
}

func (s *Session) request(ctx context.Context) {
	prompt := ai.BuildPrompt(ai.PromptOptions{
		Diff:         s.diff.Text,
		Style:        s.opts.Style,
		CustomPrompt: s.opts.CustomPrompt,
		Conventional: s.opts.Conventional,
		Continuation: s.continuation,
	})

	label := fmt.Sprintf("Asking %s for commit messages...", ai.DisplayName(s.client.Name()))
	spinner := s.deps.UI.ShowSpinner(label)
	ctx = apperrors.WithRetryNotify(ctx, func(attempt int, _ error, _ time.Duration) {
		spinner.UpdateText(retryLabel(label, attempt+1))
	})

	spinner.Start()
	answer, err := s.client.GetAnswer(ctx, prompt)
	spinner.Stop()
	s.requests++

	switch {
	case err == nil:
		s.authFailures = 0
		s.candidates = ai.ParseCandidates(answer)
		s.transition(StatePresenting)

	case apperrors.IsAuthError(err):
		s.authFailures++
		if s.authFailures >= MaxConsecutiveAuthFailures {
			s.fail(err)
			return
		}
		s.deps.UI.ShowInfo(ExpiredKeyMessage)
		if err := s.deps.Store.Invalidate(); err != nil {
			s.fail(err)
			return
		}
		s.client = nil
		s.transition(StateAwaitingCredential)

	default:
		s.fail(err)
	}
}

// retryLabel is the spinner text while attempt is pending.
func retryLabel(label string, attempt int) string {
	return fmt.Sprintf("%s retrying (attempt %d)", label, attempt)
}

func (s *Session) present() {
	picked, err := s.deps.UI.PickCandidate(s.candidates)
	if err != nil {
		s.fail(err)
		return
	}

	if picked.Kind == ai.KindMoreIdeas {
		s.continuation = true
		s.transition(StateRequesting)
		return
	}

	s.picked = picked
	s.transition(StateCommitting)
}

func (s *Session) commit(ctx context.Context) {
	entry := &history.Entry{
		Provider:     s.opts.Provider,
		Model:        s.opts.Model,
		Requests:     s.requests,
		FilesChanged: s.diff.TotalFiles,
		DryRun:       s.opts.DryRun,
	}

	if s.picked.Kind == ai.KindWriteOwn {
		entry.Source = history.SourceEditor
		if s.opts.DryRun {
			s.deps.UI.ShowInfo("Dry run: git commit would open your editor.")
		} else if err := s.deps.Git.CommitInteractive(ctx); err != nil {
			s.fail(err)
			return
		}
	} else {
		text := s.picked.Text
		entry.Source = history.SourceSuggestion
		entry.Message = text

		if s.opts.Conventional {
			s.deps.UI.ShowWarnings("Not a conventional commit:", message.Check(text))
		}
		if s.opts.DryRun {
			s.deps.UI.ShowMessage("Commit message (dry run):", text)
		} else if err := s.deps.Git.Commit(ctx, text); err != nil {
			s.fail(err)
			return
		}
	}

	entry.Committed = !s.opts.DryRun
	if entry.Committed {
		s.deps.UI.ShowSuccess(CommittedMessage)
	}
	if err := s.deps.History.Save(entry); err != nil {
		apperrors.Warn("Failed to record history: %v", err)
	}
	s.transition(StateDone)
}
