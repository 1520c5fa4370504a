// Package git runs the two git commands commitgpt needs: reading the staged
// diff and committing it.
package git

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
)

const (
	// GitCommandTimeout bounds every non-interactive git call.
	GitCommandTimeout = 10 * time.Second

	// DiffFailedMessage is reported when the staged diff cannot be read.
	DiffFailedMessage = "Failed to run git diff --cached"
)

// Client is the git surface used by a session.
type Client interface {
	// StagedDiff returns the output of `git diff --cached`, empty when
	// nothing is staged.
	StagedDiff(ctx context.Context) (string, error)
	// Commit records the staged changes with message.
	Commit(ctx context.Context, message string) error
	// CommitInteractive runs a bare `git commit` on the terminal so the
	// user writes the message in their editor.
	CommitInteractive(ctx context.Context) error
}

// DefaultClient shells out to the git binary on PATH.
type DefaultClient struct {
	workDir string // empty means the process's working directory

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

var _ Client = (*DefaultClient)(nil)

// NewClient returns a client for the current directory attached to the
// process's terminal.
func NewClient() *DefaultClient {
	return NewClientWithIO("", os.Stdin, os.Stdout, os.Stderr)
}

// NewClientWithWorkDir returns a terminal-attached client for workDir.
func NewClientWithWorkDir(workDir string) *DefaultClient {
	return NewClientWithIO(workDir, os.Stdin, os.Stdout, os.Stderr)
}

// NewClientWithIO returns a client whose commits read and write the given
// streams. Hooks and git's own summary go there.
func NewClientWithIO(workDir string, stdin io.Reader, stdout, stderr io.Writer) *DefaultClient {
	return &DefaultClient{workDir: workDir, stdin: stdin, stdout: stdout, stderr: stderr}
}

func (c *DefaultClient) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.workDir
	return cmd
}

// attached wires cmd to the client's streams.
func (c *DefaultClient) attached(cmd *exec.Cmd) *exec.Cmd {
	cmd.Stdin, cmd.Stdout, cmd.Stderr = c.stdin, c.stdout, c.stderr
	return cmd
}

// failure turns a failed run into an AppError. A blown deadline is reported
// as a timeout rather than as git's exit status.
func failure(ctx context.Context, err error) *apperrors.AppError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(ctx.Err())
	}

	var stderr string
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr = string(exitErr.Stderr)
	}
	return apperrors.NewGitError(err, stderr)
}

// StagedDiff reads the staged changes as unified diff text.
func (c *DefaultClient) StagedDiff(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	out, err := c.command(ctx, "git", "diff", "--cached").Output()
	if err != nil {
		appErr := failure(ctx, err)
		if appErr.Code == apperrors.ErrGitCommandFailed {
			appErr.Message = DiffFailedMessage
		}
		return "", appErr
	}
	return string(out), nil
}

// EscapeCommitMessage doubles every single quote in message, the form it
// takes inside a single-quoted -m argument.
func EscapeCommitMessage(message string) string {
	return strings.ReplaceAll(message, "'", "''")
}

// commitCommandLine renders the commit for logs.
func commitCommandLine(message string) string {
	return "git commit -m '" + EscapeCommitMessage(message) + "'"
}

// Commit records the staged changes with message. The message goes to git
// as a single argument, so no shell sees it and every byte is kept.
// The caller's deadline is not inherited: the commit gets its own
// GitCommandTimeout however long the user took to pick the message.
func (c *DefaultClient) Commit(ctx context.Context, message string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), GitCommandTimeout)
	defer cancel()

	apperrors.Debug("Running: %s", commitCommandLine(message))

	if err := c.attached(c.command(ctx, "git", "commit", "-m", message)).Run(); err != nil {
		return failure(ctx, err)
	}
	return nil
}

// CommitInteractive waits on the user's editor. Neither its own timeout nor
// the caller's deadline applies; only the user ends the editor session.
func (c *DefaultClient) CommitInteractive(ctx context.Context) error {
	apperrors.Debug("Running: git commit")

	if err := c.attached(c.command(context.WithoutCancel(ctx), "git", "commit")).Run(); err != nil {
		return apperrors.NewGitError(err, "")
	}
	return nil
}
