// Package credential loads, verifies, and persists the completion service API key.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
	"github.com/commitgpt/commitgpt/internal/pkg/security"
)

const (
	// KeyInstructions is printed before the key prompt.
	KeyInstructions = "Follow instructions here to get your OpenAI API key: https://platform.openai.com/account/api-keys"

	// KeyPromptTitle is the title of the masked key input.
	KeyPromptTitle = "Paste your API key here:"

	// InvalidKeyMessage is printed after a key fails authorization.
	InvalidKeyMessage = "Invalid token. Please try again."
)

// Store hands out the API key for the session.
type Store interface {
	// Get returns a key that has passed authorization, prompting if needed.
	Get(ctx context.Context) (string, error)
	// Invalidate forgets the current key so the next Get prompts again.
	Invalidate() error
}

// Prompter reads a secret from the user. An abort returns a UserCancelled error.
type Prompter interface {
	PromptSecret(title string, validate func(string) error) (string, error)
}

// Authorizer checks a key against the service.
type Authorizer func(ctx context.Context, apiKey string) error

// fileContents is the on-disk layout of the credential file.
type fileContents struct {
	APIKey string `json:"APIKey,omitempty"`
}

// FileStore keeps the key in a JSON file in the user's home directory.
type FileStore struct {
	path      string
	provider  string
	preset    string
	prompter  Prompter
	authorize Authorizer
	out       io.Writer

	current string
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithPresetKey supplies a key from configuration or the environment.
// A preset key is tried first and is never written to the file.
func WithPresetKey(key string) Option {
	return func(s *FileStore) {
		s.preset = strings.TrimSpace(key)
	}
}

// WithOutput sets where progress and failure messages are printed.
func WithOutput(w io.Writer) Option {
	return func(s *FileStore) {
		s.out = w
	}
}

// NewFileStore creates a FileStore for the given provider.
func NewFileStore(path, provider string, prompter Prompter, authorize Authorizer, opts ...Option) *FileStore {
	s := &FileStore{
		path:      path,
		provider:  provider,
		prompter:  prompter,
		authorize: authorize,
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the credential file location.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the verified key. The preset key is tried first, then the
// file, then the user is prompted until a key passes authorization.
func (s *FileStore) Get(ctx context.Context) (string, error) {
	if s.current != "" {
		return s.current, nil
	}

	if s.preset != "" {
		if err := s.check(ctx, s.preset); err == nil {
			s.current = s.preset
			return s.current, nil
		} else if !apperrors.IsAuthError(err) {
			return "", err
		}
		s.preset = ""
	}

	stored, err := s.read()
	if err != nil {
		return "", err
	}

	key := stored.APIKey
	for {
		if key == "" {
			if key, err = s.prompt(); err != nil {
				return "", err
			}
		}

		err := s.check(ctx, key)
		if err == nil {
			break
		}
		if !apperrors.IsAuthError(err) {
			return "", err
		}
		fmt.Fprintln(s.out, security.SanitizeForLogging(err.Error()))
		fmt.Fprintln(s.out, InvalidKeyMessage)
		key = ""
	}

	if err := s.write(fileContents{APIKey: key}); err != nil {
		return "", err
	}
	s.current = key
	apperrors.Debug("Using API key %s", security.MaskAPIKey(key))
	return key, nil
}

// Invalidate drops the in-memory key and removes it from the file.
func (s *FileStore) Invalidate() error {
	s.current = ""
	s.preset = ""

	stored, err := s.read()
	if err != nil {
		return err
	}
	if stored.APIKey == "" {
		return nil
	}
	stored.APIKey = ""
	return s.write(stored)
}

func (s *FileStore) check(ctx context.Context, key string) error {
	if s.authorize == nil {
		return nil
	}
	fmt.Fprintln(s.out, "Testing auth...")
	return s.authorize(ctx, key)
}

func (s *FileStore) prompt() (string, error) {
	if s.prompter == nil {
		return "", apperrors.NewInvalidConfigError("no API key configured").
			WithSuggestion("Set COMMITGPT_PROVIDER_API_KEY or run commitgpt in a terminal")
	}

	fmt.Fprintln(s.out, KeyInstructions)
	key, err := s.prompter.PromptSecret(KeyPromptTitle, func(input string) error {
		return security.ValidateAPIKeyFormat(s.provider, input)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

func (s *FileStore) read() (fileContents, error) {
	var contents fileContents

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return contents, nil
	}
	if err != nil {
		return contents, apperrors.NewFileSystemError(err, "failed to read credential file")
	}

	if err := json.Unmarshal(data, &contents); err != nil {
		return contents, apperrors.NewFileSystemError(err, fmt.Sprintf("credential file %s is not valid JSON", s.path))
	}
	return contents, nil
}

func (s *FileStore) write(contents fileContents) error {
	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return apperrors.NewFileSystemError(err, "failed to encode credential file")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return apperrors.NewFileSystemError(err, "failed to create credential directory")
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return apperrors.NewFileSystemError(err, "failed to write credential file")
	}
	return nil
}

// None is the Store for providers that need no key.
type None struct{}

// Get always returns an empty key.
func (None) Get(context.Context) (string, error) { return "", nil }

// Invalidate does nothing.
func (None) Invalidate() error { return nil }
