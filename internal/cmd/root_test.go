package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
	"github.com/commitgpt/commitgpt/internal/pkg/git"
	"github.com/commitgpt/commitgpt/internal/pkg/history"
	"github.com/commitgpt/commitgpt/internal/pkg/ui"
)

const stagedDiff = "diff --git a/parser.go b/parser.go\n--- a/parser.go\n+++ b/parser.go\n@@ -1 +1,2 @@\n package parser\n+func Parse() {}\n"

// testAPIKey passes the OpenAI key format check.
const testAPIKey = "sk-abcdefghijklmnopqrstuvwx1234"

// fakeGit records commits instead of running git.
type fakeGit struct {
	diff        string
	diffCalls   int
	committed   []string
	interactive int
}

func (g *fakeGit) StagedDiff(context.Context) (string, error) {
	g.diffCalls++
	return g.diff, nil
}

func (g *fakeGit) Commit(_ context.Context, message string) error {
	g.committed = append(g.committed, message)
	return nil
}

func (g *fakeGit) CommitInteractive(context.Context) error {
	g.interactive++
	return nil
}

// decliningUI answers no to every confirmation.
type decliningUI struct {
	*ui.NonInteractiveManager
}

func (decliningUI) PromptConfirm(string) (bool, error) {
	return false, nil
}

// testEnv isolates a command run: HOME, config file, git and UI.
type testEnv struct {
	home       string
	configPath string
	git        *fakeGit
	out        *bytes.Buffer
	ui         func(out io.Writer) ui.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"COMMITGPT_PROVIDER_NAME",
		"COMMITGPT_PROVIDER_API_KEY",
		"COMMITGPT_PROVIDER_MODEL",
		"COMMITGPT_PROVIDER_ENDPOINT",
		"COMMITGPT_COMMIT_CONVENTIONAL",
		"COMMITGPT_COMMIT_STYLE",
		"COMMITGPT_SECURITY_WARNING_ACKNOWLEDGED",
	} {
		t.Setenv(key, "")
	}

	env := &testEnv{
		home:       home,
		configPath: filepath.Join(home, ".commitgpt", "config.yaml"),
		git:        &fakeGit{diff: stagedDiff},
		out:        &bytes.Buffer{},
		ui: func(out io.Writer) ui.Manager {
			return ui.NewNonInteractiveManager(false, out)
		},
	}

	origGit, origUI := newGitClient, newUIManager
	t.Cleanup(func() {
		newGitClient, newUIManager = origGit, origUI
	})
	newGitClient = func() git.Client { return env.git }
	newUIManager = func(_ bool, out io.Writer) ui.Manager { return env.ui(out) }

	return env
}

func (e *testEnv) run(args ...string) error {
	root := NewRootCmd("test", "abc123", "today")
	root.SetOut(e.out)
	root.SetErr(e.out)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	return root.Execute()
}

func (e *testEnv) history(t *testing.T) []*history.Entry {
	t.Helper()
	entries, err := history.NewFileManager(filepath.Join(e.home, ".commitgpt", "history.json"), 0).List(0)
	require.NoError(t, err)
	return entries
}

// newOllamaServer answers every chat request with answer and records the prompts.
func newOllamaServer(t *testing.T, answer string) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, m := range req.Messages {
			prompts = append(prompts, m.Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":      req.Model,
			"created_at": "2024-01-01T00:00:00Z",
			"message":    map[string]string{"role": "assistant", "content": answer},
			"done":       true,
		})
	}))
	t.Cleanup(server.Close)
	return server, &prompts
}

func TestRoot_BlankPromptFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"blank style", []string{"-s", "   "}, "Invalid prompt: --style must not be blank"},
		{"empty style", []string{"--style="}, "Invalid prompt: --style must not be blank"},
		{"blank prompt", []string{"--prompt", "\t"}, "Invalid prompt: --prompt must not be blank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			err := env.run(tt.args...)

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))
			assert.Equal(t, 1, apperrors.GetExitCode(err))
			assert.Equal(t, tt.want, apperrors.FormatError(err))
			assert.Zero(t, env.git.diffCalls)
		})
	}
}

func TestRoot_FlagParseError(t *testing.T) {
	env := newTestEnv(t)

	err := env.run("--no-such-flag")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))
	assert.True(t, strings.HasPrefix(apperrors.FormatError(err), "Invalid prompt: "))
	assert.Zero(t, env.git.diffCalls)
}

func TestRoot_NoStagedChanges(t *testing.T) {
	env := newTestEnv(t)
	env.git.diff = ""

	err := env.run()

	require.Error(t, err)
	assert.True(t, apperrors.IsNoChanges(err))
	assert.Equal(t, 0, apperrors.GetExitCode(err))
	assert.Equal(t, "No changes to commit.", apperrors.FormatError(err))
	assert.NotContains(t, env.out.String(), "Before you continue")
	assert.NoFileExists(t, filepath.Join(env.home, ".commit-gpt.json"))
}

func TestRoot_OllamaDryRun(t *testing.T) {
	env := newTestEnv(t)
	server, prompts := newOllamaServer(t, "1. feat: add parser\n2. chore: tidy")
	t.Setenv("COMMITGPT_PROVIDER_NAME", "ollama")
	t.Setenv("COMMITGPT_PROVIDER_ENDPOINT", server.URL)

	require.NoError(t, env.run("--dry-run", "-c"))

	assert.Empty(t, env.git.committed)
	assert.Contains(t, env.out.String(), "Commit message (dry run):")
	assert.Contains(t, env.out.String(), "feat: add parser")

	require.Len(t, *prompts, 1)
	assert.Contains(t, (*prompts)[0], "Use following conventional commit (<type>: <subject>).")
	assert.Contains(t, (*prompts)[0], "+func Parse() {}")

	entries := env.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "feat: add parser", entries[0].Message)
	assert.True(t, entries[0].DryRun)
	assert.False(t, entries[0].Committed)
	assert.Equal(t, "ollama", entries[0].Provider)
}

func TestRoot_ProviderAndModelFlags(t *testing.T) {
	env := newTestEnv(t)

	var model string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		model = req.Model
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":   req.Model,
			"message": map[string]string{"role": "assistant", "content": "- fix: handle empty input"},
			"done":    true,
		})
	}))
	defer server.Close()
	t.Setenv("COMMITGPT_PROVIDER_ENDPOINT", server.URL)

	require.NoError(t, env.run("--provider", "ollama", "--model", "llama3", "-s", "a pirate"))

	assert.Equal(t, "llama3", model)
	assert.Equal(t, []string{"fix: handle empty input"}, env.git.committed)

	// Flag overrides are never written back.
	assert.NoFileExists(t, env.configPath)
}

func TestRoot_OpenAIWithPresetKey(t *testing.T) {
	env := newTestEnv(t)

	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/models/gpt-3.5-turbo":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "gpt-3.5-turbo", "object": "model", "owned_by": "openai"})
		case "/v1/chat/completions":
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if len(req.Messages) > 0 {
				prompt = req.Messages[0].Content
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":     "chatcmpl-1",
				"object": "chat.completion",
				"choices": []map[string]interface{}{
					{"index": 0, "message": map[string]string{"role": "assistant", "content": "1. \"docs: describe parser\""}, "finish_reason": "stop"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	t.Setenv("COMMITGPT_PROVIDER_API_KEY", testAPIKey)
	t.Setenv("COMMITGPT_PROVIDER_ENDPOINT", server.URL+"/v1")

	require.NoError(t, env.run("-p", "Write one message in French"))

	out := env.out.String()
	assert.Contains(t, out, "Before you continue")
	assert.Contains(t, out, "Testing auth...")
	assert.Equal(t, []string{"docs: describe parser"}, env.git.committed)
	assert.True(t, strings.HasPrefix(prompt, "Write one message in French"))

	// The preset key is not copied into the credential file.
	assert.NoFileExists(t, filepath.Join(env.home, ".commit-gpt.json"))

	// The notice is remembered without leaking the key into the config file.
	data, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "warning_acknowledged: true")
	assert.NotContains(t, string(data), testAPIKey)
}

func TestRoot_SecurityNoticeDeclined(t *testing.T) {
	env := newTestEnv(t)
	env.ui = func(out io.Writer) ui.Manager {
		return decliningUI{ui.NewNonInteractiveManager(false, out)}
	}

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer server.Close()
	t.Setenv("COMMITGPT_PROVIDER_API_KEY", testAPIKey)
	t.Setenv("COMMITGPT_PROVIDER_ENDPOINT", server.URL)

	err := env.run()

	require.Error(t, err)
	assert.True(t, apperrors.IsUserCancelled(err))
	assert.Equal(t, "Aborted.", apperrors.FormatError(err))
	assert.Zero(t, atomic.LoadInt32(&requests))
	assert.Empty(t, env.git.committed)
	assert.NoFileExists(t, env.configPath)
}

func TestRoot_RejectedKeyWithoutTerminal(t *testing.T) {
	env := newTestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "Incorrect API key provided", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()
	t.Setenv("COMMITGPT_PROVIDER_API_KEY", testAPIKey)
	t.Setenv("COMMITGPT_PROVIDER_ENDPOINT", server.URL)
	t.Setenv("COMMITGPT_SECURITY_WARNING_ACKNOWLEDGED", "true")

	err := env.run()

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidConfig))
	assert.Empty(t, env.git.committed)
}

func TestValidateCommitFlags_UnsetFlagsPass(t *testing.T) {
	root := NewRootCmd("test", "", "")
	require.NoError(t, root.ParseFlags([]string{"-c", "--dry-run"}))

	assert.NoError(t, validateCommitFlags(root, &CommitFlags{}))
}

func TestRoot_Version(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run("--version"))

	assert.Contains(t, env.out.String(), "commitgpt test")
	assert.Contains(t, env.out.String(), "Commit: abc123")
	assert.Zero(t, env.git.diffCalls)
}
