package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/commitgpt/commitgpt/internal/app"
	"github.com/commitgpt/commitgpt/internal/pkg/ai"
	"github.com/commitgpt/commitgpt/internal/pkg/config"
	"github.com/commitgpt/commitgpt/internal/pkg/credential"
	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
	"github.com/commitgpt/commitgpt/internal/pkg/git"
	"github.com/commitgpt/commitgpt/internal/pkg/history"
	"github.com/commitgpt/commitgpt/internal/pkg/processor"
	"github.com/commitgpt/commitgpt/internal/pkg/security"
	"github.com/commitgpt/commitgpt/internal/pkg/ui"
)

// NoticeQuestion is asked after the first-use security notice.
const NoticeQuestion = "Do you understand and wish to continue?"

// Replaced in tests.
var (
	newGitClient = func() git.Client {
		return git.NewClient()
	}
	newUIManager = func(colorEnabled bool, out io.Writer) ui.Manager {
		if ui.IsTerminal(os.Stdin) {
			return ui.NewDefaultManager(colorEnabled)
		}
		return ui.NewNonInteractiveManager(colorEnabled, out)
	}
)

// runCommit executes the default action: suggest, pick, commit. The run
// itself has no deadline; git calls and completion requests carry their own.
func runCommit(cmd *cobra.Command, flags *CommitFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfgMgr, err := newConfigManager(cmd)
	if err != nil {
		return err
	}
	cfg, err := cfgMgr.LoadWithTimeout(ctx)
	if err != nil {
		apperrors.Error("Failed to load config: %v", err)
		return apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to load config")
	}

	opts := commitOptions(cmd, flags, cfg)

	apperrors.Info("Using provider: %s", ai.DisplayName(cfg.Provider.Name))
	if cfg.Provider.Model != "" {
		apperrors.Info("Using model: %s", cfg.Provider.Model)
	}
	if cfg.Provider.APIKey != "" {
		apperrors.Info("API key: %s", security.MaskAPIKey(cfg.Provider.APIKey))
	}
	if opts.DryRun {
		apperrors.Info("Dry-run mode enabled")
	}

	out := cmd.OutOrStdout()
	uiMgr := newUIManager(cfg.UI.ColorEnabled, out)

	session := app.NewSession(app.Deps{
		Git:       newGitClient(),
		Processor: processor.New(cfg.Git.ExcludePatterns),
		Store:     newCredentialStore(cfg, cfgMgr, uiMgr, out),
		NewClient: func(apiKey string) (ai.Client, error) {
			return ai.NewClient(&cfg.Provider, apiKey)
		},
		UI:      uiMgr,
		History: newHistoryManager(cfg),
	}, opts)

	return session.Run(ctx)
}

// commitOptions merges the flags over the commit defaults from config.
func commitOptions(cmd *cobra.Command, flags *CommitFlags, cfg *config.Config) app.Options {
	style := cfg.Commit.Style
	if cmd.Flags().Changed("style") {
		style = flags.Style
	}

	return app.Options{
		Style:        style,
		CustomPrompt: flags.Prompt,
		Conventional: flags.Conventional || cfg.Commit.Conventional,
		DryRun:       flags.DryRun,
		Provider:     cfg.Provider.Name,
		Model:        cfg.Provider.Model,
	}
}

// newCredentialStore returns the key store for the configured provider.
// Keys are authorized by building a client and asking the service.
func newCredentialStore(cfg *config.Config, acknowledger noticeAcknowledger, uiMgr ui.Manager, out io.Writer) credential.Store {
	if !security.RequiresAPIKey(cfg.Provider.Name) {
		return credential.None{}
	}

	authorize := func(ctx context.Context, apiKey string) error {
		client, err := ai.NewClient(&cfg.Provider, apiKey)
		if err != nil {
			return err
		}
		return client.Authorize(ctx)
	}

	store := credential.NewFileStore(cfg.Credential.FilePath, cfg.Provider.Name, uiMgr, authorize,
		credential.WithPresetKey(cfg.Provider.APIKey),
		credential.WithOutput(out),
	)
	if cfg.Security.WarningAcknowledged {
		return store
	}
	return &noticeStore{
		Store: store,
		confirm: func() error {
			return showSecurityWarning(acknowledger, uiMgr, out)
		},
	}
}

// noticeStore shows the first-use security notice before the first key lookup.
type noticeStore struct {
	credential.Store
	confirm func() error
	shown   bool
}

// Get confirms the notice once, then delegates.
func (s *noticeStore) Get(ctx context.Context) (string, error) {
	if !s.shown {
		if err := s.confirm(); err != nil {
			return "", err
		}
		s.shown = true
	}
	return s.Store.Get(ctx)
}

// noticeAcknowledger records that the security notice was accepted.
type noticeAcknowledger interface {
	AcknowledgeSecurityWarning() error
}

// confirmer asks a yes/no question.
type confirmer interface {
	PromptConfirm(message string) (bool, error)
}

// showSecurityWarning displays the first-use security warning and asks for acknowledgment.
func showSecurityWarning(acknowledger noticeAcknowledger, c confirmer, out io.Writer) error {
	fmt.Fprint(out, security.FirstUseWarning)

	ok, err := c.PromptConfirm(NoticeQuestion)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewUserCancelledError()
	}

	if err := acknowledger.AcknowledgeSecurityWarning(); err != nil {
		// The run goes on; the notice will simply be shown again.
		apperrors.Warn("Failed to save security acknowledgment: %v", err)
	}

	fmt.Fprintln(out, security.FirstUseAcknowledgment)
	fmt.Fprintln(out)
	return nil
}

// newHistoryManager returns the history store, or a no-op when disabled.
func newHistoryManager(cfg *config.Config) history.Manager {
	if !cfg.History.Enabled {
		return history.Noop{}
	}
	return history.NewFileManager(cfg.History.FilePath, cfg.History.MaxEntries)
}

// newConfigManager creates the config manager for --config with the
// --provider and --model overrides applied.
func newConfigManager(cmd *cobra.Command) (*config.ViperManager, error) {
	configPath, _ := cmd.Flags().GetString("config")
	providerOverride, _ := cmd.Flags().GetString("provider")
	modelOverride, _ := cmd.Flags().GetString("model")

	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		apperrors.Error("Failed to create config manager: %v", err)
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to create config manager")
	}
	if configPath != "" {
		apperrors.Debug("Using custom config path: %s", configPath)
	}

	// Overrides are not persisted.
	if providerOverride != "" {
		cfgMgr.SetOverride("provider.name", providerOverride)
		apperrors.Debug("Provider overridden via flag: %s", providerOverride)
	}
	if modelOverride != "" {
		cfgMgr.SetOverride("provider.model", modelOverride)
		apperrors.Debug("Model overridden via flag: %s", modelOverride)
	}
	return cfgMgr, nil
}

// loadConfig resolves the configuration for commands that only read it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	mgr, err := newConfigManager(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := mgr.Load()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to load config")
	}
	return cfg, nil
}
