// Package cmd contains the CLI command definitions for commitgpt.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
)

// CommitFlags are the flags of the bare commitgpt command.
type CommitFlags struct {
	Conventional bool
	Style        string
	Prompt       string
	DryRun       bool
}

// NewRootCmd creates the root command for the commitgpt CLI.
func NewRootCmd(version, commitHash, date string) *cobra.Command {
	flags := &CommitFlags{}

	root := &cobra.Command{
		Use:   "commitgpt",
		Short: "Suggest commit messages for your staged changes",
		Long: `commitgpt sends your staged diff to a completion service (OpenAI,
DeepSeek or a local Ollama model), lets you pick one of the suggested
commit messages, and commits with it.

Examples:
  commitgpt                          # Pick a message and commit
  commitgpt -c                       # Ask for Conventional Commits
  commitgpt -s "a pirate"            # Suggest messages in a style
  commitgpt -p "Write one haiku"     # Replace the instruction entirely
  commitgpt --dry-run                # Print the chosen message only`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			on, _ := cmd.Flags().GetBool("verbose")
			apperrors.SetVerbose(on)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateCommitFlags(cmd, flags); err != nil {
				return err
			}
			return runCommit(cmd, flags)
		},
	}

	root.SetVersionTemplate(`commitgpt {{.Version}}
Commit: ` + commitHash + `
Built:  ` + date + "\n")

	// Parse failures share the exit path of blank prompt flags.
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperrors.NewInvalidArgumentError(err.Error())
	})

	persistent := root.PersistentFlags()
	persistent.BoolP("verbose", "v", false, "Log each step to stderr")
	persistent.String("config", "", "Config file path (default: ~/.commitgpt/config.yaml)")
	persistent.String("provider", "", "Completion provider to use (openai, deepseek, ollama)")
	persistent.String("model", "", "Model to use")

	root.Flags().BoolVarP(&flags.Conventional, "conventional", "c", false, "Ask for Conventional Commits (<type>: <subject>)")
	root.Flags().StringVarP(&flags.Style, "style", "s", "", "Suggest messages in the given style")
	root.Flags().StringVarP(&flags.Prompt, "prompt", "p", "", "Replace the default instruction with a custom prompt")
	root.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print the chosen message instead of committing")

	root.AddCommand(NewConfigCmd(), NewHistoryCmd(), NewLogoutCmd())

	return root
}

// validateCommitFlags rejects prompt flags that were given but are blank.
func validateCommitFlags(cmd *cobra.Command, flags *CommitFlags) error {
	if cmd.Flags().Changed("style") && strings.TrimSpace(flags.Style) == "" {
		return apperrors.NewInvalidArgumentError("--style must not be blank")
	}
	if cmd.Flags().Changed("prompt") && strings.TrimSpace(flags.Prompt) == "" {
		return apperrors.NewInvalidArgumentError("--prompt must not be blank")
	}
	return nil
}
