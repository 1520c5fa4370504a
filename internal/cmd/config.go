package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
	"github.com/commitgpt/commitgpt/internal/pkg/security"
	"github.com/commitgpt/commitgpt/internal/pkg/ui"
)

// runSetup is replaced in tests.
var runSetup = ui.RunInteractiveSetup

// NewConfigCmd groups the subcommands that read and edit the config file.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage commitgpt configuration",
		Long: `Read and edit ~/.commitgpt/config.yaml.

Every key can also come from the environment: provider.name is read from
COMMITGPT_PROVIDER_NAME, commit.style from COMMITGPT_COMMIT_STYLE and so on.
Environment values are never written back to the file.`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigListCmd(),
		newConfigPathCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file",
		Long: `Write a configuration file holding the defaults. It is created with
mode 0600 since it may hold an API key. --interactive asks for the
provider, model and endpoint instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if interactive {
				return runSetup(mgr, out)
			}
			if err := mgr.Init(); err != nil {
				return apperrors.Wrap(err, apperrors.ErrInvalidConfig, "failed to create config file")
			}

			fmt.Fprintf(out, "Configuration file created at %s\n", mgr.GetConfigPath())
			fmt.Fprintln(out, "Run 'commitgpt config set <key> <value>' to change a setting.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run the setup wizard")
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}

			value, err := mgr.Get(args[0])
			if err != nil {
				return apperrors.Wrap(err, apperrors.ErrInvalidArguments, fmt.Sprintf("unknown key %s", args[0]))
			}
			fmt.Fprintln(cmd.OutOrStdout(), displayValue(args[0], value))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a configuration value",
		Long: `Store value under a dotted key. Lists take a comma-separated value.

  commitgpt config set provider.name deepseek
  commitgpt config set commit.conventional true
  commitgpt config set git.exclude_patterns "*.lock,go.sum,dist/*"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}
			if err := mgr.Set(key, value); err != nil {
				return apperrors.Wrap(err, apperrors.ErrInvalidConfig, fmt.Sprintf("failed to set %s", key))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, displayValue(key, value))
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every configuration value",
		Long:  "Print the resolved settings grouped by section. API keys show only their last four characters.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), "", mgr.List())
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := newConfigManager(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mgr.GetConfigPath())
			return nil
		},
	}
}

func displayValue(key string, value interface{}) string {
	s := fmt.Sprint(value)
	if s != "" && strings.HasSuffix(strings.ToLower(key), "api_key") {
		return security.MaskAPIKey(s)
	}
	return s
}

// printSettings writes nested settings with keys sorted at every level.
func printSettings(out io.Writer, indent string, settings map[string]interface{}) {
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if section, ok := settings[key].(map[string]interface{}); ok {
			fmt.Fprintf(out, "%s%s:\n", indent, key)
			printSettings(out, indent+"  ", section)
			continue
		}
		fmt.Fprintf(out, "%s%s: %s\n", indent, key, displayValue(key, settings[key]))
	}
}
