package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/commitgpt/commitgpt/internal/pkg/credential"
)

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API key",
		Long: `Remove the API key from the credential file (~/.commit-gpt.json).

The next run asks for a new key. Keys set through COMMITGPT_PROVIDER_API_KEY
or provider.api_key are not touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store := credential.NewFileStore(cfg.Credential.FilePath, cfg.Provider.Name, nil, nil)
			if err := store.Invalidate(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed stored API key from %s\n", store.Path())
			return nil
		},
	}
}
