package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/commitgpt/commitgpt/internal/pkg/ai"
	"github.com/commitgpt/commitgpt/internal/pkg/history"
)

// DefaultHistoryLimit is how many entries `commitgpt history` shows.
const DefaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "View past commit messages",
		Long: `Show the messages commitgpt committed or printed with --dry-run,
newest first.

Examples:
  commitgpt history            # last 20 entries
  commitgpt history --limit 5  # last 5 entries
  commitgpt history clear      # forget everything`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !cfg.History.Enabled {
				fmt.Fprintln(out, "History is disabled. Enable it with: commitgpt config set history.enabled true")
				return nil
			}

			entries, err := newHistoryManager(cfg).List(limit)
			if err != nil {
				return err
			}
			printHistory(out, entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultHistoryLimit, "Number of entries to display")
	cmd.AddCommand(newHistoryClearCmd())
	return cmd
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all history entries",
		Long:  "Delete every entry from the history file. This cannot be undone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// Clearing works even with history disabled.
			if err := history.NewFileManager(cfg.History.FilePath, cfg.History.MaxEntries).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared successfully.")
			return nil
		},
	}
}

// printHistory prints entries, stored oldest first, newest first.
func printHistory(out io.Writer, entries []*history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history entries found.")
		return
	}

	fmt.Fprintf(out, "Showing %d most recent entries:\n\n", len(entries))
	now := time.Now()
	for n := 1; n <= len(entries); n++ {
		printHistoryEntry(out, entries[len(entries)-n], n, now)
	}
}

func entryStatus(entry *history.Entry) string {
	switch {
	case entry.DryRun:
		return "dry run"
	case entry.Committed:
		return "committed"
	default:
		return "not committed"
	}
}

func printHistoryEntry(out io.Writer, entry *history.Entry, index int, now time.Time) {
	fmt.Fprintf(out, "[%d] %s, %s (%s)\n", index,
		entry.Timestamp.Format(time.RFC3339),
		humanize.RelTime(entry.Timestamp, now, "ago", "from now"),
		entryStatus(entry))

	if entry.Provider != "" || entry.Model != "" {
		provider := ai.DisplayName(entry.Provider)
		if entry.Model != "" {
			provider += " (" + entry.Model + ")"
		}
		fmt.Fprintf(out, "    Provider: %s\n", provider)
	}
	fmt.Fprintf(out, "    Requests: %d, files changed: %d\n", entry.Requests, entry.FilesChanged)

	if entry.Source == history.SourceEditor {
		fmt.Fprintln(out, "    Message: written in editor")
	} else {
		fmt.Fprintln(out, "    Message:")
		for _, line := range strings.Split(entry.Message, "\n") {
			fmt.Fprintf(out, "      %s\n", line)
		}
	}
	fmt.Fprintln(out)
}
