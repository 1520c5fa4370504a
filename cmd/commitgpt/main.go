// Command commitgpt suggests commit messages for the staged changes and
// commits with the one you pick.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/commitgpt/commitgpt/internal/cmd"
	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
)

// Set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := cmd.NewRootCmd(version, commit, date)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}

	// An empty index is an answer, not a failure.
	out := stderr
	if apperrors.IsNoChanges(err) {
		out = stdout
	}
	format := apperrors.FormatError
	if apperrors.IsVerbose() {
		format = apperrors.FormatErrorVerbose
	}
	fmt.Fprintln(out, format(err))
	return apperrors.GetExitCode(err)
}
