// Package processor trims the staged diff down to what belongs in a prompt.
package processor

import (
	"strings"

	apperrors "github.com/commitgpt/commitgpt/internal/pkg/errors"
	"github.com/commitgpt/commitgpt/internal/pkg/git"
)

// DefaultExcludePatterns name generated files that say nothing about intent.
var DefaultExcludePatterns = []string{
	"*.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"Cargo.lock",
}

// Result is a diff ready for the prompt, with counts over the files it covers.
type Result struct {
	Text string
	// Excluded holds the paths whose sections were removed.
	Excluded []string
	// Fallback is set when every file was excluded and Text is the raw diff.
	Fallback bool

	TotalFiles     int
	TotalAdditions int
	TotalDeletions int
}

func (r *Result) add(chunk git.DiffChunk) {
	if chunk.FilePath == "" {
		return
	}
	r.TotalFiles++
	r.TotalAdditions += chunk.Additions
	r.TotalDeletions += chunk.Deletions
}

// Processor turns a raw staged diff into prompt text.
type Processor interface {
	Process(diff string) *Result
}

// Filter removes the sections of files that match any of its patterns.
type Filter struct {
	patterns []string
}

var _ Processor = (*Filter)(nil)

// New builds a Filter. A nil slice selects DefaultExcludePatterns; an
// empty one excludes nothing.
func New(patterns []string) *Filter {
	if patterns == nil {
		patterns = DefaultExcludePatterns
	}
	return &Filter{patterns: patterns}
}

// Process keeps the raw diff when filtering would leave nothing to describe.
func (f *Filter) Process(diff string) *Result {
	chunks := git.ParseDiff(diff)

	var (
		res  Result
		text strings.Builder
	)
	for _, chunk := range chunks {
		if chunk.FilePath != "" && f.excludes(chunk.FilePath) {
			res.Excluded = append(res.Excluded, chunk.FilePath)
			continue
		}
		text.WriteString(chunk.Content)
		res.add(chunk)
	}
	res.Text = text.String()

	if strings.TrimSpace(res.Text) == "" && strings.TrimSpace(diff) != "" {
		res = Result{Text: diff, Fallback: true}
		for _, chunk := range chunks {
			res.add(chunk)
		}
		apperrors.Debug("Every staged file matched an exclude pattern; sending the full diff")
	} else if len(res.Excluded) > 0 {
		apperrors.Debug("Excluded from prompt: %s", strings.Join(res.Excluded, ", "))
	}
	apperrors.Debug("Diff: %d files, +%d -%d", res.TotalFiles, res.TotalAdditions, res.TotalDeletions)

	return &res
}

func (f *Filter) excludes(path string) bool {
	for _, pattern := range f.patterns {
		if git.MatchesPattern(path, pattern) {
			return true
		}
	}
	return false
}
