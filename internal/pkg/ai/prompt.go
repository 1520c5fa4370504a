package ai

import (
	"strings"
	"text/template"
)

// ConventionalInstruction asks for Conventional Commits formatted suggestions.
const ConventionalInstruction = "Use following conventional commit (<type>: <subject>).\n"

// ListInstruction closes the first request.
const ListInstruction = "Output results as a list, not more than 6 items."

const firstRequestTemplate = `{{if .CustomPrompt}}{{.CustomPrompt}}{{else}}Suggest me a few good commit messages for my commit{{if .Style}} in the style of {{.Style}}{{end}}.
{{end}}{{if .Conventional}}` + ConventionalInstruction + "{{end}}```\n{{.Diff}}\n```\n\n" + ListInstruction

const continuationTemplate = "Suggest a few more commit messages for my changes (without explanations)\n" +
	"{{if .Conventional}}" + ConventionalInstruction + "{{end}}"

var (
	firstRequest = template.Must(template.New("first").Parse(firstRequestTemplate))
	continuation = template.Must(template.New("continuation").Parse(continuationTemplate))
)

// PromptOptions holds the inputs to BuildPrompt.
type PromptOptions struct {
	Diff         string
	Style        string
	CustomPrompt string
	Conventional bool
	// Continuation asks for more suggestions for a diff already sent.
	Continuation bool
}

// BuildPrompt renders the request text. A continuation never repeats the
// diff, the style, or the custom prompt.
func BuildPrompt(opts PromptOptions) string {
	tmpl := firstRequest
	if opts.Continuation {
		tmpl = continuation
	}

	var sb strings.Builder
	// Both templates only reference fields of PromptOptions, so Execute
	// cannot fail when writing to a strings.Builder.
	_ = tmpl.Execute(&sb, opts)
	return sb.String()
}
