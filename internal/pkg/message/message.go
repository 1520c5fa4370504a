// Package message checks a chosen commit message against Conventional Commits.
package message

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidCommitTypes are the types the checker accepts.
var ValidCommitTypes = []string{
	"feat", "fix", "docs", "style", "refactor",
	"test", "chore", "perf", "ci", "build", "revert",
}

// MaxSubjectLength bounds the header line.
const MaxSubjectLength = 72

var (
	// type, optional (scope), optional !, then the subject.
	headerPattern = regexp.MustCompile(`^([a-zA-Z]+)(?:\(([^)]*)\))?(!)?:\s*(.*)$`)
	// "Token: value" or "Token #value"; tokens use - for spaces except BREAKING CHANGE.
	trailerPattern = regexp.MustCompile(`^(BREAKING[ -]CHANGE|[A-Za-z][A-Za-z0-9-]*)(?:: | #)`)
)

// CommitMessage is a message split into its Conventional Commits parts.
type CommitMessage struct {
	Type     string
	Scope    string
	Breaking bool
	Subject  string
	Body     string
	Footer   string

	// Conventional is set when the header has the "<type>: " shape, known
	// type or not.
	Conventional bool
}

// Parse splits text into header, body and footer. The footer is the first
// paragraph after the header that opens with a trailer, and everything
// after it.
func Parse(text string) CommitMessage {
	var cm CommitMessage

	text = strings.TrimSpace(text)
	if text == "" {
		return cm
	}

	header, rest, _ := strings.Cut(text, "\n")
	cm.setHeader(strings.TrimSpace(header))

	paragraphs := strings.Split(strings.TrimSpace(rest), "\n\n")
	split := len(paragraphs)
	for i, p := range paragraphs {
		if trailerPattern.MatchString(strings.TrimSpace(p)) {
			split = i
			break
		}
	}
	cm.Body = strings.TrimSpace(strings.Join(paragraphs[:split], "\n\n"))
	cm.Footer = strings.TrimSpace(strings.Join(paragraphs[split:], "\n\n"))

	if breakingFooter(cm.Footer) {
		cm.Breaking = true
	}
	return cm
}

func (cm *CommitMessage) setHeader(header string) {
	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		cm.Subject = header
		return
	}
	cm.Conventional = true
	cm.Type = strings.ToLower(m[1])
	cm.Scope = m[2]
	cm.Breaking = m[3] == "!"
	cm.Subject = strings.TrimSpace(m[4])
}

func breakingFooter(footer string) bool {
	for _, line := range strings.Split(footer, "\n") {
		if m := trailerPattern.FindStringSubmatch(line); m != nil && strings.HasPrefix(m[1], "BREAKING") {
			return true
		}
	}
	return false
}

// Header renders the first line. A breaking change is marked with "!"
// unless the footer already announces it.
func (cm CommitMessage) Header() string {
	if cm.Type == "" {
		return cm.Subject
	}

	head := cm.Type
	if cm.Scope != "" {
		head += "(" + cm.Scope + ")"
	}
	if cm.Breaking && !breakingFooter(cm.Footer) {
		head += "!"
	}
	return head + ": " + cm.Subject
}

// Format renders the whole message with blank lines between the parts.
func (cm CommitMessage) Format() string {
	out := cm.Header()
	for _, part := range []string{cm.Body, cm.Footer} {
		if part != "" {
			out += "\n\n" + part
		}
	}
	return out
}

// Warnings describes each way the message departs from Conventional
// Commits; nil means it conforms.
func (cm CommitMessage) Warnings() []string {
	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if !cm.Conventional {
		warn("message does not start with \"<type>: \"")
	} else if !IsValidCommitType(cm.Type) {
		warn("unknown commit type %q (valid types: %s)", cm.Type, strings.Join(ValidCommitTypes, ", "))
	}

	switch {
	case cm.Subject == "":
		warn("missing commit subject")
	case strings.HasSuffix(cm.Subject, "."):
		warn("subject should not end with a period")
	}

	if n := len(cm.Header()); n > MaxSubjectLength {
		warn("subject line exceeds %d characters (%d chars)", MaxSubjectLength, n)
	}
	return warnings
}

// Check parses text and returns its warnings.
func Check(text string) []string {
	return Parse(text).Warnings()
}

// IsValidCommitType is case-sensitive; Parse lowercases the type.
func IsValidCommitType(commitType string) bool {
	return slices.Contains(ValidCommitTypes, commitType)
}
