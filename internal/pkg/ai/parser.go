package ai

import (
	"regexp"
	"strings"
)

// Sentinel labels appended after the suggestions.
const (
	WriteOwnLabel  = "[write own message]..."
	MoreIdeasLabel = "[ask for more ideas]..."
)

// Kind distinguishes real suggestions from the two picker actions.
type Kind int

const (
	KindMessage Kind = iota
	KindWriteOwn
	KindMoreIdeas
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindWriteOwn:
		return "write-own"
	case KindMoreIdeas:
		return "more-ideas"
	default:
		return "unknown"
	}
}

// Candidate is one entry of the picker.
type Candidate struct {
	Kind Kind
	Text string
}

// Label returns the text displayed for the candidate.
func (c Candidate) Label() string {
	switch c.Kind {
	case KindWriteOwn:
		return WriteOwnLabel
	case KindMoreIdeas:
		return MoreIdeasLabel
	default:
		return c.Text
	}
}

var (
	listItemRegex      = regexp.MustCompile(`^(\d+\.|-|\*)\s+`)
	leadingQuoteRegex  = regexp.MustCompile("^[`\"']")
	trailingQuoteRegex = regexp.MustCompile("[`\"']$")
	quoteColonRegex    = regexp.MustCompile("[`\"']:")
	colonQuoteRegex    = regexp.MustCompile(":[`\"']")
)

// ParseCandidates keeps the list items of an answer, normalizes them, and
// appends the WriteOwn and MoreIdeas entries. Other lines are dropped.
func ParseCandidates(answer string) []Candidate {
	var candidates []Candidate
	for _, line := range strings.Split(answer, "\n") {
		if !listItemRegex.MatchString(line) {
			continue
		}
		candidates = append(candidates, Candidate{Kind: KindMessage, Text: NormalizeMessage(line)})
	}

	return append(candidates,
		Candidate{Kind: KindWriteOwn, Text: WriteOwnLabel},
		Candidate{Kind: KindMoreIdeas, Text: MoreIdeasLabel},
	)
}

// NormalizeMessage strips the list marker and stray quoting from a list item.
func NormalizeMessage(line string) string {
	line = listItemRegex.ReplaceAllString(line, "")
	line = leadingQuoteRegex.ReplaceAllString(line, "")
	line = trailingQuoteRegex.ReplaceAllString(line, "")
	line = replaceFirst(quoteColonRegex, line, ":")
	line = replaceFirst(colonQuoteRegex, line, ":")
	return strings.ReplaceAll(line, `\n`, "")
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
