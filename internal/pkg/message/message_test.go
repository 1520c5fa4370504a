package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want CommitMessage
	}{
		{
			name: "type and subject",
			text: "feat: add new feature",
			want: CommitMessage{Type: "feat", Subject: "add new feature", Conventional: true},
		},
		{
			name: "scope",
			text: "feat(auth): add login functionality",
			want: CommitMessage{Type: "feat", Scope: "auth", Subject: "add login functionality", Conventional: true},
		},
		{
			name: "breaking marker",
			text: "refactor(api)!: drop v1 routes",
			want: CommitMessage{Type: "refactor", Scope: "api", Breaking: true, Subject: "drop v1 routes", Conventional: true},
		},
		{
			name: "no space after colon",
			text: "fix:handle empty diff",
			want: CommitMessage{Type: "fix", Subject: "handle empty diff", Conventional: true},
		},
		{
			name: "uppercase type is lowered",
			text: "FIX: typo",
			want: CommitMessage{Type: "fix", Subject: "typo", Conventional: true},
		},
		{
			name: "plain sentence",
			text: "Update the readme",
			want: CommitMessage{Subject: "Update the readme"},
		},
		{
			name: "body",
			text: "feat: add feature\n\nThis is the body.",
			want: CommitMessage{Type: "feat", Subject: "add feature", Body: "This is the body.", Conventional: true},
		},
		{
			name: "body and footer",
			text: "feat(api): add endpoint\n\nAdded new REST endpoint.\n\nCloses: #123",
			want: CommitMessage{Type: "feat", Scope: "api", Subject: "add endpoint",
				Body: "Added new REST endpoint.", Footer: "Closes: #123", Conventional: true},
		},
		{
			name: "hash trailer",
			text: "fix: race\n\nFirst paragraph.\n\nSecond paragraph.\n\nRefs #42\nReviewed-by: Sam",
			want: CommitMessage{Type: "fix", Subject: "race", Body: "First paragraph.\n\nSecond paragraph.",
				Footer: "Refs #42\nReviewed-by: Sam", Conventional: true},
		},
		{
			name: "breaking footer",
			text: "fix: change api\n\nBREAKING CHANGE: callers must pass ctx",
			want: CommitMessage{Type: "fix", Subject: "change api", Breaking: true,
				Footer: "BREAKING CHANGE: callers must pass ctx", Conventional: true},
		},
		{
			name: "empty",
			text: "   ",
			want: CommitMessage{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}

func TestCommitMessage_Header(t *testing.T) {
	tests := []struct {
		name string
		cm   CommitMessage
		want string
	}{
		{"no type", CommitMessage{Subject: "just text"}, "just text"},
		{"type", CommitMessage{Type: "fix", Subject: "x"}, "fix: x"},
		{"scope", CommitMessage{Type: "feat", Scope: "ui", Subject: "x"}, "feat(ui): x"},
		{"breaking", CommitMessage{Type: "feat", Breaking: true, Subject: "x"}, "feat!: x"},
		{"breaking in footer", CommitMessage{Type: "feat", Breaking: true, Subject: "x", Footer: "BREAKING CHANGE: y"}, "feat: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cm.Header())
		})
	}
}

func TestCommitMessage_Format(t *testing.T) {
	for _, raw := range []string{
		"feat(api): add endpoint\n\nAdded new REST endpoint.\n\nCloses: #123",
		"fix: only a header",
		"chore: bump\n\nBREAKING-CHANGE: drops go1.21",
	} {
		assert.Equal(t, raw, Parse(raw).Format())
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"not conventional", "Add parser", "<type>: "},
		{"unknown type", "feature: add parser", "unknown commit type"},
		{"missing subject", "feat: ", "missing commit subject"},
		{"trailing period", "docs: update readme.", "period"},
		{"too long", "feat: " + strings.Repeat("a", MaxSubjectLength), "exceeds 72 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := Check(tt.text)
			require.Len(t, warnings, 1)
			assert.Contains(t, warnings[0], tt.want)
		})
	}

	assert.Empty(t, Check("feat: add parser"))
	assert.Empty(t, Check("fix(git): escape quotes"))
}

func TestIsValidCommitType(t *testing.T) {
	for _, ct := range ValidCommitTypes {
		assert.True(t, IsValidCommitType(ct), ct)
	}
	for _, ct := range []string{"", "feature", "FEAT", "bugfix"} {
		assert.False(t, IsValidCommitType(ct), ct)
	}
}
