package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileSection renders a diff section for path with n added lines.
func fileSection(path string, n int) string {
	var sb strings.Builder
	sb.WriteString("diff --git a/" + path + " b/" + path + "\n")
	sb.WriteString("--- a/" + path + "\n+++ b/" + path + "\n")
	sb.WriteString("@@ -1 +1 @@\n")
	sb.WriteString(strings.Repeat("+line\n", n))
	return sb.String()
}

func TestFilter_ExcludesLockFiles(t *testing.T) {
	diff := fileSection("main.go", 2) +
		fileSection("go.sum", 40) +
		fileSection("web/package-lock.json", 300) +
		fileSection("src/app.ts", 1)

	res := New(nil).Process(diff)

	assert.Equal(t, fileSection("main.go", 2)+fileSection("src/app.ts", 1), res.Text)
	assert.Equal(t, []string{"go.sum", "web/package-lock.json"}, res.Excluded)
	assert.Equal(t, 2, res.TotalFiles)
	assert.Equal(t, 3, res.TotalAdditions)
	assert.False(t, res.Fallback)
}

func TestFilter_OnlyLockFilesFallsBack(t *testing.T) {
	diff := fileSection("go.sum", 3) + fileSection("yarn.lock", 2)

	res := New(nil).Process(diff)

	assert.Equal(t, diff, res.Text)
	assert.True(t, res.Fallback)
	assert.Empty(t, res.Excluded)
	assert.Equal(t, 2, res.TotalFiles)
	assert.Equal(t, 5, res.TotalAdditions)
}

func TestFilter_EmptyDiff(t *testing.T) {
	res := New(nil).Process("")

	assert.Empty(t, res.Text)
	assert.False(t, res.Fallback)
	assert.Zero(t, res.TotalFiles)
}

func TestFilter_CustomPatterns(t *testing.T) {
	diff := fileSection("go.sum", 1) + fileSection("ui/__snapshots__/a.snap", 5)

	res := New([]string{"*.snap"}).Process(diff)

	assert.Equal(t, fileSection("go.sum", 1), res.Text)
	require.Len(t, res.Excluded, 1)
	assert.Equal(t, "ui/__snapshots__/a.snap", res.Excluded[0])
}

func TestFilter_EmptyPatternListKeepsEverything(t *testing.T) {
	diff := fileSection("go.sum", 1)

	res := New([]string{}).Process(diff)

	assert.Equal(t, diff, res.Text)
	assert.False(t, res.Fallback)
}
