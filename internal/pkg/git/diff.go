package git

import (
	"path/filepath"
	"strings"
)

// ChangeType is what happened to a file in a diff.
type ChangeType int

const (
	ChangeTypeAdded ChangeType = iota
	ChangeTypeModified
	ChangeTypeDeleted
	ChangeTypeRenamed
)

var changeTypeNames = [...]string{"added", "modified", "deleted", "renamed"}

func (c ChangeType) String() string {
	if c < 0 || int(c) >= len(changeTypeNames) {
		return "unknown"
	}
	return changeTypeNames[c]
}

// DiffChunk is the part of a unified diff that belongs to one file.
type DiffChunk struct {
	FilePath   string
	OldPath    string // set for renames
	ChangeType ChangeType
	Additions  int
	Deletions  int
	IsBinary   bool
	Content    string
}

const fileHeader = "diff --git "

// ParseDiff splits diff into per-file chunks. A new chunk starts at every
// line beginning with "diff --git "; any text before the first one becomes
// a chunk of its own. The chunks' Content joined together equals diff.
func ParseDiff(diff string) []DiffChunk {
	var chunks []DiffChunk

	start := 0
	for pos := 0; pos < len(diff); {
		end := strings.IndexByte(diff[pos:], '\n')
		if end < 0 {
			break
		}
		pos += end + 1
		if strings.HasPrefix(diff[pos:], fileHeader) {
			chunks = append(chunks, parseChunk(diff[start:pos]))
			start = pos
		}
	}
	if start < len(diff) {
		chunks = append(chunks, parseChunk(diff[start:]))
	}
	return chunks
}

// parseChunk reads one file's extended header and counts hunk lines.
func parseChunk(section string) DiffChunk {
	chunk := DiffChunk{Content: section, ChangeType: ChangeTypeModified}

	lines := strings.Split(section, "\n")
	i := 0
	for ; i < len(lines) && !strings.HasPrefix(lines[i], "@@"); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, fileHeader):
			chunk.FilePath = headerPath(line)
		case strings.HasPrefix(line, "new file mode"):
			chunk.ChangeType = ChangeTypeAdded
		case strings.HasPrefix(line, "deleted file mode"):
			chunk.ChangeType = ChangeTypeDeleted
		case strings.HasPrefix(line, "rename from "):
			chunk.OldPath = strings.TrimPrefix(line, "rename from ")
			chunk.ChangeType = ChangeTypeRenamed
		case strings.HasPrefix(line, "rename to "):
			chunk.FilePath = strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, "Binary files"):
			chunk.IsBinary = true
		}
	}

	for _, line := range lines[i:] {
		switch {
		case strings.HasPrefix(line, "+"):
			chunk.Additions++
		case strings.HasPrefix(line, "-"):
			chunk.Deletions++
		}
	}
	return chunk
}

// headerPath returns the b/ side of a "diff --git a/x b/x" line.
func headerPath(line string) string {
	line = strings.TrimPrefix(line, fileHeader)
	if i := strings.LastIndex(line, " b/"); i >= 0 {
		return line[i+len(" b/"):]
	}
	if first, _, _ := strings.Cut(line, " "); strings.HasPrefix(first, "a/") {
		return strings.TrimPrefix(first, "a/")
	}
	return line
}

// MatchesPattern reports whether pattern matches filePath's base name or
// its whole slash-separated path.
func MatchesPattern(filePath, pattern string) bool {
	for _, candidate := range []string{filepath.Base(filePath), filePath} {
		if ok, _ := filepath.Match(pattern, candidate); ok {
			return true
		}
	}
	return false
}
