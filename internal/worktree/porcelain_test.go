package worktree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParsePorcelain_MainWithoutBranch checks the two-record example where
// the main worktree has no branch line and no blank line separates the
// records. The result must not depend on a trailing blank line.
func TestParsePorcelain_MainWithoutBranch(t *testing.T) {
	const input = "worktree /repo\n" +
		"HEAD abc123\n" +
		"worktree /repo-worktrees/FOO-1\n" +
		"HEAD def456\n" +
		"branch refs/heads/FOO-1"

	for name, raw := range map[string]string{
		"no trailing newline":   input,
		"trailing newline":      input + "\n",
		"trailing blank line":   input + "\n\n",
		"several blank lines":   input + "\n\n\n\n",
		"windows line endings":  "worktree /repo\r\nHEAD abc123\r\nworktree /repo-worktrees/FOO-1\r\nHEAD def456\r\nbranch refs/heads/FOO-1\r\n",
		"leading blank lines":   "\n\n" + input,
		"whitespace-only lines": "worktree /repo\n  \nHEAD abc123\n\t\nworktree /repo-worktrees/FOO-1\nHEAD def456\nbranch refs/heads/FOO-1\n",
	} {
		t.Run(name, func(t *testing.T) {
			entries := ParsePorcelain(raw)
			require.Len(t, entries, 2)

			assert.Equal(t, "/repo", entries[0].Path)
			assert.Equal(t, "", entries[0].Branch)
			assert.Equal(t, "abc123", entries[0].HEAD)

			assert.Equal(t, "/repo-worktrees/FOO-1", entries[1].Path)
			assert.Equal(t, "FOO-1", entries[1].Branch)
			assert.Equal(t, "def456", entries[1].HEAD)
		})
	}
}

// TestParsePorcelain_BlankLineSeparated verifies git's usual output, where
// records are separated by blank lines.
func TestParsePorcelain_BlankLineSeparated(t *testing.T) {
	input := `worktree /path/to/main
HEAD abc123def456
branch refs/heads/main

worktree /path/to/feature
HEAD def789abc012
branch refs/heads/feature

`
	entries := ParsePorcelain(input)
	require.Len(t, entries, 2, "should parse two worktree entries")

	assert.Equal(t, "/path/to/main", entries[0].Path)
	assert.Equal(t, "main", entries[0].Branch)
	assert.False(t, entries[0].Bare)

	assert.Equal(t, "/path/to/feature", entries[1].Path)
	assert.Equal(t, "feature", entries[1].Branch)
}

// TestParsePorcelain_StrayBlankLinesInsideRecord verifies that a blank line
// in the middle of a record does not split it: the branch line still
// belongs to the preceding worktree.
func TestParsePorcelain_StrayBlankLinesInsideRecord(t *testing.T) {
	input := "worktree /repo\n\nHEAD abc\n\n\nbranch refs/heads/main\n\nworktree /wt\n\nbranch refs/heads/FOO-2\n"

	entries := ParsePorcelain(input)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Path: "/repo", HEAD: "abc", Branch: "main"}, entries[0])
	assert.Equal(t, Entry{Path: "/wt", Branch: "FOO-2"}, entries[1])
}

// TestParsePorcelain_Markers verifies the bare and detached markers.
func TestParsePorcelain_Markers(t *testing.T) {
	input := `worktree /path/to/bare-repo
bare

worktree /path/to/detached
HEAD abc123
detached
`
	entries := ParsePorcelain(input)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].Bare, "bare marker should set Bare")
	assert.Empty(t, entries[0].Branch, "bare worktree should have no branch")

	assert.True(t, entries[1].Detached, "detached marker should set Detached")
	assert.Empty(t, entries[1].Branch, "detached HEAD should have no branch")
	assert.False(t, entries[1].Bare)
}

// TestParsePorcelain_BranchWithoutRefsPrefix verifies that a branch value
// lacking refs/heads/ is kept verbatim.
func TestParsePorcelain_BranchWithoutRefsPrefix(t *testing.T) {
	entries := ParsePorcelain("worktree /wt\nbranch 0123abcd\n")
	require.Len(t, entries, 1)
	assert.Equal(t, "0123abcd", entries[0].Branch)
}

// TestParsePorcelain_Empty verifies that empty input and lines before the
// first worktree line produce nothing.
func TestParsePorcelain_Empty(t *testing.T) {
	assert.Empty(t, ParsePorcelain(""))
	assert.Empty(t, ParsePorcelain("\n\n"))
	assert.Empty(t, ParsePorcelain("HEAD abc\nbranch refs/heads/main\n"))
}

// TestParsePorcelain_PathWithSpaces verifies that everything after the
// first space is part of the path.
func TestParsePorcelain_PathWithSpaces(t *testing.T) {
	entries := ParsePorcelain("worktree /Users/me/My Projects/app\nbranch refs/heads/feature/login flow\n")
	require.Len(t, entries, 1)
	assert.Equal(t, "/Users/me/My Projects/app", entries[0].Path)
	assert.Equal(t, "feature/login flow", entries[0].Branch)
}
