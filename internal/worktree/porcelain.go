package worktree

import (
	"strings"
)

// Entry is one worktree block of `git worktree list --porcelain` output.
//
// Example porcelain output for a single worktree block:
//
//	worktree /path/to/FOO-1
//	HEAD abc123def456
//	branch refs/heads/FOO-1
type Entry struct {
	// Path is the absolute filesystem path to the worktree directory.
	Path string

	// Branch is the branch name with the refs/heads/ prefix removed.
	// A value without that prefix is kept verbatim. Empty when git printed
	// no branch line (detached HEAD, bare repository).
	Branch string

	// HEAD is the commit SHA that the worktree currently points to.
	HEAD string

	// Bare is set for the "bare" marker.
	Bare bool

	// Detached is set for the "detached" marker.
	Detached bool
}

// ParsePorcelain parses `git worktree list --porcelain` output.
//
// A "worktree <path>" line starts a block. Blocks are flushed on the next
// "worktree" line or at end of input; blank lines are ignored rather than
// treated as terminators, because some shell transports insert duplicate or
// stray blank lines between records. Output order is git's listing order,
// so index 0 is the main worktree.
func ParsePorcelain(raw string) []Entry {
	var entries []Entry
	var current *Entry

	flush := func() {
		if current != nil {
			entries = append(entries, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// The key is the first word, the value is everything after it.
		// Markers like "bare" or "detached" have no value.
		key, value, _ := strings.Cut(line, " ")

		if key == "worktree" {
			flush()
			current = &Entry{Path: value}
			continue
		}
		if current == nil {
			continue
		}

		switch key {
		case "HEAD":
			current.HEAD = value
		case "branch":
			current.Branch = strings.TrimPrefix(value, "refs/heads/")
		case "bare":
			current.Bare = true
		case "detached":
			current.Detached = true
		}
	}
	flush()

	return entries
}
