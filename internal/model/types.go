package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Health is the advisory status of a linked worktree.
// The zero value means clean and level with its upstream.
type Health struct {
	// IsDirty is true when `git status --porcelain` reports any change.
	IsDirty bool `json:"isDirty"`

	// Ahead is the number of local commits not on the upstream branch.
	Ahead int `json:"aheadCount"`

	// Behind is the number of upstream commits not on the local branch.
	Behind int `json:"behindCount"`
}

// WorktreeRecord describes one git worktree as reported by git, together
// with its health.
//
// The branch name IS the issue id by convention: a worktree created for
// issue "FOO-1" lives on branch "FOO-1". No separate identifier is minted.
type WorktreeRecord struct {
	// Path is the absolute filesystem path of the worktree.
	Path string `json:"path"`

	// Branch is the checked-out branch with the refs/heads/ prefix removed.
	// Empty for a detached HEAD.
	Branch string `json:"branchName"`

	// IssueID is derived 1:1 from Branch. Nil when Branch is empty.
	IssueID *string `json:"issueId"`

	Health
}

// NewWorktreeRecord builds a record and derives its issue id from branch.
//
// A branch value that is not a ref (for example a bare commit hash) is kept
// as-is and therefore also becomes the issue id.
func NewWorktreeRecord(path, branch string, health Health) WorktreeRecord {
	rec := WorktreeRecord{
		Path:   path,
		Branch: branch,
		Health: health,
	}
	if branch != "" {
		id := branch
		rec.IssueID = &id
	}
	return rec
}

// HasIssue reports whether the record carries an issue id.
func (r WorktreeRecord) HasIssue() bool {
	return r.IssueID != nil
}

// IssueString returns the issue id or "-" when there is none.
// Used for table output.
func (r WorktreeRecord) IssueString() string {
	if r.IssueID == nil {
		return "-"
	}
	return *r.IssueID
}

// ValidateIssueID checks whether id can be used as a branch name, a
// directory name under the -worktrees folder, and a git argument.
func ValidateIssueID(id string) error {
	if id == "" {
		return fmt.Errorf("issue id must not be empty")
	}
	if strings.HasPrefix(id, "-") {
		return fmt.Errorf("invalid issue id %q: must not start with '-'", id)
	}
	if filepath.IsAbs(id) {
		return fmt.Errorf("invalid issue id %q: must not be an absolute path", id)
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return fmt.Errorf("invalid issue id %q: must not contain whitespace", id)
	}
	for _, part := range strings.Split(filepath.ToSlash(id), "/") {
		if part == ".." || part == "." || part == "" {
			return fmt.Errorf("invalid issue id %q: must not contain empty, '.' or '..' components", id)
		}
	}
	return nil
}
