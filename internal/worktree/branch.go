package worktree

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/directiv/internal/model"
)

// FallbackDefaultBranch is returned when no default branch can be detected.
const FallbackDefaultBranch = "origin/main"

// DefaultBranch returns the remote-qualified default branch of the
// repository at repoPath, e.g. "origin/main".
//
// Resolution order:
//  1. The target of refs/remotes/origin/HEAD, with "refs/remotes/" removed.
//  2. origin/main, when it exists.
//  3. origin/master, when it exists.
//  4. The literal "origin/main".
//
// It never fails: every probe failure counts as "not found".
func (m *Manager) DefaultBranch(ctx context.Context, repoPath string) string {
	if ref, ok := m.probe(ctx, repoPath, "symbolic-ref", "refs/remotes/origin/HEAD"); ok && ref != "" {
		return strings.TrimPrefix(ref, "refs/remotes/")
	}

	for _, candidate := range []string{"origin/main", "origin/master"} {
		if _, ok := m.probe(ctx, repoPath, "rev-parse", "--verify", "--quiet", candidate); ok {
			return candidate
		}
	}

	m.logger.Debug("no default branch detected, falling back", "repo", repoPath, "branch", FallbackDefaultBranch)
	return FallbackDefaultBranch
}

// CurrentBranch returns the short name of the branch checked out at path.
// The second result is false for a detached HEAD or when path is not a
// git checkout.
func (m *Manager) CurrentBranch(ctx context.Context, path string) (string, bool) {
	branch, ok := m.probe(ctx, path, "symbolic-ref", "--quiet", "--short", "HEAD")
	if !ok || branch == "" {
		return "", false
	}
	return branch, true
}

// RepoRoot returns the top-level directory of the working tree containing
// path. For a linked worktree this is the worktree root, not the main
// repository.
func (m *Manager) RepoRoot(ctx context.Context, path string) (string, error) {
	out, err := m.runGit(ctx, path, "failed to resolve repository root", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// MainRepoRoot returns the main working tree of the repository containing
// path, also when path is inside a linked worktree.
func (m *Manager) MainRepoRoot(ctx context.Context, path string) (string, error) {
	out, err := m.runGit(ctx, path, "failed to resolve repository root", "worktree", "list", "--porcelain")
	if err != nil {
		return "", err
	}
	entries := ParsePorcelain(out)
	if len(entries) == 0 {
		return "", model.NewCLIError(model.ExitNotFound, fmt.Sprintf("no git repository at %s", path))
	}
	return entries[0].Path, nil
}
