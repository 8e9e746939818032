package worktree

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/process"
)

// defaultProbeLimit bounds concurrent health probes in List.
const defaultProbeLimit = 8

// Manager provides the worktree lifecycle operations by invoking the git
// CLI through a process.Runner.
//
// It holds no repository state: every method receives the repository path
// and re-derives what it needs from git and the filesystem.
type Manager struct {
	runner     process.Runner
	logger     *log.Logger
	probeLimit int
}

// NewManager creates a Manager. A nil logger discards log output.
func NewManager(runner process.Runner, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		runner:     runner,
		logger:     logger,
		probeLimit: defaultProbeLimit,
	}
}

// CreateOptions configures Create.
type CreateOptions struct {
	// RepoPath is the main repository checkout.
	RepoPath string

	// IssueID names both the branch and the worktree directory.
	IssueID string

	// CopyPaths are repository-relative paths copied into the new worktree,
	// typically untracked files such as .env.
	CopyPaths []string

	// BaseBranch is the ref the new branch starts from. Empty means the
	// detected default branch.
	BaseBranch string

	// FetchBeforeCreate fetches origin before creating the branch.
	FetchBeforeCreate bool
}

// RemoveOptions configures Remove.
type RemoveOptions struct {
	RepoPath     string
	WorktreePath string

	// Branch is deleted after the worktree when DeleteBranch is set.
	Branch       string
	DeleteBranch bool
}

// WorktreeDir returns the directory for issueID's worktree:
// <parent>/<repo>-worktrees/<issueID>, next to the repository.
func WorktreeDir(repoPath, issueID string) string {
	repoPath = filepath.Clean(repoPath)
	parent := filepath.Dir(repoPath)
	return filepath.Join(parent, filepath.Base(repoPath)+"-worktrees", issueID)
}

// Create makes a worktree for opts.IssueID on a branch of the same name.
//
// Creating an issue that already has a healthy worktree is a no-op that
// returns the existing worktree with its current health. A directory left
// behind on another branch, or one that is not a checkout at all, is
// deleted and recreated.
//
// Copy paths are validated before anything is touched. Copying happens
// after the worktree exists and is not rolled back: on a copy failure the
// worktree stays in place and a later Create for the same issue returns it
// without retrying the copy.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*model.WorktreeRecord, error) {
	if err := model.ValidateIssueID(opts.IssueID); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidPath, "invalid issue id", err)
	}

	repoPath, err := filepath.Abs(opts.RepoPath)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidPath, fmt.Sprintf("invalid repository path %q", opts.RepoPath), err)
	}
	target := WorktreeDir(repoPath, opts.IssueID)

	if err := validateCopyPaths(repoPath, opts.CopyPaths); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitIOError, "failed to create worktrees directory", err)
	}

	if opts.FetchBeforeCreate {
		if _, ok := m.probe(ctx, repoPath, "fetch", "origin"); !ok {
			m.logger.Warn("fetch from origin failed, continuing with local refs", "repo", repoPath)
		}
	}
	m.prune(ctx, repoPath)

	if _, err := os.Lstat(target); err == nil {
		if m.onBranch(ctx, target, opts.IssueID) {
			m.logger.Debug("worktree already exists", "path", target, "branch", opts.IssueID)
			record := model.NewWorktreeRecord(target, opts.IssueID, m.Probe(ctx, target, opts.IssueID))
			return &record, nil
		}

		m.logger.Warn("removing stale worktree directory", "path", target)
		if err := os.RemoveAll(target); err != nil {
			return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to remove stale directory %s", target), err)
		}
		m.prune(ctx, repoPath)
	}

	base := opts.BaseBranch
	if base == "" {
		base = m.DefaultBranch(ctx, repoPath)
	}

	if err := m.addWorktree(ctx, repoPath, target, opts.IssueID, base); err != nil {
		return nil, err
	}

	for _, rel := range opts.CopyPaths {
		if err := CopyPath(filepath.Join(repoPath, rel), filepath.Join(target, rel)); err != nil {
			return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to copy %s into worktree", rel), err)
		}
	}

	record := model.NewWorktreeRecord(target, opts.IssueID, model.Health{})
	return &record, nil
}

// addWorktree creates target on a new branch at base. When the branch
// already exists it is attached instead.
func (m *Manager) addWorktree(ctx context.Context, repoPath, target, branch, base string) error {
	args := []string{"worktree", "add", "-b", branch, target, base}
	res, err := m.exec(ctx, repoPath, args...)
	if err != nil {
		return err
	}
	if res.Success() {
		return nil
	}

	if !branchAlreadyExists(res.Stderr) {
		cmdErr := process.NewCommandError("git", args, res)
		return model.WrapCLIError(model.ExitGitError, fmt.Sprintf("failed to create worktree: %s", cmdErr.Stderr), cmdErr)
	}

	m.logger.Debug("branch exists, attaching it", "branch", branch)
	_, err = m.runGit(ctx, repoPath, "failed to create worktree", "worktree", "add", target, branch)
	return err
}

// branchAlreadyExists matches git's "a branch named 'X' already exists".
func branchAlreadyExists(stderr string) bool {
	return strings.Contains(stderr, "already exists") && strings.Contains(stderr, "branch")
}

// onBranch reports whether path is the root of a git checkout whose
// current branch is branch.
func (m *Manager) onBranch(ctx context.Context, path, branch string) bool {
	top, ok := m.probe(ctx, path, "rev-parse", "--show-toplevel")
	if !ok || !samePath(top, path) {
		// Either not a checkout, or a plain directory inside some other
		// repository.
		return false
	}
	current, ok := m.CurrentBranch(ctx, path)
	return ok && current == branch
}

func (m *Manager) prune(ctx context.Context, repoPath string) {
	if _, ok := m.probe(ctx, repoPath, "worktree", "prune"); !ok {
		m.logger.Warn("worktree prune failed", "repo", repoPath)
	}
}

// List returns every worktree of the repository in git's order. The
// first record is the main worktree and is reported clean without being
// probed; the others are probed concurrently.
func (m *Manager) List(ctx context.Context, repoPath string) ([]model.WorktreeRecord, error) {
	out, err := m.runGit(ctx, repoPath, "failed to list worktrees", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	entries := ParsePorcelain(out)
	records := make([]model.WorktreeRecord, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.probeLimit)
	for i, entry := range entries {
		if i == 0 {
			records[i] = model.NewWorktreeRecord(entry.Path, entry.Branch, model.Health{})
			continue
		}
		g.Go(func() error {
			records[i] = model.NewWorktreeRecord(entry.Path, entry.Branch, m.Probe(gctx, entry.Path, entry.Branch))
			return nil
		})
	}
	// Probes never fail.
	_ = g.Wait()

	return records, nil
}

// Remove force-removes the worktree at opts.WorktreePath. Dirty worktrees
// are removed too; confirming that is the caller's job. A requested
// branch deletion that fails is logged and does not fail the removal.
func (m *Manager) Remove(ctx context.Context, opts RemoveOptions) error {
	if _, err := os.Lstat(opts.WorktreePath); err != nil {
		if os.IsNotExist(err) {
			return model.WrapCLIError(model.ExitNotFound, fmt.Sprintf("worktree not found: %s", opts.WorktreePath), err)
		}
		return model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to inspect %s", opts.WorktreePath), err)
	}

	if _, err := m.runGit(ctx, opts.RepoPath, "failed to remove worktree", "worktree", "remove", "--force", opts.WorktreePath); err != nil {
		return err
	}

	if opts.DeleteBranch && opts.Branch != "" {
		if _, ok := m.probe(ctx, opts.RepoPath, "branch", "-D", opts.Branch); !ok {
			m.logger.Warn("failed to delete branch", "branch", opts.Branch)
		}
	}
	return nil
}

// CheckMerged reports whether branch has been merged.
//
// A branch whose origin/<branch> ref is gone counts as merged: merge tools
// delete the remote branch after a squash merge, which leaves no ancestry
// to check. Otherwise the branch is merged when it is an ancestor of the
// local copy of the default branch.
func (m *Manager) CheckMerged(ctx context.Context, repoPath, branch string) (bool, error) {
	res, err := m.exec(ctx, repoPath, "rev-parse", "--verify", "--quiet", "refs/remotes/origin/"+branch)
	if err != nil {
		return false, err
	}
	if !res.Success() {
		m.logger.Debug("remote branch is gone, treating as merged", "branch", branch)
		return true, nil
	}

	target := strings.TrimPrefix(m.DefaultBranch(ctx, repoPath), "origin/")
	args := []string{"merge-base", "--is-ancestor", branch, target}
	res, err = m.exec(ctx, repoPath, args...)
	if err != nil {
		return false, err
	}

	switch res.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		cmdErr := process.NewCommandError("git", args, res)
		return false, model.WrapCLIError(model.ExitGitError, fmt.Sprintf("failed to check whether %s is merged: %s", branch, cmdErr.Stderr), cmdErr)
	}
}

// FetchPrune fetches origin and drops remote-tracking refs that no longer
// exist, so CheckMerged sees deleted remote branches.
func (m *Manager) FetchPrune(ctx context.Context, repoPath string) error {
	_, err := m.runGit(ctx, repoPath, "failed to fetch origin", "fetch", "--prune", "origin")
	return err
}

// IsWorktree checks whether path is a linked Git worktree rather than a
// main repository working directory.
//
// Linked worktrees have a .git FILE containing a "gitdir:" pointer to the
// main repository's .git/worktrees/<name> directory, while the main working
// directory has a .git DIRECTORY.
func IsWorktree(path string) bool {
	gitPath := filepath.Join(path, ".git")

	info, err := os.Lstat(gitPath)
	if err != nil || info.IsDir() {
		return false
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return false
	}
	return strings.HasPrefix(string(content), "gitdir:")
}

// samePath compares two paths after resolving symlinks (macOS /var vs
// /private/var).
func samePath(a, b string) bool {
	return resolve(a) == resolve(b)
}

func resolve(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if real, err := filepath.EvalSymlinks(p); err == nil {
		p = real
	}
	return filepath.Clean(p)
}
