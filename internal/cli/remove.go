// Package cli: remove.go implements the "directiv remove" command.
//
// The remove command force-removes a linked worktree, discarding any
// uncommitted changes in it, and optionally deletes its branch. Because
// the removal is destructive the command asks for confirmation unless
// --force is given.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/worktree"
)

// removeFlags holds the flag values for the remove command.
type removeFlags struct {
	// force skips the interactive confirmation prompt when true.
	force bool

	// branch overrides the branch deleted with --delete-branch.
	branch string

	deleteBranch bool
}

// NewRemoveCommand creates the "remove" cobra command.
func NewRemoveCommand() *cobra.Command {
	flags := &removeFlags{}

	cmd := &cobra.Command{
		Use:   "remove <issue-id|worktree-path>",
		Short: "Remove an issue's worktree",
		Long: `Remove a linked worktree, including uncommitted changes in it.

The argument is either an issue id or the worktree's path. The branch is
kept unless --delete-branch is given. The main checkout is never removed.

Unless --force is specified, the command prompts for confirmation.

Examples:
  directiv remove FOO-123
  directiv remove --force --delete-branch FOO-123
  directiv remove ../app-worktrees/FOO-123`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove without confirmation")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "Branch to delete (default: the worktree's branch)")
	cmd.Flags().BoolVar(&flags.deleteBranch, "delete-branch", false, "Also delete the branch")

	return cmd
}

// runRemove finds the worktree, confirms and removes it.
func runRemove(ctx context.Context, in io.Reader, out io.Writer, target string, flags *removeFlags) error {
	app, err := loadAppConfig()
	if err != nil {
		return err
	}

	m := newManager()
	repo, err := resolveRepo(ctx, m, app)
	if err != nil {
		return err
	}

	// Step 1: Map the argument to a worktree path and branch.
	path, branch, err := findWorktree(ctx, m, repo.Path, target)
	if err != nil {
		return err
	}
	if flags.branch != "" {
		branch = flags.branch
	}

	// Step 2: Refuse anything that is not a linked worktree. Remove itself
	// reports a missing path.
	if _, statErr := os.Lstat(path); statErr == nil && !worktree.IsWorktree(path) {
		return model.NewCLIError(model.ExitInvalidPath, fmt.Sprintf("%s is not a linked worktree", path))
	}

	// Step 3: Prompt for confirmation unless --force is specified.
	if !flags.force {
		confirmed, err := promptConfirmation(in, out, path, branch, flags.deleteBranch)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	// Step 4: Remove.
	VerboseLog("Removing worktree %s", path)
	if err := m.Remove(ctx, worktree.RemoveOptions{
		RepoPath:     repo.Path,
		WorktreePath: path,
		Branch:       branch,
		DeleteBranch: flags.deleteBranch,
	}); err != nil {
		return err
	}

	printRemoveResult(out, path, branch, flags.deleteBranch)
	return nil
}

// findWorktree maps target to a worktree path and its branch. A target
// that names a listed worktree's branch or path wins; otherwise a relative
// target is an issue id when its conventional directory exists and a path
// when it does not.
func findWorktree(ctx context.Context, m *worktree.Manager, repoPath, target string) (path, branch string, err error) {
	records, err := m.List(ctx, repoPath)
	if err != nil {
		return "", "", err
	}

	abs, absErr := filepath.Abs(target)
	for _, r := range records {
		if r.Branch == target || (absErr == nil && r.Path == abs) {
			return r.Path, r.Branch, nil
		}
	}

	if !filepath.IsAbs(target) {
		if dir := worktree.WorktreeDir(repoPath, target); dirExists(dir) {
			return dir, target, nil
		}
	}
	if absErr != nil {
		return "", "", model.WrapCLIError(model.ExitInvalidPath, fmt.Sprintf("invalid worktree path %q", target), absErr)
	}
	return abs, "", nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// promptConfirmation asks the user to confirm the remove operation.
// An interactive terminal gets a huh confirm prompt; other input is read as
// one line and accepted on "y" or "yes".
func promptConfirmation(in io.Reader, out io.Writer, path, branch string, deleteBranch bool) (bool, error) {
	description := "Uncommitted changes in it will be lost."
	if deleteBranch && branch != "" {
		description += fmt.Sprintf("\nBranch %s will be deleted.", branch)
	}

	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		var confirmed bool
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Remove worktree %s?", path)).
			Description(description).
			Affirmative("Remove").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return confirmed, err
	}

	fmt.Fprintf(out, "About to remove worktree %s\n", path)
	for _, line := range strings.Split(description, "\n") {
		fmt.Fprintf(out, "  - %s\n", line)
	}
	fmt.Fprint(out, "\nContinue? [y/N] ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}

	// If stdin is closed or an error occurred, treat it as "no".
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}

// printRemoveResult outputs the remove result in text or JSON format.
func printRemoveResult(out io.Writer, path, branch string, deleteBranch bool) {
	if IsJSONOutput() {
		printJSON(out, map[string]interface{}{
			"action":       "removed",
			"path":         path,
			"branchName":   branch,
			"deleteBranch": deleteBranch && branch != "",
		})
		return
	}
	fmt.Fprintf(out, "Removed worktree %s\n", path)
	if deleteBranch && branch != "" {
		fmt.Fprintf(out, "  Deleted branch %s\n", branch)
	}
}
