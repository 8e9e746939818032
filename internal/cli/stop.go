// Package cli: stop.go implements the "directiv stop" command.
//
// The stop command ends a task: it kills the issue's tmux session and,
// with --remove-worktree, removes the issue's worktree from the selected
// repository, or from every configured repository with --all-repos.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/directiv/internal/config"
	"github.com/mmr-tortoise/directiv/internal/tmux"
	"github.com/mmr-tortoise/directiv/internal/workflow"
	"github.com/mmr-tortoise/directiv/internal/workspace"
)

// stopFlags holds the flag values for the stop command.
type stopFlags struct {
	removeWorktree bool
	deleteBranch   bool
	allRepos       bool
}

// NewStopCommand creates the "stop" cobra command.
func NewStopCommand() *cobra.Command {
	flags := &stopFlags{}

	cmd := &cobra.Command{
		Use:   "stop <issue-id>",
		Short: "Stop working on an issue",
		Long: `Kill the issue's tmux session. A session that is not running is not an
error.

With --remove-worktree the issue's worktree is force-removed as well,
discarding uncommitted changes in it.

Examples:
  directiv stop FOO-123
  directiv stop --remove-worktree --delete-branch FOO-123
  directiv stop --remove-worktree --all-repos FOO-123`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.removeWorktree, "remove-worktree", false, "Also remove the issue's worktree")
	cmd.Flags().BoolVar(&flags.deleteBranch, "delete-branch", false, "With --remove-worktree, also delete the branch")
	cmd.Flags().BoolVar(&flags.allRepos, "all-repos", false, "Look in every configured and workspace repository")

	return cmd
}

// runStop resolves the repositories to search and runs the stop flow.
func runStop(ctx context.Context, out io.Writer, identifier string, flags *stopFlags) error {
	var repos []string
	if flags.removeWorktree {
		app, err := loadAppConfig()
		if err != nil {
			return err
		}
		if flags.allRepos {
			repos, err = allRepoPaths(app)
		} else {
			var repo repoTarget
			repo, err = resolveRepo(ctx, newManager(), app)
			repos = []string{repo.Path}
		}
		if err != nil {
			return err
		}
	}

	starter := newStarter(newManager())
	if err := starter.Stop(ctx, workflow.StopParams{
		Identifier:     identifier,
		RepoPaths:      repos,
		RemoveWorktree: flags.removeWorktree,
		DeleteBranch:   flags.deleteBranch,
	}); err != nil {
		return err
	}

	session := tmux.SessionName(identifier)
	if IsJSONOutput() {
		printJSON(out, map[string]interface{}{
			"action":         "stopped",
			"session":        session,
			"removeWorktree": flags.removeWorktree,
		})
		return nil
	}
	fmt.Fprintf(out, "Stopped %s (session %s)\n", identifier, session)
	return nil
}

// allRepoPaths returns the configured repositories followed by the ones
// discovered in the workspace, without duplicates.
func allRepoPaths(app config.AppConfig) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, r := range app.Repos {
		add(r.Path)
	}
	if app.Workspace != "" {
		discovered, err := workspace.Scan(app.Workspace)
		if err != nil {
			return nil, err
		}
		for _, r := range discovered {
			add(r.Path)
		}
	}
	return paths, nil
}
