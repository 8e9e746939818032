// Package cli: create.go implements the "directiv create" command.
//
// The create command makes the worktree for one issue beside the
// repository, on a branch named after the issue, and copies the configured
// untracked files into it. Running it again for the same issue reports the
// existing worktree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/worktree"
)

// createFlags holds the flag values for the create command.
type createFlags struct {
	copyPaths []string // --copy: overrides copyPaths from .directiv.json
	base      string   // --base: overrides baseBranch
	noFetch   bool     // --no-fetch: skip fetching origin first
}

// NewCreateCommand creates the "create" cobra command.
func NewCreateCommand() *cobra.Command {
	flags := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create <issue-id>",
		Short: "Create the worktree for an issue",
		Long: `Create a git worktree for an issue at <repo>-worktrees/<issue-id>, on a
branch named after the issue.

The branch starts from the repository's default branch unless --base or
baseBranch in .directiv.json says otherwise. An existing branch with the
same name is checked out instead. Paths listed with --copy (or copyPaths
in .directiv.json) are copied from the repository into the worktree.

Examples:
  directiv create FOO-123
  directiv create --base origin/develop FOO-123
  directiv create --copy .env --copy config/local.json FOO-123`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd.Context(), cmd.OutOrStdout(), args[0], flags, cmd.Flags().Changed("copy"))
		},
	}

	cmd.Flags().StringArrayVar(&flags.copyPaths, "copy", nil, "Repository-relative path to copy into the worktree (repeatable)")
	cmd.Flags().StringVar(&flags.base, "base", "", "Ref the new branch starts from (default: origin's default branch)")
	cmd.Flags().BoolVar(&flags.noFetch, "no-fetch", false, "Do not fetch origin before creating the branch")

	return cmd
}

// runCreate resolves the repository settings, applies the flag overrides
// and creates the worktree.
func runCreate(ctx context.Context, out io.Writer, issueID string, flags *createFlags, copyChanged bool) error {
	app, err := loadAppConfig()
	if err != nil {
		return err
	}

	m := newManager()
	repo, err := resolveRepo(ctx, m, app)
	if err != nil {
		return err
	}

	opts := worktree.CreateOptions{
		RepoPath:          repo.Path,
		IssueID:           issueID,
		CopyPaths:         repo.Config.CopyPaths,
		BaseBranch:        repo.Config.BaseBranch,
		FetchBeforeCreate: repo.Config.FetchBeforeCreate && !flags.noFetch,
	}
	if copyChanged {
		opts.CopyPaths = flags.copyPaths
	}
	if flags.base != "" {
		opts.BaseBranch = flags.base
	}

	VerboseLog("Creating worktree for %q (copy: %v, fetch: %t)", issueID, opts.CopyPaths, opts.FetchBeforeCreate)
	record, err := m.Create(ctx, opts)
	if err != nil {
		return err
	}

	printCreateResult(out, record)
	return nil
}

// printCreateResult outputs the created (or reused) worktree.
func printCreateResult(out io.Writer, record *model.WorktreeRecord) {
	if IsJSONOutput() {
		printJSON(out, record)
		return
	}
	fmt.Fprintf(out, "Worktree for %s ready\n", record.IssueString())
	fmt.Fprintf(out, "  Path:   %s\n", record.Path)
	fmt.Fprintf(out, "  Branch: %s\n", record.Branch)
	if record.IsDirty || record.Ahead > 0 || record.Behind > 0 {
		fmt.Fprintf(out, "  Status: %s\n", FormatHealth(record.Health))
	}
}
