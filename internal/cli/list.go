// Package cli: list.go implements the "directiv list" command.
//
// The list command shows every worktree git knows for the repository, the
// main checkout first. Linked worktrees carry their health: uncommitted
// changes and the ahead/behind counts against their upstream.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/directiv/internal/model"
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	// issuesOnly hides worktrees without a branch (detached HEAD, bare).
	issuesOnly bool
}

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the repository's worktrees",
		Long: `List the repository's worktrees with their issue id, branch and health.

Examples:
  directiv list
  directiv list --repo ~/src/app --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.issuesOnly, "issues-only", false, "Only show worktrees that are on a branch")

	return cmd
}

// runList lists the worktrees of the selected repository.
func runList(ctx context.Context, out io.Writer, flags *listFlags) error {
	app, err := loadAppConfig()
	if err != nil {
		return err
	}

	m := newManager()
	repo, err := resolveRepo(ctx, m, app)
	if err != nil {
		return err
	}

	records, err := m.List(ctx, repo.Path)
	if err != nil {
		return err
	}
	VerboseLog("Found %d worktrees", len(records))

	if flags.issuesOnly {
		filtered := make([]model.WorktreeRecord, 0, len(records))
		for _, r := range records {
			if r.HasIssue() {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	printListResult(out, records)
	return nil
}

// printListResult outputs the worktree list in text or JSON format.
func printListResult(out io.Writer, records []model.WorktreeRecord) {
	if IsJSONOutput() {
		if records == nil {
			records = []model.WorktreeRecord{}
		}
		printJSON(out, map[string]interface{}{"worktrees": records})
		return
	}
	printListResultText(out, records)
}

// printListResultText outputs the worktree list as a text table:
//
//	ISSUE      STATUS                      PATH
//	main       clean                       /src/app
//	FOO-1      dirty, ahead 2              /src/app-worktrees/FOO-1
func printListResultText(out io.Writer, records []model.WorktreeRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No worktrees found.")
		return
	}

	fmt.Fprintf(out, "%-24s %-28s %s\n", "ISSUE", "STATUS", "PATH")
	for _, r := range records {
		fmt.Fprintf(out, "%-24s %-28s %s\n", r.IssueString(), FormatHealth(r.Health), r.Path)
	}
}

// FormatHealth renders a health value for humans.
//
// Example:
//
//	{}                               → "clean"
//	{IsDirty: true, Ahead: 2}        → "dirty, ahead 2"
//	{Ahead: 1, Behind: 3}            → "ahead 1, behind 3"
func FormatHealth(h model.Health) string {
	parts := make([]string, 0, 3)
	if h.IsDirty {
		parts = append(parts, "dirty")
	}
	if h.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("ahead %d", h.Ahead))
	}
	if h.Behind > 0 {
		parts = append(parts, fmt.Sprintf("behind %d", h.Behind))
	}
	if len(parts) == 0 {
		return "clean"
	}
	return strings.Join(parts, ", ")
}
