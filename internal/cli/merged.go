// Package cli: merged.go implements the "directiv check-merged" and
// "directiv fetch-prune" commands.
//
// Together they answer "can this issue's worktree go?": fetch-prune drops
// remote-tracking refs of branches deleted on the remote (typically after
// a squash merge), and check-merged then reports such branches, and
// branches already contained in the default branch, as merged.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// checkMergedFlags holds the flag values for the check-merged command.
type checkMergedFlags struct {
	// fetch runs fetch-prune first.
	fetch bool
}

// NewCheckMergedCommand creates the "check-merged" cobra command.
func NewCheckMergedCommand() *cobra.Command {
	flags := &checkMergedFlags{}

	cmd := &cobra.Command{
		Use:   "check-merged <branch>...",
		Short: "Report whether branches have been merged",
		Long: `Report whether each branch has been merged.

A branch counts as merged when origin no longer has it, or when it is
contained in the repository's default branch. Run with --fetch (or after
"directiv fetch-prune") so that deleted remote branches are noticed.

Examples:
  directiv check-merged FOO-123
  directiv check-merged --fetch FOO-123 FOO-124 --json`,

		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckMerged(cmd.Context(), cmd.OutOrStdout(), args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.fetch, "fetch", false, "Fetch and prune origin first")

	return cmd
}

// mergedJSON is the JSON output structure for one branch.
type mergedJSON struct {
	Branch string `json:"branchName"`
	Merged bool   `json:"merged"`
}

// runCheckMerged checks each branch in order and stops at the first git
// failure.
func runCheckMerged(ctx context.Context, out io.Writer, branches []string, flags *checkMergedFlags) error {
	app, err := loadAppConfig()
	if err != nil {
		return err
	}

	m := newManager()
	repo, err := resolveRepo(ctx, m, app)
	if err != nil {
		return err
	}

	if flags.fetch {
		if err := m.FetchPrune(ctx, repo.Path); err != nil {
			return err
		}
	}

	results := make([]mergedJSON, 0, len(branches))
	for _, b := range branches {
		merged, err := m.CheckMerged(ctx, repo.Path, b)
		if err != nil {
			return err
		}
		results = append(results, mergedJSON{Branch: b, Merged: merged})
	}

	if IsJSONOutput() {
		printJSON(out, map[string]interface{}{"branches": results})
		return nil
	}
	for _, r := range results {
		state := "not merged"
		if r.Merged {
			state = "merged"
		}
		fmt.Fprintf(out, "%-24s %s\n", r.Branch, state)
	}
	return nil
}

// NewFetchPruneCommand creates the "fetch-prune" cobra command.
func NewFetchPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-prune",
		Short: "Fetch origin and drop deleted remote branches",
		Long: `Fetch origin and remove remote-tracking refs whose branch no longer
exists on the remote.

Examples:
  directiv fetch-prune
  directiv fetch-prune --repo api`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetchPrune(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// runFetchPrune fetches origin with --prune.
func runFetchPrune(ctx context.Context, out io.Writer) error {
	app, err := loadAppConfig()
	if err != nil {
		return err
	}

	m := newManager()
	repo, err := resolveRepo(ctx, m, app)
	if err != nil {
		return err
	}

	if err := m.FetchPrune(ctx, repo.Path); err != nil {
		return err
	}

	if IsJSONOutput() {
		printJSON(out, map[string]interface{}{"action": "fetched", "repo": repo.Path})
		return nil
	}
	fmt.Fprintf(out, "Fetched and pruned origin for %s\n", repo.Path)
	return nil
}
