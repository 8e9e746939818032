// Package cli implements the cobra-based CLI commands for directiv.
//
// Each subcommand is defined in its own file within this package. This file
// defines the root command that serves as the parent for all subcommands
// and handles global flags, logging and exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/process"
	"github.com/mmr-tortoise/directiv/internal/worktree"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose lowers the log level to debug, which also echoes every
	// external command that is run.
	verbose bool

	// repoFlag selects the repository: a path, or the id of a repository
	// listed in the application config. Empty means the repository that
	// contains the working directory.
	repoFlag string
)

// Version, Commit and Date are set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// logger is the CLI-wide logger. It writes to stderr so that stdout stays
// reserved for command output.
var logger = newLogger(os.Stderr)

// newRunner builds the process runner used by every command.
// Tests replace it with a scripted runner.
var newRunner = func(l *log.Logger) process.Runner {
	return process.NewExecRunner(l)
}

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{Prefix: "directiv"})
}

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "directiv",
		Short: "Per-task git worktrees with tmux sessions",
		Long: `directiv gives every task its own git worktree, named after the issue id,
and an agent session in tmux running inside it.

Worktrees live next to the repository in <repo>-worktrees/<issue-id> and are
never recorded anywhere else: git is the source of truth.`,

		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetOutput(cmd.ErrOrStderr())
			if verbose {
				logger.SetLevel(log.DebugLevel)
			} else {
				logger.SetLevel(log.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Repository path or configured repository id (default: current repository)")

	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewRemoveCommand())
	rootCmd.AddCommand(NewCheckMergedCommand())
	rootCmd.AddCommand(NewFetchPruneCommand())
	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewScanCommand())
	rootCmd.AddCommand(NewSkillsCommand())
	rootCmd.AddCommand(NewOpenCommand())

	return rootCmd
}

// Execute runs the root command with ctx and exits with the code carried
// by the returned error.
func Execute(ctx context.Context, rootCmd *cobra.Command) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(int(model.CodeOf(err)))
	}
}

// printError outputs an error in text or JSON, depending on --json.
// Errors always go to stderr.
func printError(w io.Writer, err error) {
	message, detail := err.Error(), ""
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		message = cliErr.Message
		if cliErr.Err != nil {
			detail = cliErr.Err.Error()
		}
	}

	if jsonOutput {
		errObj := map[string]interface{}{
			"message": message,
			"code":    int(model.CodeOf(err)),
		}
		if detail != "" {
			errObj["detail"] = detail
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"error": errObj}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if detail != "" {
		fmt.Fprintf(w, "Error: %s: %s\n", message, detail)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// VerboseLog logs a debug message, shown only with --verbose.
func VerboseLog(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}

// newManager builds a worktree manager on the CLI runner and logger.
func newManager() *worktree.Manager {
	return worktree.NewManager(newRunner(logger), logger)
}

// currentDir returns the working directory as an absolute path.
func currentDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", model.WrapCLIError(model.ExitIOError, "failed to determine working directory", err)
	}
	return dir, nil
}
