// Package cli: start.go implements the "directiv start" command.
//
// The start command brings up everything a task needs: the issue's
// worktree, a tmux session inside it running the agent, and a terminal
// window attached to that session. Pieces that already exist are reused,
// so starting a task twice just reopens the terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/directiv/internal/config"
	"github.com/mmr-tortoise/directiv/internal/hooks"
	"github.com/mmr-tortoise/directiv/internal/terminal"
	"github.com/mmr-tortoise/directiv/internal/tmux"
	"github.com/mmr-tortoise/directiv/internal/workflow"
	"github.com/mmr-tortoise/directiv/internal/worktree"
)

// startFlags holds the flag values for the start command.
type startFlags struct {
	terminal     string        // --terminal: overrides the configured emulator
	skill        string        // --skill: agent skill to start with
	agent        string        // --agent: agent command
	noTerminal   bool          // --no-terminal: leave the session detached
	readyTimeout time.Duration // --ready-timeout: wait for the session shell
}

// NewStartCommand creates the "start" cobra command.
func NewStartCommand() *cobra.Command {
	flags := &startFlags{}

	cmd := &cobra.Command{
		Use:   "start <issue-id>",
		Short: "Start working on an issue",
		Long: `Create (or reuse) the issue's worktree and tmux session, start the agent
in the session and open a terminal attached to it.

A new session runs the repository's onStart commands from .directiv.json
before the agent starts. If that fails the session is removed again; the
worktree is kept.

Examples:
  directiv start FOO-123
  directiv start --skill implement FOO-123
  directiv start --terminal alacritty --repo api FOO-123`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.terminal, "terminal", "", "Terminal emulator: ghostty, alacritty, iterm2, terminal (default: from config)")
	cmd.Flags().StringVar(&flags.skill, "skill", "", "Skill the agent starts with")
	cmd.Flags().StringVar(&flags.agent, "agent", workflow.DefaultAgent, "Agent command typed into the session")
	cmd.Flags().BoolVar(&flags.noTerminal, "no-terminal", false, "Do not open a terminal window")
	cmd.Flags().DurationVar(&flags.readyTimeout, "ready-timeout", tmux.DefaultReadyTimeout, "How long to wait for a new session's shell")

	return cmd
}

// newStarter wires the start/stop flows onto one process runner.
func newStarter(m *worktree.Manager) *workflow.Starter {
	runner := newRunner(logger)
	return &workflow.Starter{
		Worktrees: m,
		Sessions:  tmux.NewClient(runner, logger),
		Hooks:     hooks.NewRunner(runner, logger),
		Terminals: terminal.NewLauncher(runner, logger),
		Logger:    logger,
	}
}

// runStart resolves the repository and the terminal, then runs the start
// flow.
func runStart(ctx context.Context, out io.Writer, identifier string, flags *startFlags) error {
	app, err := loadAppConfig()
	if err != nil {
		return err
	}

	m := newManager()
	repo, err := resolveRepo(ctx, m, app)
	if err != nil {
		return err
	}

	emulator, err := pickEmulator(app, flags.terminal, flags.noTerminal)
	if err != nil {
		return err
	}

	starter := newStarter(m)
	starter.Agent = flags.agent
	starter.ReadyTimeout = flags.readyTimeout

	result, err := starter.Start(ctx, workflow.StartParams{
		Identifier: identifier,
		RepoPath:   repo.Path,
		Repo:       repo.Config,
		Skill:      flags.skill,
		Terminal:   emulator,
		NoTerminal: flags.noTerminal,
	})
	if err != nil {
		return err
	}

	printStartResult(out, result)
	return nil
}

// pickEmulator returns the emulator named by the flag or the app config.
// The name is not validated when no terminal will be opened.
func pickEmulator(app config.AppConfig, name string, noTerminal bool) (terminal.Emulator, error) {
	if name == "" {
		name = app.Terminal
	}
	if noTerminal {
		if e, err := terminal.ParseEmulator(name); err == nil {
			return e, nil
		}
		return terminal.Ghostty, nil
	}
	return terminal.ParseEmulator(name)
}

// printStartResult outputs what start reused or created.
func printStartResult(out io.Writer, result *workflow.StartResult) {
	if IsJSONOutput() {
		printJSON(out, result)
		return
	}

	verb := func(created bool) string {
		if created {
			return "created"
		}
		return "reused"
	}
	fmt.Fprintf(out, "Started %s\n", result.Worktree.IssueString())
	fmt.Fprintf(out, "  Worktree: %s (%s)\n", result.Worktree.Path, verb(result.CreatedWorktree))
	fmt.Fprintf(out, "  Session:  %s (%s)\n", result.Session, verb(result.CreatedSession))
	fmt.Fprintf(out, "  Attach:   tmux attach -t %s\n", result.Session)
}
