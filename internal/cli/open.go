// Package cli: open.go implements "directiv open terminal" and
// "directiv open editor".
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/directiv/internal/terminal"
	"github.com/mmr-tortoise/directiv/internal/tmux"
)

// openFlags holds the flag values shared by the open subcommands.
type openFlags struct {
	// app overrides the configured terminal or editor.
	app string
}

// NewOpenCommand creates the "open" cobra command and its subcommands.
func NewOpenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a session in a terminal or a worktree in an editor",
	}
	cmd.AddCommand(newOpenTerminalCommand())
	cmd.AddCommand(newOpenEditorCommand())
	return cmd
}

func newOpenTerminalCommand() *cobra.Command {
	flags := &openFlags{}

	cmd := &cobra.Command{
		Use:   "terminal <issue-id>",
		Short: "Attach a terminal window to an issue's tmux session",
		Long: `Open a terminal window attached to the issue's tmux session.

Examples:
  directiv open terminal FOO-123
  directiv open terminal --app iterm2 FOO-123`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenTerminal(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.app, "app", "", "Terminal emulator: ghostty, alacritty, iterm2, terminal (default: from config)")
	return cmd
}

func runOpenTerminal(ctx context.Context, out io.Writer, identifier string, flags *openFlags) error {
	app, err := loadAppConfig()
	if err != nil {
		return err
	}
	name := flags.app
	if name == "" {
		name = app.Terminal
	}
	emulator, err := terminal.ParseEmulator(name)
	if err != nil {
		return err
	}

	session := tmux.SessionName(identifier)
	launcher := terminal.NewLauncher(newRunner(logger), logger)
	if err := launcher.OpenTerminal(ctx, emulator, session); err != nil {
		return err
	}

	printOpenResult(out, emulator.String(), session)
	return nil
}

func newOpenEditorCommand() *cobra.Command {
	flags := &openFlags{}

	cmd := &cobra.Command{
		Use:   "editor <issue-id|path>",
		Short: "Open a worktree in an editor",
		Long: `Open the issue's worktree, or any path, in an editor.

Examples:
  directiv open editor FOO-123
  directiv open editor --app zed .`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenEditor(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.app, "app", "", "Editor: zed, cursor, vscode (default: from config)")
	return cmd
}

func runOpenEditor(ctx context.Context, out io.Writer, target string, flags *openFlags) error {
	app, err := loadAppConfig()
	if err != nil {
		return err
	}
	name := flags.app
	if name == "" {
		name = app.Editor
	}
	editor, err := terminal.ParseEditor(name)
	if err != nil {
		return err
	}

	m := newManager()
	path := target
	if !dirExists(target) {
		repo, err := resolveRepo(ctx, m, app)
		if err != nil {
			return err
		}
		if path, _, err = findWorktree(ctx, m, repo.Path, target); err != nil {
			return err
		}
	}

	launcher := terminal.NewLauncher(newRunner(logger), logger)
	if err := launcher.OpenEditor(ctx, editor, path); err != nil {
		return err
	}

	printOpenResult(out, editor.String(), path)
	return nil
}

func printOpenResult(out io.Writer, app, target string) {
	if IsJSONOutput() {
		printJSON(out, map[string]interface{}{"action": "opened", "app": app, "target": target})
		return
	}
	fmt.Fprintf(out, "Opened %s in %s\n", target, app)
}
