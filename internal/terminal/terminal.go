// Package terminal opens tmux sessions in a terminal emulator and
// worktrees in an editor.
//
// Supported applications are closed enumerations. Names are parsed once at
// the edge; an unknown name is an ExitUnsupported error rather than a silent
// no-op.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/process"
)

// Emulator is a supported terminal emulator.
type Emulator int

const (
	Ghostty Emulator = iota
	Alacritty
	ITerm2
	AppleTerminal
)

// Emulators lists every supported emulator.
var Emulators = []Emulator{Ghostty, Alacritty, ITerm2, AppleTerminal}

// String returns the configuration name of the emulator.
func (e Emulator) String() string {
	switch e {
	case Ghostty:
		return "ghostty"
	case Alacritty:
		return "alacritty"
	case ITerm2:
		return "iterm2"
	case AppleTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("Emulator(%d)", int(e))
	}
}

// ParseEmulator maps a configuration name to an Emulator.
func ParseEmulator(name string) (Emulator, error) {
	for _, e := range Emulators {
		if strings.EqualFold(name, e.String()) {
			return e, nil
		}
	}
	return 0, model.NewCLIError(model.ExitUnsupported, fmt.Sprintf("unknown terminal emulator: %s", name))
}

// Editor is a supported editor.
type Editor int

const (
	Zed Editor = iota
	Cursor
	VSCode
)

// Editors lists every supported editor.
var Editors = []Editor{Zed, Cursor, VSCode}

// String returns the configuration name of the editor.
func (e Editor) String() string {
	switch e {
	case Zed:
		return "zed"
	case Cursor:
		return "cursor"
	case VSCode:
		return "vscode"
	default:
		return fmt.Sprintf("Editor(%d)", int(e))
	}
}

// ParseEditor maps a configuration name to an Editor. "code" is accepted
// as an alias of vscode.
func ParseEditor(name string) (Editor, error) {
	if strings.EqualFold(name, "code") {
		return VSCode, nil
	}
	for _, e := range Editors {
		if strings.EqualFold(name, e.String()) {
			return e, nil
		}
	}
	return 0, model.NewCLIError(model.ExitUnsupported, fmt.Sprintf("unknown editor: %s", name))
}

// TerminalCommand returns the argv that opens a window attached to the
// tmux session. shell is the user's login shell.
func TerminalCommand(e Emulator, session, shell string) ([]string, error) {
	attach := "tmux attach -t " + session

	switch e {
	case Ghostty:
		return []string{"open", "-n", "-a", "Ghostty", "--args", "-e", shell, "-lc", attach}, nil
	case Alacritty:
		return []string{"open", "-n", "-a", "Alacritty", "--args", "-e", shell, "-lc", attach}, nil
	case ITerm2:
		script := fmt.Sprintf(`tell application "iTerm"
    activate
    create window with default profile
    tell current session of current window
        write text "tmux -CC attach -t %s"
    end tell
end tell`, session)
		return []string{"osascript", "-e", script}, nil
	case AppleTerminal:
		script := fmt.Sprintf(`tell application "Terminal"
    activate
    do script "%s -lc 'tmux attach -t %s'"
end tell`, shell, session)
		return []string{"osascript", "-e", script}, nil
	default:
		return nil, model.NewCLIError(model.ExitUnsupported, fmt.Sprintf("unsupported terminal emulator: %s", e))
	}
}

// EditorCommand returns the argv that opens path in the editor.
func EditorCommand(e Editor, path string) ([]string, error) {
	switch e {
	case Zed:
		return []string{"zed", path}, nil
	case Cursor:
		return []string{"cursor", path}, nil
	case VSCode:
		return []string{"code", path}, nil
	default:
		return nil, model.NewCLIError(model.ExitUnsupported, fmt.Sprintf("unsupported editor: %s", e))
	}
}

// Launcher spawns terminal and editor windows without waiting for them.
type Launcher struct {
	runner process.Runner
	logger *log.Logger

	// Shell is the login shell used inside terminal windows.
	Shell string
}

// NewLauncher creates a Launcher using $SHELL, falling back to /bin/zsh.
func NewLauncher(runner process.Runner, logger *log.Logger) *Launcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/zsh"
	}
	return &Launcher{runner: runner, logger: logger, Shell: shell}
}

// OpenTerminal opens a terminal window attached to session.
func (l *Launcher) OpenTerminal(ctx context.Context, e Emulator, session string) error {
	argv, err := TerminalCommand(e, session, l.Shell)
	if err != nil {
		return err
	}
	return l.spawn(ctx, fmt.Sprintf("failed to open %s", e), argv)
}

// OpenEditor opens path in the editor.
func (l *Launcher) OpenEditor(ctx context.Context, e Editor, path string) error {
	argv, err := EditorCommand(e, path)
	if err != nil {
		return err
	}
	return l.spawn(ctx, fmt.Sprintf("failed to open %s", e), argv)
}

// spawn starts argv and reaps it in the background. The launched
// application outlives the command, so cancelling ctx must not kill it.
func (l *Launcher) spawn(ctx context.Context, intent string, argv []string) error {
	l.logger.Debug("launching", "cmd", argv[0])
	h, err := l.runner.Start(context.WithoutCancel(ctx), "", argv[0], argv[1:]...)
	if err != nil {
		return model.WrapCLIError(model.ExitSpawnFailed, intent, err)
	}
	process.Detach(h)
	return nil
}
