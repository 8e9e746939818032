// Package tmux wraps the tmux commands the task workflow needs: session
// listing, creation, teardown, key injection and a bounded readiness wait.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/process"
)

// DefaultReadyTimeout bounds WaitForReady when the caller passes zero.
const DefaultReadyTimeout = 10 * time.Second

// listFormat is the -F format of list-sessions, one tab-separated line per
// session.
const listFormat = "#{session_name}\t#{session_attached}\t#{session_windows}\t#{session_created}"

// Session is one tmux session.
type Session struct {
	Name     string `json:"name"`
	Attached bool   `json:"attached"`
	Windows  int    `json:"windows"`
	// Created is the creation time as a Unix timestamp string.
	Created string `json:"created"`
}

// Client runs tmux through a process.Runner.
type Client struct {
	runner process.Runner
	logger *log.Logger
}

// NewClient creates a Client. A nil logger discards log output.
func NewClient(runner process.Runner, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{runner: runner, logger: logger}
}

var unsafeSessionChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SessionName turns an identifier such as a branch name into a valid tmux
// session name by replacing every character outside [A-Za-z0-9_-] with "-".
func SessionName(identifier string) string {
	return unsafeSessionChars.ReplaceAllString(identifier, "-")
}

// run executes tmux and fails on spawn errors and non-zero exits.
func (c *Client) run(ctx context.Context, intent string, args ...string) (string, error) {
	res, err := c.runner.Run(ctx, "", "tmux", args...)
	if err != nil {
		var spawnErr *process.SpawnError
		if errors.As(err, &spawnErr) {
			return "", model.WrapCLIError(model.ExitSpawnFailed, intent+": tmux is not available", err)
		}
		return "", model.WrapCLIError(model.ExitGeneralError, intent, err)
	}
	if !res.Success() {
		cmdErr := process.NewCommandError("tmux", args, res)
		return "", model.WrapCLIError(model.ExitGeneralError, intent, cmdErr)
	}
	return res.Stdout, nil
}

// ListSessions returns the running sessions. No tmux server means no
// sessions, not an error.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	args := []string{"list-sessions", "-F", listFormat}
	res, err := c.runner.Run(ctx, "", "tmux", args...)
	if err != nil {
		var spawnErr *process.SpawnError
		if errors.As(err, &spawnErr) {
			return nil, model.WrapCLIError(model.ExitSpawnFailed, "failed to list tmux sessions: tmux is not available", err)
		}
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to list tmux sessions", err)
	}
	if !res.Success() {
		if noServer(res.Stderr) {
			return []Session{}, nil
		}
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to list tmux sessions", process.NewCommandError("tmux", args, res))
	}
	return parseSessions(res.Stdout), nil
}

func noServer(stderr string) bool {
	return strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to") ||
		strings.Contains(stderr, "no sessions")
}

func parseSessions(out string) []Session {
	sessions := []Session{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		s := Session{Name: fields[0]}
		if len(fields) > 1 {
			attached, _ := strconv.Atoi(fields[1])
			s.Attached = attached > 0
		}
		if len(fields) > 2 {
			s.Windows, _ = strconv.Atoi(fields[2])
		}
		if len(fields) > 3 {
			s.Created = fields[3]
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// HasSession reports whether a session with exactly this name exists.
func (c *Client) HasSession(ctx context.Context, name string) bool {
	// "=" forces an exact match instead of tmux's prefix matching.
	res, err := c.runner.Run(ctx, "", "tmux", "has-session", "-t", "="+name)
	return err == nil && res.Success()
}

// CreateSession starts a detached session named name in dir.
func (c *Client) CreateSession(ctx context.Context, name, dir string) (Session, error) {
	args := []string{"new-session", "-d", "-s", name}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	if _, err := c.run(ctx, fmt.Sprintf("failed to create tmux session %s", name), args...); err != nil {
		return Session{}, err
	}
	c.logger.Debug("created tmux session", "session", name, "dir", dir)
	return Session{
		Name:    name,
		Windows: 1,
		Created: strconv.FormatInt(time.Now().Unix(), 10),
	}, nil
}

// KillSession terminates the session.
func (c *Client) KillSession(ctx context.Context, name string) error {
	_, err := c.run(ctx, fmt.Sprintf("failed to kill tmux session %s", name), "kill-session", "-t", "="+name)
	return err
}

// SendKeys types keys into the session's active pane and presses Enter.
func (c *Client) SendKeys(ctx context.Context, session, keys string) error {
	_, err := c.run(ctx, fmt.Sprintf("failed to send keys to %s", session), "send-keys", "-t", session, keys, "Enter")
	return err
}

// CapturePane returns the visible content of the session's active pane.
func (c *Client) CapturePane(ctx context.Context, session string) (string, error) {
	return c.run(ctx, fmt.Sprintf("failed to capture pane of %s", session), "capture-pane", "-p", "-t", session)
}

// readyScript polls the pane until it shows any non-blank output, which
// means the shell has drawn its prompt.
func readyScript(session string) string {
	return fmt.Sprintf(
		"until tmux capture-pane -p -t '%s' 2>/dev/null | grep -q '[^[:space:]]'; do sleep 0.1; done",
		strings.ReplaceAll(session, "'", `'\''`),
	)
}

// WaitForReady blocks until the session's shell is ready for input or the
// timeout elapses. The poll loop runs as a child process that is killed on
// timeout, so nothing outlives the call.
func (c *Client) WaitForReady(ctx context.Context, session string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}

	h, err := c.runner.Start(ctx, "", "sh", "-c", readyScript(session))
	if err != nil {
		return model.WrapCLIError(model.ExitSpawnFailed, fmt.Sprintf("failed to wait for tmux session %s", session), err)
	}

	res, err := process.WaitWithTimeout(h, timeout)
	if err != nil {
		if errors.Is(err, process.ErrTimeout) {
			return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("tmux session %s was not ready", session), err)
		}
		return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to wait for tmux session %s", session), err)
	}
	if !res.Success() {
		return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to wait for tmux session %s", session),
			process.NewCommandError("sh", []string{"-c", "<ready poll>"}, res))
	}
	c.logger.Debug("tmux session ready", "session", session)
	return nil
}
