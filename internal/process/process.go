// Package process runs external binaries (git, tmux, sh) for the directiv
// CLI.
//
// Every command is executed with buffered stdout and stderr. A non-zero
// exit status is NOT an error at this layer: it is reported in Result so
// that callers can decide whether the command was primary (fatal) or an
// auxiliary probe (absorbed). Run only returns an error when the binary
// could not be started at all.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Result is the buffered outcome of one command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Handle is a started process that has not been waited for yet.
type Handle interface {
	// Wait blocks until the process exits and returns its exit status.
	Wait() (Result, error)

	// Kill terminates the process. Wait must still be called to reap it.
	Kill() error
}

// Runner executes external commands.
type Runner interface {
	// Run executes name with args in dir and waits for it to exit.
	// The returned error is non-nil only when the process could not be
	// spawned or ctx ended; a non-zero exit is reported in Result.
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)

	// Start spawns name with args in dir without waiting for it.
	Start(ctx context.Context, dir, name string, args ...string) (Handle, error)
}

// SpawnError reports that a binary could not be started.
type SpawnError struct {
	Name string
	Args []string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to run %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// CommandError reports a non-zero exit of a command whose success was
// required. Stderr holds the captured standard error, trimmed.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s exited with status %d", e.Name, strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// NewCommandError builds a CommandError from a failed Result.
func NewCommandError(name string, args []string, res Result) *CommandError {
	return &CommandError{
		Name:     name,
		Args:     args,
		ExitCode: res.ExitCode,
		Stderr:   strings.TrimSpace(res.Stderr),
	}
}

// ErrTimeout is returned by WaitWithTimeout when the process was killed
// because it outlived its deadline.
var ErrTimeout = errors.New("process timed out")

// ExecRunner is the os/exec implementation of Runner.
type ExecRunner struct {
	logger *log.Logger
}

// NewExecRunner creates an ExecRunner. A nil logger disables command logging.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ExecRunner{logger: logger}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	r.logger.Debug("$ "+name+" "+strings.Join(args, " "), "dir", dir)

	// #nosec G204 -- binaries are fixed by callers; args are passed as argv, never through a shell
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, &SpawnError{Name: name, Args: args, Err: err}
}

// Start implements Runner.
func (r *ExecRunner) Start(ctx context.Context, dir, name string, args ...string) (Handle, error) {
	r.logger.Debug("$ "+name+" "+strings.Join(args, " ")+" &", "dir", dir)

	// #nosec G204 -- see Run
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	h := &execHandle{cmd: cmd}
	cmd.Stdout = &h.stdout
	cmd.Stderr = &h.stderr

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Name: name, Args: args, Err: err}
	}
	return h, nil
}

type execHandle struct {
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func (h *execHandle) Wait() (Result, error) {
	err := h.cmd.Wait()
	res := Result{Stdout: h.stdout.String(), Stderr: h.stderr.String()}
	if err == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

func (h *execHandle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

// WaitWithTimeout waits for h to exit. If it is still running after
// timeout, the process is killed, reaped, and ErrTimeout is returned.
func WaitWithTimeout(h Handle, timeout time.Duration) (Result, error) {
	type waitResult struct {
		res Result
		err error
	}
	done := make(chan waitResult, 1)
	go func() {
		res, err := h.Wait()
		done <- waitResult{res: res, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case wr := <-done:
		return wr.res, wr.err
	case <-timer.C:
		_ = h.Kill()
		// Reap the killed process so it does not linger as a zombie.
		<-done
		return Result{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

// Detach releases a started process without waiting for it. The process
// is reaped in the background.
func Detach(h Handle) {
	go func() { _, _ = h.Wait() }()
}
