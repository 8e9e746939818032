package worktree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/process"
)

// gitArgs prepends -C <dir> so git operates in the target directory
// without changing the process working directory, which would race in
// concurrent probes.
func gitArgs(dir string, args []string) []string {
	return append([]string{"-C", dir}, args...)
}

// exec runs git in dir and returns the raw result. Only spawn failures
// (and context cancellation) are reported as errors.
func (m *Manager) exec(ctx context.Context, dir string, args ...string) (process.Result, error) {
	res, err := m.runner.Run(ctx, "", "git", gitArgs(dir, args)...)
	if err != nil {
		return res, spawnFailure(err)
	}
	return res, nil
}

// runGit runs a primary git command: a spawn failure or a non-zero exit is
// returned as a model.CLIError so the CLI can map it to an exit code. On
// success the raw stdout is returned.
func (m *Manager) runGit(ctx context.Context, dir, intent string, args ...string) (string, error) {
	res, err := m.exec(ctx, dir, args...)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		cmdErr := process.NewCommandError("git", args, res)
		message := fmt.Sprintf("%s: git %s failed", intent, strings.Join(args, " "))
		if cmdErr.Stderr != "" {
			message = fmt.Sprintf("%s: %s", message, cmdErr.Stderr)
		}
		return "", model.WrapCLIError(model.ExitGitError, message, cmdErr)
	}
	return res.Stdout, nil
}

// probe runs an auxiliary git command whose failure is absorbed. It
// reports trimmed stdout and whether the command exited 0.
func (m *Manager) probe(ctx context.Context, dir string, args ...string) (string, bool) {
	res, err := m.exec(ctx, dir, args...)
	if err != nil {
		m.logger.Debug("git probe failed to start", "dir", dir, "args", strings.Join(args, " "), "err", err)
		return "", false
	}
	if !res.Success() {
		m.logger.Debug("git probe failed", "dir", dir, "args", strings.Join(args, " "), "status", res.ExitCode)
		return "", false
	}
	return strings.TrimSpace(res.Stdout), true
}

func spawnFailure(err error) error {
	var spawnErr *process.SpawnError
	if errors.As(err, &spawnErr) {
		return model.WrapCLIError(model.ExitSpawnFailed, "failed to start git", err)
	}
	// Context cancellation or deadline.
	return model.WrapCLIError(model.ExitGeneralError, "git interrupted", err)
}
