// Package hooks runs the onStart shell commands configured for a
// repository.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/process"
)

// Runner runs hook commands through a process.Runner.
type Runner struct {
	runner process.Runner
	logger *log.Logger
}

// NewRunner creates a hook Runner. A nil logger discards log output.
func NewRunner(runner process.Runner, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{runner: runner, logger: logger}
}

// Run executes each command with `sh -c` in dir, in order, and stops at
// the first failure. The returned error carries the failing command and
// its stderr.
func (r *Runner) Run(ctx context.Context, commands []string, dir string) error {
	for _, command := range commands {
		r.logger.Info("running hook", "cmd", command, "dir", dir)

		res, err := r.runner.Run(ctx, dir, "sh", "-c", command)
		if err != nil {
			var spawnErr *process.SpawnError
			if errors.As(err, &spawnErr) {
				return model.WrapCLIError(model.ExitSpawnFailed, fmt.Sprintf("failed to run hook `%s`", command), err)
			}
			return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("hook `%s` interrupted", command), err)
		}
		if !res.Success() {
			return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("hook `%s` failed", command),
				process.NewCommandError("sh", []string{"-c", command}, res))
		}
	}
	return nil
}
