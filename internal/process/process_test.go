package process

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	r := NewExecRunner(nil)

	res, err := r.Run(context.Background(), "", "echo", "hello")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "hello\n", res.Stdout)
}

// TestRun_NonZeroExitIsNotAnError verifies that a failing command is
// reported through Result, with stderr captured.
func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	r := NewExecRunner(nil)

	res, err := r.Run(context.Background(), "", "sh", "-c", "echo 'bad thing' >&2; exit 3")
	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "bad thing\n", res.Stderr)
}

// TestRun_SpawnFailure verifies that a missing binary yields a SpawnError.
func TestRun_SpawnFailure(t *testing.T) {
	r := NewExecRunner(nil)

	_, err := r.Run(context.Background(), "", "definitely-not-a-binary-xyz")
	require.Error(t, err)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, "definitely-not-a-binary-xyz", spawnErr.Name)
}

func TestRun_Dir(t *testing.T) {
	r := NewExecRunner(nil)
	dir := t.TempDir()

	res, err := r.Run(context.Background(), dir, "pwd")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Stdout)
}

func TestRun_ContextCancelled(t *testing.T) {
	r := NewExecRunner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, "", "sleep", "10")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommandError_Message(t *testing.T) {
	err := NewCommandError("git", []string{"worktree", "add"}, Result{ExitCode: 128, Stderr: "fatal: invalid reference\n"})

	assert.Equal(t, "git worktree add exited with status 128: fatal: invalid reference", err.Error())
	assert.Equal(t, "fatal: invalid reference", err.Stderr)
}

func TestWaitWithTimeout_Completes(t *testing.T) {
	r := NewExecRunner(nil)

	h, err := r.Start(context.Background(), "", "sh", "-c", "echo done")
	require.NoError(t, err)

	res, err := WaitWithTimeout(h, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "done\n", res.Stdout)
}

// TestWaitWithTimeout_KillsOnTimeout verifies that a process outliving its
// deadline is killed instead of leaked.
func TestWaitWithTimeout_KillsOnTimeout(t *testing.T) {
	r := NewExecRunner(nil)

	h, err := r.Start(context.Background(), "", "sleep", "30")
	require.NoError(t, err)

	start := time.Now()
	_, err = WaitWithTimeout(h, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second, "process should be killed, not waited for")
}

func TestStart_SpawnFailure(t *testing.T) {
	r := NewExecRunner(nil)

	_, err := r.Start(context.Background(), "", "definitely-not-a-binary-xyz")
	var spawnErr *SpawnError
	assert.True(t, errors.As(err, &spawnErr))
}
