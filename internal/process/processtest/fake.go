// Package processtest provides a scripted process.Runner for tests.
package processtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mmr-tortoise/directiv/internal/process"
)

// Call records one invocation made through a FakeRunner.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call as a command line, e.g. "git rev-parse HEAD".
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type rule struct {
	prefix string
	res    process.Result
	err    error
}

// FakeRunner answers commands from rules matched by command-line prefix.
// The first matching rule wins; unmatched commands exit 1 with no output.
// It is safe for concurrent use.
type FakeRunner struct {
	mu    sync.Mutex
	rules []rule
	calls []Call

	// StartFunc, when set, handles Start calls.
	StartFunc func(dir, name string, args ...string) (process.Handle, error)
}

// On registers a result for commands whose line starts with prefix.
// The line is the binary name followed by its arguments, space separated.
func (f *FakeRunner) On(prefix string, res process.Result) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{prefix: prefix, res: res})
	return f
}

// OnStdout registers a successful result with the given stdout.
func (f *FakeRunner) OnStdout(prefix, stdout string) *FakeRunner {
	return f.On(prefix, process.Result{Stdout: stdout})
}

// OnExit registers a failing result with the given exit code and stderr.
func (f *FakeRunner) OnExit(prefix string, code int, stderr string) *FakeRunner {
	return f.On(prefix, process.Result{ExitCode: code, Stderr: stderr})
}

// OnSpawnError makes matching commands fail to spawn.
func (f *FakeRunner) OnSpawnError(prefix string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{prefix: prefix, err: fmt.Errorf("exec: %q: executable file not found in $PATH", prefix)})
	return f
}

// Run implements process.Runner.
func (f *FakeRunner) Run(ctx context.Context, dir, name string, args ...string) (process.Result, error) {
	call := f.record(dir, name, args)
	line := call.String()

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if strings.HasPrefix(line, r.prefix) {
			if r.err != nil {
				return process.Result{}, &process.SpawnError{Name: name, Args: args, Err: r.err}
			}
			return r.res, nil
		}
	}
	return process.Result{ExitCode: 1}, nil
}

// Start implements process.Runner. Without StartFunc it returns a handle
// that has already exited successfully.
func (f *FakeRunner) Start(ctx context.Context, dir, name string, args ...string) (process.Handle, error) {
	f.record(dir, name, args)
	if f.StartFunc != nil {
		return f.StartFunc(dir, name, args...)
	}
	h := &FakeHandle{}
	h.Release()
	return h, nil
}

func (f *FakeRunner) record(dir, name string, args []string) Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	f.calls = append(f.calls, call)
	return call
}

// Calls returns the recorded calls in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallLines returns the recorded calls rendered as command lines.
func (f *FakeRunner) CallLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Called reports whether any recorded call starts with prefix.
func (f *FakeRunner) Called(prefix string) bool {
	for _, line := range f.CallLines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// FakeHandle is a process.Handle whose Wait blocks until Release or Kill.
type FakeHandle struct {
	once     sync.Once
	done     chan struct{}
	mu       sync.Mutex
	Result   process.Result
	Killed   bool
	initOnce sync.Once
}

func (h *FakeHandle) init() {
	h.initOnce.Do(func() { h.done = make(chan struct{}) })
}

// Release lets Wait return Result.
func (h *FakeHandle) Release() {
	h.init()
	h.once.Do(func() { close(h.done) })
}

// Wait implements process.Handle.
func (h *FakeHandle) Wait() (process.Result, error) {
	h.init()
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Result, nil
}

// Kill implements process.Handle.
func (h *FakeHandle) Kill() error {
	h.mu.Lock()
	h.Killed = true
	h.mu.Unlock()
	h.Release()
	return nil
}

// WasKilled reports whether Kill was called.
func (h *FakeHandle) WasKilled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Killed
}
