// Package model defines the domain types and value objects for the
// directiv CLI.
//
// This package contains pure data structures with no external dependencies.
// Worktree records are transient representations recomputed from
// `git worktree list --porcelain` on every call. Git is the source of
// truth and nothing is written to disk.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
// Each exit code corresponds to one category of the error taxonomy
// (invalid path, copy path, not found, git command, spawn, I/O).
package model
