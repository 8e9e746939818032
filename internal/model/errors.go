package model

import (
	"errors"
	"fmt"
)

// ExitCode defines standard CLI exit codes.
// These codes allow scripts to programmatically determine the outcome of a
// command, and double as the error taxonomy of the worktree manager.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidPath indicates a relative path was empty, absolute, or
	// tried to escape its root with "..".
	ExitInvalidPath ExitCode = 2

	// ExitCopyPathError indicates a requested copy path failed validation
	// or does not exist. Raised before any worktree mutation.
	ExitCopyPathError ExitCode = 3

	// ExitNotFound indicates the target of an operation does not exist.
	ExitNotFound ExitCode = 4

	// ExitGitError indicates a primary git operation exited non-zero.
	// The wrapped error carries git's captured stderr.
	ExitGitError ExitCode = 5

	// ExitSpawnFailed indicates an external binary could not be started.
	ExitSpawnFailed ExitCode = 6

	// ExitIOError indicates a filesystem copy or metadata failure.
	ExitIOError ExitCode = 7

	// ExitUnsupported indicates an unknown terminal emulator or editor.
	ExitUnsupported ExitCode = 8

	// ExitUserCancelled indicates the user cancelled an interactive prompt.
	ExitUserCancelled ExitCode = 9
)

// String returns the taxonomy name of the exit code.
func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "Success"
	case ExitInvalidPath:
		return "InvalidPath"
	case ExitCopyPathError:
		return "CopyPathError"
	case ExitNotFound:
		return "NotFound"
	case ExitGitError:
		return "GitCommandFailed"
	case ExitSpawnFailed:
		return "SpawnFailed"
	case ExitIOError:
		return "IOError"
	case ExitUnsupported:
		return "Unsupported"
	case ExitUserCancelled:
		return "UserCancelled"
	default:
		return "GeneralError"
	}
}

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description, usually naming the
	// intent of the failing operation ("failed to create worktree").
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// CodeOf returns the exit code of the outermost CLIError in err's chain,
// or ExitGeneralError when there is none.
func CodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitGeneralError
}

// IsCode reports whether any CLIError in err's chain carries code.
func IsCode(err error, code ExitCode) bool {
	for err != nil {
		var cliErr *CLIError
		if !errors.As(err, &cliErr) {
			return false
		}
		if cliErr.Code == code {
			return true
		}
		err = cliErr.Err
	}
	return false
}
