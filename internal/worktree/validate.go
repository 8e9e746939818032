package worktree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/directiv/internal/model"
)

// ValidateCopyPath rejects repository-relative paths that are empty,
// absolute, or contain a ".." component. It performs no I/O.
func ValidateCopyPath(rel string) error {
	if rel == "" {
		return model.NewCLIError(model.ExitInvalidPath, "path must not be empty")
	}
	// A leading slash is absolute on every platform we care about, even
	// where filepath.IsAbs wants a volume name.
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) {
		return model.NewCLIError(model.ExitInvalidPath, fmt.Sprintf("path %q must be relative", rel))
	}
	for _, part := range strings.FieldsFunc(rel, isSeparator) {
		if part == ".." {
			return model.NewCLIError(model.ExitInvalidPath, fmt.Sprintf("path %q must not contain '..'", rel))
		}
	}
	return nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// validateCopyPaths checks every requested path and verifies that its
// source exists in the repository. The whole set is checked before the
// caller mutates anything.
func validateCopyPaths(repoPath string, paths []string) error {
	for _, rel := range paths {
		if err := ValidateCopyPath(rel); err != nil {
			return model.WrapCLIError(model.ExitCopyPathError, fmt.Sprintf("invalid copy path %q", rel), err)
		}
		// Lstat so a symlink whose target is missing still counts as present;
		// it is recreated as a link, not followed.
		if _, err := os.Lstat(filepath.Join(repoPath, rel)); err != nil {
			return model.WrapCLIError(model.ExitCopyPathError, fmt.Sprintf("copy path %q not found in %s", rel, repoPath), err)
		}
	}
	return nil
}
