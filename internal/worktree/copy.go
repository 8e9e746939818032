package worktree

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyError reports a failed copy of Src to Dst.
type CopyError struct {
	Src string
	Dst string
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %s to %s: %v", e.Src, e.Dst, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// CopyPath copies src to dst recursively.
//
// Entries are classified with Lstat, never Stat, so symlinks are not
// followed: a symlink is recreated at dst pointing at the same unresolved
// target, which also keeps cyclic links from recursing forever. Regular
// files are copied byte for byte with their permission bits, directories
// are created and walked, and anything else (devices, sockets, FIFOs) is
// skipped.
func CopyPath(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return copySymlink(src, dst)
	case mode.IsRegular():
		return copyFile(src, dst, mode.Perm())
	case mode.IsDir():
		return copyDir(src, dst, mode.Perm())
	default:
		return nil
	}
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}
	// A checkout may already contain something at dst.
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}
	if err := os.Symlink(target, dst); err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}

	in, err := os.Open(src)
	if err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return &CopyError{Src: src, Dst: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}
	return nil
}

func copyDir(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(dst, perm|0o700); err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}
	for _, entry := range entries {
		if err := CopyPath(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
