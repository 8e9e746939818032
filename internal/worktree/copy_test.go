package worktree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/directiv/internal/model"
)

func TestValidateCopyPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "plain file", path: ".env"},
		{name: "nested path", path: "config/local/settings.json"},
		{name: "dotted name", path: "..env"},
		{name: "dot component", path: "./config"},
		{name: "empty", path: "", wantErr: true},
		{name: "absolute", path: "/etc/passwd", wantErr: true},
		{name: "backslash absolute", path: `\etc\passwd`, wantErr: true},
		{name: "parent", path: "../secret", wantErr: true},
		{name: "parent in the middle", path: "config/../../secret", wantErr: true},
		{name: "parent at the end", path: "config/..", wantErr: true},
		{name: "backslash parent", path: `config\..\..\secret`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCopyPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, model.IsCode(err, model.ExitInvalidPath))
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestCopyPath_File verifies byte-for-byte copying, permission bits and
// creation of missing parent directories.
func TestCopyPath_File(t *testing.T) {
	src := filepath.Join(t.TempDir(), "run.sh")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\necho hi\n"), 0o750))

	dst := filepath.Join(t.TempDir(), "a", "b", "run.sh")
	require.NoError(t, CopyPath(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho hi\n", string(content))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}

// TestCopyPath_OverwritesExistingFile verifies that a file already present
// in the destination is truncated and replaced.
func TestCopyPath_OverwritesExistingFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(src, []byte("A=1\n"), 0o600))

	dst := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dst, []byte("OLD=a much longer previous value\n"), 0o600))

	require.NoError(t, CopyPath(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "A=1\n", string(content))
}

// TestCopyPath_Directory verifies recursive copying of nested directories.
func TestCopyPath_Directory(t *testing.T) {
	src := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested", "deeper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "deeper", "leaf.txt"), []byte("leaf"), 0o644))

	dst := filepath.Join(t.TempDir(), "config")
	require.NoError(t, CopyPath(src, dst))

	assert.FileExists(t, filepath.Join(dst, "top.json"))
	content, err := os.ReadFile(filepath.Join(dst, "nested", "deeper", "leaf.txt"))
	require.NoError(t, err)
	assert.Equal(t, "leaf", string(content))
}

// TestCopyPath_SymlinkNotFollowed verifies that symlinks are recreated with
// their unresolved target, including dangling ones.
func TestCopyPath_SymlinkNotFollowed(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "real.txt"), []byte("real"), 0o644))
	require.NoError(t, os.Symlink("real.txt", filepath.Join(srcDir, "link.txt")))
	require.NoError(t, os.Symlink("does-not-exist", filepath.Join(srcDir, "dangling")))

	dstDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, CopyPath(srcDir, dstDir))

	target, err := os.Readlink(filepath.Join(dstDir, "link.txt"))
	require.NoError(t, err)
	assert.Equal(t, "real.txt", target)

	target, err = os.Readlink(filepath.Join(dstDir, "dangling"))
	require.NoError(t, err)
	assert.Equal(t, "does-not-exist", target)
}

// TestCopyPath_CyclicSymlink verifies that a link pointing at its own
// parent directory is copied as a link and does not recurse.
func TestCopyPath_CyclicSymlink(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(srcDir, "sub"), 0o755))
	require.NoError(t, os.Symlink("..", filepath.Join(srcDir, "sub", "loop")))

	dstDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, CopyPath(srcDir, dstDir))

	info, err := os.Lstat(filepath.Join(dstDir, "sub", "loop"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "loop should be copied as a symlink")
}

// TestCopyPath_MissingSource verifies that the error names both paths.
func TestCopyPath_MissingSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "missing")
	dst := filepath.Join(t.TempDir(), "dst")

	err := CopyPath(src, dst)
	require.Error(t, err)

	var copyErr *CopyError
	require.True(t, errors.As(err, &copyErr))
	assert.Equal(t, src, copyErr.Src)
	assert.Equal(t, dst, copyErr.Dst)
	assert.True(t, os.IsNotExist(copyErr.Err))
	assert.Contains(t, err.Error(), src)
}

// TestCopyPath_DirectoryOverFile verifies that copying a directory onto an
// existing regular file fails with a CopyError instead of clobbering it.
func TestCopyPath_DirectoryOverFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "conf")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a"), []byte("a"), 0o644))

	dst := filepath.Join(t.TempDir(), "conf")
	require.NoError(t, os.WriteFile(dst, []byte("file"), 0o644))

	err := CopyPath(src, dst)
	var copyErr *CopyError
	require.True(t, errors.As(err, &copyErr))
}
