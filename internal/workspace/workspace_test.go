package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/directiv/internal/config"
	"github.com/mmr-tortoise/directiv/internal/model"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0o755))
	}
}

func TestScan(t *testing.T) {
	ws := t.TempDir()

	mkdirs(t,
		filepath.Join(ws, "web", ".git"),
		filepath.Join(ws, "api", ".git"),
		filepath.Join(ws, "docs"), // no .git: not a repository
		filepath.Join(ws, "group", "nested", ".git"),
	)
	// A linked worktree has a .git file.
	mkdirs(t, filepath.Join(ws, "linked"))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "linked", ".git"), []byte("gitdir: /elsewhere\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "notes.txt"), []byte("x"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(ws, "api", config.RepoConfigFile), []byte(`{
		// copied into each worktree
		"copyPaths": [".env"],
		"onStart": ["make deps"],
		"baseBranch": "origin/develop",
		"fetchBeforeCreate": false
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "web", config.RepoConfigFile), []byte(`{not json`), 0o644))

	repos, err := Scan(ws)
	require.NoError(t, err)

	ids := make([]string, len(repos))
	for i, r := range repos {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"api", "linked", "web"}, ids, "sorted, direct children with .git only")

	api := repos[0]
	assert.Equal(t, filepath.Join(ws, "api"), api.Path)
	assert.Equal(t, []string{".env"}, api.CopyPaths)
	assert.Equal(t, []string{"make deps"}, api.OnStart)
	require.NotNil(t, api.BaseBranch)
	assert.Equal(t, "origin/develop", *api.BaseBranch)
	assert.False(t, api.FetchBeforeCreate)
	assert.Empty(t, api.ConfigWarning)
	assert.Equal(t, "origin/develop", api.Config().BaseBranch)

	linked := repos[1]
	assert.Nil(t, linked.BaseBranch)
	assert.True(t, linked.FetchBeforeCreate, "defaults apply without a config file")
	assert.Empty(t, linked.ConfigWarning)

	web := repos[2]
	assert.NotEmpty(t, web.ConfigWarning, "a malformed config is reported, not fatal")
	assert.Equal(t, config.DefaultRepoConfig(), web.Config())
}

func TestScan_Empty(t *testing.T) {
	repos, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, repos)
	assert.NotNil(t, repos)
}

func TestScan_Errors(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ExitNotFound))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = Scan(file)
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ExitInvalidPath))
	assert.Contains(t, err.Error(), "not a directory")
}
