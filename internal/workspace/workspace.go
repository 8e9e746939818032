// Package workspace discovers the git repositories inside a workspace
// directory together with their per-repository configuration.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mmr-tortoise/directiv/internal/config"
	"github.com/mmr-tortoise/directiv/internal/model"
)

// DiscoveredRepo is a repository found directly inside a workspace.
type DiscoveredRepo struct {
	// ID is the repository folder name.
	ID   string `json:"id"`
	Path string `json:"path"`

	CopyPaths         []string `json:"copyPaths"`
	OnStart           []string `json:"onStart"`
	BaseBranch        *string  `json:"baseBranch"`
	FetchBeforeCreate bool     `json:"fetchBeforeCreate"`

	// ConfigWarning is set when the repository's .directiv.json could not
	// be used and defaults were applied instead.
	ConfigWarning string `json:"configWarning,omitempty"`
}

// Config returns the repository settings as a config.RepoConfig.
func (r DiscoveredRepo) Config() config.RepoConfig {
	cfg := config.RepoConfig{
		CopyPaths:         r.CopyPaths,
		OnStart:           r.OnStart,
		FetchBeforeCreate: r.FetchBeforeCreate,
	}
	if r.BaseBranch != nil {
		cfg.BaseBranch = *r.BaseBranch
	}
	return cfg
}

// Scan returns every direct child directory of path that contains a .git
// entry (a directory for a normal clone, a file for a linked worktree or
// submodule), sorted by ID. Deeper directories are not searched.
func Scan(path string) ([]DiscoveredRepo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitNotFound, fmt.Sprintf("workspace path does not exist: %s", path), err)
		}
		return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to inspect workspace %s", path), err)
	}
	if !info.IsDir() {
		return nil, model.NewCLIError(model.ExitInvalidPath, fmt.Sprintf("workspace path is not a directory: %s", path))
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to read workspace directory %s", path), err)
	}

	repos := []DiscoveredRepo{}
	for _, entry := range entries {
		repoPath := filepath.Join(path, entry.Name())

		// Stat follows symlinked repository folders.
		if info, err := os.Stat(repoPath); err != nil || !info.IsDir() {
			continue
		}
		if _, err := os.Lstat(filepath.Join(repoPath, ".git")); err != nil {
			continue
		}

		cfg, warning := config.LoadRepoConfig(repoPath)
		repo := DiscoveredRepo{
			ID:                entry.Name(),
			Path:              repoPath,
			CopyPaths:         cfg.CopyPaths,
			OnStart:           cfg.OnStart,
			FetchBeforeCreate: cfg.FetchBeforeCreate,
			ConfigWarning:     warning,
		}
		if cfg.BaseBranch != "" {
			base := cfg.BaseBranch
			repo.BaseBranch = &base
		}
		repos = append(repos, repo)
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].ID < repos[j].ID })
	return repos, nil
}
