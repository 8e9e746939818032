package cli

import (
	"context"
	"path/filepath"

	"github.com/mmr-tortoise/directiv/internal/config"
	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/worktree"
)

// repoTarget is the repository a command operates on, with its settings.
type repoTarget struct {
	Path   string
	Config config.RepoConfig
}

// loadAppConfig resolves the application config from the working directory.
func loadAppConfig() (config.AppConfig, error) {
	cwd, err := currentDir()
	if err != nil {
		return config.AppConfig{}, err
	}
	cfg, path, err := config.ResolveAppConfig(cwd)
	if err != nil {
		return config.AppConfig{}, err
	}
	if path != "" {
		VerboseLog("Using config %s", path)
	}
	return cfg, nil
}

// resolveRepo selects the repository named by --repo, or the one that
// contains the working directory, and loads its .directiv.json.
//
// --repo is first looked up as a repository id in the application config;
// otherwise it is a path. Settings from .directiv.json take precedence over
// the application config entry, which only fills in empty lists.
func resolveRepo(ctx context.Context, m *worktree.Manager, app config.AppConfig) (repoTarget, error) {
	var (
		path string
		ref  config.RepoRef
		ok   bool
	)

	switch {
	case repoFlag == "":
		cwd, err := currentDir()
		if err != nil {
			return repoTarget{}, err
		}
		if path, err = m.MainRepoRoot(ctx, cwd); err != nil {
			return repoTarget{}, model.WrapCLIError(model.ExitNotFound, "not inside a git repository (use --repo)", err)
		}
	default:
		if ref, ok = app.FindRepo(repoFlag); ok {
			path = ref.Path
		} else {
			abs, err := filepath.Abs(repoFlag)
			if err != nil {
				return repoTarget{}, model.WrapCLIError(model.ExitInvalidPath, "invalid repository path", err)
			}
			path = abs
		}
	}

	cfg, warning := config.LoadRepoConfig(path)
	if warning != "" {
		logger.Warn("using default repository settings", "reason", warning)
	}
	if ok {
		if len(cfg.CopyPaths) == 0 {
			cfg.CopyPaths = ref.CopyPaths
		}
		if len(cfg.OnStart) == 0 {
			cfg.OnStart = ref.OnStart
		}
	}

	VerboseLog("Repository %s", path)
	return repoTarget{Path: path, Config: cfg}, nil
}
