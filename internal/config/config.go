// Package config loads the two configuration files of the directiv CLI.
//
// Both files support JSONC (JSON with Comments), so this package uses
// github.com/tidwall/jsonc to strip comments and trailing commas before
// parsing with the standard encoding/json library:
//
//   - .directiv.json in a repository root: per-repository worktree settings
//     (RepoConfig). Loading it never fails; problems become a warning.
//   - linair.config.json found by walking up from the working directory:
//     application settings (AppConfig).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/directiv/internal/model"
)

const (
	// RepoConfigFile is the per-repository sidecar file name.
	RepoConfigFile = ".directiv.json"

	// AppConfigFile is the application config file name.
	AppConfigFile = "linair.config.json"

	// AppConfigEnv names an explicit application config path, bypassing
	// the directory walk.
	AppConfigEnv = "DIRECTIV_CONFIG"

	// DefaultTerminal and DefaultEditor apply when the app config omits them.
	DefaultTerminal = "ghostty"
	DefaultEditor   = "vscode"
)

// RepoConfig holds the per-repository worktree settings.
type RepoConfig struct {
	// CopyPaths are repository-relative paths copied into new worktrees.
	CopyPaths []string `json:"copyPaths"`

	// OnStart are shell commands run in a worktree when a task starts.
	OnStart []string `json:"onStart"`

	// BaseBranch overrides default-branch detection when set.
	BaseBranch string `json:"baseBranch,omitempty"`

	// FetchBeforeCreate fetches origin before a worktree is created.
	FetchBeforeCreate bool `json:"fetchBeforeCreate"`
}

// DefaultRepoConfig returns the settings used when a repository has no
// usable sidecar file.
func DefaultRepoConfig() RepoConfig {
	return RepoConfig{
		CopyPaths:         []string{},
		OnStart:           []string{},
		FetchBeforeCreate: true,
	}
}

// rawRepoConfig mirrors the file. Pointers tell an absent key from false.
// "fetchBefore" is the older spelling and is still accepted.
type rawRepoConfig struct {
	CopyPaths         []string `json:"copyPaths"`
	OnStart           []string `json:"onStart"`
	BaseBranch        *string  `json:"baseBranch"`
	FetchBeforeCreate *bool    `json:"fetchBeforeCreate"`
	FetchBefore       *bool    `json:"fetchBefore"`
}

// LoadRepoConfig reads .directiv.json from repoPath.
//
// It never returns an error: a missing file yields defaults silently, and an
// unreadable or malformed file yields defaults plus a warning describing the
// problem. Repository configuration must never block worktree operations.
func LoadRepoConfig(repoPath string) (cfg RepoConfig, warning string) {
	path := filepath.Join(repoPath, RepoConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRepoConfig(), ""
		}
		return DefaultRepoConfig(), fmt.Sprintf("failed to read %s: %v", path, err)
	}

	var raw rawRepoConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return DefaultRepoConfig(), fmt.Sprintf("failed to parse %s: %v", path, err)
	}

	cfg = DefaultRepoConfig()
	if raw.CopyPaths != nil {
		cfg.CopyPaths = raw.CopyPaths
	}
	if raw.OnStart != nil {
		cfg.OnStart = raw.OnStart
	}
	if raw.BaseBranch != nil {
		cfg.BaseBranch = *raw.BaseBranch
	}
	switch {
	case raw.FetchBeforeCreate != nil:
		cfg.FetchBeforeCreate = *raw.FetchBeforeCreate
	case raw.FetchBefore != nil:
		cfg.FetchBeforeCreate = *raw.FetchBefore
	}
	return cfg, ""
}

// RepoRef is a repository listed in the application config.
type RepoRef struct {
	ID        string   `json:"id"`
	Path      string   `json:"path"`
	CopyPaths []string `json:"copyPaths,omitempty"`
	OnStart   []string `json:"onStart,omitempty"`
}

// AppConfig holds the application settings.
type AppConfig struct {
	// Terminal is the terminal emulator used to attach to sessions.
	Terminal string `json:"terminal"`

	// Editor opens worktrees for editing.
	Editor string `json:"editor"`

	// Workspace is a directory whose child repositories are scanned.
	Workspace string `json:"workspace,omitempty"`

	// Repos lists explicitly configured repositories.
	Repos []RepoRef `json:"repos"`

	// SkillsDir overrides the bundled skills plugin directory.
	SkillsDir string `json:"skillsDir,omitempty"`
}

// DefaultAppConfig returns the application defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Terminal: DefaultTerminal,
		Editor:   DefaultEditor,
		Repos:    []RepoRef{},
	}
}

// FindAppConfig walks up from dir looking for linair.config.json and
// returns its path. The DIRECTIV_CONFIG environment variable, when set,
// takes precedence and must name an existing file.
func FindAppConfig(dir string) (string, error) {
	if explicit := os.Getenv(AppConfigEnv); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", model.WrapCLIError(model.ExitNotFound, fmt.Sprintf("config file from %s not found: %s", AppConfigEnv, explicit), err)
		}
		return explicit, nil
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", model.WrapCLIError(model.ExitInvalidPath, fmt.Sprintf("invalid directory %q", dir), err)
	}

	for {
		candidate := filepath.Join(dir, AppConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", model.NewCLIError(model.ExitNotFound, AppConfigFile+" not found")
}

// LoadAppConfig parses the application config at path. Missing keys keep
// their defaults.
func LoadAppConfig(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return AppConfig{}, model.WrapCLIError(model.ExitNotFound, fmt.Sprintf("config file not found: %s", path), err)
		}
		return AppConfig{}, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to read %s", path), err)
	}

	cfg := DefaultAppConfig()
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return AppConfig{}, model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to parse %s", path), err)
	}
	if cfg.Terminal == "" {
		cfg.Terminal = DefaultTerminal
	}
	if cfg.Editor == "" {
		cfg.Editor = DefaultEditor
	}
	if cfg.Repos == nil {
		cfg.Repos = []RepoRef{}
	}

	// Relative paths are relative to the config file.
	base := filepath.Dir(path)
	if cfg.Workspace != "" && !filepath.IsAbs(cfg.Workspace) {
		cfg.Workspace = filepath.Join(base, cfg.Workspace)
	}
	if cfg.SkillsDir != "" && !filepath.IsAbs(cfg.SkillsDir) {
		cfg.SkillsDir = filepath.Join(base, cfg.SkillsDir)
	}
	for i := range cfg.Repos {
		if cfg.Repos[i].Path != "" && !filepath.IsAbs(cfg.Repos[i].Path) {
			cfg.Repos[i].Path = filepath.Join(base, cfg.Repos[i].Path)
		}
	}
	return cfg, nil
}

// ResolveAppConfig finds and loads the application config starting at dir.
// When no config file exists the defaults are returned.
func ResolveAppConfig(dir string) (AppConfig, string, error) {
	path, err := FindAppConfig(dir)
	if err != nil {
		if model.IsCode(err, model.ExitNotFound) && os.Getenv(AppConfigEnv) == "" {
			return DefaultAppConfig(), "", nil
		}
		return AppConfig{}, "", err
	}
	cfg, err := LoadAppConfig(path)
	if err != nil {
		return AppConfig{}, "", err
	}
	return cfg, path, nil
}

// FindRepo returns the configured repository with the given id.
func (c AppConfig) FindRepo(id string) (RepoRef, bool) {
	for _, r := range c.Repos {
		if r.ID == id {
			return r, true
		}
	}
	return RepoRef{}, false
}
