// Package cli: scan.go implements the "directiv scan" and
// "directiv skills" commands, which report what directiv can work with.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/skills"
	"github.com/mmr-tortoise/directiv/internal/workspace"
)

// NewScanCommand creates the "scan" cobra command.
func NewScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [workspace-dir]",
		Short: "List the repositories in a workspace",
		Long: `List the git repositories directly inside a workspace directory together
with their .directiv.json settings.

The directory defaults to "workspace" from linair.config.json.

Examples:
  directiv scan ~/src
  directiv scan --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runScan(cmd.OutOrStdout(), dir)
		},
	}
}

// runScan scans dir, or the configured workspace when dir is empty.
func runScan(out io.Writer, dir string) error {
	if dir == "" {
		app, err := loadAppConfig()
		if err != nil {
			return err
		}
		if app.Workspace == "" {
			return model.NewCLIError(model.ExitNotFound, "no workspace given and none configured")
		}
		dir = app.Workspace
	}

	repos, err := workspace.Scan(dir)
	if err != nil {
		return err
	}
	for _, r := range repos {
		if r.ConfigWarning != "" {
			logger.Warn("using default repository settings", "repo", r.ID, "reason", r.ConfigWarning)
		}
	}

	if IsJSONOutput() {
		printJSON(out, map[string]interface{}{"repos": repos})
		return nil
	}
	if len(repos) == 0 {
		fmt.Fprintln(out, "No repositories found.")
		return nil
	}
	fmt.Fprintf(out, "%-20s %-18s %-6s %s\n", "REPO", "BASE", "COPY", "PATH")
	for _, r := range repos {
		base := "-"
		if r.BaseBranch != nil {
			base = *r.BaseBranch
		}
		fmt.Fprintf(out, "%-20s %-18s %-6d %s\n", r.ID, base, len(r.CopyPaths), r.Path)
	}
	return nil
}

// NewSkillsCommand creates the "skills" cobra command.
func NewSkillsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "skills [plugin-dir]",
		Short: "List the bundled agent skills",
		Long: `List the agent skills of a plugin directory, as usable with
"directiv start --skill".

The directory defaults to "skillsDir" from linair.config.json, then to the
claude-skills-plugin directory installed next to the directiv binary.

Examples:
  directiv skills
  directiv skills ./resources/claude-skills-plugin --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runSkills(cmd.OutOrStdout(), dir)
		},
	}
}

// runSkills lists the skills in dir or in the resolved plugin directory.
func runSkills(out io.Writer, dir string) error {
	if dir == "" {
		var err error
		if dir, err = defaultPluginDir(); err != nil {
			return err
		}
	}
	VerboseLog("Reading skills from %s", dir)

	list, err := skills.List(dir)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		printJSON(out, map[string]interface{}{"skills": list})
		return nil
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No skills found.")
		return nil
	}
	for _, s := range list {
		description := ""
		if s.Description != nil {
			description = *s.Description
		}
		fmt.Fprintf(out, "%-24s %s\n", s.Name, description)
	}
	return nil
}

// defaultPluginDir returns the configured skills directory or the plugin
// directory installed next to the executable.
func defaultPluginDir() (string, error) {
	app, err := loadAppConfig()
	if err != nil {
		return "", err
	}
	if app.SkillsDir != "" {
		return app.SkillsDir, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", model.WrapCLIError(model.ExitIOError, "failed to locate the directiv binary", err)
	}
	if dir := skills.ResolvePluginDir(filepath.Dir(exe)); dir != "" {
		return dir, nil
	}
	return "", model.NewCLIError(model.ExitNotFound, skills.PluginDirName+" not found; pass the plugin directory")
}
