// Package skills lists the agent skills bundled in a plugin directory.
//
// A plugin directory holds one folder per skill under skills/. Each folder
// may contain a SKILL.md file whose YAML frontmatter names and describes
// the skill:
//
//	---
//	name: implement
//	description: Implement an issue end to end
//	---
package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/directiv/internal/model"
)

// PluginDirName is the bundled plugin directory name.
const PluginDirName = "claude-skills-plugin"

// Skill describes one bundled skill.
type Skill struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Files       []string `json:"files"`
}

// Frontmatter holds the recognized SKILL.md frontmatter keys. Empty
// strings mean the key was absent.
type Frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ParseFrontmatter extracts name and description from a SKILL.md document.
// Content without a leading "---" block yields an empty Frontmatter.
//
// The block is decoded as YAML. Hand-written frontmatter is often not
// valid YAML (an unquoted colon inside a description is common), so when
// decoding fails the block is read line by line as "key: value" pairs.
func ParseFrontmatter(content string) Frontmatter {
	block, ok := frontmatterBlock(content)
	if !ok {
		return Frontmatter{}
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(block), &fm); err == nil {
		fm.Name = strings.TrimSpace(fm.Name)
		fm.Description = strings.TrimSpace(fm.Description)
		return fm
	}
	return scanFrontmatter(block)
}

func frontmatterBlock(content string) (string, bool) {
	content = strings.TrimPrefix(content, "\uFEFF")
	rest, ok := strings.CutPrefix(content, "---")
	if !ok {
		return "", false
	}
	block, _, ok := strings.Cut(rest, "\n---")
	if !ok {
		return "", false
	}
	return block, true
}

func scanFrontmatter(block string) Frontmatter {
	var fm Frontmatter
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "name:"); ok {
			fm.Name = unquote(v)
		} else if v, ok := strings.CutPrefix(line, "description:"); ok {
			fm.Description = unquote(v)
		}
	}
	return fm
}

func unquote(v string) string {
	return strings.Trim(strings.TrimSpace(v), `"'`)
}

// ResolvePluginDir returns the bundled plugin directory below resourceDir,
// checking the installed layout first and then the development layout
// (resources/claude-skills-plugin). It returns "" when neither exists.
func ResolvePluginDir(resourceDir string) string {
	for _, candidate := range []string{
		filepath.Join(resourceDir, PluginDirName),
		filepath.Join(resourceDir, "resources", PluginDirName),
	} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}

// List returns the skills under pluginDir/skills sorted by name. A plugin
// directory without a skills folder has no skills.
func List(pluginDir string) ([]Skill, error) {
	skillsDir := filepath.Join(pluginDir, "skills")

	entries, err := os.ReadDir(skillsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Skill{}, nil
		}
		return nil, model.WrapCLIError(model.ExitIOError, fmt.Sprintf("failed to read %s", skillsDir), err)
	}

	skills := []Skill{}
	for _, entry := range entries {
		dir := filepath.Join(skillsDir, entry.Name())
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}

		var fm Frontmatter
		if content, err := os.ReadFile(filepath.Join(dir, "SKILL.md")); err == nil {
			fm = ParseFrontmatter(string(content))
		}

		skill := Skill{Name: entry.Name(), Files: listFiles(dir)}
		if fm.Name != "" {
			skill.Name = fm.Name
		}
		if fm.Description != "" {
			description := fm.Description
			skill.Description = &description
		}
		skills = append(skills, skill)
	}

	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}

// listFiles returns the names of the regular files directly inside dir.
func listFiles(dir string) []string {
	files := []string{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return files
	}
	for _, entry := range entries {
		if info, err := os.Stat(filepath.Join(dir, entry.Name())); err == nil && info.Mode().IsRegular() {
			files = append(files, entry.Name())
		}
	}
	return files
}
