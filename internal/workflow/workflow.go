// Package workflow sequences the worktree manager, tmux, hooks and the
// terminal launcher into the start and stop task flows.
package workflow

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mmr-tortoise/directiv/internal/config"
	"github.com/mmr-tortoise/directiv/internal/model"
	"github.com/mmr-tortoise/directiv/internal/terminal"
	"github.com/mmr-tortoise/directiv/internal/tmux"
	"github.com/mmr-tortoise/directiv/internal/worktree"
)

// DefaultAgent is the command typed into a fresh session.
const DefaultAgent = "claude"

// Worktrees is the subset of *worktree.Manager the flows use.
type Worktrees interface {
	List(ctx context.Context, repoPath string) ([]model.WorktreeRecord, error)
	Create(ctx context.Context, opts worktree.CreateOptions) (*model.WorktreeRecord, error)
	Remove(ctx context.Context, opts worktree.RemoveOptions) error
}

// Sessions is the subset of *tmux.Client the flows use.
type Sessions interface {
	ListSessions(ctx context.Context) ([]tmux.Session, error)
	CreateSession(ctx context.Context, name, dir string) (tmux.Session, error)
	KillSession(ctx context.Context, name string) error
	SendKeys(ctx context.Context, session, keys string) error
	WaitForReady(ctx context.Context, session string, timeout time.Duration) error
}

// Hooks runs onStart commands.
type Hooks interface {
	Run(ctx context.Context, commands []string, dir string) error
}

// Terminals opens terminal windows.
type Terminals interface {
	OpenTerminal(ctx context.Context, e terminal.Emulator, session string) error
}

// Starter runs the task flows.
type Starter struct {
	Worktrees Worktrees
	Sessions  Sessions
	Hooks     Hooks
	Terminals Terminals
	Logger    *log.Logger

	// Agent is the command launched in new sessions. Empty means DefaultAgent.
	Agent string

	// ReadyTimeout bounds the wait for a new session's shell.
	ReadyTimeout time.Duration
}

func (s *Starter) logger() *log.Logger {
	if s.Logger == nil {
		return log.New(io.Discard)
	}
	return s.Logger
}

// StartParams describes one task start.
type StartParams struct {
	// Identifier names the branch, the worktree and (sanitized) the session.
	Identifier string
	RepoPath   string
	Repo       config.RepoConfig

	// Skill, when set, starts the agent on "/<skill> <identifier>".
	Skill string

	// Terminal is opened on the session unless NoTerminal is set.
	Terminal   terminal.Emulator
	NoTerminal bool
}

// StartResult reports what Start reused or created.
type StartResult struct {
	Worktree        model.WorktreeRecord `json:"worktree"`
	Session         string               `json:"session"`
	CreatedWorktree bool                 `json:"createdWorktree"`
	CreatedSession  bool                 `json:"createdSession"`
}

// AgentCommand returns the keys typed into a new session.
func AgentCommand(agent, skill, identifier string) string {
	if agent == "" {
		agent = DefaultAgent
	}
	if skill == "" {
		return agent
	}
	return fmt.Sprintf(`%s "/%s %s"`, agent, skill, identifier)
}

// Start reuses or creates the worktree and tmux session for a task.
//
// A new session is waited on, gets the repository's onStart hooks and then
// the agent command. If any of those steps fails the session is killed so
// that a retry starts from a fresh one; the worktree is kept. Opening the
// terminal is best-effort and only logged on failure.
func (s *Starter) Start(ctx context.Context, p StartParams) (*StartResult, error) {
	logger := s.logger()
	result := &StartResult{Session: tmux.SessionName(p.Identifier)}

	wt, err := s.findWorktree(ctx, p.RepoPath, p.Identifier)
	if err != nil {
		return nil, err
	}
	if wt == nil {
		wt, err = s.Worktrees.Create(ctx, worktree.CreateOptions{
			RepoPath:          p.RepoPath,
			IssueID:           p.Identifier,
			CopyPaths:         p.Repo.CopyPaths,
			BaseBranch:        p.Repo.BaseBranch,
			FetchBeforeCreate: p.Repo.FetchBeforeCreate,
		})
		if err != nil {
			return nil, err
		}
		result.CreatedWorktree = true
	}
	result.Worktree = *wt

	exists, err := s.hasSession(ctx, result.Session)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := s.Sessions.CreateSession(ctx, result.Session, wt.Path); err != nil {
			return nil, err
		}
		if err := s.prepareSession(ctx, result.Session, wt.Path, p); err != nil {
			if killErr := s.Sessions.KillSession(ctx, result.Session); killErr != nil {
				logger.Warn("failed to roll back tmux session", "session", result.Session, "err", killErr)
			}
			return nil, err
		}
		result.CreatedSession = true
	}

	if !p.NoTerminal {
		if err := s.Terminals.OpenTerminal(ctx, p.Terminal, result.Session); err != nil {
			logger.Warn("failed to open terminal", "terminal", p.Terminal, "err", err)
		}
	}
	return result, nil
}

func (s *Starter) prepareSession(ctx context.Context, session, dir string, p StartParams) error {
	if err := s.Sessions.WaitForReady(ctx, session, s.ReadyTimeout); err != nil {
		return err
	}
	if len(p.Repo.OnStart) > 0 {
		if err := s.Hooks.Run(ctx, p.Repo.OnStart, dir); err != nil {
			return err
		}
	}
	return s.Sessions.SendKeys(ctx, session, AgentCommand(s.Agent, p.Skill, p.Identifier))
}

func (s *Starter) findWorktree(ctx context.Context, repoPath, branch string) (*model.WorktreeRecord, error) {
	records, err := s.Worktrees.List(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Branch == branch {
			return &records[i], nil
		}
	}
	return nil, nil
}

func (s *Starter) hasSession(ctx context.Context, name string) (bool, error) {
	sessions, err := s.Sessions.ListSessions(ctx)
	if err != nil {
		return false, err
	}
	for _, session := range sessions {
		if session.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// StopParams describes one task stop.
type StopParams struct {
	Identifier string

	// RepoPaths are searched for a worktree on the identifier's branch,
	// which is removed when RemoveWorktree is set.
	RepoPaths      []string
	RemoveWorktree bool
	DeleteBranch   bool
}

// Stop kills the task's tmux session if it runs and optionally removes its
// worktrees. A missing session is not an error.
func (s *Starter) Stop(ctx context.Context, p StopParams) error {
	session := tmux.SessionName(p.Identifier)

	exists, err := s.hasSession(ctx, session)
	if err != nil {
		return err
	}
	if exists {
		if err := s.Sessions.KillSession(ctx, session); err != nil {
			return err
		}
	}

	if !p.RemoveWorktree {
		return nil
	}
	for _, repo := range p.RepoPaths {
		wt, err := s.findWorktree(ctx, repo, p.Identifier)
		if err != nil {
			return err
		}
		if wt == nil {
			continue
		}
		if err := s.Worktrees.Remove(ctx, worktree.RemoveOptions{
			RepoPath:     repo,
			WorktreePath: wt.Path,
			Branch:       wt.Branch,
			DeleteBranch: p.DeleteBranch,
		}); err != nil {
			return err
		}
	}
	return nil
}
