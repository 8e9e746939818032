package worktree

import (
	"context"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/directiv/internal/model"
)

// Probe gathers the health of the worktree at path. Every probe is
// best-effort: a failing status check reports a clean tree, and a failing
// ahead/behind check (no upstream, detached HEAD, unparsable output)
// reports zero counts.
func (m *Manager) Probe(ctx context.Context, path, branch string) model.Health {
	var health model.Health

	if out, ok := m.probe(ctx, path, "status", "--porcelain"); ok {
		health.IsDirty = out != ""
	}

	if branch == "" {
		return health
	}
	if out, ok := m.probe(ctx, path, "rev-list", "--left-right", "--count", branch+"..."+branch+"@{upstream}"); ok {
		health.Ahead, health.Behind = ParseAheadBehind(out)
	}
	return health
}

// ParseAheadBehind parses the "<ahead>\t<behind>" output of
// `git rev-list --left-right --count`. Anything other than exactly two
// non-negative integers yields (0, 0).
func ParseAheadBehind(out string) (ahead, behind int) {
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0
	}
	a, errA := strconv.Atoi(fields[0])
	b, errB := strconv.Atoi(fields[1])
	if errA != nil || errB != nil || a < 0 || b < 0 {
		return 0, 0
	}
	return a, b
}
