// Package cli: list_test.go contains unit tests for the pure formatting
// functions used by the list command and other CLI output helpers.
package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmr-tortoise/directiv/internal/model"
)

// TestFormatHealth verifies the human-readable health column.
func TestFormatHealth(t *testing.T) {
	tests := []struct {
		name   string
		health model.Health
		want   string
	}{
		{name: "zero value is clean", health: model.Health{}, want: "clean"},
		{name: "dirty only", health: model.Health{IsDirty: true}, want: "dirty"},
		{name: "ahead only", health: model.Health{Ahead: 2}, want: "ahead 2"},
		{name: "behind only", health: model.Health{Behind: 5}, want: "behind 5"},
		{
			name:   "everything",
			health: model.Health{IsDirty: true, Ahead: 1, Behind: 3},
			want:   "dirty, ahead 1, behind 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatHealth(tt.health))
		})
	}
}

// TestPrintListResultText verifies the table layout, including records
// without an issue id.
func TestPrintListResultText(t *testing.T) {
	var buf bytes.Buffer
	printListResultText(&buf, nil)
	assert.Equal(t, "No worktrees found.\n", buf.String())

	buf.Reset()
	printListResultText(&buf, []model.WorktreeRecord{
		model.NewWorktreeRecord("/src/app", "", model.Health{}),
		model.NewWorktreeRecord("/src/app-worktrees/FOO-1", "FOO-1", model.Health{IsDirty: true, Ahead: 2}),
	})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "ISSUE")
	assert.Regexp(t, `^-\s+clean\s+/src/app$`, string(lines[1]))
	assert.Regexp(t, `^FOO-1\s+dirty, ahead 2\s+/src/app-worktrees/FOO-1$`, string(lines[2]))
}

// TestPrintError verifies the text and JSON error formats.
func TestPrintError(t *testing.T) {
	t.Cleanup(func() { jsonOutput = false })

	err := model.WrapCLIError(model.ExitGitError, "failed to create worktree", errors.New("fatal: bad ref"))

	var buf bytes.Buffer
	jsonOutput = false
	printError(&buf, err)
	assert.Equal(t, "Error: failed to create worktree: fatal: bad ref\n", buf.String())

	buf.Reset()
	jsonOutput = true
	printError(&buf, err)
	assert.JSONEq(t, `{"error": {"message": "failed to create worktree", "code": 5, "detail": "fatal: bad ref"}}`, buf.String())

	buf.Reset()
	printError(&buf, errors.New("plain"))
	assert.JSONEq(t, `{"error": {"message": "plain", "code": 1}}`, buf.String())
}
