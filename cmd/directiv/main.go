// Package main is the entry point for the directiv CLI.
//
// It delegates all functionality to the internal/cli package. Build-time
// variables are injected via ldflags.
package main

import (
	"context"

	"github.com/mmr-tortoise/directiv/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Git operations run to completion; an interrupt reaches git through
	// the terminal's process group rather than through ctx.
	cli.Execute(context.Background(), cli.NewRootCommand())
}
