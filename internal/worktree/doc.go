// Package worktree provides the Git worktree lifecycle operations of the
// directiv CLI: create, list with health, remove, merge detection and
// default-branch discovery.
//
// All Git operations are performed by running the git binary through a
// process.Runner, rather than using a Git library like go-git. This approach:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same Git behavior the user sees in their terminal
//   - Lets tests script git's answers with processtest.FakeRunner
//
// Worktrees are laid out as sibling directories of the repository:
//
//	<parent>/<repo>/                  main checkout
//	<parent>/<repo>-worktrees/<id>/   one linked worktree per issue id
//
// That layout is a contract other tools rely on.
package worktree
