// Package workspace owns the local directories a migration uses.
//
// Each repository receives a mirror path and a worktree path derived from its
// identifier, so concurrent migrations never share a directory and a rerun
// always finds (and clears) the leftovers of an aborted one. A file lock keeps
// two processes out of the same workspace.
package workspace
