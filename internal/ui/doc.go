// Package ui renders what a migration run shows on the terminal: colored
// per-step status lines, repository separators, human-readable command
// events and the closing summary table.
package ui
