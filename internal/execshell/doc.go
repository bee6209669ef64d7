// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging, a shared environment
// (used to carry GitHub credentials) and lifecycle notifications, while
// OSCommandRunner resolves git and gh through safeexec before running them.
// Non-zero exits surface as CommandFailedError so callers can decide whether a
// failure is fatal for the repository being migrated.
package execshell
