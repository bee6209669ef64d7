// Package cli constructs the gitmigrate command-line interface. It wires the Cobra
// command hierarchy, loads the embedded defaults, configuration file and GITMIGRATE_
// environment overrides, builds the zap logger and registers the migrate and
// inventory commands.
package cli
