// Package migrate drives the bulk migration of source repositories into a target
// organization. The Orchestrator walks each repository through detection, template
// lookup, mirroring, target provisioning, pushing, ledger recording and cleanup, and
// the migrate command wires it to the GitHub CLI, the workspace and the CSV ledgers.
package migrate
