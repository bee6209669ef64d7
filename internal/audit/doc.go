// Package audit inventories source repositories before a migration.
//
// The Collector reads each repository through the hosting API only: it detects the
// build system, enumerates branches and records the repository size in the
// pre-migration ledger. Nothing is cloned and nothing is written to the target host.
package audit
