// Package ledger persists migration outcomes as append-only files.
//
// Every append renders complete rows in memory and hands them to the file in
// a single write while holding the ledger's mutex, so concurrent migrations
// and restarts never leave a partial row behind.
package ledger
