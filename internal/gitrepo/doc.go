// Package gitrepo parses and formats repository identifiers and remote URLs.
//
// Identifiers are the owner/name strings read from the source list; remote
// URLs are the HTTPS and SSH forms git and the ledgers work with.
package gitrepo
