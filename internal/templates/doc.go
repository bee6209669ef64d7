// Package templates retrieves CI workflow templates from the centralized
// workflow repository and picks the first one available for a repository's
// build systems.
package templates
