// Package githubauth locates GitHub credentials and turns them into process
// environment for the git and gh executables.
package githubauth
