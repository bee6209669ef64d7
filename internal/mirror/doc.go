// Package mirror moves a repository's full history from its source to its
// target with git: a mirror clone, a working clone used to commit an optional
// workflow file, and a push of every branch and tag through a freshly added
// origin remote.
package mirror
