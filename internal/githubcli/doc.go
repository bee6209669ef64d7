// Package githubcli wraps the GitHub CLI for repository migration workflows.
//
// It reads source repository metadata, contents and branches, fetches raw
// template files, and reuses or creates target organization repositories.
// Every call goes through execshell so interactions with GitHub can be
// stubbed during testing.
package githubcli
