package execshell

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMessageFormatterStartedMessages(testInstance *testing.T) {
	testCases := []struct {
		name            string
		command         ShellCommand
		expectedMessage string
	}{
		{
			name: "mirror_clone",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments: []string{"clone", "--mirror", "https://github.com/acme/widgets.git", "/work/acme/widgets-repo"},
			}},
			expectedMessage: "Mirroring https://github.com/acme/widgets.git into /work/acme/widgets-repo",
		},
		{
			name: "working_clone",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments: []string{"clone", "/work/acme/widgets-repo", "/work/acme/widgets-worktree"},
			}},
			expectedMessage: "Cloning /work/acme/widgets-repo into /work/acme/widgets-worktree",
		},
		{
			name: "remote_remove",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"remote", "rm", "origin"},
				WorkingDirectory: "/work/acme/widgets-repo",
			}},
			expectedMessage: "Removing origin remote in /work/acme/widgets-repo",
		},
		{
			name: "remote_add",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"remote", "add", "origin", "https://github.com/capgemini-cg-demo/widgets.git"},
				WorkingDirectory: "/work/acme/widgets-repo",
			}},
			expectedMessage: "Pointing origin remote in /work/acme/widgets-repo to https://github.com/capgemini-cg-demo/widgets.git",
		},
		{
			name: "push_all",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"push", "--all", "origin"},
				WorkingDirectory: "/work/acme/widgets-repo",
			}},
			expectedMessage: "Pushing all branches to origin from /work/acme/widgets-repo",
		},
		{
			name: "push_tags",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"push", "--tags", "origin"},
				WorkingDirectory: "/work/acme/widgets-repo",
			}},
			expectedMessage: "Pushing all tags to origin from /work/acme/widgets-repo",
		},
		{
			name: "push_reference",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"push", "origin", "main"},
				WorkingDirectory: "/work/acme/widgets-worktree",
			}},
			expectedMessage: "Pushing main to origin from /work/acme/widgets-worktree",
		},
		{
			name: "commit",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"commit", "-m", "Added CI workflow file"},
				WorkingDirectory: "/work/acme/widgets-worktree",
			}},
			expectedMessage: `Creating commit in /work/acme/widgets-worktree with message "Added CI workflow file"`,
		},
		{
			name: "garbage_collection_without_directory",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments: []string{"gc"},
			}},
			expectedMessage: "Compacting repository in current directory",
		},
		{
			name: "github_api_default_method",
			command: ShellCommand{Name: CommandGitHub, Details: CommandDetails{
				Arguments: []string{"api", "repos/acme/widgets/contents/"},
			}},
			expectedMessage: "Calling GitHub API GET repos/acme/widgets/contents/",
		},
		{
			name: "github_api_post",
			command: ShellCommand{Name: CommandGitHub, Details: CommandDetails{
				Arguments: []string{"api", "-X", "POST", "orgs/capgemini-cg-demo/repos", "-f", "name=widgets"},
			}},
			expectedMessage: "Calling GitHub API POST orgs/capgemini-cg-demo/repos",
		},
		{
			name: "github_repo_view",
			command: ShellCommand{Name: CommandGitHub, Details: CommandDetails{
				Arguments: []string{"repo", "view", "acme/widgets", "--json", "nameWithOwner"},
			}},
			expectedMessage: "Retrieving repository details for acme/widgets",
		},
		{
			name: "generic_fallback",
			command: ShellCommand{Name: CommandGit, Details: CommandDetails{
				Arguments:        []string{"status"},
				WorkingDirectory: "/work",
			}},
			expectedMessage: "Running git status (in /work)",
		},
	}

	formatter := CommandMessageFormatter{}
	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedMessage, formatter.BuildStartedMessage(testCase.command))
		})
	}
}

func TestCommandMessageFormatterFailureMessages(testInstance *testing.T) {
	formatter := CommandMessageFormatter{}
	pushCommand := ShellCommand{Name: CommandGit, Details: CommandDetails{
		Arguments:        []string{"push", "--all", "origin"},
		WorkingDirectory: "/work/acme/widgets-repo",
	}}

	failureMessage := formatter.BuildFailureMessage(pushCommand, ExecutionResult{ExitCode: 128, StandardError: "remote rejected\n"})
	require.Equal(testInstance, "Failed to push all branches to origin from /work/acme/widgets-repo (exit code 128: remote rejected)", failureMessage)

	executionFailureMessage := formatter.BuildExecutionFailureMessage(pushCommand, errors.New("executable not found"))
	require.Equal(testInstance, "Unable to push all branches to origin from /work/acme/widgets-repo: executable not found", executionFailureMessage)

	require.Equal(testInstance, "Pushed all branches to origin from /work/acme/widgets-repo", formatter.BuildSuccessMessage(pushCommand))
}
