package testsupport

import (
	"context"
	"strings"
	"sync"

	"github.com/temirov/gitmigrate/internal/execshell"
)

const (
	argumentSeparatorConstant  = " "
	notFoundStandardErrorValue = "gh: Not Found (HTTP 404)"
	notFoundExitCodeConstant   = 1
)

// CommandResponse is the scripted result of one command.
type CommandResponse struct {
	Output string
	Error  error
}

// CommandKey joins arguments the way ExecutorStub keys its scripted responses.
func CommandKey(arguments ...string) string {
	return strings.Join(arguments, argumentSeparatorConstant)
}

// NotFoundError builds the failure gh reports for a missing resource.
func NotFoundError(arguments ...string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGitHub, Details: execshell.CommandDetails{Arguments: arguments}},
		Result:  execshell.ExecutionResult{StandardError: notFoundStandardErrorValue, ExitCode: notFoundExitCodeConstant},
	}
}

// ExecutorStub records git and GitHub CLI invocations and replays scripted responses.
// Unscripted git commands succeed; unscripted gh commands fail as not found.
type ExecutorStub struct {
	GitHubResponses        map[string]CommandResponse
	GitErrors              map[string]error
	GitObserver            func(details execshell.CommandDetails)
	ExecutedGitCommands    []execshell.CommandDetails
	ExecutedGitHubCommands []execshell.CommandDetails
	guard                  sync.Mutex
}

// ExecuteGit records the command and returns the scripted error for its arguments, if any.
func (executor *ExecutorStub) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.guard.Lock()
	defer executor.guard.Unlock()

	executor.ExecutedGitCommands = append(executor.ExecutedGitCommands, details)
	if executor.GitObserver != nil {
		executor.GitObserver(details)
	}
	if scriptedError, exists := executor.GitErrors[CommandKey(details.Arguments...)]; exists {
		return execshell.ExecutionResult{}, scriptedError
	}
	return execshell.ExecutionResult{ExitCode: 0}, nil
}

// ExecuteGitHubCLI records the command and returns its scripted response.
func (executor *ExecutorStub) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.guard.Lock()
	defer executor.guard.Unlock()

	executor.ExecutedGitHubCommands = append(executor.ExecutedGitHubCommands, details)
	response, exists := executor.GitHubResponses[CommandKey(details.Arguments...)]
	if !exists {
		return execshell.ExecutionResult{}, NotFoundError(details.Arguments...)
	}
	if response.Error != nil {
		return execshell.ExecutionResult{}, response.Error
	}
	return execshell.ExecutionResult{StandardOutput: response.Output, ExitCode: 0}, nil
}

// GitArguments returns the recorded git argument lists joined with spaces.
func (executor *ExecutorStub) GitArguments() []string {
	executor.guard.Lock()
	defer executor.guard.Unlock()

	joined := make([]string, 0, len(executor.ExecutedGitCommands))
	for _, details := range executor.ExecutedGitCommands {
		joined = append(joined, CommandKey(details.Arguments...))
	}
	return joined
}

// FailGit makes the git command with the given arguments return failure.
func (executor *ExecutorStub) FailGit(failure error, arguments ...string) {
	executor.guard.Lock()
	defer executor.guard.Unlock()

	if executor.GitErrors == nil {
		executor.GitErrors = map[string]error{}
	}
	executor.GitErrors[CommandKey(arguments...)] = failure
}
