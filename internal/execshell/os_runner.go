package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/cli/safeexec"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
	executableLookupErrorTemplateConstant  = "unable to locate %s executable: %w"
)

// ExecutableLocator resolves an executable name to an absolute path.
type ExecutableLocator func(executableName string) (string, error)

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct {
	locator          ExecutableLocator
	resolvedPaths    map[CommandName]string
	resolutionsGuard sync.Mutex
}

// NewOSCommandRunner constructs a runner backed by os/exec that resolves executables with safeexec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{locator: safeexec.LookPath, resolvedPaths: map[CommandName]string{}}
}

// Run executes the supplied command using os/exec.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executablePath, lookupError := runner.resolve(command.Name)
	if lookupError != nil {
		return ExecutionResult{}, lookupError
	}

	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, executablePath, commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}

func (runner *OSCommandRunner) resolve(commandName CommandName) (string, error) {
	runner.resolutionsGuard.Lock()
	defer runner.resolutionsGuard.Unlock()

	if resolvedPath, cached := runner.resolvedPaths[commandName]; cached {
		return resolvedPath, nil
	}

	locator := runner.locator
	if locator == nil {
		locator = safeexec.LookPath
	}
	resolvedPath, lookupError := locator(string(commandName))
	if lookupError != nil {
		return "", fmt.Errorf(executableLookupErrorTemplateConstant, commandName, lookupError)
	}

	if runner.resolvedPaths == nil {
		runner.resolvedPaths = map[CommandName]string{}
	}
	runner.resolvedPaths[commandName] = resolvedPath
	return resolvedPath, nil
}
