package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandFailedErrorTemplateConstant        = "%s exited with code %d%s"
	commandExecutionErrorTemplateConstant     = "%s could not be executed: %v"
	logFieldCommandNameConstant               = "command"
	logFieldArgumentsConstant                 = "arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "stderr"
)

// CommandName identifies an external executable supported by the executor.
type CommandName string

// Supported command names.
const (
	CommandGit    CommandName = CommandName("git")
	CommandGitHub CommandName = CommandName("gh")
)

// CommandDetails describes arguments and process settings for a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs a ShellCommand and reports its result.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that ran but exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failedError CommandFailedError) Error() string {
	standardError := strings.TrimSpace(failedError.Result.StandardError)
	suffix := ""
	if len(standardError) > 0 {
		suffix = ": " + standardError
	}
	return fmt.Sprintf(commandFailedErrorTemplateConstant, describeCommand(failedError.Command), failedError.Result.ExitCode, suffix)
}

// CommandExecutionError reports a command that could not be started.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, describeCommand(executionError.Command), executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ExecutorOption customizes a ShellExecutor.
type ExecutorOption func(executor *ShellExecutor)

// WithCommandEventObserver registers an observer notified about every command lifecycle.
func WithCommandEventObserver(observer CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.observer = observer
		}
	}
}

// WithEnvironment sets environment variables applied to every command before per-command overrides.
func WithEnvironment(environment map[string]string) ExecutorOption {
	return func(executor *ShellExecutor) {
		for environmentKey, environmentValue := range environment {
			executor.environment[environmentKey] = environmentValue
		}
	}
}

// ShellExecutor runs git and GitHub CLI commands with structured logging.
type ShellExecutor struct {
	logger      *zap.Logger
	runner      CommandRunner
	observer    CommandEventObserver
	environment map[string]string
	formatter   CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor around the provided runner.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:      logger,
		runner:      runner,
		observer:    noopCommandEventObserver{},
		environment: map[string]string{},
		formatter:   CommandMessageFormatter{},
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}

	return executor, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitHubCLI runs gh with the provided details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}

// Execute runs the command, logging its lifecycle and converting non-zero exits into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	preparedCommand := executor.prepare(command)
	commandFields := []zap.Field{
		zap.String(logFieldCommandNameConstant, string(preparedCommand.Name)),
		zap.Strings(logFieldArgumentsConstant, preparedCommand.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, preparedCommand.Details.WorkingDirectory),
	}

	executor.logger.Debug(executor.formatter.BuildStartedMessage(preparedCommand), commandFields...)
	executor.observer.CommandStarted(preparedCommand)

	result, runError := executor.runner.Run(executionContext, preparedCommand)
	if runError != nil {
		executor.logger.Error(executor.formatter.BuildExecutionFailureMessage(preparedCommand, runError), append(commandFields, zap.Error(runError))...)
		executor.observer.CommandExecutionFailed(preparedCommand, runError)
		return ExecutionResult{}, CommandExecutionError{Command: preparedCommand, Cause: runError}
	}

	executor.observer.CommandCompleted(preparedCommand, result)

	if result.ExitCode != 0 {
		executor.logger.Warn(
			executor.formatter.BuildFailureMessage(preparedCommand, result),
			append(commandFields,
				zap.Int(logFieldExitCodeConstant, result.ExitCode),
				zap.String(logFieldStandardErrorConstant, strings.TrimSpace(result.StandardError)),
			)...,
		)
		return ExecutionResult{}, CommandFailedError{Command: preparedCommand, Result: result}
	}

	executor.logger.Debug(executor.formatter.BuildSuccessMessage(preparedCommand), commandFields...)
	return result, nil
}

func (executor *ShellExecutor) prepare(command ShellCommand) ShellCommand {
	if len(executor.environment) == 0 {
		return command
	}

	mergedEnvironment := make(map[string]string, len(executor.environment)+len(command.Details.EnvironmentVariables))
	for environmentKey, environmentValue := range executor.environment {
		mergedEnvironment[environmentKey] = environmentValue
	}
	for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
		mergedEnvironment[environmentKey] = environmentValue
	}

	prepared := command
	prepared.Details.EnvironmentVariables = mergedEnvironment
	return prepared
}

func describeCommand(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, " "))
	}
	return strings.Join(commandParts, " ")
}
