package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	defaultAPIMethodConstant                = "GET"
)

const (
	gitCloneSubcommandNameConstant  = "clone"
	gitMirrorFlagConstant           = "--mirror"
	gitRemoteSubcommandNameConstant = "remote"
	gitRemoteRemoveConstant         = "rm"
	gitRemoteAddConstant            = "add"
	gitPushSubcommandNameConstant   = "push"
	gitAllFlagConstant              = "--all"
	gitTagsFlagConstant             = "--tags"
	gitAddSubcommandNameConstant    = "add"
	gitCommitSubcommandNameConstant = "commit"
	gitMessageFlagConstant          = "-m"
	gitGCSubcommandNameConstant     = "gc"
)

// stageTemplates holds the four lifecycle templates for a described operation.
// Start and success templates receive the subject arguments; failure templates
// additionally receive the exit code and standard error suffix, execution
// failure templates receive the failure description.
type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	gitMirrorCloneTemplates = stageTemplates{
		start:            "Mirroring %s into %s",
		success:          "Mirrored %s into %s",
		failure:          "Failed to mirror %s into %s (exit code %d%s)",
		executionFailure: "Unable to mirror %s into %s: %s",
	}
	gitCloneTemplates = stageTemplates{
		start:            "Cloning %s into %s",
		success:          "Cloned %s into %s",
		failure:          "Failed to clone %s into %s (exit code %d%s)",
		executionFailure: "Unable to clone %s into %s: %s",
	}
	gitRemoteRemoveTemplates = stageTemplates{
		start:            "Removing %s remote in %s",
		success:          "Removed %s remote in %s",
		failure:          "Failed to remove %s remote in %s (exit code %d%s)",
		executionFailure: "Unable to remove %s remote in %s: %s",
	}
	gitRemoteAddTemplates = stageTemplates{
		start:            "Pointing %s remote in %s to %s",
		success:          "%s remote in %s now points to %s",
		failure:          "Failed to point %s remote in %s to %s (exit code %d%s)",
		executionFailure: "Unable to point %s remote in %s to %s: %s",
	}
	gitPushAllTemplates = stageTemplates{
		start:            "Pushing all branches to %s from %s",
		success:          "Pushed all branches to %s from %s",
		failure:          "Failed to push all branches to %s from %s (exit code %d%s)",
		executionFailure: "Unable to push all branches to %s from %s: %s",
	}
	gitPushTagsTemplates = stageTemplates{
		start:            "Pushing all tags to %s from %s",
		success:          "Pushed all tags to %s from %s",
		failure:          "Failed to push all tags to %s from %s (exit code %d%s)",
		executionFailure: "Unable to push all tags to %s from %s: %s",
	}
	gitPushReferenceTemplates = stageTemplates{
		start:            "Pushing %s to %s from %s",
		success:          "Pushed %s to %s from %s",
		failure:          "Failed to push %s to %s from %s (exit code %d%s)",
		executionFailure: "Unable to push %s to %s from %s: %s",
	}
	gitAddTemplates = stageTemplates{
		start:            "Staging %s in %s",
		success:          "Staged %s in %s",
		failure:          "Failed to stage %s in %s (exit code %d%s)",
		executionFailure: "Unable to stage %s in %s: %s",
	}
	gitCommitTemplates = stageTemplates{
		start:            "Creating commit in %s with message %q",
		success:          "Created commit in %s with message %q",
		failure:          "Failed to create commit in %s with message %q (exit code %d%s)",
		executionFailure: "Unable to create commit in %s with message %q: %s",
	}
	gitGCTemplates = stageTemplates{
		start:            "Compacting repository in %s",
		success:          "Compacted repository in %s",
		failure:          "Failed to compact repository in %s (exit code %d%s)",
		executionFailure: "Unable to compact repository in %s: %s",
	}
	githubAPITemplates = stageTemplates{
		start:            "Calling GitHub API %s %s",
		success:          "GitHub API %s %s succeeded",
		failure:          "GitHub API %s %s failed (exit code %d%s)",
		executionFailure: "Unable to call GitHub API %s %s: %s",
	}
	githubRepoViewTemplates = stageTemplates{
		start:            "Retrieving repository details for %s",
		success:          "Retrieved repository details for %s",
		failure:          "Failed to retrieve repository details for %s (exit code %d%s)",
		executionFailure: "Unable to retrieve repository details for %s: %s",
	}
)

const (
	githubRepoSubcommandNameConstant     = "repo"
	githubRepoViewSubcommandNameConstant = "view"
	githubAPICommandNameConstant         = "api"
	githubMethodFlagConstant             = "-X"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGitHub:
		return formatter.describeGitHubMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(arguments[0]) {
	case gitCloneSubcommandNameConstant:
		positional := formatter.positionalArguments(arguments[1:])
		source := formatter.ensureValue(formatter.valueAt(positional, 0))
		destination := formatter.ensureValue(formatter.valueAt(positional, 1))
		if containsArgument(arguments, gitMirrorFlagConstant) {
			return formatter.render(gitMirrorCloneTemplates, stage, result, failure, source, destination)
		}
		return formatter.render(gitCloneTemplates, stage, result, failure, source, destination)
	case gitRemoteSubcommandNameConstant:
		operation := formatter.valueAt(arguments, 1)
		remoteName := formatter.ensureValue(formatter.valueAt(arguments, 2))
		switch operation {
		case gitRemoteRemoveConstant:
			return formatter.render(gitRemoteRemoveTemplates, stage, result, failure, remoteName, workingDirectory)
		case gitRemoteAddConstant:
			remoteURL := formatter.ensureValue(formatter.valueAt(arguments, 3))
			return formatter.render(gitRemoteAddTemplates, stage, result, failure, remoteName, workingDirectory, remoteURL)
		}
	case gitPushSubcommandNameConstant:
		positional := formatter.positionalArguments(arguments[1:])
		remoteName := formatter.ensureValue(formatter.valueAt(positional, 0))
		switch {
		case containsArgument(arguments, gitAllFlagConstant):
			return formatter.render(gitPushAllTemplates, stage, result, failure, remoteName, workingDirectory)
		case containsArgument(arguments, gitTagsFlagConstant):
			return formatter.render(gitPushTagsTemplates, stage, result, failure, remoteName, workingDirectory)
		default:
			references := formatter.ensureValue(strings.Join(positional[min(1, len(positional)):], ", "))
			return formatter.render(gitPushReferenceTemplates, stage, result, failure, references, remoteName, workingDirectory)
		}
	case gitAddSubcommandNameConstant:
		paths := formatter.ensureValue(strings.Join(formatter.positionalArguments(arguments[1:]), ", "))
		return formatter.render(gitAddTemplates, stage, result, failure, paths, workingDirectory)
	case gitCommitSubcommandNameConstant:
		return formatter.render(gitCommitTemplates, stage, result, failure, workingDirectory, formatter.extractCommitMessage(arguments))
	case gitGCSubcommandNameConstant:
		return formatter.render(gitGCTemplates, stage, result, failure, workingDirectory)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitHubMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch strings.TrimSpace(arguments[0]) {
	case githubAPICommandNameConstant:
		method := findFlagValue(arguments, githubMethodFlagConstant)
		if len(method) == 0 {
			method = defaultAPIMethodConstant
		}
		endpoint := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[1:]))
		return formatter.render(githubAPITemplates, stage, result, failure, method, endpoint)
	case githubRepoSubcommandNameConstant:
		if formatter.valueAt(arguments, 1) == githubRepoViewSubcommandNameConstant {
			repository := formatter.ensureValue(formatter.valueAt(arguments, 2))
			return formatter.render(githubRepoViewTemplates, stage, result, failure, repository)
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) render(templates stageTemplates, stage messageStage, result ExecutionResult, failure error, subjects ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjects...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjects...)
	case messageStageFailure:
		failureArguments := append(append([]any{}, subjects...), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(templates.failure, failureArguments...)
	default:
		executionArguments := append(append([]any{}, subjects...), formatter.describeFailure(failure))
		return fmt.Sprintf(templates.executionFailure, executionArguments...)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandParts := []string{string(command.Name)}
	if len(command.Details.Arguments) > 0 {
		commandParts = append(commandParts, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)

	workingDirectorySuffix := emptyStringConstant
	if trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmed := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmed) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmed := strings.TrimSpace(standardError)
	if len(trimmed) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmed)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) valueAt(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func (formatter CommandMessageFormatter) positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, "-") {
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	for index := 0; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			index++
			continue
		}
		return trimmed
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractCommitMessage(arguments []string) string {
	message := findFlagValue(arguments, gitMessageFlagConstant)
	if len(message) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return message
}

func containsArgument(arguments []string, candidate string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == candidate {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return emptyStringConstant
}
