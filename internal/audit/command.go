package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/gitmigrate/internal/buildsystem"
	"github.com/temirov/gitmigrate/internal/execshell"
	"github.com/temirov/gitmigrate/internal/githubauth"
	"github.com/temirov/gitmigrate/internal/githubcli"
	"github.com/temirov/gitmigrate/internal/ledger"
	"github.com/temirov/gitmigrate/internal/sourcelist"
	"github.com/temirov/gitmigrate/internal/ui"
	"github.com/temirov/gitmigrate/internal/utils"
)

const (
	commandNameConstant               = "inventory"
	commandShortDescription           = "Record language, build system, branches and size of source repositories"
	commandLongDescription            = "inventory reads owner/name identifiers from the source list and records each repository's primary language, detected build systems, branches and size in a pre-migration CSV. Repositories are only read through the hosting API."
	flagSourceListName                = "source-list"
	flagSourceListDescription         = "File listing owner/name repositories to inventory"
	flagOutputName                    = "output"
	flagOutputDescription             = "Pre-migration CSV receiving one row per repository"
	sourceListErrorTemplateConstant   = "unable to load repositories: %w"
	githubClientErrorTemplateConstant = "unable to construct GitHub client: %w"
	detectorErrorTemplateConstant     = "unable to construct build system detector: %w"
	ledgerErrorTemplateConstant       = "unable to open ledger %s: %w"
	collectorErrorTemplateConstant    = "unable to construct inventory collector: %w"
	noRepositoriesMessageConstant     = "Source list contains no repositories"
	logFieldSourceListConstant        = "source_list"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// GitHubExecutor runs gh commands.
type GitHubExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandBuilder assembles the inventory cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     GitHubExecutor
	FileSystem                   afero.Fs
	EnvironmentProvider          func() map[string]string
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the cobra command for the pre-migration inventory.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandNameConstant,
		Short:         commandShortDescription,
		Long:          commandLongDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(flagSourceListName, defaults.SourceList, flagSourceListDescription)
	command.Flags().String(flagOutputName, defaults.Output, flagOutputDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration, debugEnabled := builder.parseOptions(command)

	token, tokenError := githubauth.RequireToken(builder.resolveEnvironment())
	if tokenError != nil {
		return tokenError
	}

	logger := builder.resolveLogger(debugEnabled)

	executor, executorError := builder.resolveExecutor(logger, githubauth.CommandEnvironment(token, configuration.SourceHost))
	if executorError != nil {
		return executorError
	}
	fileSystem := builder.resolveFileSystem()

	repositories, loadError := sourcelist.LoadFile(fileSystem, configuration.SourceList)
	if loadError != nil {
		return fmt.Errorf(sourceListErrorTemplateConstant, loadError)
	}
	if repositories.Empty() {
		logger.Warn(noRepositoriesMessageConstant, zap.String(logFieldSourceListConstant, configuration.SourceList))
		return nil
	}

	githubClient, githubClientError := githubcli.NewClient(executor)
	if githubClientError != nil {
		return fmt.Errorf(githubClientErrorTemplateConstant, githubClientError)
	}
	detector, detectorError := buildsystem.NewDetector(githubClient, nil)
	if detectorError != nil {
		return fmt.Errorf(detectorErrorTemplateConstant, detectorError)
	}
	inventoryLedger, ledgerError := ledger.NewPreMigrationLedger(fileSystem, configuration.Output)
	if ledgerError != nil {
		return fmt.Errorf(ledgerErrorTemplateConstant, configuration.Output, ledgerError)
	}

	collector, collectorError := NewCollector(Dependencies{
		Logger:   logger,
		Detector: detector,
		Branches: githubClient,
		Recorder: inventoryLedger,
		Reporter: ui.NewStatusReporter(command.OutOrStdout()),
	})
	if collectorError != nil {
		return fmt.Errorf(collectorErrorTemplateConstant, collectorError)
	}

	_, runError := collector.RunSourceList(command.Context(), repositories)
	return runError
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (CommandConfiguration, bool) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	debugEnabled := false
	if command != nil {
		if logLevel, available := utils.NewCommandContextAccessor().LogLevel(command.Context()); available {
			debugEnabled = strings.EqualFold(logLevel, string(utils.LogLevelDebug))
		}
		flagSet := command.Flags()
		if flagSet.Changed(flagSourceListName) {
			configuration.SourceList, _ = flagSet.GetString(flagSourceListName)
		}
		if flagSet.Changed(flagOutputName) {
			configuration.Output, _ = flagSet.GetString(flagOutputName)
		}
	}

	return configuration.Sanitize(), debugEnabled
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	if enableDebug {
		return logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger, environment map[string]string) (GitHubExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}
	executorOptions := []execshell.ExecutorOption{execshell.WithEnvironment(environment)}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), executorOptions...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveFileSystem() afero.Fs {
	if builder.FileSystem != nil {
		return builder.FileSystem
	}
	return afero.NewOsFs()
}

func (builder *CommandBuilder) resolveEnvironment() map[string]string {
	if builder.EnvironmentProvider == nil {
		return nil
	}
	return builder.EnvironmentProvider()
}
