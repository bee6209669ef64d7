package migrate

import (
	"context"
	"errors"
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
	"github.com/temirov/gitmigrate/internal/mirror"
	"github.com/temirov/gitmigrate/internal/sourcelist"
	"github.com/temirov/gitmigrate/internal/templates"
	"github.com/temirov/gitmigrate/internal/ui"
	"github.com/temirov/gitmigrate/internal/utils"
	"github.com/temirov/gitmigrate/internal/workspace"
)

const (
	commandUseConstant                      = "migrate"
	commandShortDescriptionConstant         = "Mirror repositories into the target organization"
	commandLongDescriptionConstant          = "migrate reads owner/name identifiers from the source list, detects each repository's build system, mirrors every branch and tag into the target organization, attaches a matching CI workflow when a template exists, and records the outcome in the migration ledgers."
	sourceListFlagNameConstant              = "source-list"
	sourceListFlagUsageConstant             = "File listing owner/name repositories to migrate"
	organizationFlagNameConstant            = "organization"
	organizationFlagUsageConstant           = "Target organization receiving the repositories"
	parallelismFlagNameConstant             = "parallelism"
	parallelismFlagUsageConstant            = "Number of repositories migrated concurrently"
	settleDelayFlagNameConstant             = "settle-delay"
	settleDelayFlagUsageConstant            = "Pause after a successful push before the ledgers are written"
	failOnErrorFlagNameConstant             = "fail-on-error"
	failOnErrorFlagUsageConstant            = "Exit with an error when any repository fails"
	sourceListErrorTemplateConstant         = "unable to load repositories: %w"
	workspaceErrorTemplateConstant          = "unable to prepare workspace: %w"
	githubClientCreationErrorTemplate       = "unable to construct GitHub client: %w"
	detectorCreationErrorTemplateConstant   = "unable to construct build system detector: %w"
	fetcherCreationErrorTemplateConstant    = "unable to construct template fetcher: %w"
	transportCreationErrorTemplateConstant  = "unable to construct mirror transport: %w"
	ledgerCreationErrorTemplateConstant     = "unable to open ledger %s: %w"
	orchestratorCreationErrorTemplate       = "unable to construct orchestrator: %w"
	failedRepositoriesErrorTemplateConstant = "%d repositories failed to migrate: %w"
	workspaceUnlockFailedMessageConstant    = "Workspace unlock failed"
	noRepositoriesMessageConstant           = "Source list contains no repositories"
	logFieldSourceListConstant              = "source_list"
)

// GitHubExecutor runs git and gh commands.
type GitHubExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// EnvironmentProvider supplies environment values consulted before the process environment.
type EnvironmentProvider func() map[string]string

type commandOptions struct {
	debugLoggingEnabled bool
	configuration       CommandConfiguration
}

// CommandBuilder assembles the migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     GitHubExecutor
	FileSystem                   afero.Fs
	EnvironmentProvider          EnvironmentProvider
	Sleeper                      Sleeper
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	defaults := DefaultCommandConfiguration()
	command.Flags().String(sourceListFlagNameConstant, defaults.SourceList, sourceListFlagUsageConstant)
	command.Flags().String(organizationFlagNameConstant, defaults.Organization, organizationFlagUsageConstant)
	command.Flags().Int(parallelismFlagNameConstant, defaults.Parallelism, parallelismFlagUsageConstant)
	command.Flags().Duration(settleDelayFlagNameConstant, defaults.SettleDelay, settleDelayFlagUsageConstant)
	command.Flags().Bool(failOnErrorFlagNameConstant, defaults.FailOnError, failOnErrorFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := builder.parseOptions(command)
	configuration := options.configuration

	token, tokenError := githubauth.RequireToken(builder.resolveEnvironment())
	if tokenError != nil {
		return tokenError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)
	executor, executorError := builder.resolveExecutor(logger, githubauth.CommandEnvironment(token, configuration.SourceHost, configuration.TargetHost))
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

	migrationWorkspace, workspaceError := workspace.New(configuration.Workspace, fileSystem, logger)
	if workspaceError != nil {
		return fmt.Errorf(workspaceErrorTemplateConstant, workspaceError)
	}
	if lockError := migrationWorkspace.Lock(); lockError != nil {
		return fmt.Errorf(workspaceErrorTemplateConstant, lockError)
	}
	defer func() {
		if unlockError := migrationWorkspace.Unlock(); unlockError != nil {
			logger.Warn(workspaceUnlockFailedMessageConstant, zap.Error(unlockError))
		}
	}()

	orchestrator, orchestratorError := builder.buildOrchestrator(command, configuration, logger, executor, fileSystem, migrationWorkspace)
	if orchestratorError != nil {
		return orchestratorError
	}

	report, runError := orchestrator.RunSourceList(command.Context(), repositories)
	if runError != nil {
		return runError
	}
	if configuration.FailOnError && len(report.Failures) > 0 {
		return fmt.Errorf(failedRepositoriesErrorTemplateConstant, len(report.Failures), errors.Join(report.Failures...))
	}
	return nil
}

func (builder *CommandBuilder) buildOrchestrator(
	command *cobra.Command,
	configuration CommandConfiguration,
	logger *zap.Logger,
	executor GitHubExecutor,
	fileSystem afero.Fs,
	migrationWorkspace *workspace.Workspace,
) (*Orchestrator, error) {
	githubClient, githubClientError := githubcli.NewClient(executor)
	if githubClientError != nil {
		return nil, fmt.Errorf(githubClientCreationErrorTemplate, githubClientError)
	}

	detector, detectorError := buildsystem.NewDetector(githubClient, nil)
	if detectorError != nil {
		return nil, fmt.Errorf(detectorCreationErrorTemplateConstant, detectorError)
	}

	fetcher, fetcherError := templates.NewFetcher(githubClient, templates.Store{
		Repository: configuration.Templates.Repository,
		Branch:     configuration.Templates.Branch,
		Path:       configuration.Templates.Path,
	}, logger)
	if fetcherError != nil {
		return nil, fmt.Errorf(fetcherCreationErrorTemplateConstant, fetcherError)
	}

	transport, transportError := mirror.NewTransport(executor, migrationWorkspace, mirror.Settings{
		WorkflowDirectory: configuration.WorkflowDirectory,
		CommitMessage:     configuration.CommitMessage,
		CommitAuthorName:  configuration.CommitAuthorName,
		CommitAuthorEmail: configuration.CommitAuthorEmail,
	}, logger)
	if transportError != nil {
		return nil, fmt.Errorf(transportCreationErrorTemplateConstant, transportError)
	}

	migrationLedger, migrationLedgerError := ledger.NewMigrationLedger(fileSystem, configuration.Ledgers.Migration, logger)
	if migrationLedgerError != nil {
		return nil, fmt.Errorf(ledgerCreationErrorTemplateConstant, configuration.Ledgers.Migration, migrationLedgerError)
	}
	targetLog, targetLogError := ledger.NewTargetLog(fileSystem, configuration.Ledgers.Targets, configuration.TargetHost, logger)
	if targetLogError != nil {
		return nil, fmt.Errorf(ledgerCreationErrorTemplateConstant, configuration.Ledgers.Targets, targetLogError)
	}
	failureLedger, failureLedgerError := ledger.NewFailureLedger(fileSystem, configuration.Ledgers.Failures)
	if failureLedgerError != nil {
		return nil, fmt.Errorf(ledgerCreationErrorTemplateConstant, configuration.Ledgers.Failures, failureLedgerError)
	}

	orchestrator, orchestratorError := NewOrchestrator(configuration, Dependencies{
		Logger:          logger,
		Detector:        detector,
		Templates:       fetcher,
		Transport:       transport,
		Paths:           migrationWorkspace,
		Provisioner:     githubClient,
		MigrationLedger: migrationLedger,
		TargetLog:       targetLog,
		FailureLedger:   failureLedger,
		Reporter:        ui.NewStatusReporter(command.OutOrStdout()),
		Sleeper:         builder.Sleeper,
	})
	if orchestratorError != nil {
		return nil, fmt.Errorf(orchestratorCreationErrorTemplate, orchestratorError)
	}
	return orchestrator, nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) commandOptions {
	configuration := builder.resolveConfiguration()

	debugEnabled := false
	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			debugEnabled = strings.EqualFold(logLevel, string(utils.LogLevelDebug))
		}

		flagSet := command.Flags()
		if flagSet.Changed(sourceListFlagNameConstant) {
			configuration.SourceList, _ = flagSet.GetString(sourceListFlagNameConstant)
		}
		if flagSet.Changed(organizationFlagNameConstant) {
			configuration.Organization, _ = flagSet.GetString(organizationFlagNameConstant)
		}
		if flagSet.Changed(parallelismFlagNameConstant) {
			configuration.Parallelism, _ = flagSet.GetInt(parallelismFlagNameConstant)
		}
		if flagSet.Changed(settleDelayFlagNameConstant) {
			configuration.SettleDelay, _ = flagSet.GetDuration(settleDelayFlagNameConstant)
		}
		if flagSet.Changed(failOnErrorFlagNameConstant) {
			configuration.FailOnError, _ = flagSet.GetBool(failOnErrorFlagNameConstant)
		}
	}

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		configuration:       configuration.Sanitize(),
	}
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
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

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}
