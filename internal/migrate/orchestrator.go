package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gitmigrate/internal/buildsystem"
	"github.com/temirov/gitmigrate/internal/githubcli"
	"github.com/temirov/gitmigrate/internal/gitrepo"
	"github.com/temirov/gitmigrate/internal/ledger"
	"github.com/temirov/gitmigrate/internal/sourcelist"
	"github.com/temirov/gitmigrate/internal/templates"
	"github.com/temirov/gitmigrate/internal/ui"
	"github.com/temirov/gitmigrate/internal/workspace"
)

const (
	fallbackBranchConstant                 = "main"
	unknownLanguageConstant                = "unknown"
	detectorMissingMessageConstant         = "build system detector not configured"
	templateSelectorMissingMessageConstant = "template selector not configured"
	transportMissingMessageConstant        = "mirror transport not configured"
	pathResolverMissingMessageConstant     = "workspace not configured"
	provisionerMissingMessageConstant      = "repository provisioner not configured"
	migrationLedgerMissingMessageConstant  = "migration ledger not configured"
	targetLogMissingMessageConstant        = "target log not configured"
	organizationMissingMessageConstant     = "target organization not configured"
	targetClaimedMessageConstant           = "target repository already claimed by another source"
	targetClaimedTemplateConstant          = "%w: %s is also the target of %s"
	ledgerErrorTemplateConstant            = "record migration: %w"
	targetLogErrorTemplateConstant         = "record target: %w"
	settleErrorTemplateConstant            = "settle after push: %w"
	statusPrimaryLanguageTemplate          = "Primary language: %s"
	statusBuildSystemsTemplate             = "Detected build systems: %s"
	statusTemplateMissTemplate             = "No workflow template for %s"
	statusTemplateSelectedTemplate         = "Using workflow template %s"
	statusNoTemplateMessage                = "No workflow template found; migrating without CI file"
	statusMirroredTemplate                 = "Mirrored %s"
	statusWorkflowAttachedTemplate         = "Committed %s to %s"
	statusWorkflowFailedTemplate           = "Could not attach workflow: %v"
	statusTargetCreatedTemplate            = "Created target repository %s"
	statusTargetReusedTemplate             = "Target repository %s already exists; reusing it"
	statusPushedTemplate                   = "Pushed all branches and tags to %s"
	statusLedgerDuplicateTemplate          = "%s is already in the migration ledger"
	statusLoggedTemplate                   = "Logged %s"
	statusFailureTemplate                  = "Migration aborted during %s: %v"
	statusCleanupFailedTemplate            = "Cleanup incomplete: %v"
	statusSkippedTemplate                  = "%v"
	statusDuplicateTemplate                = "%s is listed more than once; migrating it once"
	repositoryMigratedMessageConstant      = "Repository migrated"
	repositorySkippedMessageConstant       = "Repository skipped"
	repositoryFailedMessageConstant        = "Repository migration failed"
	duplicateEntryMessageConstant          = "Duplicate source entry skipped"
	logFieldLineConstant                   = "line"
	workflowAttachFailedMessageConstant    = "Workflow injection failed"
	garbageCollectFailedMessageConstant    = "Repository compaction failed"
	failureLedgerWriteFailedMessage        = "Could not record failure"
	runStartedMessageConstant              = "Migration run started"
	runFinishedMessageConstant             = "Migration run finished"
	logFieldRepositoryConstant             = "repository"
	logFieldStageConstant                  = "stage"
	logFieldTargetConstant                 = "target"
	logFieldBuildSystemConstant            = "build_system"
	logFieldRunIdentifierConstant          = "run_id"
	logFieldRepositoryCountConstant        = "repositories"
	logFieldParallelismConstant            = "parallelism"
	logFieldFailureCountConstant           = "failures"
)

var (
	errDetectorMissing         = errors.New(detectorMissingMessageConstant)
	errTemplateSelectorMissing = errors.New(templateSelectorMissingMessageConstant)
	errTransportMissing        = errors.New(transportMissingMessageConstant)
	errPathResolverMissing     = errors.New(pathResolverMissingMessageConstant)
	errProvisionerMissing      = errors.New(provisionerMissingMessageConstant)
	errMigrationLedgerMissing  = errors.New(migrationLedgerMissingMessageConstant)
	errTargetLogMissing        = errors.New(targetLogMissingMessageConstant)
	errOrganizationMissing     = errors.New(organizationMissingMessageConstant)

	// ErrTargetClaimed reports a source whose target name is already taken by an
	// earlier source in the same run.
	ErrTargetClaimed = errors.New(targetClaimedMessageConstant)
)

// RepositoryDetector classifies a source repository.
type RepositoryDetector interface {
	Detect(executionContext context.Context, repository string) (buildsystem.Result, error)
}

// TemplateSelector picks the first available workflow template.
type TemplateSelector interface {
	Select(executionContext context.Context, tags []buildsystem.Tag) templates.Selection
}

// MirrorTransport performs the git side of a migration.
type MirrorTransport interface {
	MirrorClone(executionContext context.Context, sourceURL string, mirrorPath string) error
	WorkingClone(executionContext context.Context, mirrorPath string, worktreePath string) error
	InjectWorkflow(executionContext context.Context, worktreePath string, template templates.Template, branch string) error
	PushAll(executionContext context.Context, mirrorPath string, targetURL string) error
	CollectGarbage(executionContext context.Context, repositoryPath string) error
	Cleanup(paths workspace.Paths) error
}

// PathResolver derives the ephemeral directories of a repository.
type PathResolver interface {
	PathsFor(identifier gitrepo.RepositoryIdentifier) workspace.Paths
}

// RepositoryProvisioner ensures the target repository exists.
type RepositoryProvisioner interface {
	EnsureOrganizationRepository(executionContext context.Context, organization string, name string, private bool) (githubcli.Repository, bool, error)
}

// MigrationRecorder appends to the migration ledger.
type MigrationRecorder interface {
	Record(sourceURL string, targetURL string, attachedWorkflow bool) (bool, error)
}

// TargetRecorder appends to the target log.
type TargetRecorder interface {
	Record(targetURL string) (string, error)
}

// FailureRecorder appends to the failure ledger.
type FailureRecorder interface {
	Record(record ledger.FailureRecord) error
}

// StatusReporter prints user-facing progress lines.
type StatusReporter interface {
	Info(format string, arguments ...any)
	Success(format string, arguments ...any)
	Warning(format string, arguments ...any)
	Failure(format string, arguments ...any)
	Separator(phase string, repository string)
	Write(content []byte) (int, error)
}

// Sleeper waits for duration or until the context ends.
type Sleeper func(executionContext context.Context, duration time.Duration) error

// Dependencies describes the collaborators of an Orchestrator.
type Dependencies struct {
	Logger          *zap.Logger
	Detector        RepositoryDetector
	Templates       TemplateSelector
	Transport       MirrorTransport
	Paths           PathResolver
	Provisioner     RepositoryProvisioner
	MigrationLedger MigrationRecorder
	TargetLog       TargetRecorder
	FailureLedger   FailureRecorder
	Reporter        StatusReporter
	Sleeper         Sleeper
	Clock           func() time.Time
	RunIdentifier   string
}

// RepositoryOutcome describes how one repository's migration ended.
type RepositoryOutcome struct {
	Repository       string
	Outcome          ui.Outcome
	Stage            Stage
	Detection        buildsystem.Result
	Template         string
	WorkflowAttached bool
	TargetURL        string
	TargetCreated    bool
}

// RunReport summarizes a batch.
type RunReport struct {
	RunIdentifier string
	Outcomes      []RepositoryOutcome
	Failures      []error
}

// SummaryRows converts the outcomes into summary table rows.
func (report RunReport) SummaryRows() []ui.SummaryRow {
	rows := make([]ui.SummaryRow, 0, len(report.Outcomes))
	for _, outcome := range report.Outcomes {
		buildSystem := ""
		if len(outcome.Detection.BuildSystems) > 0 {
			buildSystem = outcome.Detection.String()
		}
		rows = append(rows, ui.SummaryRow{
			Repository:       outcome.Repository,
			Outcome:          outcome.Outcome,
			Stage:            string(outcome.Stage),
			BuildSystem:      buildSystem,
			WorkflowAttached: outcome.WorkflowAttached,
		})
	}
	return rows
}

// Orchestrator drives repositories from detection to a recorded, pushed target.
type Orchestrator struct {
	configuration CommandConfiguration
	logger        *zap.Logger
	detector      RepositoryDetector
	templates     TemplateSelector
	transport     MirrorTransport
	paths         PathResolver
	provisioner   RepositoryProvisioner
	migrations    MigrationRecorder
	targets       TargetRecorder
	failures      FailureRecorder
	reporter      StatusReporter
	sleeper       Sleeper
	clock         func() time.Time
	runIdentifier string
}

// NewOrchestrator validates dependencies and constructs an Orchestrator.
func NewOrchestrator(configuration CommandConfiguration, dependencies Dependencies) (*Orchestrator, error) {
	switch {
	case dependencies.Detector == nil:
		return nil, errDetectorMissing
	case dependencies.Templates == nil:
		return nil, errTemplateSelectorMissing
	case dependencies.Transport == nil:
		return nil, errTransportMissing
	case dependencies.Paths == nil:
		return nil, errPathResolverMissing
	case dependencies.Provisioner == nil:
		return nil, errProvisionerMissing
	case dependencies.MigrationLedger == nil:
		return nil, errMigrationLedgerMissing
	case dependencies.TargetLog == nil:
		return nil, errTargetLogMissing
	}

	sanitizedConfiguration := configuration.Sanitize()
	if len(sanitizedConfiguration.Organization) == 0 {
		return nil, errOrganizationMissing
	}

	orchestrator := &Orchestrator{
		configuration: sanitizedConfiguration,
		logger:        dependencies.Logger,
		detector:      dependencies.Detector,
		templates:     dependencies.Templates,
		transport:     dependencies.Transport,
		paths:         dependencies.Paths,
		provisioner:   dependencies.Provisioner,
		migrations:    dependencies.MigrationLedger,
		targets:       dependencies.TargetLog,
		failures:      dependencies.FailureLedger,
		reporter:      dependencies.Reporter,
		sleeper:       dependencies.Sleeper,
		clock:         dependencies.Clock,
		runIdentifier: strings.TrimSpace(dependencies.RunIdentifier),
	}
	if orchestrator.logger == nil {
		orchestrator.logger = zap.NewNop()
	}
	if orchestrator.reporter == nil {
		orchestrator.reporter = ui.NewStatusReporterWithColor(nil, false)
	}
	if orchestrator.sleeper == nil {
		orchestrator.sleeper = sleepWithContext
	}
	if orchestrator.clock == nil {
		orchestrator.clock = time.Now
	}
	if len(orchestrator.runIdentifier) == 0 {
		orchestrator.runIdentifier = uuid.NewString()
	}
	orchestrator.logger = orchestrator.logger.With(zap.String(logFieldRunIdentifierConstant, orchestrator.runIdentifier))

	return orchestrator, nil
}

// RunIdentifier returns the identifier stamped on this run's log entries and failure rows.
func (orchestrator *Orchestrator) RunIdentifier() string {
	return orchestrator.runIdentifier
}

// Run migrates every repository, at most Parallelism at a time. Per-repository
// failures are collected in the report and never stop the batch; only context
// cancellation does, in which case the context error is returned.
func (orchestrator *Orchestrator) Run(executionContext context.Context, repositories []gitrepo.RepositoryIdentifier) (RunReport, error) {
	return orchestrator.RunSourceList(executionContext, sourcelist.List{Identifiers: repositories})
}

// RunSourceList records every rejected source list line as a failure at the
// detecting stage and then migrates the identifiers like Run. Each target name is
// migrated at most once per run: a repeated source is skipped and a different
// source mapping onto an already claimed target fails with ErrTargetClaimed.
func (orchestrator *Orchestrator) RunSourceList(executionContext context.Context, list sourcelist.List) (RunReport, error) {
	repositories := list.Identifiers
	orchestrator.logger.Info(
		runStartedMessageConstant,
		zap.Int(logFieldRepositoryCountConstant, len(repositories)+len(list.Invalid)),
		zap.Int(logFieldParallelismConstant, orchestrator.configuration.Parallelism),
	)

	report := RunReport{RunIdentifier: orchestrator.runIdentifier}
	var failures []error
	var failuresGuard sync.Mutex

	for _, invalidEntry := range list.Invalid {
		entryLogger := orchestrator.logger.With(zap.String(logFieldRepositoryConstant, invalidEntry.Label()), zap.Int(logFieldLineConstant, invalidEntry.Line))
		outcome, rejectError := orchestrator.abort(entryLogger, RepositoryOutcome{Repository: invalidEntry.Label(), Stage: StageDetecting}, nil, invalidEntry)
		report.Outcomes = append(report.Outcomes, outcome)
		failures = append(failures, rejectError)
	}

	outcomes := make([]*RepositoryOutcome, len(repositories))
	claimedTargets := map[string]gitrepo.RepositoryIdentifier{}
	group, groupContext := errgroup.WithContext(executionContext)
	group.SetLimit(orchestrator.configuration.Parallelism)

	for repositoryIndex, repository := range repositories {
		if groupContext.Err() != nil {
			break
		}
		targetKey := strings.ToLower(repository.Name)
		if claimant, claimed := claimedTargets[targetKey]; claimed {
			outcome, claimError := orchestrator.rejectDuplicate(repository, claimant)
			outcomes[repositoryIndex] = &outcome
			if claimError != nil {
				failuresGuard.Lock()
				failures = append(failures, claimError)
				failuresGuard.Unlock()
			}
			continue
		}
		claimedTargets[targetKey] = repository

		group.Go(func() error {
			if groupContext.Err() != nil {
				return groupContext.Err()
			}
			outcome, migrationError := orchestrator.MigrateRepository(groupContext, repository)
			outcomes[repositoryIndex] = &outcome
			if migrationError == nil {
				return nil
			}
			if isCancellation(migrationError) {
				return migrationError
			}
			failuresGuard.Lock()
			failures = append(failures, migrationError)
			failuresGuard.Unlock()
			return nil
		})
	}
	waitError := group.Wait()

	report.Failures = failures
	for _, outcome := range outcomes {
		if outcome != nil {
			report.Outcomes = append(report.Outcomes, *outcome)
		}
	}
	if len(report.Outcomes) > 0 {
		fmt.Fprintln(orchestrator.reporter, ui.RenderSummary(report.SummaryRows()))
	}
	orchestrator.logger.Info(
		runFinishedMessageConstant,
		zap.Int(logFieldRepositoryCountConstant, len(report.Outcomes)),
		zap.Int(logFieldFailureCountConstant, len(failures)),
	)

	if waitError == nil && executionContext.Err() != nil {
		waitError = executionContext.Err()
	}
	return report, waitError
}

// rejectDuplicate settles a source whose target name was claimed earlier in the
// run. The same source listed twice is skipped; a different owner fails.
func (orchestrator *Orchestrator) rejectDuplicate(repository gitrepo.RepositoryIdentifier, claimant gitrepo.RepositoryIdentifier) (RepositoryOutcome, error) {
	repositoryName := repository.String()
	repositoryLogger := orchestrator.logger.With(zap.String(logFieldRepositoryConstant, repositoryName))
	outcome := RepositoryOutcome{Repository: repositoryName, Stage: StageDetecting}

	if strings.EqualFold(repositoryName, claimant.String()) {
		repositoryLogger.Warn(duplicateEntryMessageConstant)
		orchestrator.reporter.Warning(statusDuplicateTemplate, repositoryName)
		outcome.Outcome = ui.OutcomeSkipped
		return outcome, nil
	}

	outcome.Stage = StageTargetEnsure
	targetName := repository.WithOwner(orchestrator.configuration.Organization).String()
	return orchestrator.abort(repositoryLogger, outcome, nil, fmt.Errorf(targetClaimedTemplateConstant, ErrTargetClaimed, targetName, claimant))
}

// MigrateRepository runs every stage for one repository. A repository without a
// recognised build system is skipped with a nil error. Any fatal failure is
// returned as StageError after best-effort cleanup of the repository's paths.
func (orchestrator *Orchestrator) MigrateRepository(executionContext context.Context, identifier gitrepo.RepositoryIdentifier) (RepositoryOutcome, error) {
	repositoryName := identifier.String()
	repositoryLogger := orchestrator.logger.With(zap.String(logFieldRepositoryConstant, repositoryName))
	outcome := RepositoryOutcome{Repository: repositoryName, Stage: StageDetecting}

	orchestrator.reporter.Separator(ui.PhaseStartingMigration, repositoryName)
	defer orchestrator.reporter.Separator(ui.PhaseEndOfMigration, repositoryName)

	detection, detectionError := orchestrator.detector.Detect(executionContext, repositoryName)
	if detectionError != nil {
		return orchestrator.abort(repositoryLogger, outcome, nil, detectionError)
	}
	outcome.Detection = detection

	primaryLanguage := detection.PrimaryLanguage
	if len(primaryLanguage) == 0 {
		primaryLanguage = unknownLanguageConstant
	}
	orchestrator.reporter.Info(statusPrimaryLanguageTemplate, primaryLanguage)
	if detection.NoneDetected() {
		orchestrator.reporter.Failure(statusSkippedTemplate, buildsystem.ErrNoBuildSystem)
		repositoryLogger.Info(repositorySkippedMessageConstant, zap.String(logFieldStageConstant, string(StageDetecting)), zap.Error(buildsystem.ErrNoBuildSystem))
		outcome.Outcome = ui.OutcomeSkipped
		return outcome, nil
	}
	orchestrator.reporter.Success(statusBuildSystemsTemplate, detection.String())

	outcome.Stage = StageTemplateLookup
	selection := orchestrator.templates.Select(executionContext, detection.BuildSystems)
	for _, miss := range selection.Misses {
		orchestrator.reporter.Warning(statusTemplateMissTemplate, miss.BuildSystem)
	}
	if executionContext.Err() != nil {
		return orchestrator.abort(repositoryLogger, outcome, nil, executionContext.Err())
	}
	if selection.Found() {
		outcome.Template = selection.Template.FileName
		orchestrator.reporter.Success(statusTemplateSelectedTemplate, selection.Template.FileName)
	} else {
		orchestrator.reporter.Warning(statusNoTemplateMessage)
	}

	outcome.Stage = StageCloning
	paths := orchestrator.paths.PathsFor(identifier)
	sourceURL := identifier.CloneURL(orchestrator.configuration.SourceHost)
	if cloneError := orchestrator.transport.MirrorClone(executionContext, sourceURL, paths.Mirror); cloneError != nil {
		return orchestrator.abort(repositoryLogger, outcome, &paths, cloneError)
	}
	if cloneError := orchestrator.transport.WorkingClone(executionContext, paths.Mirror, paths.Worktree); cloneError != nil {
		return orchestrator.abort(repositoryLogger, outcome, &paths, cloneError)
	}
	orchestrator.reporter.Success(statusMirroredTemplate, sourceURL)

	if selection.Found() {
		outcome.Stage = StageInjecting
		branch := strings.TrimSpace(detection.DefaultBranch)
		if len(branch) == 0 {
			branch = fallbackBranchConstant
		}
		injectionError := orchestrator.transport.InjectWorkflow(executionContext, paths.Worktree, *selection.Template, branch)
		if injectionError != nil {
			if isCancellation(injectionError) {
				return orchestrator.abort(repositoryLogger, outcome, &paths, injectionError)
			}
			repositoryLogger.Warn(workflowAttachFailedMessageConstant, zap.String(logFieldBuildSystemConstant, string(selection.Template.BuildSystem)), zap.Error(injectionError))
			orchestrator.reporter.Warning(statusWorkflowFailedTemplate, injectionError)
		} else {
			outcome.WorkflowAttached = true
			orchestrator.reporter.Success(statusWorkflowAttachedTemplate, selection.Template.FileName, branch)
		}
	}

	outcome.Stage = StageTargetEnsure
	targetRepository, created, ensureError := orchestrator.provisioner.EnsureOrganizationRepository(
		executionContext,
		orchestrator.configuration.Organization,
		identifier.Name,
		orchestrator.configuration.TargetPrivate,
	)
	if ensureError != nil {
		return orchestrator.abort(repositoryLogger, outcome, &paths, ensureError)
	}
	outcome.TargetCreated = created
	outcome.TargetURL = strings.TrimSpace(targetRepository.CloneURL)
	if len(outcome.TargetURL) == 0 {
		outcome.TargetURL = identifier.WithOwner(orchestrator.configuration.Organization).CloneURL(orchestrator.configuration.TargetHost)
	}
	targetName := identifier.WithOwner(orchestrator.configuration.Organization).String()
	if created {
		orchestrator.reporter.Success(statusTargetCreatedTemplate, targetName)
	} else {
		orchestrator.reporter.Info(statusTargetReusedTemplate, targetName)
	}

	outcome.Stage = StagePushing
	if pushError := orchestrator.transport.PushAll(executionContext, paths.Mirror, outcome.TargetURL); pushError != nil {
		return orchestrator.abort(repositoryLogger, outcome, &paths, pushError)
	}
	orchestrator.reporter.Success(statusPushedTemplate, outcome.TargetURL)
	if settleError := orchestrator.sleeper(executionContext, orchestrator.configuration.SettleDelay); settleError != nil {
		return orchestrator.abort(repositoryLogger, outcome, &paths, fmt.Errorf(settleErrorTemplateConstant, settleError))
	}

	outcome.Stage = StageLogging
	written, recordError := orchestrator.migrations.Record(sourceURL, outcome.TargetURL, outcome.WorkflowAttached)
	if recordError != nil {
		return orchestrator.abort(repositoryLogger, outcome, &paths, fmt.Errorf(ledgerErrorTemplateConstant, recordError))
	}
	if !written {
		orchestrator.reporter.Info(statusLedgerDuplicateTemplate, sourceURL)
	}
	normalizedTarget, targetError := orchestrator.targets.Record(outcome.TargetURL)
	if targetError != nil {
		return orchestrator.abort(repositoryLogger, outcome, &paths, fmt.Errorf(targetLogErrorTemplateConstant, targetError))
	}
	orchestrator.reporter.Success(statusLoggedTemplate, normalizedTarget)

	outcome.Stage = StageCleanup
	orchestrator.cleanup(executionContext, repositoryLogger, paths)

	outcome.Stage = StageDone
	outcome.Outcome = ui.OutcomeMigrated
	repositoryLogger.Info(
		repositoryMigratedMessageConstant,
		zap.String(logFieldTargetConstant, outcome.TargetURL),
		zap.String(logFieldBuildSystemConstant, detection.String()),
	)
	return outcome, nil
}

func (orchestrator *Orchestrator) abort(repositoryLogger *zap.Logger, outcome RepositoryOutcome, paths *workspace.Paths, cause error) (RepositoryOutcome, error) {
	stageError := StageError{Repository: outcome.Repository, Stage: outcome.Stage, Cause: cause}
	outcome.Outcome = ui.OutcomeFailed

	repositoryLogger.Error(repositoryFailedMessageConstant, zap.String(logFieldStageConstant, string(outcome.Stage)), zap.Error(cause))
	orchestrator.reporter.Failure(statusFailureTemplate, outcome.Stage, cause)

	if !isCancellation(cause) && orchestrator.failures != nil {
		recordError := orchestrator.failures.Record(ledger.FailureRecord{
			RunID:      orchestrator.runIdentifier,
			Repository: outcome.Repository,
			Stage:      string(outcome.Stage),
			Error:      cause.Error(),
			RecordedAt: orchestrator.clock(),
		})
		if recordError != nil {
			repositoryLogger.Warn(failureLedgerWriteFailedMessage, zap.Error(recordError))
		}
	}

	if paths != nil {
		if cleanupError := orchestrator.transport.Cleanup(*paths); cleanupError != nil {
			orchestrator.reporter.Warning(statusCleanupFailedTemplate, cleanupError)
		}
	}
	return outcome, stageError
}

func (orchestrator *Orchestrator) cleanup(executionContext context.Context, repositoryLogger *zap.Logger, paths workspace.Paths) {
	if gcError := orchestrator.transport.CollectGarbage(executionContext, paths.Worktree); gcError != nil {
		repositoryLogger.Warn(garbageCollectFailedMessageConstant, zap.Error(gcError))
	}
	if cleanupError := orchestrator.transport.Cleanup(paths); cleanupError != nil {
		orchestrator.reporter.Warning(statusCleanupFailedTemplate, cleanupError)
	}
}

func isCancellation(candidate error) bool {
	return errors.Is(candidate, context.Canceled) || errors.Is(candidate, context.DeadlineExceeded)
}

func sleepWithContext(executionContext context.Context, duration time.Duration) error {
	if duration <= 0 {
		return executionContext.Err()
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}
