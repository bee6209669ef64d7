package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/temirov/gitmigrate/internal/gitrepo"
	"github.com/temirov/gitmigrate/internal/sourcelist"
)

const (
	detectorMissingMessageConstant      = "build system detector not configured"
	branchListerMissingMessageConstant  = "branch lister not configured"
	recorderMissingMessageConstant      = "inventory recorder not configured"
	inspectErrorTemplateConstant        = "inspect %s: %w"
	listBranchesErrorTemplateConstant   = "list branches of %s: %w"
	recordErrorTemplateConstant         = "record inventory of %s: %w"
	unknownLanguageLabelConstant        = "unknown"
	inventoryLineTemplateConstant       = "%s: language %s, build system %s, %d branches, %s"
	inventoryFailureTemplateConstant    = "Inventory failed for %s: %v"
	inventoryCompleteTemplateConstant   = "Inventoried %d repositories, %d failed"
	bytesPerKilobyteConstant            = 1024
	logFieldRepositoryConstant          = "repository"
	logFieldBuildSystemConstant         = "build_system"
	logFieldBranchCountConstant         = "branch_count"
	logFieldSizeKBConstant              = "size_kb"
	repositoryInventoriedMessage        = "Repository inventoried"
	repositoryInventoryFailedMessage    = "Repository inventory failed"
	inventoryRunStartedMessageConstant  = "Inventory run started"
	inventoryRunFinishedMessageConstant = "Inventory run finished"
	logFieldRepositoryCountConstant     = "repository_count"
	logFieldFailureCountConstant        = "failure_count"
	logFieldLineConstant                = "line"
)

var (
	// ErrDetectorNotConfigured indicates a missing build system detector.
	ErrDetectorNotConfigured = errors.New(detectorMissingMessageConstant)
	// ErrBranchListerNotConfigured indicates a missing branch lister.
	ErrBranchListerNotConfigured = errors.New(branchListerMissingMessageConstant)
	// ErrRecorderNotConfigured indicates a missing pre-migration ledger.
	ErrRecorderNotConfigured = errors.New(recorderMissingMessageConstant)
)

// Dependencies are the collaborators of a Collector.
type Dependencies struct {
	Logger   *zap.Logger
	Detector RepositoryDetector
	Branches BranchLister
	Recorder InventoryRecorder
	Reporter StatusReporter
}

// Collector inventories repositories without modifying them.
type Collector struct {
	logger   *zap.Logger
	detector RepositoryDetector
	branches BranchLister
	recorder InventoryRecorder
	reporter StatusReporter
}

// NewCollector validates the dependencies and constructs a Collector.
func NewCollector(dependencies Dependencies) (*Collector, error) {
	if dependencies.Detector == nil {
		return nil, ErrDetectorNotConfigured
	}
	if dependencies.Branches == nil {
		return nil, ErrBranchListerNotConfigured
	}
	if dependencies.Recorder == nil {
		return nil, ErrRecorderNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := dependencies.Reporter
	if reporter == nil {
		reporter = silentReporter{}
	}

	return &Collector{
		logger:   logger,
		detector: dependencies.Detector,
		branches: dependencies.Branches,
		recorder: dependencies.Recorder,
		reporter: reporter,
	}, nil
}

// Inspect detects the build system of a repository and enumerates its branches.
func (collector *Collector) Inspect(executionContext context.Context, repository gitrepo.RepositoryIdentifier) (RepositoryInventory, error) {
	detection, detectionError := collector.detector.Detect(executionContext, repository.String())
	if detectionError != nil {
		return RepositoryInventory{}, fmt.Errorf(inspectErrorTemplateConstant, repository, detectionError)
	}

	branches, branchesError := collector.branches.ListBranches(executionContext, repository.String())
	if branchesError != nil {
		return RepositoryInventory{}, fmt.Errorf(listBranchesErrorTemplateConstant, repository, branchesError)
	}

	return RepositoryInventory{
		Repository: repository,
		Detection:  detection,
		Branches:   branches,
	}, nil
}

// Run inspects every repository in order and appends one ledger row per success.
// Failures are reported and collected; only cancellation stops the run early.
func (collector *Collector) Run(executionContext context.Context, repositories []gitrepo.RepositoryIdentifier) (InventoryReport, error) {
	return collector.RunSourceList(executionContext, sourcelist.List{Identifiers: repositories})
}

// RunSourceList reports every rejected source list line as a failure and then
// inventories the identifiers like Run.
func (collector *Collector) RunSourceList(executionContext context.Context, list sourcelist.List) (InventoryReport, error) {
	repositories := list.Identifiers
	collector.logger.Info(inventoryRunStartedMessageConstant, zap.Int(logFieldRepositoryCountConstant, len(repositories)+len(list.Invalid)))

	report := InventoryReport{}
	for _, invalidEntry := range list.Invalid {
		collector.logger.Error(
			repositoryInventoryFailedMessage,
			zap.String(logFieldRepositoryConstant, invalidEntry.Label()),
			zap.Int(logFieldLineConstant, invalidEntry.Line),
			zap.Error(invalidEntry),
		)
		collector.reporter.Failure(inventoryFailureTemplateConstant, invalidEntry.Label(), invalidEntry)
		report.Failures = append(report.Failures, invalidEntry)
	}

	for _, repository := range repositories {
		if contextError := executionContext.Err(); contextError != nil {
			return report, contextError
		}

		inventory, inventoryError := collector.collect(executionContext, repository)
		if inventoryError != nil {
			if isCancellation(inventoryError) {
				return report, inventoryError
			}
			collector.logger.Error(repositoryInventoryFailedMessage, zap.String(logFieldRepositoryConstant, repository.String()), zap.Error(inventoryError))
			collector.reporter.Failure(inventoryFailureTemplateConstant, repository, inventoryError)
			report.Failures = append(report.Failures, inventoryError)
			continue
		}
		report.Inventories = append(report.Inventories, inventory)
	}

	collector.logger.Info(
		inventoryRunFinishedMessageConstant,
		zap.Int(logFieldRepositoryCountConstant, len(report.Inventories)),
		zap.Int(logFieldFailureCountConstant, len(report.Failures)),
	)
	collector.reporter.Info(inventoryCompleteTemplateConstant, len(report.Inventories), len(report.Failures))
	return report, nil
}

func (collector *Collector) collect(executionContext context.Context, repository gitrepo.RepositoryIdentifier) (RepositoryInventory, error) {
	inventory, inspectError := collector.Inspect(executionContext, repository)
	if inspectError != nil {
		return RepositoryInventory{}, inspectError
	}

	if recordError := collector.recorder.Record(inventory.Record()); recordError != nil {
		return RepositoryInventory{}, fmt.Errorf(recordErrorTemplateConstant, repository, recordError)
	}

	collector.logger.Info(
		repositoryInventoriedMessage,
		zap.String(logFieldRepositoryConstant, repository.String()),
		zap.String(logFieldBuildSystemConstant, inventory.Detection.String()),
		zap.Int(logFieldBranchCountConstant, len(inventory.Branches)),
		zap.Int64(logFieldSizeKBConstant, inventory.Detection.SizeKB),
	)

	language := inventory.Detection.PrimaryLanguage
	if len(language) == 0 {
		language = unknownLanguageLabelConstant
	}
	collector.reporter.Success(
		inventoryLineTemplateConstant,
		repository,
		language,
		inventory.Detection.String(),
		len(inventory.Branches),
		humanize.IBytes(uint64(max(inventory.Detection.SizeKB, 0))*bytesPerKilobyteConstant),
	)
	return inventory, nil
}

func isCancellation(candidate error) bool {
	return errors.Is(candidate, context.Canceled) || errors.Is(candidate, context.DeadlineExceeded)
}

type silentReporter struct{}

func (silentReporter) Info(string, ...any)    {}
func (silentReporter) Success(string, ...any) {}
func (silentReporter) Warning(string, ...any) {}
func (silentReporter) Failure(string, ...any) {}
