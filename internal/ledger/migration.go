package ledger

import (
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/gitmigrate/internal/gitrepo"
)

const (
	sourceURLHeaderConstant         = "source_github_url"
	targetURLHeaderConstant         = "target_github_url"
	workflowHeaderConstant          = "migrated_with_workflow_file"
	workflowAttachedValueConstant   = "True"
	workflowDetachedValueConstant   = "False"
	migrationLoggedMessageConstant  = "Logged migration"
	duplicateSkippedMessageConstant = "Duplicate entry detected; skipping ledger write"
	targetLoggedMessageConstant     = "Logged target repository"
	logFieldSourceConstant          = "source"
	logFieldTargetConstant          = "target"
	logFieldLedgerConstant          = "ledger"
	targetLineTerminatorConstant    = "\n"
)

// MigrationRecord is one row of the migration ledger.
type MigrationRecord struct {
	SourceURL        string
	TargetURL        string
	AttachedWorkflow bool
}

// MigrationLedger records completed migrations, at most one row per source URL.
type MigrationLedger struct {
	file   *appendFile
	logger *zap.Logger
}

// NewMigrationLedger constructs a MigrationLedger stored at path.
func NewMigrationLedger(fileSystem afero.Fs, path string, logger *zap.Logger) (*MigrationLedger, error) {
	file, fileError := newAppendFile(fileSystem, path, []string{sourceURLHeaderConstant, targetURLHeaderConstant, workflowHeaderConstant})
	if fileError != nil {
		return nil, fileError
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationLedger{file: file, logger: logger}, nil
}

// Record appends the migration unless sourceURL is already present. The boolean
// result reports whether a row was written.
func (ledger *MigrationLedger) Record(sourceURL string, targetURL string, attachedWorkflow bool) (bool, error) {
	ledger.file.guard.Lock()
	defer ledger.file.guard.Unlock()

	existingRecords, readError := ledger.entriesLocked()
	if readError != nil {
		return false, readError
	}
	for _, existingRecord := range existingRecords {
		if existingRecord.SourceURL == sourceURL {
			ledger.logger.Info(duplicateSkippedMessageConstant, zap.String(logFieldSourceConstant, sourceURL), zap.String(logFieldLedgerConstant, ledger.file.path))
			return false, nil
		}
	}

	workflowValue := workflowDetachedValueConstant
	if attachedWorkflow {
		workflowValue = workflowAttachedValueConstant
	}
	if appendError := ledger.file.appendRows([]string{sourceURL, targetURL, workflowValue}); appendError != nil {
		return false, appendError
	}
	ledger.logger.Info(migrationLoggedMessageConstant, zap.String(logFieldSourceConstant, sourceURL), zap.String(logFieldTargetConstant, targetURL))
	return true, nil
}

// Entries returns the recorded migrations in file order.
func (ledger *MigrationLedger) Entries() ([]MigrationRecord, error) {
	ledger.file.guard.Lock()
	defer ledger.file.guard.Unlock()
	return ledger.entriesLocked()
}

func (ledger *MigrationLedger) entriesLocked() ([]MigrationRecord, error) {
	rows, readError := ledger.file.readRows()
	if readError != nil {
		return nil, readError
	}
	records := make([]MigrationRecord, 0, len(rows))
	for _, row := range rows {
		record := MigrationRecord{}
		if len(row) > 0 {
			record.SourceURL = row[0]
		}
		if len(row) > 1 {
			record.TargetURL = row[1]
		}
		if len(row) > 2 {
			attached, parseError := strconv.ParseBool(strings.TrimSpace(row[2]))
			record.AttachedWorkflow = parseError == nil && attached
		}
		records = append(records, record)
	}
	return records, nil
}

// NormalizeTarget reduces a target remote on host to org/name. Anything else only
// loses a trailing .git.
func NormalizeTarget(targetURL string, host string) string {
	return gitrepo.OwnerRepository(targetURL, host)
}

// TargetLog is a plain-text list of migrated targets, one org/name per line.
// Duplicates are kept.
type TargetLog struct {
	file   *appendFile
	host   string
	logger *zap.Logger
}

// NewTargetLog constructs a TargetLog stored at path for targets on host.
func NewTargetLog(fileSystem afero.Fs, path string, host string, logger *zap.Logger) (*TargetLog, error) {
	file, fileError := newAppendFile(fileSystem, path, nil)
	if fileError != nil {
		return nil, fileError
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TargetLog{file: file, host: host, logger: logger}, nil
}

// Record appends the normalized form of targetURL and returns it.
func (targetLog *TargetLog) Record(targetURL string) (string, error) {
	normalizedTarget := NormalizeTarget(targetURL, targetLog.host)

	targetLog.file.guard.Lock()
	defer targetLog.file.guard.Unlock()

	if appendError := targetLog.file.appendBytes([]byte(normalizedTarget + targetLineTerminatorConstant)); appendError != nil {
		return "", appendError
	}
	targetLog.logger.Info(targetLoggedMessageConstant, zap.String(logFieldTargetConstant, normalizedTarget), zap.String(logFieldLedgerConstant, targetLog.file.path))
	return normalizedTarget, nil
}
