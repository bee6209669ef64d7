package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	repositoryNameHeaderConstant  = "repo_name"
	primaryLanguageHeaderConstant = "primary_language"
	buildSystemHeaderConstant     = "build_system"
	branchCountHeaderConstant     = "branch_count"
	repositorySizeHeaderConstant  = "repo_size"
	branchesHeaderConstant        = "branches"
	runIdentifierHeaderConstant   = "run_id"
	repositoryHeaderConstant      = "repository"
	stageHeaderConstant           = "stage"
	errorHeaderConstant           = "error"
	recordedAtHeaderConstant      = "recorded_at"
	branchSeparatorConstant       = ", "
)

// PreMigrationRecord is one row of the inventory ledger.
type PreMigrationRecord struct {
	RepositoryName  string
	PrimaryLanguage string
	BuildSystem     string
	BranchCount     int
	SizeKB          int64
	Branches        []string
}

// PreMigrationLedger appends inventory rows without uniqueness checks.
type PreMigrationLedger struct {
	file *appendFile
}

// NewPreMigrationLedger constructs a PreMigrationLedger stored at path.
func NewPreMigrationLedger(fileSystem afero.Fs, path string) (*PreMigrationLedger, error) {
	file, fileError := newAppendFile(fileSystem, path, []string{
		repositoryNameHeaderConstant,
		primaryLanguageHeaderConstant,
		buildSystemHeaderConstant,
		branchCountHeaderConstant,
		repositorySizeHeaderConstant,
		branchesHeaderConstant,
	})
	if fileError != nil {
		return nil, fileError
	}
	return &PreMigrationLedger{file: file}, nil
}

// Record appends one inventory row.
func (ledger *PreMigrationLedger) Record(record PreMigrationRecord) error {
	ledger.file.guard.Lock()
	defer ledger.file.guard.Unlock()

	return ledger.file.appendRows([]string{
		record.RepositoryName,
		record.PrimaryLanguage,
		record.BuildSystem,
		strconv.Itoa(record.BranchCount),
		strconv.FormatInt(record.SizeKB, 10),
		strings.Join(record.Branches, branchSeparatorConstant),
	})
}

// FailureRecord describes a repository whose migration was aborted.
type FailureRecord struct {
	RunID      string
	Repository string
	Stage      string
	Error      string
	RecordedAt time.Time
}

// FailureLedger appends one row per aborted repository.
type FailureLedger struct {
	file *appendFile
}

// NewFailureLedger constructs a FailureLedger stored at path.
func NewFailureLedger(fileSystem afero.Fs, path string) (*FailureLedger, error) {
	file, fileError := newAppendFile(fileSystem, path, []string{
		runIdentifierHeaderConstant,
		repositoryHeaderConstant,
		stageHeaderConstant,
		errorHeaderConstant,
		recordedAtHeaderConstant,
	})
	if fileError != nil {
		return nil, fileError
	}
	return &FailureLedger{file: file}, nil
}

// Record appends the failure. RecordedAt is rendered in UTC as RFC 3339.
func (ledger *FailureLedger) Record(record FailureRecord) error {
	ledger.file.guard.Lock()
	defer ledger.file.guard.Unlock()

	return ledger.file.appendRows([]string{
		record.RunID,
		record.Repository,
		record.Stage,
		record.Error,
		record.RecordedAt.UTC().Format(time.RFC3339),
	})
}
