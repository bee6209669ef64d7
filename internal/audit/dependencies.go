package audit

import (
	"context"

	"github.com/temirov/gitmigrate/internal/buildsystem"
	"github.com/temirov/gitmigrate/internal/ledger"
)

// RepositoryDetector classifies a repository through the hosting API.
type RepositoryDetector interface {
	Detect(executionContext context.Context, repository string) (buildsystem.Result, error)
}

// BranchLister enumerates the branches of a repository.
type BranchLister interface {
	ListBranches(executionContext context.Context, repository string) ([]string, error)
}

// InventoryRecorder appends rows to the pre-migration ledger.
type InventoryRecorder interface {
	Record(record ledger.PreMigrationRecord) error
}

// StatusReporter prints user-facing status lines.
type StatusReporter interface {
	Info(format string, arguments ...any)
	Success(format string, arguments ...any)
	Warning(format string, arguments ...any)
	Failure(format string, arguments ...any)
}
